package post

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
)

var (
	// errors
	ErrNotFound     = errors.New("post not found")
	ErrInvalidGroup = errors.New("group_id is invalid")
	ErrNotCreated   = errors.New("Post was not created successfully")

	NowFunc = time.Now // mockable
)

const msgCreated = "Post created successfully"

type (
	Repository interface {
		InsertPost(ctx context.Context, pst Post) (Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		// QueryPosts returns the posts matching filter, newest first.
		QueryPosts(ctx context.Context, filter QueryFilter, skip, limit int) ([]Post, error)
		UpdatePost(ctx context.Context, id string, patch Patch) (int64, error)
		DeletePost(ctx context.Context, id string) (int64, error)
		// AddViewer adds username to the post's viewers if absent.
		AddViewer(ctx context.Context, id, username string) (int64, error)
		// SeedAcknowledgement adds an unset acknowledgement for username if none exists.
		SeedAcknowledgement(ctx context.Context, id, username string) (int64, error)
		// SetResponse sets the response of username's existing acknowledgement.
		SetResponse(ctx context.Context, id, username string, response bool) (int64, error)
	}

	// Membership resolves the groups a user can access.
	Membership interface {
		GroupsOf(ctx context.Context, username string) ([]string, error)
	}

	// Directory resolves the display names of users.
	Directory interface {
		DisplayNames(ctx context.Context, usernames []string) (map[string]string, error)
	}

	// Service is the post visibility & acknowledgement engine.
	Service struct {
		repo    Repository
		members Membership
		groups  group.Repository
		users   Directory
		logger  core.Logger
	}
)

func NewService(
	repo Repository,
	members Membership,
	grpRepo group.Repository,
	users Directory,
	logger core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		members: members,
		groups:  grpRepo,
		users:   users,
		logger:  logger,
	}
}

func (svc *Service) logResult(msg string, res core.Result) bool {
	if res.Err != nil {
		svc.logger.Error(msg, res.Err)
	}
	return res.OK()
}

// List returns a page of the posts visible to username, newest first.
// With todoOnly, posts already viewed by username are left out.
func (svc *Service) List(ctx context.Context, username string, page int, todoOnly bool) ([]Summary, error) {
	filter := QueryFilter{}
	if todoOnly {
		filter.NotViewedBy = username
	}
	return svc.query(ctx, username, filter, page)
}

// Search does a full-text search over the titles & bodies of the posts visible to username.
func (svc *Service) Search(ctx context.Context, username, query string, page int) ([]Summary, error) {
	query = core.CleanString(query)
	if query == "" {
		return []Summary{}, nil
	}
	return svc.query(ctx, username, QueryFilter{Search: query}, page)
}

func (svc *Service) query(ctx context.Context, username string, filter QueryFilter, page int) ([]Summary, error) {
	groupIDs, err := svc.members.GroupsOf(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "resolving groups")
	}
	if len(groupIDs) == 0 {
		return []Summary{}, nil
	}
	filter.GroupIDs = groupIDs

	skip, limit := core.Page(page)
	posts, err := svc.repo.QueryPosts(ctx, filter, skip, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	return svc.summarize(ctx, username, posts)
}

func (svc *Service) summarize(ctx context.Context, username string, posts []Post) ([]Summary, error) {
	if len(posts) == 0 {
		return []Summary{}, nil
	}

	authorIDs := make([]string, 0, len(posts))
	groupIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
		groupIDs = append(groupIDs, p.GroupID)
	}
	authorNames, err := svc.users.DisplayNames(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	groups, err := svc.groups.QueryGroups(ctx, group.QueryFilter{IDs: groupIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	summaries := make([]Summary, 0, len(posts))
	for _, p := range posts {
		ack, _ := p.AcknowledgementOf(username)
		summaries = append(summaries, Summary{
			ID:                      p.ID,
			Title:                   p.Title,
			Body:                    p.Body,
			DateCreated:             p.DateCreated,
			DateDue:                 p.DateDue,
			Location:                p.Location,
			RequiresAcknowledgement: p.RequiresAcknowledgement,
			AuthorName:              authorNames[p.AuthorID],
			GroupName:               groupNames[p.GroupID],
			Viewed:                  p.ViewedBy(username),
			Acknowledged:            ack,
		})
	}
	return summaries, nil
}

// Get returns the post with the response state of every current member of its group.
// A deleted group yields an empty group name and no responses.
func (svc *Service) Get(ctx context.Context, id string) (Detail, error) {
	pst, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	grp, err := svc.groups.GetGroup(ctx, pst.GroupID)
	if err != nil {
		if errors.Cause(err) != group.ErrNotFound {
			return Detail{}, errors.Wrap(err, "finding group")
		}
		grp = group.Group{}
	}
	authorNames, err := svc.users.DisplayNames(ctx, []string{pst.AuthorID})
	if err != nil {
		return Detail{}, err
	}

	responses := make(map[string]ResponseState, len(grp.Members))
	for _, member := range grp.Members {
		ack, _ := pst.AcknowledgementOf(member)
		responses[member] = ResponseState{
			Viewed:       pst.ViewedBy(member),
			Acknowledged: ack,
			AckRequired:  pst.RequiresAcknowledgement,
		}
	}

	return Detail{
		ID:                      pst.ID,
		Title:                   pst.Title,
		Body:                    pst.Body,
		GroupID:                 pst.GroupID,
		AuthorID:                pst.AuthorID,
		DateCreated:             pst.DateCreated,
		DateDue:                 pst.DateDue,
		Location:                pst.Location,
		RequiresAcknowledgement: pst.RequiresAcknowledgement,
		AuthorName:              authorNames[pst.AuthorID],
		GroupName:               grp.Name,
		Responses:               responses,
	}, nil
}

// GetFor is Get restricted to the posts of username's groups; others are reported as ErrNotFound.
func (svc *Service) GetFor(ctx context.Context, username, id string) (Detail, error) {
	detail, err := svc.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	groupIDs, err := svc.members.GroupsOf(ctx, username)
	if err != nil {
		return Detail{}, errors.Wrap(err, "resolving groups")
	}
	for _, gid := range groupIDs {
		if gid == detail.GroupID {
			return detail, nil
		}
	}
	return Detail{}, ErrNotFound
}

// Create creates a post authored by author and returns its ID.
// Errors: *MissingFieldsError, ErrInvalidGroup, ErrNotCreated (storage failure, logged)
// or a wrapped error when the group could not be looked up.
func (svc *Service) Create(ctx context.Context, author string, np NewPost) (string, error) {
	if missing := np.MissingFields(); len(missing) > 0 {
		return "", &MissingFieldsError{Fields: missing}
	}
	np.Clean()

	if _, err := svc.groups.GetGroup(ctx, *np.GroupID.Value); err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return "", ErrInvalidGroup
		}
		return "", errors.Wrap(err, "finding group")
	}

	pst := Post{
		Title:                   *np.Title.Value,
		Body:                    *np.Body.Value,
		GroupID:                 *np.GroupID.Value,
		AuthorID:                author,
		DateCreated:             NowFunc().Unix(),
		DateDue:                 np.DateDue.Value,
		Location:                np.Location.Value,
		RequiresAcknowledgement: *np.RequiresAcknowledgement.Value,
		Viewed:                  []string{},
		Acknowledged:            []Acknowledgement{},
	}
	pst, err := svc.repo.InsertPost(ctx, pst)
	if err != nil {
		svc.logger.Error("creating post", errors.Wrap(err, "inserting post"))
		return "", ErrNotCreated
	}
	return pst.ID, nil
}

// CreateOutcome translates the error returned by Create into an (ok, message) pair.
func CreateOutcome(err error) (bool, string) {
	if err == nil {
		return true, msgCreated
	}
	cause := errors.Cause(err)
	if mfe, ok := cause.(*MissingFieldsError); ok {
		return false, mfe.Error()
	}
	if cause == ErrInvalidGroup {
		return false, ErrInvalidGroup.Error()
	}
	return false, ErrNotCreated.Error()
}

// Update replaces the patch's set fields; true iff the post was modified.
func (svc *Service) Update(ctx context.Context, id string, patch Patch) bool {
	if patch.IsEmpty() {
		return false
	}
	n, err := svc.repo.UpdatePost(ctx, id, patch)
	return svc.logResult("updating post", core.Result{Affected: n, Err: err})
}

func (svc *Service) Delete(ctx context.Context, id string) bool {
	n, err := svc.repo.DeletePost(ctx, id)
	return svc.logResult("deleting post", core.Result{Affected: n, Err: err})
}

// View marks the post as viewed by username; false if it already was.
// On a first view of a post requiring acknowledgement, an unset acknowledgement is seeded.
func (svc *Service) View(ctx context.Context, username, id string) bool {
	n, err := svc.repo.AddViewer(ctx, id, username)
	if !svc.logResult("adding post viewer", core.Result{Affected: n, Err: err}) {
		return false
	}

	pst, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		svc.logger.Error("finding viewed post", errors.Wrap(err, "seeding acknowledgement"))
		return true
	}
	if pst.RequiresAcknowledgement {
		if _, err = svc.repo.SeedAcknowledgement(ctx, id, username); err != nil {
			svc.logger.Error("seeding acknowledgement", err)
		}
	}
	return true
}

// Respond records username's response; false if username has not viewed the post yet
// or already gave the same response.
func (svc *Service) Respond(ctx context.Context, username, id string, response bool) bool {
	n, err := svc.repo.SetResponse(ctx, id, username, response)
	return svc.logResult("responding to post", core.Result{Affected: n, Err: err})
}

// DownloadResponses returns one row per member of the post's group, in member order.
func (svc *Service) DownloadResponses(ctx context.Context, id string) ([]ResponseRow, error) {
	pst, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	grp, err := svc.groups.GetGroup(ctx, pst.GroupID)
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return []ResponseRow{}, nil
		}
		return nil, errors.Wrap(err, "finding group")
	}

	rows := make([]ResponseRow, 0, len(grp.Members))
	for _, member := range grp.Members {
		ack, _ := pst.AcknowledgementOf(member)
		rows = append(rows, ResponseRow{
			Username:    member,
			Viewed:      pst.ViewedBy(member),
			Response:    ack,
			AckRequired: pst.RequiresAcknowledgement,
		})
	}
	return rows, nil
}
