package group

import (
	"context"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
)

var ErrNotFound = errors.New("group not found")

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		QueryGroups(ctx context.Context, filter QueryFilter) ([]Group, error)
		// GroupIDsWithUser returns the IDs of the groups where username is an owner or a member.
		GroupIDsWithUser(ctx context.Context, username string) ([]string, error)
		UpdateGroup(ctx context.Context, id string, patch Patch) (int64, error)
		DeleteGroup(ctx context.Context, id string) (int64, error)
		// AddMember appends username to the group's members, even if already present.
		AddMember(ctx context.Context, id, username string) (int64, error)
	}

	// Service is the group directory & the membership resolver.
	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) logResult(msg string, res core.Result) bool {
	if res.Err != nil {
		svc.logger.Error(msg, res.Err)
	}
	return res.OK()
}

// GroupsOf returns the IDs of the groups username can access.
func (svc *Service) GroupsOf(ctx context.Context, username string) ([]string, error) {
	ids, err := svc.repo.GroupIDsWithUser(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups with user")
	}
	return ids, nil
}

// ListForUser returns the groups username owns or belongs to.
func (svc *Service) ListForUser(ctx context.Context, username string) ([]Group, error) {
	groups, err := svc.repo.QueryGroups(ctx, QueryFilter{User: username})
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	return groups, nil
}

// Create creates a group and returns its ID.
func (svc *Service) Create(ctx context.Context, owners []string, name string, members []string) (string, bool) {
	ng := NewGroup{Name: name, Owners: owners, Members: members}
	ng.Clean()
	if ng.Members == nil {
		ng.Members = []string{}
	}
	grp, err := svc.repo.CreateGroup(ctx, Group{Name: ng.Name, Owners: ng.Owners, Members: ng.Members})
	if err != nil {
		svc.logger.Error("creating group", errors.Wrap(err, "inserting group"))
		return "", false
	}
	return grp.ID, true
}

func (svc *Service) Get(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

// Update replaces the patch's set fields; true iff the group was modified.
// A patch leaving the group without owners is refused.
func (svc *Service) Update(ctx context.Context, id string, patch Patch) bool {
	if patch.IsEmpty() || patch.DropsOwners() {
		return false
	}
	if patch.Name != nil {
		name := core.CleanString(*patch.Name)
		patch.Name = &name
	}
	if patch.Owners != nil {
		patch.Owners = core.CleanStrings(patch.Owners, true /* lower */)
	}
	if patch.Members != nil {
		patch.Members = core.CleanStrings(patch.Members, true /* lower */)
	}
	n, err := svc.repo.UpdateGroup(ctx, id, patch)
	return svc.logResult("updating group", core.Result{Affected: n, Err: err})
}

func (svc *Service) Delete(ctx context.Context, id string) bool {
	n, err := svc.repo.DeleteGroup(ctx, id)
	return svc.logResult("deleting group", core.Result{Affected: n, Err: err})
}

func (svc *Service) AddMember(ctx context.Context, id, username string) bool {
	username = core.CleanString(username, true /* lower */)
	if username == "" {
		return false
	}
	n, err := svc.repo.AddMember(ctx, id, username)
	return svc.logResult("adding group member", core.Result{Affected: n, Err: err})
}

// Search does a full-text search over the names of the groups owned by username.
func (svc *Service) Search(ctx context.Context, username, query string) ([]Group, error) {
	query = core.CleanString(query)
	if query == "" {
		return []Group{}, nil
	}
	groups, err := svc.repo.QueryGroups(ctx, QueryFilter{Owner: username, Search: query})
	if err != nil {
		return nil, errors.Wrap(err, "searching groups")
	}
	return groups, nil
}

// Suggest is Search projected to {label: name, value: id} pairs.
func (svc *Service) Suggest(ctx context.Context, username, query string) ([]Suggestion, error) {
	groups, err := svc.Search(ctx, username, query)
	if err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0, len(groups))
	for _, g := range groups {
		suggestions = append(suggestions, Suggestion{Label: g.Name, Value: g.ID})
	}
	return suggestions, nil
}
