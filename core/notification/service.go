package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
)

const (
	newPostTemplate = "new_post"
	dateDueLayout   = "Mon 02 Jan 2006, 15:04"
)

// goFunc runs post notifications in the background.
var goFunc = func(f func()) { go f() } // mockable

type (
	// Service is the notification dispatch: it reaches group members by push, or e-mail
	// when they have not registered a device.
	Service struct {
		posts   post.Repository
		groups  group.Repository
		users   user.Repository
		push    core.PushService
		email   core.EmailService
		logger  core.Logger
		timeout time.Duration
	}

	newPostData struct {
		GroupName               string
		Title                   string
		Body                    string
		Location                string
		DateDue                 string
		RequiresAcknowledgement bool
	}
)

func NewService(
	postRepo post.Repository,
	grpRepo group.Repository,
	usrRepo user.Repository,
	push core.PushService,
	email core.EmailService,
	logger core.Logger,
	timeout time.Duration,
) *Service {
	return &Service{
		posts:   postRepo,
		groups:  grpRepo,
		users:   usrRepo,
		push:    push,
		email:   email,
		logger:  logger,
		timeout: timeout,
	}
}

// Notify sends title & body to every token in one batch; true iff the push service accepted it.
func (svc *Service) Notify(ctx context.Context, tokens []string, title, body string) bool {
	msg := core.PushMessage{Tokens: core.CleanStrings(tokens), Title: title, Body: body}
	if !msg.HasRecipients() {
		return false
	}
	return svc.push.Notify(ctx, msg)
}

// NotifyPost notifies the members of the post's group in the background.
// Only the post & group lookups are awaited; delivery is best-effort and never retried.
func (svc *Service) NotifyPost(ctx context.Context, postID string) error {
	pst, err := svc.posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	grp, err := svc.groups.GetGroup(ctx, pst.GroupID)
	if err != nil {
		return err
	}
	goFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), svc.timeout)
		defer cancel()
		if err := svc.dispatch(ctx, pst, grp); err != nil {
			svc.logger.Error("notifying post", err)
		}
	})
	return nil
}

func (svc *Service) dispatch(ctx context.Context, pst post.Post, grp group.Group) error {
	users, err := svc.users.QueryUsers(ctx, grp.Members)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}

	seen := make(map[string]bool, len(users))
	var tokens []string
	var emails []mail.Address
	for _, u := range users {
		if seen[u.Username] {
			continue
		}
		seen[u.Username] = true
		switch {
		case u.PushToken != "":
			tokens = append(tokens, u.PushToken)
		case u.Email != "":
			emails = append(emails, mail.Address{Name: u.Name, Address: u.Email})
		}
	}

	if len(tokens) > 0 && !svc.Notify(ctx, tokens, pst.Title, pst.Body) {
		svc.logger.Warn("push notification rejected", map[string]interface{}{"post": pst.ID, "tokens": len(tokens)})
	}
	if len(emails) > 0 {
		svc.email.SendMessages(&core.EmailMessage{
			Bcc:          emails,
			Subject:      pst.Title,
			TemplateName: newPostTemplate,
			TemplateData: newPostTemplateData(pst, grp),
		})
	}
	return nil
}

func newPostTemplateData(pst post.Post, grp group.Group) newPostData {
	data := newPostData{
		GroupName:               grp.Name,
		Title:                   pst.Title,
		Body:                    pst.Body,
		RequiresAcknowledgement: pst.RequiresAcknowledgement,
	}
	if pst.Location != nil {
		data.Location = *pst.Location
	}
	if pst.DateDue != nil {
		data.DateDue = time.Unix(*pst.DateDue, 0).UTC().Format(dateDueLayout)
	}
	return data
}
