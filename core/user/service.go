package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrUserExists  = errors.New("a user with this username already exists")
	ErrInvalidRole = errors.New("role must be one of: admin, student")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, username string) (User, error)
		// QueryUsers returns the users matching usernames; unknown usernames are skipped.
		QueryUsers(ctx context.Context, usernames []string) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// Service is the credential store.
	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create creates a user with a freshly salted password.
func (svc *Service) Create(ctx context.Context, nu NewUser) (bool, error) {
	nu.Clean()
	if !ValidRole(nu.Role) {
		return false, ErrInvalidRole
	}
	usr := User{
		Username: nu.Username,
		Name:     nu.Name,
		Email:    nu.Email,
		Role:     nu.Role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return false, errors.Wrap(err, "setting password")
	}
	if _, err := svc.repo.CreateUser(ctx, usr); err != nil {
		if errors.Cause(err) == ErrUserExists {
			return false, ErrUserExists
		}
		return false, errors.Wrap(err, "creating user")
	}
	return true, nil
}

// Authenticate checks username & password against the store; it never writes.
// err is only set when the store could not be read.
func (svc *Service) Authenticate(ctx context.Context, username, password string) (bool, string, error) {
	usr, err := svc.repo.GetUser(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, "", nil
		}
		return false, "", errors.Wrap(err, "finding user")
	}
	if !usr.CheckPassword(password) {
		return false, "", nil
	}
	return true, usr.Role, nil
}

func (svc *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return svc.repo.GetUser(ctx, core.CleanString(username, true /* lower */))
}

// DisplayNames maps the given usernames to their display names.
func (svc *Service) DisplayNames(ctx context.Context, usernames []string) (map[string]string, error) {
	users, err := svc.repo.QueryUsers(ctx, usernames)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.Username] = u.Name
	}
	return names, nil
}

// SetPushToken registers the device token push notifications are sent to.
func (svc *Service) SetPushToken(ctx context.Context, username, token string) bool {
	usr, err := svc.GetByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			svc.logger.Error("finding user", errors.Wrap(err, "setting push token"))
		}
		return false
	}
	usr.PushToken = core.CleanString(token)
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		svc.logger.Error("updating user", errors.Wrap(err, "setting push token"), usr)
		return false
	}
	return true
}

// ResetPassword sets a new salted password for the user.
func (svc *Service) ResetPassword(ctx context.Context, username, password string) error {
	usr, err := svc.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}
