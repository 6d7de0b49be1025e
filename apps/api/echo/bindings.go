package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role,omitempty"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PushTokenRequest struct {
		Token string `json:"token" validate:"required,notblank"`
	}

	RespondRequest struct {
		Response *bool `json:"response" validate:"required"`
	}

	MemberRequest struct {
		Username string `json:"username" validate:"required,username"`
	}

	// PostsQuery are the query params of the post listing: a non-blank Query searches instead.
	PostsQuery struct {
		Page  int    `query:"page"`
		Todo  bool   `query:"todo"`
		Query string `query:"query"`
	}

	GroupSearchQuery struct {
		Query   string `query:"q"`
		Suggest bool   `query:"suggest"`
	}

	// ResultResponse is the body of the boolean operations.
	ResultResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		ID      string `json:"id,omitempty"` // of the created object
	}
)

// bind binds the request into i, then validates i when validate is set.
func bind(ctx echo.Context, validate *validator.Validate, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return errors.Wrapf(err, "binding to %T", i)
	}
	if validate == nil {
		return nil
	}
	return validate.Struct(i)
}
