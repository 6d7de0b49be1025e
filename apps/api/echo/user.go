package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/user"
)

var msgUserCreated = "User created successfully"

type userApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *user.Service,
	validate *validator.Validate,
) {
	api := userApi{
		conf:     conf,
		svc:      svc,
		validate: validate,
	}

	// un-authed endpoints
	g.POST("/auth/login", api.login)

	// authed endpoints
	g.POST("/auth/token-refresh", api.refreshToken, jwt)

	ug := g.Group("/users", jwt)
	ug.POST("", api.create, adminMiddleware())
	ug.PUT("/me/push-token", api.setPushToken)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bind(ctx, api.validate, &data); err != nil {
		return err
	}

	ok, role, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	if !ok {
		return errAuthenticationFailed
	}

	token, err := GenerateToken(api.conf, NewClaims(api.conf, core.CleanString(data.Username, true /* lower */), role))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Role: role})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if _, err := api.svc.Create(ctx.Request().Context(), data); err != nil {
		switch errors.Cause(err) {
		case user.ErrUserExists:
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		case user.ErrInvalidRole:
			return core.NewValidationError(err, core.FieldError{Field: "role", Error: err.Error()})
		}
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, ResultResponse{Success: true, Message: msgUserCreated})
}

func (api *userApi) setPushToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data PushTokenRequest
	if err = bind(ctx, api.validate, &data); err != nil {
		return err
	}

	ok := api.svc.SetPushToken(ctx.Request().Context(), claims.Subject, data.Token)
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}
