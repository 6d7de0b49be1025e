package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
)

var errNoOwners = errors.New("a group needs at least one owner")

type groupApi struct {
	svc      *group.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *group.Service, validate *validator.Validate) {
	api := groupApi{
		svc:      svc,
		validate: validate,
	}

	gg := g.Group("/groups", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create, adminMiddleware())
	gg.GET("/search", api.search)

	// detail endpoints
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, adminMiddleware())
	gg.DELETE("/:id", api.destroy, adminMiddleware())
	gg.POST("/:id/members", api.addMember, adminMiddleware())
}

// Handlers

func (api *groupApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	groups, err := api.svc.ListForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

// create makes the caller the owner when no owners are given.
func (api *groupApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data group.NewGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	data.Clean()
	if len(data.Owners) == 0 {
		data.Owners = []string{claims.Subject}
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	id, ok := api.svc.Create(ctx.Request().Context(), data.Owners, data.Name, data.Members)
	if !ok {
		return ctx.JSON(http.StatusInternalServerError, ResultResponse{Message: "Group was not created successfully"})
	}
	return ctx.JSON(http.StatusCreated, ResultResponse{Success: true, ID: id})
}

// search returns {label, value} suggestions instead of groups when suggest is set.
func (api *groupApi) search(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var params GroupSearchQuery
	if err = bind(ctx, nil, &params); err != nil {
		return err
	}

	if params.Suggest {
		suggestions, err := api.svc.Suggest(ctx.Request().Context(), claims.Subject, params.Query)
		if err != nil {
			return errors.Wrap(err, "suggesting groups")
		}
		return ctx.JSON(http.StatusOK, suggestions)
	}
	groups, err := api.svc.Search(ctx.Request().Context(), claims.Subject, params.Query)
	if err != nil {
		return errors.Wrap(err, "searching groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	grp, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	var data group.Patch
	if err := bind(ctx, api.validate, &data); err != nil {
		return err
	}
	if data.DropsOwners() {
		return core.NewValidationError(errNoOwners, core.FieldError{Field: "owners", Error: errNoOwners.Error()})
	}
	ok := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *groupApi) destroy(ctx echo.Context) error {
	ok := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *groupApi) addMember(ctx echo.Context) error {
	var data MemberRequest
	if err := bind(ctx, api.validate, &data); err != nil {
		return err
	}
	ok := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), data.Username)
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}
