package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/notification"
	"github.com/students-gateway/gateway/core/post"
)

type postApi struct {
	svc      *post.Service
	notifSvc *notification.Service
	validate *validator.Validate
}

func registerPostAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *post.Service,
	notifSvc *notification.Service,
	validate *validator.Validate,
) {
	api := postApi{
		svc:      svc,
		notifSvc: notifSvc,
		validate: validate,
	}

	pg := g.Group("/posts", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, adminMiddleware())

	// detail endpoints
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update, adminMiddleware())
	pg.DELETE("/:id", api.destroy, adminMiddleware())
	pg.POST("/:id/view", api.view)
	pg.POST("/:id/respond", api.respond)
	pg.GET("/:id/responses", api.downloadResponses, adminMiddleware())
	pg.POST("/:id/notify", api.notify, adminMiddleware())
}

// Handlers

func (api *postApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var params PostsQuery
	if err = bind(ctx, nil, &params); err != nil {
		return err
	}

	var summaries []post.Summary
	if params.Query != "" {
		summaries, err = api.svc.Search(ctx.Request().Context(), claims.Subject, params.Query, params.Page)
	} else {
		summaries, err = api.svc.List(ctx.Request().Context(), claims.Subject, params.Page, params.Todo)
	}
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *postApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data post.NewPost
	if err = bind(ctx, nil, &data); err != nil {
		return err
	}

	id, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	ok, msg := post.CreateOutcome(err)
	res := ResultResponse{Success: ok, Message: msg, ID: id}
	switch {
	case ok:
		return ctx.JSON(http.StatusCreated, res)
	case errors.Cause(err) == post.ErrNotCreated:
		return ctx.JSON(http.StatusInternalServerError, res)
	}

	var mfe *post.MissingFieldsError
	if errors.As(err, &mfe) || errors.Cause(err) == post.ErrInvalidGroup {
		return ctx.JSON(http.StatusBadRequest, res)
	}
	return errors.Wrap(err, "creating post")
}

// retrieve gives admins any post, students only the posts of their groups.
func (api *postApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var detail post.Detail
	if claims.IsAdmin() {
		detail, err = api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	} else {
		detail, err = api.svc.GetFor(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	}
	if err != nil {
		return errors.Wrap(err, "finding post")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.Patch
	if err := bind(ctx, api.validate, &data); err != nil {
		return err
	}
	ok := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *postApi) destroy(ctx echo.Context) error {
	ok := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *postApi) view(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ok := api.svc.View(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *postApi) respond(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data RespondRequest
	if err = bind(ctx, api.validate, &data); err != nil {
		return err
	}
	ok := api.svc.Respond(ctx.Request().Context(), claims.Subject, ctx.Param("id"), *data.Response)
	return ctx.JSON(http.StatusOK, ResultResponse{Success: ok})
}

func (api *postApi) downloadResponses(ctx echo.Context) error {
	id := ctx.Param("id")
	rows, err := api.svc.DownloadResponses(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "exporting responses")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "responses-"+id+".csv"))
	res.WriteHeader(http.StatusOK)
	return errors.Wrap(post.WriteResponsesCSV(res, rows), "writing csv")
}

func (api *postApi) notify(ctx echo.Context) error {
	if err := api.notifSvc.NotifyPost(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return ctx.JSON(http.StatusBadRequest, ResultResponse{Message: post.ErrInvalidGroup.Error()})
		}
		return errors.Wrap(err, "notifying post")
	}
	return ctx.JSON(http.StatusAccepted, ResultResponse{Success: true})
}
