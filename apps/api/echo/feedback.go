package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/feedback"
)

type feedbackApi struct {
	store Store
}

func registerFeedbackAPI(g *echo.Group, authed []echo.MiddlewareFunc, store Store) {
	api := feedbackApi{store: store}

	// seminarists post their evaluation without an account
	g.POST("", api.create)

	g.GET("", api.query, authed...)
	g.DELETE("/:id", api.destroy, append(authed, idMiddleware)...)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	pq := bindPage(ctx)
	return pageJSON(ctx, api.store.ListFeedbacks(pq.Page, pq.Limit))
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.store.CreateFeedback(data))
}

func (api *feedbackApi) destroy(ctx echo.Context) error {
	if err := api.store.DeleteFeedback(contextID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
