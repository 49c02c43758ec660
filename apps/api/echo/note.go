package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/grading"
)

type noteApi struct {
	store Store
}

func registerNoteAPI(notes, bulletins *echo.Group, store Store) {
	api := noteApi{store: store}

	notes.GET("", api.query)
	notes.POST("", api.create)
	dg := notes.Group("/:id", idMiddleware)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	bulletins.GET("", api.queryBulletins)
	bulletins.GET("/:matricule", api.retrieveBulletin)
}

func (api *noteApi) query(ctx echo.Context) error {
	pq := bindPage(ctx)
	matricule := strings.ToUpper(strings.TrimSpace(ctx.QueryParam("matricule")))
	return pageJSON(ctx, api.store.ListNotes(pq.Page, pq.Limit, matricule))
}

func (api *noteApi) create(ctx echo.Context) error {
	var data grading.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	n, err := api.store.CreateNote(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noteApi) update(ctx echo.Context) error {
	var data grading.UpdateNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNote")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	n, err := api.store.UpdateNote(contextID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) destroy(ctx echo.Context) error {
	if err := api.store.DeleteNote(contextID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noteApi) queryBulletins(ctx echo.Context) error {
	pq := bindPage(ctx)
	return pageJSON(ctx, api.store.ListBulletins(pq.Page, pq.Limit))
}

func (api *noteApi) retrieveBulletin(ctx echo.Context) error {
	b, err := api.store.GetBulletin(strings.ToUpper(ctx.Param("matricule")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, b)
}
