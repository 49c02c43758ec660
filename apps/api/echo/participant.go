package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/seminarist"
)

type participantApi struct {
	store Store
}

func registerParticipantAPI(g *echo.Group, store Store) {
	api := participantApi{store: store}

	g.GET("", api.query)
	g.POST("", api.create)

	dg := g.Group("/:id", idMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.replace)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *participantApi) query(ctx echo.Context) error {
	pq := bindPage(ctx)
	return pageJSON(ctx, api.store.ListParticipants(pq.Page, pq.Limit))
}

func (api *participantApi) create(ctx echo.Context) error {
	var data seminarist.NewParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticipant")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.store.CreateParticipant(data))
}

func (api *participantApi) retrieve(ctx echo.Context) error {
	p, err := api.store.GetParticipant(contextID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) replace(ctx echo.Context) error {
	var data seminarist.NewParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticipant")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	p, err := api.store.ReplaceParticipant(contextID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) update(ctx echo.Context) error {
	var data seminarist.UpdateParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParticipant")
	}
	if data.IsEmpty() {
		return errNothingToEdit
	}
	if err := data.Validate(); err != nil {
		return err
	}
	p, err := api.store.UpdateParticipant(contextID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) destroy(ctx echo.Context) error {
	if err := api.store.DeleteParticipant(contextID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
