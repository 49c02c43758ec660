package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/account"
)

type userApi struct {
	store Store
}

// every endpoint is admin only
func registerUserAPI(g *echo.Group, store Store) {
	api := userApi{store: store}

	g.Use(adminMiddleware)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/roles", api.queryRoles)

	dg := g.Group("/:id", idMiddleware)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PATCH("/status", api.setStatus)
}

func (api *userApi) query(ctx echo.Context) error {
	pq := bindPage(ctx)
	return pageJSON(ctx, api.store.ListUsers(pq.Page, pq.Limit))
}

func (api *userApi) create(ctx echo.Context) error {
	var data account.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	usr, err := api.store.CreateUser(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := api.store.GetUser(contextID(ctx))
	if err != nil {
		return err
	}

	var data account.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(usr); err != nil {
		return err
	}
	if usr, err = api.store.UpdateUser(usr.ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

// notSelf rejects changes of the requester's own account.
func notSelf(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.ID == contextID(ctx) {
		return errSelfModification
	}
	return nil
}

func (api *userApi) setStatus(ctx echo.Context) error {
	if err := notSelf(ctx); err != nil {
		return err
	}
	var data account.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	usr, err := api.store.SetUserStatus(contextID(ctx), data.IsActive)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	if err := notSelf(ctx); err != nil {
		return err
	}
	if err := api.store.DeleteUser(contextID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, account.Roles)
}
