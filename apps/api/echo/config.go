package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/sysconfig"
)

type configApi struct {
	*handler
	svc *sysconfig.Service
}

func registerConfigAPI(g *echo.Group, svc *sysconfig.Service, h *handler) {
	api := configApi{handler: h, svc: svc}

	g.GET("", api.retrieve)
	g.PATCH("", api.update, adminOnly)
}

func (api *configApi) retrieve(ctx echo.Context) error {
	conf, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *configApi) update(ctx echo.Context) error {
	var data sysconfig.UpdateConfig
	if err := bind(ctx, &data); err != nil {
		return err
	}
	conf, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating system config")
	}
	api.record(ctx, activity.ActionUpdateConfig, data)
	return ctx.JSON(http.StatusOK, conf)
}
