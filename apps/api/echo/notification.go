package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, svc *notification.Service) {
	api := notificationApi{svc: svc}

	g.GET("", api.feed)
	g.PATCH("/read-all", api.markAllRead)
	g.PATCH("/:id/read", api.markRead)
}

func (api *notificationApi) feed(ctx echo.Context) error {
	feed, err := api.svc.Feed(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, feed)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	if err := api.svc.MarkRead(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return success(ctx, "Marked as read")
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	if err := api.svc.MarkAllRead(ctx.Request().Context(), contextUser(ctx)); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return success(ctx, "All marked as read")
}
