package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/analytics"
)

type analyticsApi struct {
	svc *analytics.Service
}

func registerAnalyticsAPI(g *echo.Group, svc *analytics.Service) {
	api := analyticsApi{svc: svc}

	g.GET("", api.dashboard)
}

// dashboard renders the dashboard matching the user's role.
func (api *analyticsApi) dashboard(ctx echo.Context) error {
	var (
		data interface{}
		err  error
	)
	reqCtx := ctx.Request().Context()
	switch usr := contextUser(ctx); {
	case usr.IsStudent():
		data, err = api.svc.Student(reqCtx, usr)
	case usr.IsTeacher():
		data, err = api.svc.Teacher(reqCtx, usr)
	case usr.IsAdmin():
		data, err = api.svc.Admin(reqCtx)
	default:
		return errHttpForbidden
	}
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, data)
}
