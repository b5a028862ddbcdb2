package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/mansa/core/activity"
)

// handler holds what every API shares.
type handler struct {
	activity *activity.Service
}

// record appends an entry on behalf of the request user to the activity log.
func (h *handler) record(ctx echo.Context, action string, details interface{}) {
	h.recordFor(ctx, contextUser(ctx).ID, action, details)
}

func (h *handler) recordFor(ctx echo.Context, userID, action string, details interface{}) {
	if h.activity != nil {
		h.activity.Record(ctx.Request().Context(), userID, action, details, ctx.RealIP())
	}
}
