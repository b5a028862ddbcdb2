package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/analytics"
	"github.com/trezcool/mansa/core/qa"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
)

type DeleteContentRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type adminApi struct {
	*handler
	users     *user.Service
	config    *sysconfig.Service
	qa        *qa.Service
	analytics *analytics.Service
}

// registerAdminAPI expects g to be restricted to admins already.
func registerAdminAPI(g *echo.Group, deps ServerDeps, h *handler) {
	api := adminApi{
		handler:   h,
		users:     deps.UserSvc,
		config:    deps.ConfigSvc,
		qa:        deps.QASvc,
		analytics: deps.AnalyticsSvc,
	}

	g.GET("/banned-words", api.bannedWords)
	g.POST("/banned-words", api.setBannedWords)
	g.POST("/block-user", api.blockUser)
	g.POST("/unblock-user", api.unblockUser)
	g.GET("/users/pending", api.pendingUsers)
	g.POST("/users/:userId/approve", api.approveUser)
	g.POST("/users/:userId/reject", api.rejectUser)
	g.GET("/moderation-feed", api.moderationFeed)
	g.POST("/delete-content", api.deleteContent)
	g.GET("/logs", api.logs)
	g.GET("/reports", api.reports)
}

func (api *adminApi) bannedWords(ctx echo.Context) error {
	words, err := api.config.BannedWords(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"words": words})
}

func (api *adminApi) setBannedWords(ctx echo.Context) error {
	var data sysconfig.BannedWords
	if err := bind(ctx, &data); err != nil {
		return err
	}
	words, err := api.config.SetBannedWords(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting banned words")
	}
	api.record(ctx, activity.ActionSetBannedWords, map[string]interface{}{"count": len(words)})
	return ctx.JSON(http.StatusOK, echo.Map{"words": words})
}

func (api *adminApi) setBlocked(ctx echo.Context, blocked bool) error {
	var data UserRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.users.SetBlocked(ctx.Request().Context(), contextUser(ctx), data.UserID, blocked)
	if err != nil {
		return errors.Wrap(err, "setting blocked flag")
	}

	action, msg := activity.ActionUnblockUser, "User unblocked"
	if blocked {
		action, msg = activity.ActionBlockUser, "User blocked"
	}
	api.record(ctx, action, map[string]interface{}{"target_id": usr.ID})
	return success(ctx, msg)
}

func (api *adminApi) blockUser(ctx echo.Context) error {
	return api.setBlocked(ctx, true)
}

func (api *adminApi) unblockUser(ctx echo.Context) error {
	return api.setBlocked(ctx, false)
}

func (api *adminApi) pendingUsers(ctx echo.Context) error {
	users, err := api.users.Pending(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) approveUser(ctx echo.Context) error {
	usr, err := api.users.Approve(ctx.Request().Context(), ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "approving user")
	}
	api.record(ctx, activity.ActionApproveUser, map[string]interface{}{"target_id": usr.ID, "email": usr.Email})
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) rejectUser(ctx echo.Context) error {
	id := ctx.Param("userId")
	if err := api.users.Reject(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "rejecting user")
	}
	api.record(ctx, activity.ActionRejectUser, map[string]interface{}{"target_id": id})
	return success(ctx, "User rejected")
}

func (api *adminApi) moderationFeed(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	items, info, err := api.qa.ModerationFeed(ctx.Request().Context(), ctx.QueryParam("search"), page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("questions", items, info))
}

func (api *adminApi) deleteContent(ctx echo.Context) error {
	var data DeleteContentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.qa.DeleteContent(ctx.Request().Context(), data.Type, data.ID); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	api.record(ctx, activity.ActionDeleteContent, map[string]interface{}{"type": data.Type, "id": data.ID})
	return success(ctx, "Content deleted")
}

func (api *adminApi) logs(ctx echo.Context) error {
	if api.activity == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "activity log unavailable")
	}
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	filter := activity.QueryFilter{Search: ctx.QueryParam("search"), Action: ctx.QueryParam("action")}
	logs, info, err := api.activity.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("logs", logs, info))
}

func (api *adminApi) reports(ctx echo.Context) error {
	report, err := api.analytics.Report(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}
