package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}

	RegisterResponse struct {
		User    user.User `json:"user"`
		Token   string    `json:"token,omitempty"`
		Message string    `json:"message,omitempty"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

type authApi struct {
	*handler
	svc  *user.Service
	auth *authenticator
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, limiter echo.MiddlewareFunc, auth *authenticator, svc *user.Service, h *handler) {
	api := authApi{handler: h, svc: svc, auth: auth}

	ag := g.Group("/auth")
	ag.POST("/register", api.register, limiter)
	ag.POST("/login", api.login, limiter)
	ag.GET("/me", api.me, authed...)
	ag.POST("/token-refresh", api.refreshToken, authed...)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	api.recordFor(ctx, usr.ID, activity.ActionRegister, map[string]interface{}{"email": usr.Email})

	if !usr.IsActive {
		return ctx.JSON(http.StatusCreated, RegisterResponse{
			User:    usr,
			Message: "Your account is pending approval by an administrator.",
		})
	}
	token, err := api.auth.userToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{User: usr, Token: token})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.userToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.recordFor(ctx, usr.ID, activity.ActionLogin, nil)
	return ctx.JSON(http.StatusOK, LoginResponse{User: usr, Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"user": contextUser(ctx)})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type userApi struct {
	*handler
	svc *user.Service
}

func registerUserAPI(g *echo.Group, svc *user.Service, h *handler) {
	api := userApi{handler: h, svc: svc}

	g.PATCH("/me", api.updateProfile)

	g.GET("/stats", api.stats, adminOnly)
	g.GET("", api.query, adminOnly)
	g.GET("/roles", api.queryRoles, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
	g.PATCH("/:id/role", api.changeRole, adminOnly)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	var data user.UpdateProfile
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.svc.UpdateProfile(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *userApi) query(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	filter := user.QueryFilter{Search: ctx.QueryParam("search"), Role: ctx.QueryParam("role")}

	users, info, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("users", users, info))
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	api.record(ctx, activity.ActionDeleteUser, map[string]interface{}{"target_id": id})
	return success(ctx, "User deleted")
}

func (api *userApi) changeRole(ctx echo.Context) error {
	var data user.ChangeRole
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := ctx.Param("id")
	usr, err := api.svc.ChangeRole(ctx.Request().Context(), contextUser(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "changing role")
	}
	api.record(ctx, activity.ActionChangeRole, map[string]interface{}{"target_id": id, "new_role": usr.Role})
	return ctx.JSON(http.StatusOK, usr)
}
