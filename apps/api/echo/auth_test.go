package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/services/ratelimit"
)

func Test_authApi_registerAndLogin(t *testing.T) {
	app := setup(t)

	rec := app.do(http.MethodPost, "/api/auth/register", "", user.NewUser{
		Name:     "Jane Doe",
		Email:    "Jane@Test.cd",
		Password: testPassword,
		Role:     user.RoleAdmin,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg RegisterResponse
	decode(t, rec, &reg)
	assert.Equal(t, "jane@test.cd", reg.User.Email)
	assert.Equal(t, user.RoleStudent, reg.User.Role, "role is forced")
	assert.NotEmpty(t, reg.Token)

	t.Run("duplicate email", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/auth/register", "", user.NewUser{Name: "Jane", Email: "jane@test.cd", Password: testPassword})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "jane@test.cd", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, user.ErrInvalidCredentials.Error(), errorOf(t, rec).Error)
	})

	t.Run("login", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: " JANE@test.cd ", Password: testPassword})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		decode(t, rec, &resp)
		assert.Equal(t, reg.User.ID, resp.User.ID)

		rec = app.do(http.MethodGet, "/api/auth/me", resp.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me struct {
			User user.User `json:"user"`
		}
		decode(t, rec, &me)
		assert.Equal(t, "Jane Doe", me.User.Name)
	})

	logs, _, err := app.deps.ActivitySvc.Query(context.Background(), activity.QueryFilter{}, defaultPage())
	require.NoError(t, err)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, activity.ActionRegister)
	assert.Contains(t, actions, activity.ActionLogin)
}

func Test_authApi_registerPendingApproval(t *testing.T) {
	app := setup(t)
	_, err := app.deps.ConfigSvc.Update(context.Background(), sysconfig.UpdateConfig{RequireApproval: boolPtr(true)})
	require.NoError(t, err)

	rec := app.do(http.MethodPost, "/api/auth/register", "", user.NewUser{Name: "Jane", Email: "jane@test.cd", Password: testPassword})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg RegisterResponse
	decode(t, rec, &reg)
	assert.Empty(t, reg.Token)
	assert.False(t, reg.User.IsActive)
	assert.NotEmpty(t, reg.Message)

	rec = app.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "jane@test.cd", Password: testPassword})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_authApi_registrationClosed(t *testing.T) {
	app := setup(t)
	_, err := app.deps.ConfigSvc.Update(context.Background(), sysconfig.UpdateConfig{AllowRegistration: boolPtr(false)})
	require.NoError(t, err)

	rec := app.do(http.MethodPost, "/api/auth/register", "", user.NewUser{Name: "Jane", Email: "jane@test.cd", Password: testPassword})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_authApi_tokens(t *testing.T) {
	app := setup(t)
	student := app.createUser("Student", "student@test.cd", user.RoleStudent)
	blocked := app.createUser("Blocked", "blocked@test.cd", user.RoleStudent)
	admin := app.createUser("Admin", "admin@test.cd", user.RoleAdmin)
	_, err := app.deps.UserSvc.SetBlocked(context.Background(), admin, blocked.ID, true)
	require.NoError(t, err)

	runCodeTests(t, app, []httpTest{
		{name: "missing token", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, path: "/api/auth/me", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
		{name: "blocked user", method: http.MethodGet, path: "/api/auth/me", token: app.token(blocked), wantCode: http.StatusForbidden},
		{name: "valid token", method: http.MethodGet, path: "/api/auth/me", token: app.token(student), wantCode: http.StatusOK},
	})

	t.Run("refresh", func(t *testing.T) {
		defer func() { nowFunc = time.Now }()

		issued := time.Now().Add(-2 * time.Hour)
		nowFunc = func() time.Time { return issued }
		claims := app.srv.auth.claims(student)
		claims.ExpiresAt = time.Now().Add(time.Hour).Unix() // still valid for the JWT middleware
		token, err := app.srv.auth.token(claims)
		require.NoError(t, err)

		nowFunc = time.Now
		rec := app.do(http.MethodPost, "/api/auth/token-refresh", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp TokenResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		nowFunc = func() time.Time { return issued.Add(25 * time.Hour) }
		rec = app.do(http.MethodPost, "/api/auth/token-refresh", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_authApi_rateLimit(t *testing.T) {
	app := setup(t)
	app.deps.RateStore = ratelimit.NewMemoryStore(2, time.Minute)
	app.srv = NewServer(app.deps)
	t.Cleanup(func() { _ = app.srv.Shutdown(context.Background()) })

	body := LoginRequest{Email: "nobody@test.cd", Password: testPassword}
	for i := 0; i < 2; i++ {
		rec := app.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := app.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other routes are not throttled
	rec = app.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi(t *testing.T) {
	app := setup(t)
	admin := app.createUser("Admin", "admin@test.cd", user.RoleAdmin)
	teacher := app.createUser("Teacher", "teacher@test.cd", user.RoleTeacher)
	student := app.createUser("Student", "student@test.cd", user.RoleStudent)
	adminToken := app.token(admin)

	runCodeTests(t, app, []httpTest{
		{name: "list requires auth", method: http.MethodGet, path: "/api/users", wantCode: http.StatusUnauthorized},
		{name: "list requires admin", method: http.MethodGet, path: "/api/users", token: app.token(teacher), wantCode: http.StatusForbidden},
		{name: "roles", method: http.MethodGet, path: "/api/users/roles", token: adminToken, wantCode: http.StatusOK},
		{name: "stats", method: http.MethodGet, path: "/api/users/stats", token: adminToken, wantCode: http.StatusOK},
		{name: "invalid page", method: http.MethodGet, path: "/api/users?page=abc", token: adminToken, wantCode: http.StatusBadRequest},
		{name: "cannot delete self", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{
			name: "invalid role", method: http.MethodPatch, path: "/api/users/" + student.ID + "/role", token: adminToken,
			body: user.ChangeRole{Role: "KING"}, wantCode: http.StatusBadRequest,
		},
	})

	t.Run("search", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/users?search=teach&limit=5", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Users []user.User `json:"users"`
			Total int         `json:"total"`
			Page  int         `json:"page"`
			Limit int         `json:"limit"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Users, 1)
		assert.Equal(t, teacher.ID, resp.Users[0].ID)
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, 5, resp.Limit)
	})

	t.Run("change role", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/api/users/"+student.ID+"/role", adminToken, user.ChangeRole{Role: user.RoleTeacher})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr user.User
		decode(t, rec, &usr)
		assert.Equal(t, user.RoleTeacher, usr.Role)
	})

	t.Run("update profile", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/api/users/me", app.token(teacher), user.UpdateProfile{Name: "Mr Teacher"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr user.User
		decode(t, rec, &usr)
		assert.Equal(t, "Mr Teacher", usr.Name)
		assert.Equal(t, "teacher@test.cd", usr.Email)
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/api/users/"+teacher.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = app.do(http.MethodGet, "/api/auth/me", app.token(teacher), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
