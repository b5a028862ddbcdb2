package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

func TestServer_home(t *testing.T) {
	app := setup(t)

	rec := app.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Mansa API!", rec.Body.String())

	rec = app.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mansa_http_requests_total")
	assert.Contains(t, rec.Body.String(), `code="404"`)
}

func TestServer_errors(t *testing.T) {
	app := setup(t)
	admin := app.createUser("Admin", "admin@test.cd", user.RoleAdmin)
	token := app.token(admin)

	t.Run("malformed body", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/curriculum/stages", token, []byte(`{"name":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("translated field errors", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/curriculum/grades", token, curriculum.NewGrade{Name: "Grade 1", StageID: "nope"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		e := errorOf(t, rec)
		assert.Equal(t, "validation failed", e.Error)
		require.Contains(t, e.Fields, "stage_id")
		assert.NotEmpty(t, e.Fields["stage_id"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/curriculum/subjects/5f1c0c5e-0000-4000-8000-000000000000", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.Contains(errorOf(t, rec).Error, "subject"))
	})
}

func TestServer_internalErrors(t *testing.T) {
	app := setup(t)
	app.srv.app.GET("/boom", func(echo.Context) error { return errors.New("boom") })
	app.srv.app.GET("/fatal", func(echo.Context) error {
		return errors.Wrap(core.NewShutdownError("database is gone"), "querying")
	})

	rec := app.do(http.MethodGet, "/boom", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), errorOf(t, rec).Error)
	select {
	case <-app.srv.ShutdownSignal():
		t.Fatal("unexpected shutdown signal")
	default:
	}

	rec = app.do(http.MethodGet, "/fatal", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	select {
	case <-app.srv.ShutdownSignal():
	default:
		t.Fatal("shutdown errors should signal a shutdown")
	}
}
