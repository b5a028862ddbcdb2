package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/analytics"
	"github.com/trezcool/mansa/core/bank"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/homework"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/qa"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/services/email"
	"github.com/trezcool/mansa/services/filestore"
	"github.com/trezcool/mansa/services/logger"
	"github.com/trezcool/mansa/storage/database/inmem"
)

const testPassword = "Correct-Horse9"

type testApp struct {
	t      *testing.T
	srv    *Server
	deps   ServerDeps
	mailer *emailsvc.ConsoleService
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		Env:             "TEST",
		AppName:         "Mansa",
		TestMode:        true,
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:5173",
		AdminEmail:      "admin@mansa.edu",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			AuthRateLimit:             3,
			AuthRateWindow:            time.Minute,
			AllowedOrigins:            []string{"*"},
		},
		Email: core.EmailConfig{DefaultFromName: "Mansa", DefaultFromEmail: "noreply@mansa.edu"},
		Storage: core.StorageConfig{
			Backend:       "local",
			LocalDir:      t.TempDir(),
			PublicBaseURL: "/uploads",
		},
	}
	logger := logsvc.NewNopLogger()
	mailer := emailsvc.NewConsoleServiceMock(conf)

	db := inmemdb.Open()
	configSvc := sysconfig.NewService(inmemdb.NewSysconfigRepository(db))
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db), logger)
	userSvc := user.NewService(inmemdb.NewUserRepository(db), mailer, configSvc, conf.AdminEmail)
	subSvc := subscription.NewService(inmemdb.NewSubscriptionRepository(db), userSvc, notifSvc)
	quizSvc := quiz.NewService(inmemdb.NewQuizRepository(db))
	storage, err := filestore.NewLocalStorage(conf.Storage.LocalDir, conf.Storage.PublicBaseURL)
	require.NoError(t, err)

	deps := ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         userSvc,
		CurriculumSvc:   curriculum.NewService(inmemdb.NewCurriculumRepository(db), notifSvc, subSvc),
		QuizSvc:         quizSvc,
		BankSvc:         bank.NewService(inmemdb.NewBankRepository(db), quizSvc),
		HomeworkSvc:     homework.NewService(inmemdb.NewHomeworkRepository(db)),
		QASvc:           qa.NewService(inmemdb.NewQARepository(db), configSvc, notifSvc),
		SubscriptionSvc: subSvc,
		NotificationSvc: notifSvc,
		ActivitySvc:     activity.NewService(inmemdb.NewActivityRepository(db), logger),
		ConfigSvc:       configSvc,
		AnalyticsSvc:    analytics.NewService(inmemdb.NewAnalyticsRepository(db)),
		FileStorage:     storage,
		UploadsDir:      storage.Dir(),
	}
	srv := NewServer(deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testApp{t: t, srv: srv, deps: deps, mailer: mailer}
}

func (app *testApp) createUser(name, email, role string) user.User {
	app.t.Helper()
	usr, err := app.deps.UserSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(app.t, err)
	return usr
}

func (app *testApp) token(usr user.User) string {
	app.t.Helper()
	token, err := app.srv.auth.userToken(usr)
	require.NoError(app.t, err)
	return token
}

// do sends a JSON request; body may be nil, raw bytes or any value to marshal.
func (app *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	app.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(app.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	token    string
	body     interface{}
	wantCode int
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) httpErr {
	t.Helper()
	var e httpErr
	decode(t, rec, &e)
	return e
}

func runCodeTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func defaultPage() core.Page {
	var page core.Page
	page.Clean()
	return page
}

var _ http.Handler = (*Server)(nil)
