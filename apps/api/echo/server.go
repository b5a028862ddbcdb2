package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

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
)

const maxBodySize = "60M" // uploads are capped at 50 MB by the upload handler

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc         *user.Service
		CurriculumSvc   *curriculum.Service
		QuizSvc         *quiz.Service
		BankSvc         *bank.Service
		HomeworkSvc     *homework.Service
		QASvc           *qa.Service
		SubscriptionSvc *subscription.Service
		NotificationSvc *notification.Service
		ActivitySvc     *activity.Service
		ConfigSvc       *sysconfig.Service
		AnalyticsSvc    *analytics.Service

		FileStorage core.FileStorage
		UploadsDir  string // served under Conf.Storage.PublicBaseURL when set
		RateStore   middleware.RateLimiterStore
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		metrics:  newMetrics("mansa"),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(s.requestLogger())
	}
	s.app.Use(s.metrics.middleware)
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowedOrigins}))
	s.app.Use(middleware.Secure())
	s.app.Use(middleware.BodyLimit(maxBodySize))

	s.app.GET("/", s.home)
	s.app.GET("/metrics", s.metrics.handler())
	if s.deps.UploadsDir != "" && strings.HasPrefix(conf.Storage.PublicBaseURL, "/") {
		s.app.Static(conf.Storage.PublicBaseURL, s.deps.UploadsDir)
	}

	g := s.app.Group("/api")
	authed := []echo.MiddlewareFunc{s.auth.jwtMiddleware(), s.auth.userMiddleware()}
	h := &handler{activity: s.deps.ActivitySvc}

	registerAuthAPI(g, authed, s.rateLimiter(), s.auth, s.deps.UserSvc, h)
	registerUserAPI(g.Group("/users", authed...), s.deps.UserSvc, h)
	registerCurriculumAPI(g.Group("/curriculum"), authed, s.deps.CurriculumSvc, h)
	registerQuizAPI(g.Group("/quiz", authed...), s.deps.QuizSvc, h)
	registerUploadAPI(g.Group("/upload", authed...), s.deps.FileStorage)
	registerSubscriptionAPI(g.Group("/subscriptions", authed...), s.deps.SubscriptionSvc)
	registerBankAPI(g.Group("/bank", authed...), s.deps.BankSvc)
	registerHomeworkAPI(g.Group("/homework", authed...), s.deps.HomeworkSvc)
	registerAnalyticsAPI(g.Group("/analytics", authed...), s.deps.AnalyticsSvc)
	registerAdminAPI(g.Group("/admin", append(authed, adminOnly)...), s.deps, h)
	registerConfigAPI(g.Group("/config", authed...), s.deps.ConfigSvc, h)
	registerQAAPI(g.Group("/qa", authed...), s.deps.QASvc)
	registerNotificationAPI(g.Group("/notifications", authed...), s.deps.NotificationSvc)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			s.deps.Logger.Info("request", map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"user_agent": v.UserAgent,
			})
			return nil
		},
	})
}

// rateLimiter throttles the public auth endpoints per client IP.
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	if s.deps.RateStore == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: s.deps.RateStore,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errors.Wrap(err, "extracting rate limit identifier")
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			if err != nil {
				return errors.Wrap(err, "checking rate limit")
			}
			return errTooManyRequests
		},
	})
}

// Start listens until the server is shut down. Listener failures are sent to Errors().
func (s *Server) Start() {
	s.deps.Logger.Info("API listening on " + s.deps.Conf.Server.Address())
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the main goroutine to shut the server down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
