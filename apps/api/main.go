package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/apps/api/echo"
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
	"github.com/trezcool/mansa/services/ratelimit"
	"github.com/trezcool/mansa/storage/database"
	"github.com/trezcool/mansa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := logsvc.NewLogger("api", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// set up DB
	db, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up storage & rate limiting
	storage, err := filestore.New(ctx, conf.Storage)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}
	var uploadsDir string
	if local, ok := storage.(*filestore.LocalStorage); ok {
		uploadsDir = local.Dir()
	}

	redisClient, err := ratelimit.NewRedisClient(ctx, conf.Redis)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	configSvc := sysconfig.NewService(sqlxrepos.NewSysconfigRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), logger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, configSvc, conf.AdminEmail)
	subSvc := subscription.NewService(sqlxrepos.NewSubscriptionRepository(db), usrSvc, notifSvc)
	quizSvc := quiz.NewService(sqlxrepos.NewQuizRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CurriculumSvc:   curriculum.NewService(sqlxrepos.NewCurriculumRepository(db), notifSvc, subSvc),
		QuizSvc:         quizSvc,
		BankSvc:         bank.NewService(sqlxrepos.NewBankRepository(db), quizSvc),
		HomeworkSvc:     homework.NewService(sqlxrepos.NewHomeworkRepository(db)),
		QASvc:           qa.NewService(sqlxrepos.NewQARepository(db), configSvc, notifSvc),
		SubscriptionSvc: subSvc,
		NotificationSvc: notifSvc,
		ActivitySvc:     activity.NewService(sqlxrepos.NewActivityRepository(db), logger),
		ConfigSvc:       configSvc,
		AnalyticsSvc:    analytics.NewService(sqlxrepos.NewAnalyticsRepository(db)),
		FileStorage:     storage,
		UploadsDir:      uploadsDir,
		RateStore:       ratelimit.NewStore(redisClient, "mansa:auth:", conf.Server),
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
