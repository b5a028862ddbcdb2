package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/services/email"
	"github.com/trezcool/mansa/services/logger"
	"github.com/trezcool/mansa/storage/database"
	"github.com/trezcool/mansa/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := logsvc.NewLogger("admin", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up DB
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	configSvc := sysconfig.NewService(sqlxrepos.NewSysconfigRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), logger)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewService(conf, logger), configSvc, conf.AdminEmail)
	subSvc := subscription.NewService(sqlxrepos.NewSubscriptionRepository(db), usrSvc, notifSvc)

	cli := commandLine{
		db:         db,
		out:        os.Stdout,
		usrRepo:    usrRepo,
		usrSvc:     usrSvc,
		curSvc:     curriculum.NewService(sqlxrepos.NewCurriculumRepository(db), notifSvc, subSvc),
		quizSvc:    quiz.NewService(sqlxrepos.NewQuizRepository(db)),
		subSvc:     subSvc,
		adminEmail: conf.AdminEmail,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
