package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/prepdesk/prepdesk/apps/api/echo"
	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/audio"
	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/grind"
	"github.com/prepdesk/prepdesk/core/support"
	"github.com/prepdesk/prepdesk/core/user"
	stripesvc "github.com/prepdesk/prepdesk/services/billing/stripe"
	emailsvc "github.com/prepdesk/prepdesk/services/email"
	logsvc "github.com/prepdesk/prepdesk/services/logger"
	schedulersvc "github.com/prepdesk/prepdesk/services/scheduler"
	"github.com/prepdesk/prepdesk/storage/database"
	sqlxrepos "github.com/prepdesk/prepdesk/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug || core.Conf.TestMode {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	dbx := sqlx.NewDb(db, core.Conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx), mailSvc)
	examSvc := exam.NewService(sqlxrepos.NewExamRepository(dbx))
	audioSvc := audio.NewService(sqlxrepos.NewAudioRepository(dbx))
	grindSvc := grind.NewService(sqlxrepos.NewGrindRepository(dbx), mailSvc)
	billingSvc := billing.NewService(sqlxrepos.NewBillingRepository(dbx), stripesvc.NewStripeService(), logger)
	supportSvc := support.NewService(sqlxrepos.NewSupportRepository(dbx), mailSvc)

	// background jobs
	sched := schedulersvc.New(grindSvc, logger)
	sched.Start()
	defer sched.Stop()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// start API server
	addr := core.Conf.Server.Host + ":" + core.Conf.Server.Port
	app := echoapi.NewServer(&echoapi.Options{
		Address:        addr,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		UserSvc:        usrSvc,
		ExamSvc:        examSvc,
		AudioSvc:       audioSvc,
		GrindSvc:       grindSvc,
		BillingSvc:     billingSvc,
		SupportSvc:     supportSvc,
	})
	go app.Start()
	logger.Info("API server listening on " + addr)

	<-shutdown
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}

func errAndDie(logger *log.Logger, err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
