package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/adapters/httpapi"
	memcontentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/contentrepo"
	memdeptrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/departmentrepo"
	memmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/paymentrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/adapters/msgtemplate"
	postgres "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres"
	pgcontentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres/contentrepo"
	pgdeptrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres/departmentrepo"
	pgmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres/memberrepo"
	pgpaymentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres/paymentrepo"
	smtpadapter "github.com/mzumbe-ict-club/membership-api/internal/adapters/smtp"
	"github.com/mzumbe-ict-club/membership-api/internal/app/approvals"
	"github.com/mzumbe-ict-club/membership-api/internal/app/contact"
	"github.com/mzumbe-ict-club/membership-api/internal/app/content"
	"github.com/mzumbe-ict-club/membership-api/internal/app/directory"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/app/payments"
	"github.com/mzumbe-ict-club/membership-api/internal/app/registration"
	platformclock "github.com/mzumbe-ict-club/membership-api/internal/platform/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/platform/config"
	"github.com/mzumbe-ict-club/membership-api/internal/platform/logger"
	"github.com/mzumbe-ict-club/membership-api/internal/platform/scheduler"
	contentrepoport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/contentrepo"
	departmentrepoport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/departmentrepo"
	memberrepoport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
	paymentrepoport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/paymentrepo"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	clk := platformclock.NewSystemClock()

	var (
		memberRepo  memberrepoport.Repository
		deptRepo    departmentrepoport.Repository
		contentRepo contentrepoport.Repository
		paymentRepo paymentrepoport.Repository
		cleanup     func()
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("postgres connection failed")
		}
		cleanup = pool.Close
		memberRepo = pgmemberrepo.NewRepo(pool)
		deptRepo = pgdeptrepo.NewRepo(pool)
		contentRepo = pgcontentrepo.NewRepo(pool)
		paymentRepo = pgpaymentrepo.NewRepo(pool)
	default:
		memberRepo = memmemberrepo.NewRepo()
		deptRepo = memdeptrepo.NewRepo()
		contentRepo = memcontentrepo.NewRepo()
		paymentRepo = mempaymentrepo.NewRepo()
	}
	if cleanup != nil {
		defer cleanup()
	}

	render, err := msgtemplate.NewRenderer()
	if err != nil {
		log.WithError(err).Fatal("message templates failed to parse")
	}
	mail := smtpadapter.NewMailer(smtpadapter.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if !mail.Configured() {
		log.Warn("smtp is not configured; notifications will fail soft")
	}

	dispatcher := notify.NewDispatcher(mail, render, memberRepo, log, cfg.SMTP.From)

	regSvc := registration.NewService(memberRepo, deptRepo, clk, dispatcher, log)
	apprSvc := approvals.NewService(memberRepo, clk, dispatcher, log)
	apprSvc.AllowRejectApproved = cfg.AllowRejectApproved
	dirSvc := directory.NewService(deptRepo, clk)
	contentSvc := content.NewService(contentRepo, clk, notify.NewAnnouncementBroadcaster(dispatcher, memberRepo), log)
	contactSvc := contact.NewService(contentRepo, memberRepo, dispatcher, render, clk, log, cfg.SMTP.From)
	paySvc := payments.NewService(paymentRepo, memberRepo, clk, dispatcher, log)

	jobs := scheduler.New(memberRepo, dispatcher, render, clk, log)
	if err := jobs.Register(cfg.Cron.PictureReminder, cfg.Cron.PendingDigest); err != nil {
		log.WithError(err).Fatal("invalid cron configuration")
	}
	jobs.Start()
	defer jobs.Stop()

	api := httpapi.NewServer(regSvc, apprSvc, dirSvc, contentSvc, contactSvc, paySvc, clk)
	handler := httpapi.NewRouter(api, regSvc, clk)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
