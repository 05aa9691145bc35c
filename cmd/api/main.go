package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/database"
	"github.com/shishobooks/libris/pkg/migrations"
	"github.com/shishobooks/libris/pkg/server"
	"github.com/shishobooks/libris/pkg/version"
	"github.com/shishobooks/libris/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting libris", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	circulationService := circulation.NewService(db, cfg.LoanPeriod())
	circulationService.SetPolicy(circulation.MaxLoans(cfg.MaxLoansPerStudent))
	log.Info("circulation configured", logger.Data{
		"loan_period_days":      cfg.LoanPeriodDays,
		"max_loans_per_student": cfg.MaxLoansPerStudent,
	})

	wrkr := worker.New(cfg, circulationService)

	srv, err := server.New(cfg, db, circulationService)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("overdue notifier started", logger.Data{"interval": cfg.OverdueCheckInterval.String()})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
