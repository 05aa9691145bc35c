package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/libris/pkg/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	data := logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		qh.log.Err(event.Err).Debug(event.Query, data)
		return
	}
	qh.log.Debug(event.Query, data)
}

// New opens the SQLite database, waits for it to answer, and applies the
// pragmas the services rely on. All access goes through one pooled connection
// so writers are serialized in-process rather than fighting over file locks.
func New(cfg *config.Config) (*bun.DB, error) {
	var connector driver.Connector
	var err error
	if dc, ok := sqliteshim.Driver().(driver.DriverContext); ok {
		connector, err = dc.OpenConnector(cfg.DatabaseFilePath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	} else {
		connector = &dsnConnector{drv: sqliteshim.Driver(), dsn: cfg.DatabaseFilePath}
	}

	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	attempts := cfg.DatabaseConnectRetryCount
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if _, err = db.Exec("SELECT 1"); err == nil {
			break
		}
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pragmas := []struct {
		stmt string
		arg  interface{}
	}{
		{"PRAGMA journal_mode=WAL", nil},
		{"PRAGMA foreign_keys=ON", nil},
		{"PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds()},
	}
	for _, p := range pragmas {
		args := []interface{}{}
		if p.arg != nil {
			args = append(args, p.arg)
		}
		if _, err := db.Exec(p.stmt, args...); err != nil {
			return nil, errors.Wrapf(err, "failed to run %q", p.stmt)
		}
	}

	return db, nil
}
