package main

import (
	"context"
	"fmt"
	"log/slog"

	localuserdir "github.com/flavorhub/community-api/internal/adapters/local/userdir"
	memidempotency "github.com/flavorhub/community-api/internal/adapters/memory/idempotency"
	memkvslot "github.com/flavorhub/community-api/internal/adapters/memory/kvslot"
	metricsuserdir "github.com/flavorhub/community-api/internal/adapters/metrics/userdir"
	postgres "github.com/flavorhub/community-api/internal/adapters/postgres"
	pgidempotency "github.com/flavorhub/community-api/internal/adapters/postgres/idempotency"
	pguserdir "github.com/flavorhub/community-api/internal/adapters/postgres/userdir"
	rediskvslot "github.com/flavorhub/community-api/internal/adapters/redis/kvslot"
	"github.com/flavorhub/community-api/internal/adapters/sqlite"
	sqlitekvslot "github.com/flavorhub/community-api/internal/adapters/sqlite/kvslot"
	"github.com/flavorhub/community-api/internal/app/directory"
	"github.com/flavorhub/community-api/internal/platform/config"
	clockport "github.com/flavorhub/community-api/internal/ports/out/clock"
	kvslotport "github.com/flavorhub/community-api/internal/ports/out/kvslot"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type backendDeps struct {
	cfg     config.Config
	hasher  userdir.PasswordHasher
	clk     clockport.Clock
	metrics *metricsuserdir.Collectors
	log     *slog.Logger
}

func (d backendDeps) openRemote(ctx context.Context) (directory.Opened, error) {
	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{
		URL:            d.cfg.Remote.URL,
		AccessKey:      d.cfg.Remote.AccessKey,
		ConnectTimeout: d.cfg.Remote.ConnectTimeout,
	})
	if err != nil {
		return directory.Opened{}, err
	}
	if d.cfg.Remote.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return directory.Opened{}, err
		}
	}
	repo := pguserdir.NewRepo(pool, d.hasher, d.clk)
	return directory.Opened{
		Directory: metricsuserdir.Instrument(repo, string(directory.BackendRemote), d.metrics),
		Replays:   pgidempotency.NewStore(pool),
		Close:     pool.Close,
	}, nil
}

func (d backendDeps) openLocal(ctx context.Context) (directory.Opened, error) {
	slots, closeSlots, err := d.openSlots(ctx)
	if err != nil {
		return directory.Opened{}, err
	}
	store := localuserdir.NewStore(slots, d.cfg.Local.SlotKey, d.hasher, d.clk)
	return directory.Opened{
		Directory: metricsuserdir.Instrument(store, string(directory.BackendLocal), d.metrics),
		Replays:   memidempotency.NewStore(),
		Close:     closeSlots,
	}, nil
}

func (d backendDeps) openSlots(ctx context.Context) (kvslotport.Store, func(), error) {
	switch d.cfg.Local.Driver {
	case config.LocalDriverSQLite:
		db, err := sqlite.Open(ctx, d.cfg.Local.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlitekvslot.NewStore(db), func() { _ = db.Close() }, nil
	case config.LocalDriverRedis:
		s, err := rediskvslot.Connect(ctx, rediskvslot.Options{
			Addr:     d.cfg.Local.RedisAddr,
			Password: d.cfg.Local.RedisPassword,
			DB:       d.cfg.Local.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.LocalDriverMemory:
		d.log.Warn("local directory is in memory; members are lost on restart")
		return memkvslot.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown local driver %q", d.cfg.Local.Driver)
	}
}
