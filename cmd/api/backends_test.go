package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/flavorhub/community-api/internal/adapters/memory/clock"
	metricsuserdir "github.com/flavorhub/community-api/internal/adapters/metrics/userdir"
	"github.com/flavorhub/community-api/internal/app/directory"
	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/platform/config"
	"github.com/flavorhub/community-api/internal/platform/logging"
	"github.com/flavorhub/community-api/internal/platform/password"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

func testDeps(t *testing.T, vars map[string]string) backendDeps {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), vars)
	require.NoError(t, err)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	c, err := metricsuserdir.NewCollectors(prometheus.NewRegistry())
	require.NoError(t, err)
	return backendDeps{
		cfg:     cfg,
		hasher:  hasher,
		clk:     memclock.NewManualClock(time.Unix(1700000000, 0)),
		metrics: c,
		log:     logging.Discard(),
	}
}

func roundTrip(t *testing.T, d userdir.Directory) {
	t.Helper()
	ctx := context.Background()
	_, err := d.Create(ctx, userdir.NewUser{
		FullName: "Ada", Email: "a@x.com", SocialHandle: "@ada",
		SocialPassword: "s", AccountPassword: "p1", InterestCategory: domain.InterestNutrition,
	})
	require.NoError(t, err)
	got, err := d.Authenticate(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestOpenLocal_Drivers(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cases := map[string]map[string]string{
		"memory": {"LOCAL_DRIVER": "memory"},
		"sqlite": {"LOCAL_DRIVER": "sqlite", "LOCAL_PATH": filepath.Join(t.TempDir(), "local.db")},
		"redis":  {"LOCAL_DRIVER": "redis", "LOCAL_REDIS_ADDR": mr.Addr()},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			opened, err := testDeps(t, vars).openLocal(context.Background())
			require.NoError(t, err)
			t.Cleanup(opened.Close)
			require.NotNil(t, opened.Replays)
			roundTrip(t, opened.Directory)
		})
	}
}

func TestSelector_FallsBackWhenRemoteUnreachable(t *testing.T) {
	d := testDeps(t, map[string]string{
		"REMOTE_URL":             "postgres://flavorhub@127.0.0.1:1/flavorhub?sslmode=disable",
		"REMOTE_ACCESS_KEY":      "key",
		"REMOTE_CONNECT_TIMEOUT": "2s",
		"LOCAL_DRIVER":           "memory",
	})
	s := directory.NewSelector(d.cfg.Remote.Configured(), d.openRemote, d.openLocal, nil)

	sel, err := s.Select(context.Background())
	require.NoError(t, err)
	t.Cleanup(sel.Close)
	assert.Equal(t, directory.BackendLocal, sel.Backend)
	roundTrip(t, sel.Directory)
}
