// Package userdir records Prometheus metrics around a userdir.Directory.
package userdir

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

// Result label values.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultDuplicate   = "duplicate"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// Collectors holds the metric vectors shared by every instrumented directory.
type Collectors struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollectors creates and registers the directory metrics on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flavorhub",
			Subsystem: "directory",
			Name:      "operations_total",
			Help:      "Directory operations by backend, operation and result.",
		}, []string{"backend", "op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flavorhub",
			Subsystem: "directory",
			Name:      "operation_duration_seconds",
			Help:      "Directory operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	for _, col := range []prometheus.Collector{c.ops, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Directory decorates a userdir.Directory with metrics.
type Directory struct {
	next    userdir.Directory
	backend string
	c       *Collectors
}

func Instrument(next userdir.Directory, backend string, c *Collectors) *Directory {
	return &Directory{next: next, backend: backend, c: c}
}

func (d *Directory) Create(ctx context.Context, in userdir.NewUser) (domain.UserRecord, error) {
	defer d.observe("create", time.Now())
	rec, err := d.next.Create(ctx, in)
	d.count("create", err)
	return rec, err
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	defer d.observe("find_by_email", time.Now())
	rec, err := d.next.FindByEmail(ctx, email)
	d.count("find_by_email", err)
	return rec, err
}

func (d *Directory) ListAll(ctx context.Context) ([]domain.UserRecord, error) {
	defer d.observe("list_all", time.Now())
	recs, err := d.next.ListAll(ctx)
	d.count("list_all", err)
	return recs, err
}

func (d *Directory) Authenticate(ctx context.Context, email, password string) (domain.UserRecord, error) {
	defer d.observe("authenticate", time.Now())
	rec, err := d.next.Authenticate(ctx, email, password)
	d.count("authenticate", err)
	return rec, err
}

func (d *Directory) observe(op string, start time.Time) {
	d.c.duration.WithLabelValues(d.backend, op).Observe(time.Since(start).Seconds())
}

func (d *Directory) count(op string, err error) {
	d.c.ops.WithLabelValues(d.backend, op, Result(err)).Inc()
}

// Result maps a directory error to its metric label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, userdir.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, userdir.ErrDuplicateEmail):
		return ResultDuplicate
	case errors.Is(err, userdir.ErrBackendUnavailable):
		return ResultUnavailable
	default:
		return ResultError
	}
}
