package userdir

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorhub/community-api/internal/domain"
	userdirport "github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type stubDirectory struct {
	err error
}

func (s stubDirectory) Create(context.Context, userdirport.NewUser) (domain.UserRecord, error) {
	return domain.UserRecord{}, s.err
}
func (s stubDirectory) FindByEmail(context.Context, string) (domain.UserRecord, error) {
	return domain.UserRecord{}, s.err
}
func (s stubDirectory) ListAll(context.Context) ([]domain.UserRecord, error) {
	return []domain.UserRecord{}, s.err
}
func (s stubDirectory) Authenticate(context.Context, string, string) (domain.UserRecord, error) {
	return domain.UserRecord{}, s.err
}

func TestResult(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultNotFound, Result(userdirport.ErrNotFound))
	assert.Equal(t, ResultDuplicate, Result(userdirport.ErrDuplicateEmail))
	assert.Equal(t, ResultUnavailable, Result(fmt.Errorf("%w: dial", userdirport.ErrBackendUnavailable)))
	assert.Equal(t, ResultError, Result(errors.New("other")))
}

func TestDirectory_CountsByResult(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	ctx := context.Background()
	ok := Instrument(stubDirectory{}, "local", c)
	missing := Instrument(stubDirectory{err: userdirport.ErrNotFound}, "local", c)

	_, _ = ok.FindByEmail(ctx, "a@x.com")
	_, _ = missing.FindByEmail(ctx, "a@x.com")
	_, _ = missing.Authenticate(ctx, "a@x.com", "p")
	_, _ = ok.ListAll(ctx)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("local", "find_by_email", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("local", "find_by_email", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("local", "authenticate", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("local", "list_all", ResultOK)))
	assert.Equal(t, 3, testutil.CollectAndCount(c.duration))
}

func TestDirectory_PassesThroughErrors(t *testing.T) {
	t.Parallel()

	c, err := NewCollectors(prometheus.NewRegistry())
	require.NoError(t, err)

	d := Instrument(stubDirectory{err: userdirport.ErrDuplicateEmail}, "remote", c)
	_, err = d.Create(context.Background(), userdirport.NewUser{})
	assert.ErrorIs(t, err, userdirport.ErrDuplicateEmail)
}

func TestNewCollectors_DoubleRegister(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewCollectors(reg)
	require.NoError(t, err)
	_, err = NewCollectors(reg)
	require.Error(t, err)
}
