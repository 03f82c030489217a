package userdir

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/flavorhub/community-api/internal/adapters/contracttest"
	"github.com/flavorhub/community-api/internal/adapters/postgres/testutil"
	"github.com/flavorhub/community-api/internal/platform/password"
	clockport "github.com/flavorhub/community-api/internal/ports/out/clock"
	userdirport "github.com/flavorhub/community-api/internal/ports/out/userdir"
)

func TestContract_PostgresUserDirectory(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	contracttest.RunUserDirectory(t, func(t *testing.T, clk clockport.Clock) (userdirport.Directory, func()) {
		t.Helper()
		testutil.ResetTables(t, pool)
		return NewRepo(pool, hasher, clk), nil
	})
}
