package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

var (
	testDB     *database.DB
	testDBErr  error
	testDBOnce sync.Once
)

// openTestDB connects to TEST_DATABASE_URL, applies migrations once and
// truncates every table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		testDB, testDBErr = database.NewPostgreSQLDB(ctx, dsn)
		if testDBErr == nil {
			testDBErr = testDB.Migrate(ctx)
		}
	})
	require.NoError(t, testDBErr)

	truncateAllTables(t)
	return testDB
}

func truncateAllTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `
		TRUNCATE TABLE payroll_records, attendance_records, staff, admin_businesses, admins, businesses CASCADE
	`)
	require.NoError(t, err)
}
