package patient

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestPatientRepoPG runs against a real database only when TEST_DATABASE_URL
// is set. The patients table is recreated for every subtest.
func TestPatientRepoPG(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	runRepositorySuite(t, func(t *testing.T) Repository {
		_, err := pool.Exec(ctx, `
			DROP TABLE IF EXISTS patients;
			CREATE TABLE patients (
				seq BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				ci TEXT NOT NULL,
				blood_group TEXT NOT NULL,
				code TEXT NOT NULL DEFAULT ''
			)`)
		if err != nil {
			t.Fatalf("reset patients table: %v", err)
		}
		return NewPatientRepoPG(pool)
	})
}
