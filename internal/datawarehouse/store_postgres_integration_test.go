package datawarehouse

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/db"
	"decofer/core-go/internal/sqlcgen"
)

func requireTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}
	return dsn
}

func mustDeriveDatabaseURL(t *testing.T, baseURL, dbName string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		t.Skipf("TEST_DATABASE_URL must be a URL-style DSN (e.g. postgres://...); got %q", baseURL)
	}

	u.Path = "/" + dbName
	return u.String()
}

func newTestDatabaseName() string {
	// Safe identifier (letters/digits/underscores) so we can use it without quoting.
	return fmt.Sprintf("decofer_test_%d", time.Now().UnixNano())
}

func execAdmin(ctx context.Context, adminURL, sql string) error {
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return err
	}
	defer adminConn.Close(ctx)

	_, err = adminConn.Exec(ctx, sql)
	return err
}

func migrationsDir(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	return filepath.Join(repoRoot, "migrations")
}

func applyMigrations(ctx context.Context, conn *pgx.Conn, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

func TestStore_Postgres_LatestSnapshotWins(t *testing.T) {
	adminURL := requireTestDatabaseURL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := newTestDatabaseName()
	testDBURL := mustDeriveDatabaseURL(t, adminURL, dbName)

	if err := execAdmin(ctx, adminURL, "CREATE DATABASE "+dbName); err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() {
		_ = execAdmin(context.Background(), adminURL, "DROP DATABASE "+dbName+" WITH (FORCE)")
	})

	mConn, err := pgx.Connect(ctx, testDBURL)
	if err != nil {
		t.Fatalf("connect for migrations: %v", err)
	}
	if err := applyMigrations(ctx, mConn, migrationsDir(t)); err != nil {
		_ = mConn.Close(ctx)
		t.Fatalf("apply migrations: %v", err)
	}
	if err := mConn.Close(ctx); err != nil {
		t.Fatalf("close migration connection: %v", err)
	}

	pool, err := db.Open(ctx, testDBURL)
	if err != nil {
		t.Fatalf("open db pool: %v", err)
	}
	t.Cleanup(pool.Close)

	q := pool.Queries()
	guid := uuid.New()
	oldDate := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	newDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	oldCaptured := oldDate.Add(time.Hour)
	newCaptured := newDate.Add(time.Hour)

	for _, arg := range []sqlcgen.InsertEMSSnapshotParams{
		{EmsGuid: guid, LastCommunicationConfigIntegrationDate: &newDate, CapturedAt: &newCaptured},
		{EmsGuid: guid, LastCommunicationConfigIntegrationDate: &oldDate, CapturedAt: &oldCaptured},
		{EmsGuid: uuid.New(), LastCommunicationConfigIntegrationDate: nil},
	} {
		if _, err := q.InsertEMSSnapshot(ctx, arg); err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
	}

	s := NewStore(q, nil)

	snap, err := s.GetByEMS(ctx, guid)
	if err != nil {
		t.Fatalf("get by ems: %v", err)
	}
	if snap.EMSGUID != guid {
		t.Fatalf("expected ems guid %s, got %s", guid, snap.EMSGUID)
	}
	if snap.LastCommunicationConfigIntegrationDate == nil || !snap.LastCommunicationConfigIntegrationDate.Equal(newDate) {
		t.Fatalf("expected latest integration date %s, got %v", newDate, snap.LastCommunicationConfigIntegrationDate)
	}

	if _, err := s.GetByEMS(ctx, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ems, got %v", err)
	}
}
