//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&OriginServerModel{}, &RecordModel{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := gdb.Exec("TRUNCATE records, origin_servers").Error; err != nil {
		t.Fatalf("truncate test db: %v", err)
	}
	return gdb
}

func TestOriginRepository_CreateIsIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewOriginRepository(gdb)
	ctx := context.Background()

	origin := domain.OriginServer{
		Endpoint:           "https://pds.example.com",
		Status:             domain.OriginStatusPending,
		RegistrationReason: "first",
		RegisteredAt:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(ctx, origin); err != nil {
		t.Fatalf("create origin: %v", err)
	}

	// A concurrent registration of the same endpoint converges instead of
	// failing on the unique index.
	origin.Status = domain.OriginStatusActive
	origin.RegistrationReason = "second"
	if err := repo.Create(ctx, origin); err != nil {
		t.Fatalf("re-create origin: %v", err)
	}

	got, err := repo.GetByEndpoint(ctx, "https://pds.example.com/")
	if err != nil {
		t.Fatalf("get origin: %v", err)
	}
	if got.Status != domain.OriginStatusActive {
		t.Fatalf("expected status active, got %s", got.Status)
	}
	if got.RegistrationReason != "second" {
		t.Fatalf("expected refreshed reason, got %q", got.RegistrationReason)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list origins: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one origin row, got %d", len(all))
	}
}

func TestOriginRepository_UpdateStatus(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewOriginRepository(gdb)
	ctx := context.Background()

	if err := repo.UpdateStatus(ctx, "https://missing.example.com", domain.OriginStatusActive); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown endpoint, got %v", err)
	}

	if err := repo.Create(ctx, domain.OriginServer{
		Endpoint:     "https://pds.example.com",
		Status:       domain.OriginStatusPending,
		RegisteredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create origin: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "https://pds.example.com", domain.OriginStatusUnreachable); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := repo.GetByEndpoint(ctx, "https://pds.example.com")
	if err != nil {
		t.Fatalf("get origin: %v", err)
	}
	if got.Status != domain.OriginStatusUnreachable {
		t.Fatalf("expected status unreachable, got %s", got.Status)
	}
}

func TestRecordRepository_IndexRecordReplay(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewRecordRepository(gdb)
	ctx := context.Background()

	record := domain.Record{
		URI:        "at://did:plc:alice/pub.chive.doc/1",
		CID:        "bafy1",
		DID:        "did:plc:alice",
		Collection: "pub.chive.doc",
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		IndexedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	fresh, err := repo.IndexRecord(ctx, record)
	if err != nil {
		t.Fatalf("index record: %v", err)
	}
	if !fresh {
		t.Fatal("expected first index to be fresh")
	}

	record.CID = "bafy1-updated"
	record.RevisionNotes = "re-signed"
	fresh, err = repo.IndexRecord(ctx, record)
	if err != nil {
		t.Fatalf("replay record: %v", err)
	}
	if fresh {
		t.Fatal("expected replay not to count as fresh")
	}

	got, err := repo.GetRecord(ctx, record.URI)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.CID != "bafy1-updated" {
		t.Fatalf("expected refreshed cid, got %q", got.CID)
	}
	if got.RevisionNotes != "re-signed" {
		t.Fatalf("expected refreshed revision notes, got %q", got.RevisionNotes)
	}
}

func TestRecordRepository_GetRecordByPreviousVersion(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewRecordRepository(gdb)
	ctx := context.Background()

	v1 := domain.Record{
		URI: "at://did:plc:alice/pub.chive.doc/1", CID: "bafy1", DID: "did:plc:alice",
		Collection: "pub.chive.doc", CreatedAt: time.Now().UTC(), IndexedAt: time.Now().UTC(),
	}
	v2 := domain.Record{
		URI: "at://did:plc:alice/pub.chive.doc/2", CID: "bafy2", DID: "did:plc:alice",
		Collection: "pub.chive.doc", PreviousVersionURI: v1.URI,
		CreatedAt: time.Now().UTC(), IndexedAt: time.Now().UTC(),
	}
	for _, record := range []domain.Record{v1, v2} {
		if _, err := repo.IndexRecord(ctx, record); err != nil {
			t.Fatalf("index %s: %v", record.URI, err)
		}
	}

	got, err := repo.GetRecordByPreviousVersion(ctx, v1.URI)
	if err != nil {
		t.Fatalf("get by previous version: %v", err)
	}
	if got.URI != v2.URI {
		t.Fatalf("expected successor %s, got %s", v2.URI, got.URI)
	}

	if _, err := repo.GetRecordByPreviousVersion(ctx, v2.URI); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for chain head, got %v", err)
	}
}
