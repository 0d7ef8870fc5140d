package store

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
}

func TestFetchRun_Lifecycle(t *testing.T) {
	store := setupTestStore(t)

	ok, err := store.StartFetchRun("req-1", "Manila")
	if err != nil {
		t.Fatalf("StartFetchRun: %v", err)
	}
	if ok.ID == 0 {
		t.Fatal("expected run ID")
	}
	ok.Success = true
	ok.HTTPStatus = sql.NullInt64{Int64: 200, Valid: true}
	ok.ResponseSizeBytes = sql.NullInt64{Int64: 512, Valid: true}
	if err := store.CompleteFetchRun(ok); err != nil {
		t.Fatalf("CompleteFetchRun: %v", err)
	}

	failed, err := store.StartFetchRun("req-2", "Atlantis")
	if err != nil {
		t.Fatalf("StartFetchRun: %v", err)
	}
	failed.HTTPStatus = sql.NullInt64{Int64: 404, Valid: true}
	failed.ErrorMessage = sql.NullString{String: "City not found.", Valid: true}
	if err := store.CompleteFetchRun(failed); err != nil {
		t.Fatalf("CompleteFetchRun: %v", err)
	}

	// Started but never completed runs are not reported as errors.
	if _, err := store.StartFetchRun("req-3", "Bern"); err != nil {
		t.Fatalf("StartFetchRun: %v", err)
	}

	errs, err := store.GetRecentFetchErrors(10)
	if err != nil {
		t.Fatalf("GetRecentFetchErrors: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errs))
	}
	got := errs[0]
	if got.RequestID != "req-2" || got.City != "Atlantis" {
		t.Errorf("error run = %+v", got)
	}
	if !got.HTTPStatus.Valid || got.HTTPStatus.Int64 != 404 {
		t.Errorf("HTTPStatus = %+v, want 404", got.HTTPStatus)
	}
	if got.ErrorMessage.String != "City not found." {
		t.Errorf("ErrorMessage = %q", got.ErrorMessage.String)
	}
	if !got.FinishedAt.Valid {
		t.Error("expected FinishedAt to be set")
	}

	health, err := store.GetFetchHealth(7)
	if err != nil {
		t.Fatalf("GetFetchHealth: %v", err)
	}
	if len(health) != 1 {
		t.Fatalf("len(health) = %d, want 1", len(health))
	}
	h := health[0]
	if h.TotalRuns != 3 || h.SuccessRuns != 1 || h.FailedRuns != 2 || h.Cities != 3 {
		t.Errorf("health = %+v", h)
	}
}

func TestStartFetchRun_DuplicateRequestID(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.StartFetchRun("same", "Manila"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.StartFetchRun("same", "Manila"); err == nil {
		t.Error("expected unique constraint error")
	}
}

func TestCompleteFetchRun_Nil(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CompleteFetchRun(nil); err != nil {
		t.Errorf("CompleteFetchRun(nil) = %v", err)
	}
}

func TestRawPayload_RoundTripAndDedup(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.StartFetchRun("req-1", "Delhi")
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte(`{"name":"Delhi","main":{"temp":34.2}}`)

	id, err := store.StoreRawPayload(&run.ID, "Delhi", payload)
	if err != nil {
		t.Fatalf("StoreRawPayload: %v", err)
	}
	if id == 0 {
		t.Fatal("expected payload ID")
	}

	dup, err := store.StoreRawPayload(nil, "Delhi", payload)
	if err != nil {
		t.Fatalf("StoreRawPayload duplicate: %v", err)
	}
	if dup != 0 {
		t.Errorf("duplicate ID = %d, want 0", dup)
	}

	got, err := store.GetRawPayload(id)
	if err != nil {
		t.Fatalf("GetRawPayload: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %s, want %s", got, payload)
	}

	stats, err := store.GetRawPayloadStats()
	if err != nil {
		t.Fatalf("GetRawPayloadStats: %v", err)
	}
	if stats.TotalCount != 1 || stats.TotalSizeBytes == 0 {
		t.Errorf("stats = %+v", stats)
	}

	deleted, err := store.CleanupOldRawPayloads(30)
	if err != nil {
		t.Fatalf("CleanupOldRawPayloads: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0 for fresh payloads", deleted)
	}
}
