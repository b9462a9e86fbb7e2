package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"crelay/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInsertAndFindConsignment(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	c := &models.Consignment{
		BlindedUTXO: "utxo-1",
		SHA256:      strings.Repeat("ab", 32),
		SizeBytes:   42,
	}
	if err := st.InsertConsignment(ctx, c); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.FindConsignment(ctx, "utxo-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected consignment, got nil")
	}
	if got.SHA256 != c.SHA256 || got.SizeBytes != 42 {
		t.Fatalf("unexpected record: %#v", got)
	}
	if got.Ack != nil {
		t.Fatal("expected undecided ack on a fresh record")
	}
	if got.Responded() {
		t.Fatal("fresh record must not be responded")
	}

	absent, err := st.FindConsignment(ctx, "utxo-other")
	if err != nil {
		t.Fatalf("find absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent key, got %#v", absent)
	}
}

func TestInsertConsignmentDuplicateKey(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	c := &models.Consignment{BlindedUTXO: "utxo-dup", SHA256: strings.Repeat("aa", 32), SizeBytes: 1}
	if err := st.InsertConsignment(ctx, c); err != nil {
		t.Fatalf("insert first: %v", err)
	}

	err := st.InsertConsignment(ctx, &models.Consignment{
		BlindedUTXO: "utxo-dup",
		SHA256:      strings.Repeat("bb", 32),
		SizeBytes:   2,
	})
	if err == nil {
		t.Fatal("expected unique-constraint error on duplicate key")
	}
	if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		t.Fatalf("expected unique-constraint error, got %v", err)
	}

	// The original record must be untouched.
	got, err := st.FindConsignment(ctx, "utxo-dup")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.SHA256 != strings.Repeat("aa", 32) {
		t.Fatalf("original record was modified: %#v", got)
	}
}

func TestSetConsignmentAckAppliesOnce(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	c := &models.Consignment{BlindedUTXO: "utxo-ack", SHA256: strings.Repeat("cc", 32), SizeBytes: 3}
	if err := st.InsertConsignment(ctx, c); err != nil {
		t.Fatalf("insert: %v", err)
	}

	applied, err := st.SetConsignmentAck(ctx, "utxo-ack", true)
	if err != nil {
		t.Fatalf("set ack: %v", err)
	}
	if !applied {
		t.Fatal("expected first ack update to apply")
	}

	// Second update never applies, regardless of value.
	applied, err = st.SetConsignmentAck(ctx, "utxo-ack", true)
	if err != nil {
		t.Fatalf("set ack again: %v", err)
	}
	if applied {
		t.Fatal("expected second ack update not to apply")
	}
	applied, err = st.SetConsignmentAck(ctx, "utxo-ack", false)
	if err != nil {
		t.Fatalf("set nack after ack: %v", err)
	}
	if applied {
		t.Fatal("expected conflicting ack update not to apply")
	}

	got, err := st.FindConsignment(ctx, "utxo-ack")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Acked() || got.Nacked() {
		t.Fatalf("expected terminal ack=true, got %#v", got.Ack)
	}
	if got.RespondedAt == nil {
		t.Fatal("expected responded_at to be set")
	}
}

func TestSetConsignmentAckAbsentKey(t *testing.T) {
	st := testStore(t)

	applied, err := st.SetConsignmentAck(context.Background(), "missing", true)
	if err != nil {
		t.Fatalf("set ack: %v", err)
	}
	if applied {
		t.Fatal("expected no update for absent key")
	}
}

func TestInsertAndFindMedia(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	m := &models.Media{AttachmentID: "att-1", SHA256: strings.Repeat("dd", 32), SizeBytes: 7}
	if err := st.InsertMedia(ctx, m); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.FindMedia(ctx, "att-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.SHA256 != m.SHA256 {
		t.Fatalf("unexpected record: %#v", got)
	}

	if err := st.InsertMedia(ctx, &models.Media{AttachmentID: "att-1", SHA256: strings.Repeat("ee", 32)}); err == nil {
		t.Fatal("expected unique-constraint error on duplicate attachment id")
	}
}

func TestCounts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.InsertConsignment(ctx, &models.Consignment{BlindedUTXO: "u1", SHA256: strings.Repeat("11", 32)}); err != nil {
		t.Fatalf("insert consignment: %v", err)
	}
	if err := st.InsertMedia(ctx, &models.Media{AttachmentID: "a1", SHA256: strings.Repeat("22", 32)}); err != nil {
		t.Fatalf("insert media: %v", err)
	}
	if err := st.InsertMedia(ctx, &models.Media{AttachmentID: "a2", SHA256: strings.Repeat("22", 32)}); err != nil {
		t.Fatalf("insert media 2: %v", err)
	}

	consignments, err := st.CountConsignments(ctx)
	if err != nil {
		t.Fatalf("count consignments: %v", err)
	}
	if consignments != 1 {
		t.Fatalf("expected 1 consignment, got %d", consignments)
	}
	media, err := st.CountMedia(ctx)
	if err != nil {
		t.Fatalf("count media: %v", err)
	}
	if media != 2 {
		t.Fatalf("expected 2 media, got %d", media)
	}
}

func TestMigrationsRecordVersion(t *testing.T) {
	st := testStore(t)

	version, err := st.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.InsertMedia(context.Background(), &models.Media{AttachmentID: "a1", SHA256: strings.Repeat("33", 32)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, err := st.FindMedia(context.Background(), "a1")
	if err != nil || got == nil {
		t.Fatalf("expected record to survive reopen, got %#v err %v", got, err)
	}
}
