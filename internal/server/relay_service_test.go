package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"crelay/internal/blobstore"
	"crelay/internal/store"
)

func testService(t *testing.T) *RelayService {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "relay.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blobstore.NewLocalCAS(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("new cas: %v", err)
	}

	return NewRelayService(st, blobs, "test")
}

func errStatus(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	return httpStatusFromError(err)
}

func errNumericCode(t *testing.T, err error) int {
	t.Helper()
	var apiErr apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %T: %v", err, err)
	}
	return apiErr.errCode
}

func TestUploadConsignmentDedup(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.UploadConsignment(ctx, "utxo-1", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if !created {
		t.Fatal("first upload should create")
	}

	created, err = svc.UploadConsignment(ctx, "utxo-1", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("identical re-upload: %v", err)
	}
	if created {
		t.Fatal("identical re-upload should be a no-op")
	}

	_, err = svc.UploadConsignment(ctx, "utxo-1", strings.NewReader("different"))
	if got := errStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("conflicting upload status = %d, want 403", got)
	}
	if got := errNumericCode(t, err); got != ErrCodeCannotChangeUploadedFile {
		t.Fatalf("conflicting upload code = %d, want %d", got, ErrCodeCannotChangeUploadedFile)
	}

	// The conflict must not clobber the stored content.
	data, err := svc.GetConsignment(ctx, "utxo-1")
	if err != nil {
		t.Fatalf("get after conflict: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("content = %q, want original payload", data)
	}
}

func TestUploadMediaRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	content := bytes.Repeat([]byte{0xAB, 0xCD}, 1024)
	if _, err := svc.UploadMedia(ctx, "att-1", bytes.NewReader(content)); err != nil {
		t.Fatalf("upload media: %v", err)
	}

	data, err := svc.GetMedia(ctx, "att-1")
	if err != nil {
		t.Fatalf("get media: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("media content mismatch")
	}

	_, err = svc.GetMedia(ctx, "att-unknown")
	if got := errStatus(t, err); got != http.StatusNotFound {
		t.Fatalf("unknown media status = %d, want 404", got)
	}
	if got := errNumericCode(t, err); got != ErrCodeMediaNotFound {
		t.Fatalf("unknown media code = %d, want %d", got, ErrCodeMediaNotFound)
	}
}

func TestSetAckTransitions(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.UploadConsignment(ctx, "utxo-ack", strings.NewReader("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	changed, err := svc.SetAck(ctx, "utxo-ack", true)
	if err != nil {
		t.Fatalf("first ack: %v", err)
	}
	if !changed {
		t.Fatal("first ack should change state")
	}

	changed, err = svc.SetAck(ctx, "utxo-ack", true)
	if err != nil {
		t.Fatalf("same-value ack: %v", err)
	}
	if changed {
		t.Fatal("same-value ack should be a no-op")
	}

	_, err = svc.SetAck(ctx, "utxo-ack", false)
	if got := errStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("flip status = %d, want 403", got)
	}
	if got := errNumericCode(t, err); got != ErrCodeAckConflict {
		t.Fatalf("flip code = %d, want %d", got, ErrCodeAckConflict)
	}

	rec, err := svc.AckStatus(ctx, "utxo-ack")
	if err != nil {
		t.Fatalf("ack status: %v", err)
	}
	if rec.Ack == nil || !*rec.Ack {
		t.Fatal("ack should still be true after rejected flip")
	}
}

func TestRespondIsOneShot(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.UploadConsignment(ctx, "utxo-legacy", strings.NewReader("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Respond(ctx, "utxo-legacy", false); err != nil {
		t.Fatalf("first nack: %v", err)
	}

	// The legacy routes reject any resubmission, same value included.
	err := svc.Respond(ctx, "utxo-legacy", false)
	if got := errStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("resubmit status = %d, want 403", got)
	}
	if got := errNumericCode(t, err); got != ErrCodeAlreadyResponded {
		t.Fatalf("resubmit code = %d, want %d", got, ErrCodeAlreadyResponded)
	}
}

func TestAckUnknownConsignment(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.SetAck(ctx, "missing", true)
	if got := errStatus(t, err); got != http.StatusNotFound {
		t.Fatalf("SetAck status = %d, want 404", got)
	}

	err = svc.Respond(ctx, "missing", true)
	if got := errStatus(t, err); got != http.StatusNotFound {
		t.Fatalf("Respond status = %d, want 404", got)
	}

	_, err = svc.AckStatus(ctx, "missing")
	if got := errNumericCode(t, err); got != ErrCodeConsignmentNotFound {
		t.Fatalf("AckStatus code = %d, want %d", got, ErrCodeConsignmentNotFound)
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	bad := []string{"", "has space", "has/slash", "has\\backslash", "ctrl\x01", strings.Repeat("k", 513)}
	for _, key := range bad {
		_, err := svc.UploadConsignment(ctx, key, strings.NewReader("x"))
		if got := errStatus(t, err); got != http.StatusBadRequest {
			t.Errorf("upload key %q status = %d, want 400", key, got)
		}
		_, err = svc.GetConsignment(ctx, key)
		if got := errStatus(t, err); got != http.StatusBadRequest {
			t.Errorf("get key %q status = %d, want 400", key, got)
		}
	}

	// Nothing must have been stored by the rejected uploads.
	info, err := svc.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Consignments != 0 {
		t.Fatalf("consignment count = %d, want 0", info.Consignments)
	}
}

func TestInfoCounts(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if _, err := svc.UploadConsignment(ctx, key, strings.NewReader(key)); err != nil {
			t.Fatalf("upload %q: %v", key, err)
		}
	}
	if _, err := svc.UploadMedia(ctx, "m", strings.NewReader("m")); err != nil {
		t.Fatalf("upload media: %v", err)
	}

	info, err := svc.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Consignments != 3 || info.Media != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", info.Consignments, info.Media)
	}
	if info.ProtocolVersion != ProtocolVersion {
		t.Fatalf("protocol version = %q", info.ProtocolVersion)
	}
	if info.Version != "test" {
		t.Fatalf("version = %q", info.Version)
	}
}

func TestConcurrentSameKeyUploads(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	const workers = 8
	results := make([]bool, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.UploadConsignment(ctx, "racy", strings.NewReader("same content"))
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i] {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("created count = %d, want exactly 1", created)
	}

	data, err := svc.GetConsignment(ctx, "racy")
	if err != nil {
		t.Fatalf("get after race: %v", err)
	}
	if string(data) != "same content" {
		t.Fatalf("content = %q", data)
	}
}

func TestConcurrentDifferentContentUploads(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	const workers = 8
	results := make([]bool, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.UploadConsignment(ctx, "contested",
				strings.NewReader(fmt.Sprintf("content-%d", i)))
		}(i)
	}
	wg.Wait()

	// Exactly one worker creates the record; since every payload is
	// distinct, each loser must see the upload conflict, never a
	// silent no-op.
	winner := -1
	for i := 0; i < workers; i++ {
		if errs[i] == nil {
			if !results[i] {
				t.Fatalf("worker %d: no-op result for content nobody else uploaded", i)
			}
			if winner != -1 {
				t.Fatalf("workers %d and %d both created the record", winner, i)
			}
			winner = i
			continue
		}
		if got := errStatus(t, errs[i]); got != http.StatusForbidden {
			t.Fatalf("worker %d: status = %d, want 403", i, got)
		}
		if got := errNumericCode(t, errs[i]); got != ErrCodeCannotChangeUploadedFile {
			t.Fatalf("worker %d: code = %d, want %d", i, got, ErrCodeCannotChangeUploadedFile)
		}
	}
	if winner == -1 {
		t.Fatal("no worker created the record")
	}

	data, err := svc.GetConsignment(ctx, "contested")
	if err != nil {
		t.Fatalf("get after race: %v", err)
	}
	if string(data) != fmt.Sprintf("content-%d", winner) {
		t.Fatalf("stored content %q does not match winner %d", data, winner)
	}
}
