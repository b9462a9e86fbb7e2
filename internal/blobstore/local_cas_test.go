package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalCASStageCommitOpen(t *testing.T) {
	cas, err := NewLocalCAS(t.TempDir())
	if err != nil {
		t.Fatalf("new local cas: %v", err)
	}

	st, err := cas.Stage(context.Background(), bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if st.SHA256 == "" || st.SizeBytes != 5 {
		t.Fatalf("unexpected staged handle: %#v", st)
	}

	// Not visible before commit.
	if _, err := cas.Open(context.Background(), NamespaceConsignments, st.SHA256); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound before commit, got %v", err)
	}

	if err := cas.Commit(context.Background(), NamespaceConsignments, st); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rc, err := cas.Open(context.Background(), NamespaceConsignments, st.SHA256)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}
}

func TestLocalCASCommitIsIdempotent(t *testing.T) {
	cas, err := NewLocalCAS(t.TempDir())
	if err != nil {
		t.Fatalf("new local cas: %v", err)
	}

	first, err := cas.Stage(context.Background(), bytes.NewBufferString("same bytes"))
	if err != nil {
		t.Fatalf("stage first: %v", err)
	}
	second, err := cas.Stage(context.Background(), bytes.NewBufferString("same bytes"))
	if err != nil {
		t.Fatalf("stage second: %v", err)
	}
	if first.SHA256 != second.SHA256 {
		t.Fatalf("expected identical digests, got %q and %q", first.SHA256, second.SHA256)
	}

	if err := cas.Commit(context.Background(), NamespaceMedia, first); err != nil {
		t.Fatalf("commit first: %v", err)
	}
	if err := cas.Commit(context.Background(), NamespaceMedia, second); err != nil {
		t.Fatalf("second commit should be a no-op: %v", err)
	}

	rc, err := cas.Open(context.Background(), NamespaceMedia, first.SHA256)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
}

func TestLocalCASNamespacesAreIndependent(t *testing.T) {
	cas, err := NewLocalCAS(t.TempDir())
	if err != nil {
		t.Fatalf("new local cas: %v", err)
	}

	st, err := cas.Stage(context.Background(), bytes.NewBufferString("payload"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := cas.Commit(context.Background(), NamespaceConsignments, st); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := cas.Open(context.Background(), NamespaceMedia, st.SHA256); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound in other namespace, got %v", err)
	}
}

func TestLocalCASDiscardCleansStaging(t *testing.T) {
	root := t.TempDir()
	cas, err := NewLocalCAS(root)
	if err != nil {
		t.Fatalf("new local cas: %v", err)
	}

	st, err := cas.Stage(context.Background(), bytes.NewBufferString("orphan"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	cas.Discard(st)
	// Safe to discard twice.
	cas.Discard(st)

	entries, err := os.ReadDir(filepath.Join(root, "tmp"))
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty staging area, found %d entries", len(entries))
	}
}

func TestLocalCASRejectsBadDigests(t *testing.T) {
	cas, err := NewLocalCAS(t.TempDir())
	if err != nil {
		t.Fatalf("new local cas: %v", err)
	}

	for _, digest := range []string{"", "abc", "../../etc/passwd", "ZZ"} {
		if _, err := cas.Open(context.Background(), NamespaceConsignments, digest); err == nil {
			t.Fatalf("expected error for digest %q", digest)
		}
	}
	if _, err := cas.Open(context.Background(), Namespace("other"), "0000000000000000000000000000000000000000000000000000000000000000"); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}
