package blobstore

import (
	"context"
	"errors"
	"io"
)

// Namespace selects one of the committed blob areas.
type Namespace string

const (
	NamespaceConsignments Namespace = "consignments"
	NamespaceMedia        Namespace = "media"
)

var (
	// ErrBlobNotFound is returned by Open when no committed blob
	// exists under the requested digest.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrStorageIO wraps failures of the underlying medium.
	ErrStorageIO = errors.New("storage i/o failure")
)

// Staged is an uploaded payload written to the staging area but not
// yet visible to readers. SHA256 is the content-derived name the blob
// will get on commit.
type Staged struct {
	SHA256    string
	SizeBytes int64

	path string
}

// BlobStore is the byte-storage abstraction used by RelayService.
// A staged payload must end in exactly one Commit or Discard.
type BlobStore interface {
	Stage(ctx context.Context, r io.Reader) (*Staged, error)
	Commit(ctx context.Context, ns Namespace, st *Staged) error
	Discard(st *Staged)
	Open(ctx context.Context, ns Namespace, digest string) (io.ReadCloser, error)
}
