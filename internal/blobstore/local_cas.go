package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const casAlgorithmPrefix = "sha256"

var digestRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// LocalCAS stores blob bytes in local content-addressed trees, one per
// namespace, with a shared staging area for in-flight uploads.
type LocalCAS struct {
	root string
}

// NewLocalCAS creates a local CAS rooted at root and ensures the
// staging area and both committed namespaces exist.
func NewLocalCAS(root string) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local cas root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dirs := []string{
		filepath.Join(abs, "tmp"),
		filepath.Join(abs, string(NamespaceConsignments)),
		filepath.Join(abs, string(NamespaceMedia)),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
		}
	}
	return &LocalCAS{root: abs}, nil
}

// Stage streams bytes into a unique temp file while computing SHA-256.
// The payload is not visible to readers until Commit.
func (c *LocalCAS) Stage(ctx context.Context, r io.Reader) (*Staged, error) {
	if c == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Join(c.root, "tmp"), "stage-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}
	tmpPath := tmp.Name()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	return &Staged{
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
		path:      tmpPath,
	}, nil
}

// Commit moves a staged payload into its final content-derived name
// under ns. If a blob already exists at that name the staged file is
// discarded and the commit is a no-op.
func (c *LocalCAS) Commit(ctx context.Context, ns Namespace, st *Staged) error {
	if c == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if st == nil || st.path == "" {
		return fmt.Errorf("staged payload is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := c.blobPath(ns, st.SHA256)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	if _, err := os.Stat(dst); err == nil {
		c.Discard(st)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	if err := os.Rename(st.path, dst); err != nil {
		// A concurrent commit of the same content may have won the
		// rename; the blob is in place either way.
		if _, statErr := os.Stat(dst); statErr == nil {
			c.Discard(st)
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	st.path = ""
	return nil
}

// Discard removes a staged-but-uncommitted payload. Safe to call on a
// committed or already-discarded handle.
func (c *LocalCAS) Discard(st *Staged) {
	if st == nil || st.path == "" {
		return
	}
	_ = os.Remove(st.path)
	st.path = ""
}

// Open returns a reader for the committed blob named digest in ns.
func (c *LocalCAS) Open(ctx context.Context, ns Namespace, digest string) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := c.blobPath(ns, digest)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}
	return f, nil
}

func (c *LocalCAS) blobPath(ns Namespace, digest string) (string, error) {
	switch ns {
	case NamespaceConsignments, NamespaceMedia:
	default:
		return "", fmt.Errorf("invalid blob namespace %q", ns)
	}
	digest = strings.ToLower(strings.TrimSpace(digest))
	if !digestRegex.MatchString(digest) {
		return "", fmt.Errorf("invalid blob digest")
	}
	// The path is rebuilt from the validated digest, so caller input
	// can never escape the namespace tree.
	return filepath.Join(c.root, string(ns), casAlgorithmPrefix, digest[0:2], digest[2:4], digest), nil
}

var _ BlobStore = (*LocalCAS)(nil)
