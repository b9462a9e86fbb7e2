package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"crelay/internal/blobstore"
	"crelay/internal/models"
	"crelay/internal/store"
)

// ProtocolVersion is the relay wire protocol version reported by
// server.info and /getinfo.
const ProtocolVersion = "0.2"

// RelayService owns the business rules shared by the JSON-RPC and REST
// surfaces: upload dedup/conflict handling, artifact fetch, and the
// one-shot acknowledgment transitions. Handlers only translate its
// outcomes to wire shapes.
type RelayService struct {
	store     store.RelayStore
	blobs     blobstore.BlobStore
	version   string
	startedAt time.Time
}

// ServerInfo reports version and storage counts for the info surfaces.
type ServerInfo struct {
	Version         string
	ProtocolVersion string
	UptimeSeconds   int64
	Consignments    int64
	Media           int64
}

// NewRelayService constructs a RelayService.
func NewRelayService(relayStore store.RelayStore, blobs blobstore.BlobStore, version string) *RelayService {
	return &RelayService{
		store:     relayStore,
		blobs:     blobs,
		version:   version,
		startedAt: time.Now(),
	}
}

// UploadConsignment stores a consignment under a blinded UTXO. It
// returns true when a new record was created and false when identical
// content was already stored (a no-op, not an error). Uploading
// different content under an existing key fails.
func (s *RelayService) UploadConsignment(ctx context.Context, blindedUTXO string, content io.Reader) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if !validateRelayKey(blindedUTXO) {
		return false, badRequestCode(fmt.Errorf("invalid blinded_utxo"), ErrCodeInvalidBlindedUTXO)
	}
	return s.upload(ctx, blobstore.NamespaceConsignments, content,
		func(ctx context.Context) (string, bool, error) {
			rec, err := s.store.FindConsignment(ctx, blindedUTXO)
			if err != nil || rec == nil {
				return "", false, err
			}
			return rec.SHA256, true, nil
		},
		func(ctx context.Context, st *blobstore.Staged) error {
			return s.store.InsertConsignment(ctx, &models.Consignment{
				BlindedUTXO: blindedUTXO,
				SHA256:      st.SHA256,
				SizeBytes:   st.SizeBytes,
			})
		})
}

// GetConsignment returns the consignment bytes for a blinded UTXO.
func (s *RelayService) GetConsignment(ctx context.Context, blindedUTXO string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !validateRelayKey(blindedUTXO) {
		return nil, badRequestCode(fmt.Errorf("invalid blinded_utxo"), ErrCodeInvalidBlindedUTXO)
	}

	rec, err := s.store.FindConsignment(ctx, blindedUTXO)
	if err != nil {
		return nil, storeFailure(err)
	}
	if rec == nil {
		return nil, notFoundCode(fmt.Errorf("consignment not found"), ErrCodeConsignmentNotFound)
	}
	return s.readBlob(ctx, blobstore.NamespaceConsignments, rec.SHA256)
}

// UploadMedia stores a media artifact under an attachment ID, with the
// same dedup/conflict contract as UploadConsignment.
func (s *RelayService) UploadMedia(ctx context.Context, attachmentID string, content io.Reader) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if !validateRelayKey(attachmentID) {
		return false, badRequestCode(fmt.Errorf("invalid attachment_id"), ErrCodeInvalidAttachmentID)
	}
	return s.upload(ctx, blobstore.NamespaceMedia, content,
		func(ctx context.Context) (string, bool, error) {
			rec, err := s.store.FindMedia(ctx, attachmentID)
			if err != nil || rec == nil {
				return "", false, err
			}
			return rec.SHA256, true, nil
		},
		func(ctx context.Context, st *blobstore.Staged) error {
			return s.store.InsertMedia(ctx, &models.Media{
				AttachmentID: attachmentID,
				SHA256:       st.SHA256,
				SizeBytes:    st.SizeBytes,
			})
		})
}

// GetMedia returns the media bytes for an attachment ID.
func (s *RelayService) GetMedia(ctx context.Context, attachmentID string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !validateRelayKey(attachmentID) {
		return nil, badRequestCode(fmt.Errorf("invalid attachment_id"), ErrCodeInvalidAttachmentID)
	}

	rec, err := s.store.FindMedia(ctx, attachmentID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if rec == nil {
		return nil, notFoundCode(fmt.Errorf("media not found"), ErrCodeMediaNotFound)
	}
	return s.readBlob(ctx, blobstore.NamespaceMedia, rec.SHA256)
}

// SetAck records the acknowledgment value for a consignment. It
// returns true when the state changed and false when the same value
// was already recorded. A different recorded value is a conflict.
func (s *RelayService) SetAck(ctx context.Context, blindedUTXO string, value bool) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if !validateRelayKey(blindedUTXO) {
		return false, badRequestCode(fmt.Errorf("invalid blinded_utxo"), ErrCodeInvalidBlindedUTXO)
	}

	applied, err := s.store.SetConsignmentAck(ctx, blindedUTXO, value)
	if err != nil {
		return false, storeFailure(err)
	}
	if applied {
		return true, nil
	}

	rec, err := s.store.FindConsignment(ctx, blindedUTXO)
	if err != nil {
		return false, storeFailure(err)
	}
	if rec == nil {
		return false, notFoundCode(fmt.Errorf("consignment not found"), ErrCodeConsignmentNotFound)
	}
	if rec.Ack != nil && *rec.Ack == value {
		return false, nil
	}
	return false, forbiddenCode(fmt.Errorf("ack already set to a different value"), ErrCodeAckConflict)
}

// Respond implements the legacy /ack and /nack contract: it only
// succeeds while the consignment is undecided. Any resubmission, even
// with the same value, fails with already-responded.
func (s *RelayService) Respond(ctx context.Context, blindedUTXO string, value bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !validateRelayKey(blindedUTXO) {
		return badRequestCode(fmt.Errorf("invalid blinded_utxo"), ErrCodeInvalidBlindedUTXO)
	}

	applied, err := s.store.SetConsignmentAck(ctx, blindedUTXO, value)
	if err != nil {
		return storeFailure(err)
	}
	if applied {
		return nil
	}

	rec, err := s.store.FindConsignment(ctx, blindedUTXO)
	if err != nil {
		return storeFailure(err)
	}
	if rec == nil {
		return notFoundCode(fmt.Errorf("consignment not found"), ErrCodeConsignmentNotFound)
	}
	return forbiddenCode(fmt.Errorf("already responded"), ErrCodeAlreadyResponded)
}

// AckStatus returns the consignment record for ack queries.
func (s *RelayService) AckStatus(ctx context.Context, blindedUTXO string) (*models.Consignment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !validateRelayKey(blindedUTXO) {
		return nil, badRequestCode(fmt.Errorf("invalid blinded_utxo"), ErrCodeInvalidBlindedUTXO)
	}

	rec, err := s.store.FindConsignment(ctx, blindedUTXO)
	if err != nil {
		return nil, storeFailure(err)
	}
	if rec == nil {
		return nil, notFoundCode(fmt.Errorf("consignment not found"), ErrCodeConsignmentNotFound)
	}
	return rec, nil
}

// Info reports server version, protocol version, uptime, and counts.
func (s *RelayService) Info(ctx context.Context) (ServerInfo, error) {
	info := ServerInfo{Version: s.version, ProtocolVersion: ProtocolVersion}
	if err := s.ready(); err != nil {
		return info, err
	}
	info.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())

	consignments, err := s.store.CountConsignments(ctx)
	if err != nil {
		return info, storeFailure(err)
	}
	media, err := s.store.CountMedia(ctx)
	if err != nil {
		return info, storeFailure(err)
	}
	info.Consignments = consignments
	info.Media = media
	return info, nil
}

// upload runs the shared staged-upload flow. The staged file is
// discarded on every path that does not commit it; Discard is a no-op
// on a committed handle, so the deferred cleanup is unconditional.
func (s *RelayService) upload(
	ctx context.Context,
	ns blobstore.Namespace,
	content io.Reader,
	find func(context.Context) (sha256 string, exists bool, err error),
	insert func(context.Context, *blobstore.Staged) error,
) (bool, error) {
	if content == nil {
		return false, badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingFile)
	}

	st, err := s.blobs.Stage(ctx, content)
	if err != nil {
		return false, storageFailure(err)
	}
	defer s.blobs.Discard(st)

	existingSHA, exists, err := find(ctx)
	if err != nil {
		return false, storeFailure(err)
	}
	if exists {
		if existingSHA == st.SHA256 {
			return false, nil
		}
		return false, forbiddenCode(fmt.Errorf("cannot change uploaded file"), ErrCodeCannotChangeUploadedFile)
	}

	if err := s.blobs.Commit(ctx, ns, st); err != nil {
		return false, storageFailure(err)
	}

	if err := insert(ctx, st); err != nil {
		if isUniqueConstraint(err) {
			// A concurrent upload won the insert race. Identical
			// content is still a no-op; anything else is the same
			// conflict a sequential second upload would get. The
			// loser's blob stays committed under its content name
			// with no record referencing it; an identical future
			// upload reuses it via the idempotent commit.
			existingSHA, exists, ferr := find(ctx)
			if ferr == nil && exists {
				if existingSHA == st.SHA256 {
					return false, nil
				}
				return false, forbiddenCode(fmt.Errorf("cannot change uploaded file"), ErrCodeCannotChangeUploadedFile)
			}
			return false, forbiddenCode(fmt.Errorf("duplicate key"), ErrCodeDuplicateKey)
		}
		return false, storeFailure(err)
	}
	return true, nil
}

func (s *RelayService) readBlob(ctx context.Context, ns blobstore.Namespace, digest string) ([]byte, error) {
	rc, err := s.blobs.Open(ctx, ns, digest)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			// A record exists but its blob is gone: storage corruption,
			// not a caller error.
			return nil, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeBlobNotFound, fmt.Errorf("stored blob missing"))
		}
		return nil, storageFailure(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, storageFailure(err)
	}
	return data, nil
}

func (s *RelayService) ready() error {
	if s == nil || s.store == nil || s.blobs == nil {
		return internalError(fmt.Errorf("relay service is not configured"))
	}
	return nil
}
