package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument     = 1000
	ErrCodeInvalidJSON         = 1001
	ErrCodeRequestTooLarge     = 1002
	ErrCodeMissingBlindedUTXO  = 1010
	ErrCodeInvalidBlindedUTXO  = 1011
	ErrCodeMissingAttachmentID = 1012
	ErrCodeInvalidAttachmentID = 1013
	ErrCodeMissingAck          = 1014
	ErrCodeInvalidAck          = 1015
	ErrCodeMissingFile         = 1016

	// Domain state (2xxx)
	ErrCodeConsignmentNotFound      = 2001
	ErrCodeMediaNotFound            = 2002
	ErrCodeCannotChangeUploadedFile = 2101
	ErrCodeAckConflict              = 2102
	ErrCodeAlreadyResponded         = 2103
	ErrCodeDuplicateKey             = 2104

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeStorageIO    = 4003
	ErrCodeBlobNotFound = 4004
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 403:
		return ErrCodeAlreadyResponded
	case 404:
		return ErrCodeConsignmentNotFound
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
