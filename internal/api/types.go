package api

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SuccessResponse is the minimal envelope for requests with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ConsignmentResponse carries a fetched consignment, base64-encoded.
type ConsignmentResponse struct {
	Success     bool   `json:"success"`
	Consignment string `json:"consignment"`
}

// MediaResponse carries a fetched media artifact, base64-encoded.
type MediaResponse struct {
	Success bool   `json:"success"`
	Media   string `json:"media"`
}

// AckRequest is the body of the legacy POST /ack and /nack routes.
type AckRequest struct {
	BlindedUTXO *string `json:"blinded_utxo"`
}

// AckStatusResponse reports the acknowledgment state of a consignment.
// Ack is null while the decision is still pending; Nack and Responded
// are derived from it, never independently set.
type AckStatusResponse struct {
	Success   bool  `json:"success"`
	Ack       *bool `json:"ack"`
	Nack      bool  `json:"nack"`
	Responded bool  `json:"responded"`
}

// InfoResponse is the body of GET /getinfo.
type InfoResponse struct {
	Success         bool   `json:"success"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	UptimeSeconds   int64  `json:"uptime"`
	Consignments    int64  `json:"consignments"`
	Media           int64  `json:"media"`
}
