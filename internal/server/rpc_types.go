package server

import "encoding/json"

// Standard JSON-RPC 2.0 protocol error codes. Application failures use
// the negated numeric code from the shared error-code table instead.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResult carries a successful response. Result has no omitempty so
// a nil result marshals as an explicit null (undecided ack.get).
type rpcResult struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type rpcFailure struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   rpcError        `json:"error"`
}

type rpcServerInfo struct {
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	Uptime          int64  `json:"uptime"`
}

type rpcConsignmentParams struct {
	BlindedUTXO *string `json:"blinded_utxo"`
}

type rpcMediaParams struct {
	AttachmentID *string `json:"attachment_id"`
}

type rpcAckParams struct {
	BlindedUTXO *string `json:"blinded_utxo"`
	Ack         *bool   `json:"ack"`
}
