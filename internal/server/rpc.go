package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// handleRPC serves the single JSON-RPC endpoint. The body is either a
// plain JSON request or multipart/form-data with the request in a
// "request" field and an optional "file" part for the upload methods.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, file, rpcErr := s.decodeRPCRequest(w, r)
	if file != nil {
		defer file.Close()
	}
	if rpcErr != nil {
		s.writeRPCFailure(w, nil, *rpcErr)
		return
	}

	if req.Method == "" {
		s.writeRPCFailure(w, req.ID, rpcError{Code: rpcInvalidRequest, Message: "method is required"})
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		s.writeRPCFailure(w, req.ID, rpcError{Code: rpcInvalidRequest, Message: "unsupported jsonrpc version"})
		return
	}

	result, rpcErr := s.dispatchRPC(r.Context(), req, file)

	// A request without an id is a notification: executed, no body.
	if len(req.ID) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if rpcErr != nil {
		s.log().Debug("rpc rejected",
			"method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
		s.writeRPCFailure(w, req.ID, *rpcErr)
		return
	}

	s.writeJSON(w, http.StatusOK, rpcResult{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) dispatchRPC(ctx context.Context, req rpcRequest, file io.Reader) (any, *rpcError) {
	switch req.Method {
	case "server.info":
		info, err := s.service.Info(ctx)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return rpcServerInfo{
			Version:         info.Version,
			ProtocolVersion: info.ProtocolVersion,
			Uptime:          info.UptimeSeconds,
		}, nil

	case "consignment.get":
		key, rpcErr := rpcConsignmentKey(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		data, err := s.service.GetConsignment(ctx, key)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return base64.StdEncoding.EncodeToString(data), nil

	case "consignment.post":
		key, rpcErr := rpcConsignmentKey(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if file == nil {
			return nil, rpcAppCode(ErrCodeMissingFile, "file part is required")
		}
		created, err := s.service.UploadConsignment(ctx, key, file)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return created, nil

	case "media.get":
		key, rpcErr := rpcMediaKey(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		data, err := s.service.GetMedia(ctx, key)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return base64.StdEncoding.EncodeToString(data), nil

	case "media.post":
		key, rpcErr := rpcMediaKey(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if file == nil {
			return nil, rpcAppCode(ErrCodeMissingFile, "file part is required")
		}
		created, err := s.service.UploadMedia(ctx, key, file)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return created, nil

	case "ack.get":
		key, rpcErr := rpcConsignmentKey(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		rec, err := s.service.AckStatus(ctx, key)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		if rec.Ack == nil {
			// Undecided is a literal null result, not an error.
			return nil, nil
		}
		return *rec.Ack, nil

	case "ack.post":
		var params rpcAckParams
		if rpcErr := decodeRPCParams(req.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		if params.BlindedUTXO == nil {
			return nil, rpcAppCode(ErrCodeMissingBlindedUTXO, "blinded_utxo is required")
		}
		if params.Ack == nil {
			return nil, rpcAppCode(ErrCodeMissingAck, "ack is required")
		}
		changed, err := s.service.SetAck(ctx, *params.BlindedUTXO, *params.Ack)
		if err != nil {
			return nil, s.rpcAppError(err)
		}
		return changed, nil

	default:
		return nil, &rpcError{Code: rpcMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

// decodeRPCRequest extracts the JSON-RPC request and, for multipart
// bodies, the optional file part.
func (s *Server) decodeRPCRequest(w http.ResponseWriter, r *http.Request) (rpcRequest, io.ReadCloser, *rpcError) {
	var req rpcRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := r.ParseMultipartForm(s.multipartMemory); err != nil {
			return req, nil, &rpcError{Code: rpcParseError, Message: "malformed multipart body"}
		}

		values, present := r.MultipartForm.Value["request"]
		if !present || len(values) == 0 {
			return req, nil, &rpcError{Code: rpcInvalidRequest, Message: "request field is required"}
		}
		if err := json.Unmarshal([]byte(values[0]), &req); err != nil {
			return req, nil, &rpcError{Code: rpcParseError, Message: "malformed request field"}
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			// The file part is optional; only upload methods require it.
			return req, nil, nil
		}
		return req, file, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, defaultJSONMaxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return req, nil, &rpcError{Code: rpcParseError, Message: "unreadable request body"}
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, nil, &rpcError{Code: rpcParseError, Message: "malformed JSON request"}
	}
	return req, nil, nil
}

// rpcParamErrorCodes maps param fields to their invalid-value codes so
// a wrong-typed field fails with the field's own kind, not a generic
// protocol error.
var rpcParamErrorCodes = map[string]int{
	"blinded_utxo":  ErrCodeInvalidBlindedUTXO,
	"attachment_id": ErrCodeInvalidAttachmentID,
	"ack":           ErrCodeInvalidAck,
}

func decodeRPCParams(params json.RawMessage, dst any) *rpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if code, ok := rpcParamErrorCodes[typeErr.Field]; ok {
				return rpcAppCode(code, fmt.Sprintf("invalid %s", typeErr.Field))
			}
		}
		return &rpcError{Code: rpcInvalidParams, Message: "malformed params"}
	}
	return nil
}

func rpcConsignmentKey(params json.RawMessage) (string, *rpcError) {
	var p rpcConsignmentParams
	if rpcErr := decodeRPCParams(params, &p); rpcErr != nil {
		return "", rpcErr
	}
	if p.BlindedUTXO == nil {
		return "", rpcAppCode(ErrCodeMissingBlindedUTXO, "blinded_utxo is required")
	}
	return *p.BlindedUTXO, nil
}

func rpcMediaKey(params json.RawMessage) (string, *rpcError) {
	var p rpcMediaParams
	if rpcErr := decodeRPCParams(params, &p); rpcErr != nil {
		return "", rpcErr
	}
	if p.AttachmentID == nil {
		return "", rpcAppCode(ErrCodeMissingAttachmentID, "attachment_id is required")
	}
	return *p.AttachmentID, nil
}

func rpcAppCode(code int, message string) *rpcError {
	return &rpcError{Code: -code, Message: message}
}

// rpcAppError maps a service error to a JSON-RPC error object: the
// negated numeric code, with server-side failure detail masked the same
// way the REST surface masks it.
func (s *Server) rpcAppError(err error) *rpcError {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.errCode > 0 {
		message := apiErr.Error()
		if apiErr.status >= 500 {
			s.log().Error("rpc internal error", "error", err)
			message = "internal error"
		}
		return &rpcError{Code: -apiErr.errCode, Message: message}
	}
	s.log().Error("rpc internal error", "error", err)
	return &rpcError{Code: rpcInternalError, Message: "internal error"}
}

func (s *Server) writeRPCFailure(w http.ResponseWriter, id json.RawMessage, rpcErr rpcError) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	s.writeJSON(w, http.StatusOK, rpcFailure{JSONRPC: "2.0", ID: id, Error: rpcErr})
}
