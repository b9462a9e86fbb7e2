package server

import (
	"fmt"
	"net/http"

	"crelay/internal/api"
)

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	s.handleRespond(w, r, true)
}

func (s *Server) handleNack(w http.ResponseWriter, r *http.Request) {
	s.handleRespond(w, r, false)
}

// handleRespond serves the legacy fixed-value routes. They are stricter
// than the generic setter: any resubmission on a decided consignment
// fails with already-responded, same value or not.
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request, value bool) {
	var req api.AckRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.BlindedUTXO == nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("blinded_utxo is required"), ErrCodeMissingBlindedUTXO))
		return
	}

	if err := s.service.Respond(r.Context(), *req.BlindedUTXO, value); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

func (s *Server) handleAckStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.AckStatus(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.AckStatusResponse{
		Success:   true,
		Ack:       rec.Ack,
		Nack:      rec.Nacked(),
		Responded: rec.Responded(),
	})
}
