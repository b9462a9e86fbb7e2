package server

import (
	"net/http"

	"crelay/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Info(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		Success:         true,
		Version:         info.Version,
		ProtocolVersion: info.ProtocolVersion,
		UptimeSeconds:   info.UptimeSeconds,
		Consignments:    info.Consignments,
		Media:           info.Media,
	})
}
