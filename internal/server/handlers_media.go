package server

import (
	"encoding/base64"
	"net/http"

	"crelay/internal/api"
)

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetMedia(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.MediaResponse{
		Success: true,
		Media:   base64.StdEncoding.EncodeToString(data),
	})
}

func (s *Server) handlePostMedia(w http.ResponseWriter, r *http.Request) {
	key, file, ok := s.multipartUpload(w, r, "attachment_id", ErrCodeMissingAttachmentID, "media")
	if !ok {
		return
	}
	defer file.Close()

	if _, err := s.service.UploadMedia(r.Context(), key, file); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}
