package server

import (
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"

	"crelay/internal/api"
)

func (s *Server) handleGetConsignment(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetConsignment(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.ConsignmentResponse{
		Success:     true,
		Consignment: base64.StdEncoding.EncodeToString(data),
	})
}

func (s *Server) handlePostConsignment(w http.ResponseWriter, r *http.Request) {
	key, file, ok := s.multipartUpload(w, r, "blinded_utxo", ErrCodeMissingBlindedUTXO, "consignment")
	if !ok {
		return
	}
	defer file.Close()

	// Created and identical re-upload both succeed; only conflicting
	// content is an error on this surface.
	if _, err := s.service.UploadConsignment(r.Context(), key, file); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

// multipartUpload parses an upload request and extracts the key field
// and file part. An absent key field is a missing-parameter error; a
// present but malformed key is rejected later by the service, before
// any store access.
func (s *Server) multipartUpload(w http.ResponseWriter, r *http.Request, keyField string, missingCode int, fileField string) (string, multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.multipartMemory); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return "", nil, false
	}

	values, present := r.MultipartForm.Value[keyField]
	if !present || len(values) == 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("%s is required", keyField), missingCode))
		return "", nil, false
	}

	file, _, err := r.FormFile(fileField)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("%s file is required", fileField), ErrCodeMissingFile))
		return "", nil, false
	}

	return values[0], file, true
}
