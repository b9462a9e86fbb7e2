package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /getinfo", s.handleInfo)

	// Consignments.
	mux.HandleFunc("GET /consignment/{key}", s.handleGetConsignment)
	mux.HandleFunc("POST /consignment", s.handlePostConsignment)

	// Media.
	mux.HandleFunc("GET /media/{key}", s.handleGetMedia)
	mux.HandleFunc("POST /media", s.handlePostMedia)

	// Legacy acknowledgment routes.
	mux.HandleFunc("POST /ack", s.handleAck)
	mux.HandleFunc("POST /nack", s.handleNack)
	mux.HandleFunc("GET /ack/{key}", s.handleAckStatus)

	// JSON-RPC endpoint.
	mux.HandleFunc("POST /json-rpc", s.handleRPC)

	return mux
}
