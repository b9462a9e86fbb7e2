package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"crelay/internal/blobstore"
	"crelay/internal/store"
)

const (
	allowRemoteEnvKey = "CRELAY_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second

	defaultJSONMaxBody        = 1 << 20   // 1 MiB
	defaultUploadMaxBody      = 100 << 20 // 100 MiB
	defaultMultipartMaxMemory = 8 << 20   // 8 MiB
)

// Options tunes upload limits.
type Options struct {
	MaxUploadBytes     int64
	MultipartMaxMemory int64
}

// Server wraps HTTP handlers for the relay API.
type Server struct {
	addr            string
	service         *RelayService
	logger          *slog.Logger
	maxUploadBytes  int64
	multipartMemory int64
}

// New creates a new server instance.
func New(addr string, relayStore store.RelayStore, blobs blobstore.BlobStore, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:            addr,
		service:         NewRelayService(relayStore, blobs, version),
		logger:          logger,
		maxUploadBytes:  defaultUploadMaxBody,
		multipartMemory: defaultMultipartMaxMemory,
	}
}

// Configure overrides upload limits.
func (s *Server) Configure(opts Options) {
	if s == nil {
		return
	}
	if opts.MaxUploadBytes > 0 {
		s.maxUploadBytes = opts.MaxUploadBytes
	}
	if opts.MultipartMaxMemory > 0 {
		s.multipartMemory = opts.MultipartMaxMemory
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.withRequestLogging(s.routes()),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
