package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "CRELAY_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the relay REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the relay server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// GetInfo fetches server version and artifact counts.
func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/getinfo", nil, &resp)
	return resp, err
}

// PostConsignment uploads a consignment under a blinded UTXO.
func (c *Client) PostConsignment(ctx context.Context, blindedUTXO, filename string, content io.Reader) error {
	return c.upload(ctx, "/consignment", "blinded_utxo", blindedUTXO, "consignment", filename, content)
}

// GetConsignment fetches and decodes the consignment for a blinded UTXO.
func (c *Client) GetConsignment(ctx context.Context, blindedUTXO string) ([]byte, error) {
	var resp ConsignmentResponse
	if err := c.do(ctx, http.MethodGet, "/consignment/"+url.PathEscape(blindedUTXO), nil, &resp); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Consignment)
}

// PostMedia uploads a media artifact under an attachment ID.
func (c *Client) PostMedia(ctx context.Context, attachmentID, filename string, content io.Reader) error {
	return c.upload(ctx, "/media", "attachment_id", attachmentID, "media", filename, content)
}

// GetMedia fetches and decodes the media artifact for an attachment ID.
func (c *Client) GetMedia(ctx context.Context, attachmentID string) ([]byte, error) {
	var resp MediaResponse
	if err := c.do(ctx, http.MethodGet, "/media/"+url.PathEscape(attachmentID), nil, &resp); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Media)
}

// Ack records a positive acknowledgment via the legacy /ack route.
func (c *Client) Ack(ctx context.Context, blindedUTXO string) error {
	return c.respond(ctx, "/ack", blindedUTXO)
}

// Nack records a negative acknowledgment via the legacy /nack route.
func (c *Client) Nack(ctx context.Context, blindedUTXO string) error {
	return c.respond(ctx, "/nack", blindedUTXO)
}

// AckStatus fetches the acknowledgment state for a blinded UTXO.
func (c *Client) AckStatus(ctx context.Context, blindedUTXO string) (AckStatusResponse, error) {
	var resp AckStatusResponse
	err := c.do(ctx, http.MethodGet, "/ack/"+url.PathEscape(blindedUTXO), nil, &resp)
	return resp, err
}

func (c *Client) respond(ctx context.Context, path, blindedUTXO string) error {
	payload, err := json.Marshal(AckRequest{BlindedUTXO: &blindedUTXO})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) upload(ctx context.Context, path, keyField, key, fileField, filename string, content io.Reader) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField(keyField, key); err != nil {
		return err
	}
	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		if errResp.Code != "" {
			return &APIError{Status: resp.StatusCode, Code: errResp.Code, ErrorCode: errResp.ErrorCode, Message: errResp.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}
	return fmt.Errorf("api error: %s", resp.Status)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
