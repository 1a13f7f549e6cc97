// Package broker provides the order-service client used to hand off
// finished strategy drafts. The order service validates and deploys
// strategies; this client only transmits snapshots and polls their fate.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quantrail/stratforge/internal/models"
)

// APIError represents an API error with status code and response body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Doer abstracts the HTTP transport so the retry layer can slot in.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient is a JSON-over-HTTP OrderService implementation.
type HTTPClient struct {
	client  Doer
	baseURL string
	apiKey  string
}

// NewHTTPClient creates an order-service client against baseURL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// WithDoer overrides the HTTP transport (retry layer, tests).
func (h *HTTPClient) WithDoer(d Doer) *HTTPClient {
	if d != nil {
		h.client = d
	}
	return h
}

// submitResponse is the order service's reply to a submission.
type submitResponse struct {
	ReceiptID string `json:"receipt_id"`
	Status    string `json:"status"`
}

// statusResponse is the order service's reply to a status poll.
type statusResponse struct {
	ReceiptID string   `json:"receipt_id"`
	Status    string   `json:"status"`
	Reasons   []string `json:"reasons"`
}

// SubmitStrategy posts the snapshot to the order service.
func (h *HTTPClient) SubmitStrategy(
	ctx context.Context,
	snapshot *models.StrategySnapshot,
) (*SubmissionReceipt, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is required")
	}

	var resp submitResponse
	if err := h.doRequest(ctx, http.MethodPost, h.baseURL+"/strategies", snapshot, &resp); err != nil {
		return nil, err
	}
	if resp.ReceiptID == "" {
		return nil, fmt.Errorf("order service returned no receipt id")
	}
	state := SubmissionState(resp.Status)
	if resp.Status == "" {
		state = SubmissionPending
	}
	if !state.Valid() {
		return nil, fmt.Errorf("unknown submission status %q", resp.Status)
	}
	return &SubmissionReceipt{ID: resp.ReceiptID, Status: state}, nil
}

// GetSubmissionStatus polls the submission identified by receiptID.
func (h *HTTPClient) GetSubmissionStatus(ctx context.Context, receiptID string) (*SubmissionStatus, error) {
	if receiptID == "" {
		return nil, fmt.Errorf("receipt id is required")
	}

	var resp statusResponse
	endpoint := h.baseURL + "/strategies/" + url.PathEscape(receiptID)
	if err := h.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	state := SubmissionState(resp.Status)
	if !state.Valid() {
		return nil, fmt.Errorf("unknown submission status %q", resp.Status)
	}
	return &SubmissionStatus{
		ReceiptID: resp.ReceiptID,
		State:     state,
		Reasons:   resp.Reasons,
	}, nil
}

// Ping checks the order service health endpoint.
func (h *HTTPClient) Ping(ctx context.Context) error {
	return h.doRequest(ctx, http.MethodGet, h.baseURL+"/health", nil, nil)
}

// doRequest makes an HTTP request with context support for timeout/cancellation
func (h *HTTPClient) doRequest(ctx context.Context, method, endpoint string,
	body interface{}, response interface{}) error {
	var req *http.Request
	var err error

	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("encoding request body: %w", marshalErr)
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Add("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
		if err != nil {
			return err
		}
	}

	req.Header.Add("Authorization", "Bearer "+h.apiKey)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", "stratforge/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
		errBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)) // 64KB cap to avoid huge payloads
		if err != nil {
			return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("%s %s -> failed to read error body", method, endpoint)}
		}
		ct := resp.Header.Get("Content-Type")
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("%s %s (%s) -> %s (retry-after: %s)", method, endpoint, ct, string(errBody), ra)}
		}
		return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("%s %s (%s) -> %s", method, endpoint, ct, string(errBody))}
	}

	if resp.StatusCode == http.StatusNoContent || response == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(response); err != nil && err != io.EOF {
		return err
	}
	return nil
}
