// Package transfer tells the item transfer collaborator who won a flip.
package transfer

import (
	"bytes"
	"coinflip/backend/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPNotifier POSTs each finished flip as JSON to a transfer endpoint.
type HTTPNotifier struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewHTTPNotifier builds a notifier whose client gives up after timeout.
func NewHTTPNotifier(url, apiKey string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transfer endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Notify sends req and waits for the endpoint to acknowledge it.
func (n *HTTPNotifier) Notify(ctx context.Context, req models.TransferRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if n.APIKey != "" {
		httpReq.Header.Set("X-API-Key", n.APIKey)
	}

	resp, err := n.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logrus.WithFields(logrus.Fields{
		"room_id": req.RoomID,
		"winner":  req.WinnerUserID,
		"items":   len(req.Items),
	}).Info("Transfer accepted")
	return nil
}
