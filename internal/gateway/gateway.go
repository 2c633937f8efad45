// Package gateway hands completed declarations to the submission backend,
// which generates the document and mails it out.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"declaration-bot/internal/domain"
)

// Gateway accepts a completed record for document generation and delivery.
// extraRecipients are mailed in addition to the board; when
// onlyExtraRecipients is set the board copy is skipped.
type Gateway interface {
	Submit(ctx context.Context, rec domain.Record, extraRecipients []string, onlyExtraRecipients bool) error
}

// HTTP posts declarations as JSON to the backend URL.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	Declaration         domain.Record `json:"declaration"`
	ExtraRecipients     []string      `json:"extra_recipients"`
	OnlyExtraRecipients bool          `json:"only_extra_recipients"`
}

type submitResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (g *HTTP) Submit(ctx context.Context, rec domain.Record, extraRecipients []string, onlyExtraRecipients bool) error {
	body, err := json.Marshal(submitRequest{
		Declaration:         rec,
		ExtraRecipients:     extraRecipients,
		OnlyExtraRecipients: onlyExtraRecipients,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("submit: status %s", resp.Status)
	}
	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("submit: decode response: %w", err)
	}
	if !sr.OK {
		return fmt.Errorf("submit not ok: %s", sr.Error)
	}
	return nil
}
