package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CloudflareProvider runs chunks through Cloudflare Workers AI.
// POST https://api.cloudflare.com/client/v4/accounts/{account}/ai/run/{model}
type CloudflareProvider struct {
	AccountID string
	APIToken  string
	Model     string
	Client    *http.Client
}

var _ Provider = &CloudflareProvider{}

func NewCloudflareProvider(accountID, apiToken, model string) *CloudflareProvider {
	if model == "" {
		model = "@cf/openai/whisper"
	}
	return &CloudflareProvider{
		AccountID: accountID,
		APIToken:  apiToken,
		Model:     model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type cfResponse struct {
	Success bool            `json:"success"`
	Errors  []interface{}   `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type cfWhisperResult struct {
	Text string `json:"text"`
}

func (p *CloudflareProvider) Transcribe(ctx context.Context, chunk Chunk) (*Result, error) {
	url := fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/ai/run/%s", p.AccountID, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(chunk.Audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Transient: classifyStatus(resp.StatusCode),
			Err:       fmt.Errorf("cloudflare http %d: %s", resp.StatusCode, string(b)),
		}
	}

	var cr cfResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &ProviderError{Transient: false, Err: fmt.Errorf("cloudflare decode: %w", err)}
	}
	if !cr.Success {
		return nil, &ProviderError{
			Transient: false,
			Err:       fmt.Errorf("cloudflare run failed: %v", cr.Errors),
		}
	}

	var wr cfWhisperResult
	if err := json.Unmarshal(cr.Result, &wr); err != nil {
		return nil, &ProviderError{Transient: false, Err: fmt.Errorf("cloudflare unexpected result: %w", err)}
	}

	// Workers AI returns no timings, so the chunk window is the best estimate.
	return &Result{
		Text:       wr.Text,
		Kind:       KindFinal,
		Confidence: 1.0,
		StartMs:    chunk.OffsetMs,
		EndMs:      chunk.OffsetMs + chunk.DurationMs,
	}, nil
}
