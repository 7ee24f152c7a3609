package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperProvider talks to an OpenAI-compatible audio transcription endpoint
// (api.openai.com or a self-hosted whisper server exposing the same API).
type WhisperProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

var _ Provider = &WhisperProvider{}

func NewWhisperProvider(baseURL, apiKey, model string) *WhisperProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type whisperSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogprob float64 `json:"avg_logprob"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
}

func (p *WhisperProvider) Transcribe(ctx context.Context, chunk Chunk) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", p.Model); err != nil {
		return nil, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}

	fw, err := mw.CreateFormFile("file", fmt.Sprintf("chunk-%d.wav", chunk.SeqNo))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(chunk.Audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := p.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		// Network failures and client timeouts are worth another attempt.
		return nil, &ProviderError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Transient: classifyStatus(resp.StatusCode),
			Err:       fmt.Errorf("whisper http %d: %s", resp.StatusCode, string(b)),
		}
	}

	var wr whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, &ProviderError{Transient: false, Err: fmt.Errorf("whisper decode: %w", err)}
	}

	return p.toResult(chunk, &wr), nil
}

// toResult collapses the whisper segments into one result on the session
// timeline. Single-shot HTTP transcription always yields FINAL text; the
// interim kind exists for streaming providers.
func (p *WhisperProvider) toResult(chunk Chunk, wr *whisperResponse) *Result {
	res := &Result{
		Text:       wr.Text,
		Kind:       KindFinal,
		Confidence: 1.0,
		StartMs:    chunk.OffsetMs,
		EndMs:      chunk.OffsetMs + chunk.DurationMs,
	}

	if len(wr.Segments) == 0 {
		return res
	}

	first := wr.Segments[0]
	last := wr.Segments[len(wr.Segments)-1]
	res.StartMs = chunk.OffsetMs + int64(first.Start*1000)
	res.EndMs = chunk.OffsetMs + int64(last.End*1000)

	var sum float64
	for _, seg := range wr.Segments {
		sum += math.Exp(seg.AvgLogprob)
	}
	conf := sum / float64(len(wr.Segments))
	if conf > 1 {
		conf = 1
	}
	res.Confidence = conf

	return res
}
