package translate

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

	"github.com/okian/quipodium/pkg/metrics"
)

const (
	apiVersion         = "3.0"
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512
)

// Azure calls the Azure AI Translator v3 REST API.
type Azure struct {
	endpoint   string
	key        string
	region     string
	httpClient *http.Client
}

var _ Translator = (*Azure)(nil)

// AzureOption configures an Azure translator.
type AzureOption func(*Azure)

// WithRegion sets the resource region sent with every request.
func WithRegion(region string) AzureOption {
	return func(a *Azure) {
		a.region = region
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) AzureOption {
	return func(a *Azure) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// NewAzure creates a translator for the given endpoint and subscription key.
func NewAzure(endpoint, key string, opts ...AzureOption) *Azure {
	a := &Azure{
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type textItem struct {
	Text string `json:"Text"`
}

type detectResult struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Detect implements Translator.
func (a *Azure) Detect(ctx context.Context, text string) (Detection, error) {
	start := time.Now()
	defer func() { metrics.RecordTranslationLatency("detect", float64(time.Since(start).Milliseconds())) }()

	var out []detectResult
	if err := a.call(ctx, "/detect", url.Values{}, text, &out); err != nil {
		return Detection{}, err
	}
	if len(out) == 0 {
		return Detection{}, fmt.Errorf("detect: %w: empty result", ErrUnexpectedResponse)
	}
	return Detection{Language: out[0].Language, Score: out[0].Score}, nil
}

// Translate implements Translator. All targets are requested in one call.
func (a *Azure) Translate(ctx context.Context, text, from string, to []string) (map[string]string, error) {
	if len(to) == 0 {
		return map[string]string{}, nil
	}

	start := time.Now()
	defer func() { metrics.RecordTranslationLatency("translate", float64(time.Since(start).Milliseconds())) }()

	q := url.Values{}
	q.Set("from", from)
	for _, lang := range to {
		q.Add("to", lang)
	}

	var out []translateResult
	if err := a.call(ctx, "/translate", q, text, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("translate: %w: empty result", ErrUnexpectedResponse)
	}

	texts := make(map[string]string, len(to))
	for _, tr := range out[0].Translations {
		texts[tr.To] = tr.Text
	}
	for _, lang := range to {
		if _, ok := texts[lang]; !ok {
			return nil, fmt.Errorf("translate: %w: no %s translation", ErrUnexpectedResponse, lang)
		}
	}
	return texts, nil
}

func (a *Azure) call(ctx context.Context, path string, q url.Values, text string, out any) error {
	body, err := json.Marshal([]textItem{{Text: text}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}

	q.Set("api-version", apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+path+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	if a.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", a.region)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("translator", "transport")
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordErrorByComponent("translator", "status")
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %d: %s", ErrRequest, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrUnexpectedResponse, err)
	}
	return nil
}
