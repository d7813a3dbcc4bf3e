// Package classifier talks to the external text-classification service
// (a BERT model mapping free text onto the Dewey subject taxonomy). The
// service is opaque to the engine: classify and similarity, nothing else.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/utils"
)

type Client interface {
	// Classify maps a free-text answer onto a subject label.
	Classify(ctx context.Context, text string) (string, error)
	// Similarity returns the distance between two labels; smaller means
	// closer.
	Similarity(ctx context.Context, labelA, labelB string) (float64, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 15, log)
	return Config{
		BaseURL: strings.TrimRight(utils.GetEnv("CLASSIFIER_URL", "", log), "/"),
		Timeout: time.Duration(timeoutSec) * time.Second,
	}
}

// NewFromEnv returns a disabled client when no CLASSIFIER_URL is set, so
// the backend runs without the model service in development.
func NewFromEnv(log *logger.Logger) Client {
	cfg := ConfigFromEnv(log)
	if cfg.BaseURL == "" {
		log.Warn("CLASSIFIER_URL not set, classifier disabled")
		return &disabledClient{}
	}
	return New(log, cfg)
}

func New(log *logger.Logger, cfg Config) Client {
	return &client{
		log:        log.With("client", "ClassifierClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

type similarityRequest struct {
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
}

type similarityResponse struct {
	Distance float64 `json:"distance"`
}

func (c *client) Classify(ctx context.Context, text string) (string, error) {
	var resp classifyResponse
	if err := c.post(ctx, "/classify", classifyRequest{Text: text}, &resp); err != nil {
		return "", err
	}
	return resp.Label, nil
}

func (c *client) Similarity(ctx context.Context, labelA, labelB string) (float64, error) {
	var resp similarityResponse
	if err := c.post(ctx, "/similarity", similarityRequest{LabelA: labelA, LabelB: labelB}, &resp); err != nil {
		return 0, err
	}
	return resp.Distance, nil
}

func (c *client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode classifier request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("classifier %s: status %d: %s", path, resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// disabledClient stands in when no classifier endpoint is configured. It
// never classifies, so callers fall back to their undecided path instead of
// failing the triggering request.
type disabledClient struct{}

func (d *disabledClient) Classify(ctx context.Context, text string) (string, error) {
	return "", nil
}

func (d *disabledClient) Similarity(ctx context.Context, labelA, labelB string) (float64, error) {
	return 0, nil
}
