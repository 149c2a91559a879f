// Package safety wraps the external URL-safety classification service.
// The relay only annotates messages with the verdict; it never blocks a
// delivery on it.
package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Verdict string

const (
	VerdictSafe   Verdict = "safe"
	VerdictUnsafe Verdict = "unsafe"
)

// Classifier answers whether a URL looks safe. Implementations must be
// fail-closed: anything indeterminate is unsafe.
type Classifier interface {
	Check(ctx context.Context, url string) Verdict
}

// HTTPClassifier talks to the classifier service over HTTP.
type HTTPClassifier struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

type checkRequest struct {
	URL string `json:"url"`
}

type checkResponse struct {
	SafetyStatus string  `json:"safety_status"`
	Prediction   float64 `json:"prediction"`
}

// Check posts the URL to the classifier and maps the outcome to a
// verdict. Transport errors, timeouts, non-2xx responses and any status
// other than "SAFE" all come back as unsafe.
func (c *HTTPClassifier) Check(ctx context.Context, url string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(checkRequest{URL: url})
	if err != nil {
		log.Error().Err(err).Str("module", "safety").Msg("marshal check request")
		return VerdictUnsafe
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("module", "safety").Msg("build check request")
		return VerdictUnsafe
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("module", "safety").Msg("classifier unreachable, failing closed")
		return VerdictUnsafe
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Str("module", "safety").Int("status", resp.StatusCode).
			Msg("classifier bad status, failing closed")
		return VerdictUnsafe
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Warn().Err(err).Str("module", "safety").Msg("classifier bad body, failing closed")
		return VerdictUnsafe
	}
	if out.SafetyStatus != "SAFE" {
		log.Debug().Str("module", "safety").Str("safety_status", out.SafetyStatus).
			Float64("prediction", out.Prediction).Msg("url flagged")
		return VerdictUnsafe
	}
	return VerdictSafe
}
