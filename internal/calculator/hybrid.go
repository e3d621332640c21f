package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	remoteTimeout  = 5 * time.Second
	remoteAttempts = 2
	remoteBackoff  = 500 * time.Millisecond
)

// Sources reported on an Outcome
const (
	SourceAPI   = "api"
	SourceLocal = "local"
)

// Outcome is a calculation result and where it came from
type Outcome struct {
	Calculator string          `json:"calculator"`
	Source     string          `json:"source"`
	Result     any             `json:"result"`
	LineItems  json.RawMessage `json:"lineItems,omitempty"`
	Formulas   json.RawMessage `json:"formulas,omitempty"`
}

type remoteResponse struct {
	Summary   map[string]any  `json:"summary"`
	LineItems json.RawMessage `json:"line_items"`
	Formulas  json.RawMessage `json:"formulas_used"`
}

// HybridCalculator prefers the remote toolkit API for the calculators it
// knows and falls back to the local implementation on any failure
type HybridCalculator struct {
	registry   *Registry
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	step       time.Duration
}

// NewHybridCalculator creates a calculator; an empty baseURL runs everything locally
func NewHybridCalculator(registry *Registry, baseURL string, log *zap.Logger) *HybridCalculator {
	return &HybridCalculator{
		registry: registry,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: remoteTimeout,
		},
		log:  log,
		step: remoteBackoff,
	}
}

// Registry exposes the local calculators
func (h *HybridCalculator) Registry() *Registry {
	return h.registry
}

// Calculate runs calculator id against raw input
func (h *HybridCalculator) Calculate(ctx context.Context, id string, raw json.RawMessage) (*Outcome, error) {
	calc, ok := h.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalculator, id)
	}

	if apiType, ok := apiTypes[id]; ok && h.baseURL != "" {
		out, err := h.remote(ctx, id, apiType, raw)
		if err == nil {
			return out, nil
		}
		h.log.Warn("remote calculation failed, using local",
			zap.String("calculator", id),
			zap.Error(err),
		)
	}

	result, err := calc.Run(raw)
	if err != nil {
		return nil, err
	}
	return &Outcome{Calculator: id, Source: SourceLocal, Result: result}, nil
}

func (h *HybridCalculator) remote(ctx context.Context, id, apiType string, raw json.RawMessage) (*Outcome, error) {
	body, err := remoteInput(id, raw)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/calculators/%s/calculate", h.baseURL, apiType)

	var resp remoteResponse
	backoff := retry.WithMaxRetries(remoteAttempts-1, linearBackoff(h.step))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := h.post(ctx, url, body)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = *r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Calculator: id,
		Source:     SourceAPI,
		Result:     resp.Summary,
		LineItems:  resp.LineItems,
		Formulas:   resp.Formulas,
	}, nil
}

func (h *HybridCalculator) post(ctx context.Context, url string, body []byte) (*remoteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call toolkit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("toolkit API returned status %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// linearBackoff waits step × attempt between tries
func linearBackoff(step time.Duration) retry.Backoff {
	var attempt int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * step, false
	})
}

// remoteInput reshapes local inputs where the toolkit uses different names
func remoteInput(id string, raw json.RawMessage) ([]byte, error) {
	switch id {
	case "tile":
		in, err := decode[TileInput](raw)
		if err != nil {
			return nil, err
		}
		t := tilePreset(in.TileSize)
		if t.Custom {
			t.Width, t.Height = in.CustomWidth, in.CustomHeight
		}
		perBox := in.TilesPerBox
		if perBox == 0 {
			perBox = 10
		}
		return json.Marshal(map[string]any{
			"area_sqft":       in.Area,
			"tile_length_in":  t.Width,
			"tile_width_in":   t.Height,
			"waste_percent":   in.Waste,
			"round_up_to_box": true,
			"tiles_per_box":   perBox,
			"include_mortar":  false,
			"include_grout":   false,
		})
	case "mortar":
		in, err := decode[MortarInput](raw)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"area_sqft":         in.Area,
			"trowel_notch_size": in.Trowel,
			"back_butter":       in.BackButter,
		})
	}
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	return raw, nil
}
