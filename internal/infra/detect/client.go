package detect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/clipvault-io/clipvault/internal/config"
	"go.uber.org/zap"
)

// Detection is one object found in an image by the detector sidecar.
type Detection struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// Detector is the capability boundary to the object-detection model. The
// core never depends on detector internals, only on this contract.
type Detector interface {
	// Warmup triggers model load. Called once, lazily, before the first
	// detection.
	Warmup(ctx context.Context) error

	// Detect runs the model over an encoded image.
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// HTTPDetector is the HTTP client for a local inference sidecar.
type HTTPDetector struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewHTTPDetector(cfg *config.Config, log *zap.Logger) *HTTPDetector {
	timeout := time.Duration(cfg.Detector.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDetector{
		BaseURL: cfg.Detector.BaseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Logger: log,
	}
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

// Warmup asks the sidecar to load the model into memory.
func (c *HTTPDetector) Warmup(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1/warmup", c.BaseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("warmup failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Detect posts an encoded image and returns the model's detections.
func (c *HTTPDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	endpoint := fmt.Sprintf("%s/v1/detect", c.BaseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("detect request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result detectResponse
	if err := sonic.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.Detections, nil
}
