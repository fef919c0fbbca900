// Package earthengine is a REST client for the Earth Engine API.
package earthengine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/ee"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
	"github.com/samirrijal/kadal/internal/pkg/telemetry"
)

const (
	DefaultBaseURL = "https://earthengine.googleapis.com"
	probeDataset   = "USGS/SRTMGL1_003"
)

// Options configures Initialize.
type Options struct {
	ProjectID       string
	CredentialsFile string
	BaseURL         string
	Timeout         time.Duration
}

// Status is the initialization state reported by /health.
type Status struct {
	Configured  bool   `json:"configured"`
	Initialized bool   `json:"initialized"`
	ProjectID   string `json:"project_id,omitempty"`
	Method      string `json:"credential_method,omitempty"`
}

// Client implements ports.AnalyticsBackend. Its readiness is decided once
// in Initialize and never changes.
type Client struct {
	http    *http.Client
	baseURL string
	project string
	method  string
	ready   bool
}

var _ ports.AnalyticsBackend = (*Client)(nil)

// New builds a ready client over an already authenticated http.Client.
func New(httpClient *http.Client, baseURL, projectID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		project: projectID,
		ready:   true,
	}
}

// NotReady returns a client whose every call fails with
// domain.ErrBackendNotReady.
func NotReady(projectID string) *Client {
	return &Client{project: projectID}
}

// Initialize resolves credentials and probes the API. Failure to find
// credentials yields a NotReady client; a failed probe only warns.
func Initialize(ctx context.Context, opts Options) *Client {
	if opts.ProjectID == "" {
		slog.Warn("earth engine project id not set, analysis endpoints disabled")
		return NotReady("")
	}

	cred, err := ResolveCredential(ctx, CredentialPaths(opts.CredentialsFile))
	if err != nil {
		slog.Error("earth engine initialization failed", "error", err)
		return NotReady(opts.ProjectID)
	}

	httpClient := oauth2.NewClient(ctx, cred.Source)
	httpClient.Timeout = opts.Timeout

	c := New(httpClient, opts.BaseURL, opts.ProjectID)
	c.method = cred.Method
	slog.Info("earth engine initialized", "project", opts.ProjectID, "method", cred.Method, "path", cred.Path)

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.ComputeValue(probeCtx, ee.NewExpression(ee.BandNames(ee.Image(probeDataset)))); err != nil {
		slog.Warn("earth engine connection test failed", "error", err)
	}
	return c
}

func (c *Client) Ready() bool       { return c.ready }
func (c *Client) ProjectID() string { return c.project }

// Status reports configuration and init state.
func (c *Client) Status() Status {
	return Status{
		Configured:  c.project != "",
		Initialized: c.ready,
		ProjectID:   c.project,
		Method:      c.method,
	}
}

// ComputeValue evaluates expr and returns the raw JSON result.
func (c *Client) ComputeValue(ctx context.Context, expr *ee.Expression) ([]byte, error) {
	var out struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.call(ctx, "compute", "value:compute", map[string]any{"expression": expr}, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Thumbnail renders expr and returns a pixel URL.
func (c *Client) Thumbnail(ctx context.Context, expr *ee.Expression, opts ports.ThumbnailOptions) (string, error) {
	format := opts.Format
	if format == "" {
		format = "PNG"
	}
	var out struct {
		Name string `json:"name"`
	}
	body := map[string]any{"expression": expr, "fileFormat": format}
	if err := c.call(ctx, "thumbnail", "thumbnails", body, &out); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/v1/%s:getPixels", c.baseURL, out.Name), nil
}

// MapTiles registers expr as a tiled map.
func (c *Client) MapTiles(ctx context.Context, expr *ee.Expression) (*domain.MapTiles, error) {
	var out struct {
		Name string `json:"name"`
	}
	body := map[string]any{"expression": expr, "fileFormat": "PNG"}
	if err := c.call(ctx, "maps", "maps", body, &out); err != nil {
		return nil, err
	}
	return &domain.MapTiles{
		MapID:   out.Name,
		TileURL: fmt.Sprintf("%s/v1/%s/tiles/{z}/{x}/{y}", c.baseURL, out.Name),
	}, nil
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, op, method string, body, out any) (err error) {
	if !c.ready {
		return domain.ErrBackendNotReady
	}

	ctx, span := telemetry.Tracer("earthengine").Start(ctx, "earthengine."+op)
	span.SetAttributes(attribute.String("earthengine.project", c.project))
	start := time.Now()
	defer func() {
		metrics.ObserveBackend(op, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/%s", c.baseURL, c.project, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("earth engine %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("earth engine %s: read body: %w", op, err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("earth engine %s: %s (%s)", op, apiErr.Error.Message, apiErr.Error.Status)
		}
		return fmt.Errorf("earth engine %s: status %d", op, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("earth engine %s: decode response: %w", op, err)
	}
	return nil
}
