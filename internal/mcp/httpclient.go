package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but the
// workout log lives on a running server (accessed directly or over
// Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. A
// non-empty API key is sent as X-API-Key on every request.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, status, err := c.do(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, status, body)
	}
	return body, nil
}

func daysParams(days int) url.Values {
	v := url.Values{}
	v.Set("days", strconv.Itoa(days))
	return v
}

func (c *HTTPClient) Sessions(ctx context.Context, typ models.SessionType, completed *bool, limit int) ([]models.Session, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", string(typ))
	}
	if completed != nil {
		params.Set("completed", strconv.FormatBool(*completed))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}

func (c *HTTPClient) Session(ctx context.Context, id string) (*models.Session, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &sess, nil
}

func (c *HTTPClient) TrainingStats(ctx context.Context, days int) (stats.Summary, error) {
	body, err := c.get(ctx, "/api/v1/stats/summary", daysParams(days))
	if err != nil {
		return stats.Summary{}, err
	}

	var resp struct {
		Windows []stats.Summary `json:"windows"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return stats.Summary{}, fmt.Errorf("httpclient: decode summary: %w", err)
	}
	if len(resp.Windows) == 0 {
		return stats.Summary{}, fmt.Errorf("httpclient: summary response has no windows")
	}
	return resp.Windows[0], nil
}

func (c *HTTPClient) SplitDistribution(ctx context.Context, days int) ([]stats.SplitShare, error) {
	body, err := c.get(ctx, "/api/v1/stats/split", daysParams(days))
	if err != nil {
		return nil, err
	}

	var split []stats.SplitShare
	if err := json.Unmarshal(body, &split); err != nil {
		return nil, fmt.Errorf("httpclient: decode split: %w", err)
	}
	return split, nil
}

func (c *HTTPClient) Heatmap(ctx context.Context, days int) ([]stats.HeatmapDay, error) {
	body, err := c.get(ctx, "/api/v1/stats/heatmap", daysParams(days))
	if err != nil {
		return nil, err
	}

	var cells []stats.HeatmapDay
	if err := json.Unmarshal(body, &cells); err != nil {
		return nil, fmt.Errorf("httpclient: decode heatmap: %w", err)
	}
	return cells, nil
}

func (c *HTTPClient) ExerciseProgression(ctx context.Context, exercise string, days int) ([]stats.ProgressionPoint, error) {
	params := daysParams(days)
	params.Set("exercise", exercise)

	body, err := c.get(ctx, "/api/v1/stats/progression", params)
	if err != nil {
		return nil, err
	}

	var points []stats.ProgressionPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("httpclient: decode progression: %w", err)
	}
	return points, nil
}

func (c *HTTPClient) LastSet(ctx context.Context, typ models.SessionType, exercise, variation string, setIndex int) (*models.Set, error) {
	params := url.Values{}
	params.Set("type", string(typ))
	params.Set("exercise", exercise)
	if variation != "" {
		params.Set("variation", variation)
	}
	params.Set("setIndex", strconv.Itoa(setIndex))

	body, status, err := c.do(ctx, "/api/v1/stats/last-set", params)
	if err != nil {
		return nil, err
	}
	// 204 means no prior set, not an error.
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: /api/v1/stats/last-set returned %d: %s", status, body)
	}

	var set models.Set
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("httpclient: decode last set: %w", err)
	}
	return &set, nil
}

func (c *HTTPClient) Exercises(ctx context.Context) ([]stats.ExerciseInfo, error) {
	body, err := c.get(ctx, "/api/v1/stats/exercises", nil)
	if err != nil {
		return nil, err
	}

	var exercises []stats.ExerciseInfo
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return exercises, nil
}

func (c *HTTPClient) Templates(ctx context.Context) ([]TemplateGroup, error) {
	body, err := c.get(ctx, "/api/v1/templates", nil)
	if err != nil {
		return nil, err
	}

	var groups []TemplateGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		return nil, fmt.Errorf("httpclient: decode templates: %w", err)
	}
	return groups, nil
}
