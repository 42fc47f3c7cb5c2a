// Package api is the HTTP client for the remote admin API that owns
// employees, shift definitions, week records and assignments.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shiftdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// Client is a JSON HTTP client for the admin API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
	limiter  *rate.Limiter
	logger   *zerolog.Logger
}

// NewClient constructs a client with baseURL and bearer token.
func NewClient(baseURL, token string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for list endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetRateLimit throttles outbound requests.
func (c *Client) SetRateLimit(rps float64, burst int) {
	if rps <= 0 || burst <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// ListEmployees returns the employee directory.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	endpoint := c.baseURL + "/employees"
	var employees []models.Employee

	if c.readCache(ctx, "employees", &employees) {
		return employees, nil
	}

	if err := c.doGet(ctx, endpoint, &employees); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "employees", employees)
	return employees, nil
}

// ListShiftDefs returns all shift definitions. Never cached: the
// catalog reconciler needs to see server-assigned ids right after
// creating definitions.
func (c *Client) ListShiftDefs(ctx context.Context) ([]models.ShiftDef, error) {
	endpoint := c.baseURL + "/shifts"
	var defs []models.ShiftDef
	if err := c.doGet(ctx, endpoint, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// CreateShiftDef creates a shift definition and returns it with the
// server-assigned id.
func (c *Client) CreateShiftDef(ctx context.Context, def models.ShiftDef) (*models.ShiftDef, error) {
	endpoint := c.baseURL + "/shifts"
	var created models.ShiftDef
	if err := c.doPost(ctx, endpoint, def, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetWeek fetches the publication record for a week.
func (c *Client) GetWeek(ctx context.Context, weekStart string) (*models.ShiftWeek, error) {
	endpoint := fmt.Sprintf("%s/shift-weeks/%s", c.baseURL, url.PathEscape(weekStart))
	var week models.ShiftWeek
	if err := c.doGet(ctx, endpoint, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

// PublishWeek marks a week as published and returns the updated record.
func (c *Client) PublishWeek(ctx context.Context, weekStart string) (*models.ShiftWeek, error) {
	endpoint := fmt.Sprintf("%s/shift-weeks/%s/publish", c.baseURL, url.PathEscape(weekStart))
	var week models.ShiftWeek
	if err := c.doPost(ctx, endpoint, nil, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

// ListAssignments returns the persisted assignments for a week. The
// result may be sparse; the grid fills the gaps.
func (c *Client) ListAssignments(ctx context.Context, weekStart string) ([]models.Assignment, error) {
	endpoint := fmt.Sprintf("%s/shift-assignments?week_start=%s", c.baseURL, url.QueryEscape(weekStart))
	var assignments []models.Assignment
	if err := c.doGet(ctx, endpoint, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// BulkUpsertAssignments replaces a full week of assignments in one call.
func (c *Client) BulkUpsertAssignments(ctx context.Context, assignments []models.Assignment) ([]models.Assignment, error) {
	endpoint := c.baseURL + "/shift-assignments/bulk"
	var saved []models.Assignment
	if err := c.doPost(ctx, endpoint, assignments, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(key), data, c.cacheTTL).Err()
}

func cacheKey(key string) string {
	return "shiftdesk:" + key
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("api request")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			return fmt.Errorf("http %d", resp.StatusCode)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
}
