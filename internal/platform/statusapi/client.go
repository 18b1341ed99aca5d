package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/task"
)

// maxBodySize caps how much of a reply is read.
const maxBodySize = 1 << 20

// statusReply is the wire shape of the status endpoint.
type statusReply struct {
	TaskID string `json:"task_id" validate:"required"`
	Status string `json:"status"  validate:"required"`
	Error  string `json:"error"`
}

// Client checks job status over HTTP.
type Client struct {
	baseURL    string
	pathPrefix string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client from the status_api configuration.
func NewClient(cfg config.StatusAPIConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid status api base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	prefix := strings.Trim(cfg.PathPrefix, "/")
	if prefix != "" {
		prefix = "/" + prefix
	}

	c := &Client{
		baseURL:    strings.TrimRight(base.String(), "/"),
		pathPrefix: prefix,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		validate:   validator.New(),
		logger:     logger.With("component", "status_api_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchStatus performs one status check for taskID. A job that reports
// FAILURE is returned as a normal Report; only transport or protocol
// problems produce an error, always a *FetchError.
func (c *Client) FetchStatus(ctx context.Context, taskID string) (task.Report, error) {
	if taskID == "" {
		return task.Report{}, &FetchError{Err: ErrEmptyTaskID}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return task.Report{}, &FetchError{TaskID: taskID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(taskID), nil)
	if err != nil {
		return task.Report{}, &FetchError{TaskID: taskID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return task.Report{}, &FetchError{TaskID: taskID, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		_ = resp.Body.Close()
	}()

	c.logger.DebugContext(ctx, "status endpoint replied",
		"task_id", taskID,
		"http_status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return task.Report{}, &FetchError{
			TaskID:     taskID,
			StatusCode: resp.StatusCode,
			Err:        ErrUnexpectedStatus,
		}
	}

	var reply statusReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&reply); err != nil {
		return task.Report{}, c.malformed(taskID, resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	if err := c.validate.Struct(reply); err != nil {
		return task.Report{}, c.malformed(taskID, resp.StatusCode, err)
	}
	if reply.TaskID != taskID {
		return task.Report{}, c.malformed(taskID, resp.StatusCode,
			fmt.Errorf("reply is for task %q", reply.TaskID))
	}
	status, err := task.ParseStatus(reply.Status)
	if err != nil {
		return task.Report{}, c.malformed(taskID, resp.StatusCode, err)
	}

	return task.Report{TaskID: reply.TaskID, Status: status, Error: reply.Error}, nil
}

func (c *Client) endpoint(taskID string) string {
	return c.baseURL + c.pathPrefix + "/" + url.PathEscape(taskID)
}

func (c *Client) malformed(taskID string, code int, cause error) *FetchError {
	return &FetchError{
		TaskID:     taskID,
		StatusCode: code,
		Err:        fmt.Errorf("%w: %w", ErrMalformedReply, cause),
	}
}
