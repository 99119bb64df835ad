package device

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"controlling_motor/internal/logger"

	"github.com/pkg/errors"
)

// Device endpoints. Every one is a plain GET; commands take ?value=.
const (
	PathSetModel        = "/setModel"
	PathSetSpeed        = "/setSpeed"
	PathSetAcceleration = "/setAcceleration"
	PathStart           = "/start"
	PathStop            = "/stop"
	PathGetSpeed        = "/getSpeed"
)

const maxBodyBytes = 4 << 10

// Client talks to the motor controller over its HTTP endpoints.
// Each call is a single request; nothing is retried.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient returns a client for the device at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) SetModel(ctx context.Context, model string) error {
	_, err := c.command(ctx, PathSetModel, model)
	return err
}

func (c *Client) SetSpeed(ctx context.Context, rpm int) error {
	_, err := c.command(ctx, PathSetSpeed, strconv.Itoa(rpm))
	return err
}

func (c *Client) SetAcceleration(ctx context.Context, rpmPerSec int) error {
	_, err := c.command(ctx, PathSetAcceleration, strconv.Itoa(rpmPerSec))
	return err
}

func (c *Client) Start(ctx context.Context) error {
	_, err := c.get(ctx, PathStart, nil)
	return err
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.get(ctx, PathStop, nil)
	return err
}

// GetSpeed returns the raw reading. The body is not trimmed or parsed here.
func (c *Client) GetSpeed(ctx context.Context) (string, error) {
	return c.get(ctx, PathGetSpeed, nil)
}

// command sends ?value= even when value is empty so the device sees the parameter.
func (c *Client) command(ctx context.Context, path, value string) (string, error) {
	return c.get(ctx, path, url.Values{"value": {value}})
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (string, error) {
	u := c.baseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrapf(err, "build request for %s", path)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "device %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.Wrapf(err, "read %s response", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("device %s: unexpected status %d", path, resp.StatusCode)
	}
	c.log.Debugw("device_request", "path", path, "query", query.Encode(), "status", resp.StatusCode)
	return string(body), nil
}
