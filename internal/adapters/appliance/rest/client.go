// Package rest implements ports.ApplianceClient over the appliance's HTTPS
// JSON management API.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a pure transport: no caching, no retries.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     ports.Logger
}

var _ ports.ApplianceClient = (*Client)(nil)

// NewClient builds a client. httpClient may be nil, in which case one is
// created honouring InsecureSkipVerify and Timeout; appliances usually ship a
// self-signed certificate.
func NewClient(cfg Config, httpClient *http.Client, logger ports.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "appliance address is required", "Set appliance.address in the config file or CONVERGE_APPLIANCE_ADDRESS.")
	}
	if cfg.Token == "" && cfg.Username == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "appliance credentials are required", "Set appliance.username/password or appliance.token.")
	}
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // operator opt-in
			},
		}
	}

	base := strings.TrimRight(cfg.Address, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	log := logger.WithFields(map[string]any{"component": "appliance_client", "address": cfg.Address})
	return &Client{
		baseURL:    fmt.Sprintf("%s/%s", base, strings.Trim(cfg.BasePath, "/")),
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    newLimiter(cfg.RequestsPerSecond, log),
		logger:     log,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Create(ctx context.Context, collection string, body any, out any) error {
	return c.do(ctx, http.MethodPost, collection, body, out)
}

// Update sends a PATCH; attributes absent from body are left untouched.
func (c *Client) Update(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) Command(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := wait(ctx, c.limiter, c.logger); err != nil {
		return handleTransportError(ctx, method, path, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to encode %s %s body", method, path))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to build %s %s request", method, path))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("X-F5-Auth-Token", c.cfg.Token)
	} else {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	c.logger.Debugf(ctx, "%s %s (request %s)", method, path, requestID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return handleTransportError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return handleTransportError(ctx, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleStatus(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("failed to decode %s %s response", method, path))
	}
	return nil
}
