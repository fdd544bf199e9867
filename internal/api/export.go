package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-tracker/internal/config"

	"github.com/valyala/fasthttp"
)

// ErrRemoteImportDisabled is returned when no export endpoint is configured.
var ErrRemoteImportDisabled = errors.New("remote import disabled: EXPORT_API_URL not set")

// ExportClient pulls the raw gmbr/gexp flat-file exports for a guild from
// the game's export endpoint.
type ExportClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewExportClient(cfg *config.Config) *ExportClient {
	return &ExportClient{
		baseURL: strings.TrimRight(cfg.ExportAPIURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *ExportClient) Enabled() bool {
	return c.baseURL != ""
}

func (c *ExportClient) FetchRoster(ctx context.Context, family string) (string, error) {
	url := fmt.Sprintf("%s/guild/%s/gmbr", c.baseURL, family)
	return c.fetch(ctx, url)
}

func (c *ExportClient) FetchPoints(ctx context.Context, family string) (string, error) {
	url := fmt.Sprintf("%s/guild/%s/gexp", c.baseURL, family)
	return c.fetch(ctx, url)
}

func (c *ExportClient) fetch(ctx context.Context, url string) (string, error) {
	if !c.Enabled() {
		return "", ErrRemoteImportDisabled
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return "", err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return "", err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("export endpoint error: %d", resp.StatusCode())
	}

	return string(resp.Body()), nil
}
