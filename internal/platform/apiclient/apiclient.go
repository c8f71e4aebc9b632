// Package apiclient performs traced, metered calls to external HTTP APIs.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/prereview/prereview/internal/platform/otel"
	"github.com/prereview/prereview/internal/platform/timeouts"
	"go.opentelemetry.io/otel/attribute"
)

const maxBody = 8 << 20

// Caller issues requests on behalf of one integration.
type Caller struct {
	Integration string
	HTTP        *http.Client
	UserAgent   string
}

// New returns a Caller with a timeout-bounded client when httpClient is nil.
func New(integration string, httpClient *http.Client) Caller {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.ExternalRequest}
	}
	return Caller{Integration: integration, HTTP: httpClient, UserAgent: "PREreview (https://prereview.org/)"}
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Get issues a GET with the given headers.
func (c Caller) Get(ctx context.Context, operation, url string, header http.Header) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build %s request: %w", operation, err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return c.Do(ctx, operation, req)
}

// Send issues a request with a body of the given content type.
func (c Caller) Send(ctx context.Context, operation, method, url, contentType string, body io.Reader, header http.Header) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Response{}, fmt.Errorf("build %s request: %w", operation, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return c.Do(ctx, operation, req)
}

// Do sends req and reads its body. Non-2xx statuses are not errors.
func (c Caller) Do(ctx context.Context, operation string, req *http.Request) (resp Response, err error) {
	ctx, span := otel.StartSpan(ctx, c.Integration, operation,
		attribute.String("http.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	)
	defer func() {
		if err == nil && !resp.OK() {
			span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		}
		metrics.ObserveExternal(c.Integration, operation, outcomeErr(resp, err))
		otel.EndSpan(span, err)
	}()

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeouts.ExternalRequest}
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	httpResp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", c.Integration, operation, err)
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBody))
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: read body: %w", c.Integration, operation, err)
	}
	return Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func outcomeErr(resp Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("status %d", resp.Status)
	}
	return nil
}

// JoinURL joins base and path with exactly one slash.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
