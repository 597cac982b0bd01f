package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/clearlane/eventsense/pkg/sensing/log"
)

const (
	defaultTimeout = 5 * time.Second
)

// HTTPConnector is the collaborator that fetches raw payloads for agents.
// Endpoint schemas, retries and credentials live here, outside the sensing
// core.
type HTTPConnector struct {
	Method        string
	Url           string
	UserAgent     string
	Headers       map[string]string
	Body          any
	Authenticator HTTPAuthenticator
	Timeout       time.Duration

	client *http.Client
}

type HTTPAuthenticator interface {
	Authenticate(connector *HTTPConnector, req *http.Request) error
}

// Build a connector for HTTP GET requests.
func NewHTTPGetConnector(url string) *HTTPConnector {
	return &HTTPConnector{
		Method:  http.MethodGet,
		Url:     url,
		Timeout: defaultTimeout,
	}
}

// Build a connector for HTTP POST requests.
func NewHTTPPostConnector(url string, body any) *HTTPConnector {
	return &HTTPConnector{
		Method:  http.MethodPost,
		Url:     url,
		Body:    body,
		Timeout: defaultTimeout,
	}
}

func (c *HTTPConnector) Request(ctx context.Context) (io.ReadCloser, error) {
	switch strings.ToUpper(c.Method) {
	case http.MethodGet:
		return c.do(ctx, nil)

	case http.MethodPost:
		reader, err := buildPostBody(c.Body)
		if err != nil {
			return nil, err
		}

		return c.do(ctx, reader)

	default:
		return nil, fmt.Errorf("unsupported HTTP method %q", c.Method)
	}
}

func (c *HTTPConnector) RequestBytes(ctx context.Context) ([]byte, error) {
	readCloser, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	defer readCloser.Close()

	return io.ReadAll(readCloser)
}

func (c *HTTPConnector) SetAuthenticator(authenticator HTTPAuthenticator) {
	c.Authenticator = authenticator
}

func (c *HTTPConnector) SetUrl(url string) {
	c.Url = url
}

func (c *HTTPConnector) SetBody(body any) {
	c.Body = body
}

func (c *HTTPConnector) SetUserAgent(userAgent string) {
	c.UserAgent = userAgent
}

func (c *HTTPConnector) SetHeaders(headers map[string]string) {
	c.Headers = headers
}

func (c *HTTPConnector) SetTimeout(timeout time.Duration) {
	c.Timeout = timeout
	c.client = nil
}

func (c *HTTPConnector) do(ctx context.Context, reqBody io.Reader) (io.ReadCloser, error) {
	log.Debugf("creating HTTP %s request for %s", c.Method, c.Url)

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(c.Method), c.Url, reqBody)
	if err != nil {
		return nil, err
	}

	for key, val := range c.Headers {
		req.Header.Add(key, val)
	}

	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = GetUserAgent()
	}

	req.Header.Add("User-Agent", userAgent)

	if c.Authenticator != nil {
		log.Debugf("authenticating request for %s", c.Url)
		err = c.Authenticator.Authenticate(c, req)
		if err != nil {
			return nil, err
		}
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
	}

	log.Debugf("performing request for %s", c.Url)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", c.Url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf(
			"error connecting to %s with status %d",
			c.Url,
			resp.StatusCode,
		)
	}

	return resp.Body, nil
}

func buildPostBody(b any) (io.Reader, error) {
	switch body := b.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return body, nil
	case string:
		return strings.NewReader(body), nil
	case []byte:
		return bytes.NewReader(body), nil
	default:
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("unsupported type for body: %w", err)
		}
		return bytes.NewReader(buf), nil
	}
}

func GetUserAgent() string {
	return fmt.Sprintf(
		"eventsense (%s; %s)",
		runtime.GOOS,
		runtime.GOARCH,
	)
}
