package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
)

const (
	// accessTokenParam is the query parameter the API reads the bearer token
	// from
	accessTokenParam = "oauth2_access_token"

	// formatHeader announces the rendering the API should use for responses
	formatHeader = "x-li-format"

	// maxResponseBytes caps response body reads to prevent a misbehaving
	// server from consuming unbounded memory
	maxResponseBytes = 1024 * 1024
)

// Call sends a request to the API and decodes the response.  The path is
// resolved against the config's api base URL, and the client's access token,
// when one is set, is sent as the oauth2_access_token query parameter.
//
// A body may be nil, a string, []byte, io.Reader, url.Values, an
// *etree.Document for xml format calls, or any JSON-serializable value.
//
// An error body, a body whose status field falls outside of [200, 300), is
// returned as a *ResponseError regardless of the HTTP status the provider
// sent with it.
// Supported options: WithFormat, WithHeaders, WithQuery
func (c *Client) Call(ctx context.Context, method string, path string, body interface{}, opt ...Option) (*Response, error) {
	const op = "linkedin.(Client).Call"
	opts := getCallOpts(opt...)
	if method == "" {
		return nil, fmt.Errorf("%s: method is empty: %w", op, ErrInvalidParameter)
	}
	if path == "" {
		return nil, fmt.Errorf("%s: path is empty: %w", op, ErrInvalidParameter)
	}
	if err := opts.withFormat.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := c.newRequest(ctx, method, path, body, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpClient, err := c.conf.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}

	logger := c.conf.logger()
	logger.Debug("calling api", "method", method, "path", path, "format", string(opts.withFormat))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %s %s failed: %w: %w", op, method, path, ErrTransport, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response from %s: %w: %w", op, path, ErrTransport, err)
	}

	response, err := decodeResponse(opts.withFormat, resp, raw)
	if err != nil {
		logger.Debug("api call failed", "method", method, "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%s: %s %s: %w", op, method, path, err)
	}
	logger.Debug("api call succeeded", "method", method, "path", path, "status", resp.StatusCode)
	return response, nil
}

// Get sends a GET request to the API path.
func (c *Client) Get(ctx context.Context, path string, opt ...Option) (*Response, error) {
	return c.Call(ctx, http.MethodGet, path, nil, opt...)
}

// Post sends a POST request with the body to the API path.
func (c *Client) Post(ctx context.Context, path string, body interface{}, opt ...Option) (*Response, error) {
	return c.Call(ctx, http.MethodPost, path, body, opt...)
}

// Put sends a PUT request with the body to the API path.
func (c *Client) Put(ctx context.Context, path string, body interface{}, opt ...Option) (*Response, error) {
	return c.Call(ctx, http.MethodPut, path, body, opt...)
}

// Delete sends a DELETE request to the API path.
func (c *Client) Delete(ctx context.Context, path string, opt ...Option) (*Response, error) {
	return c.Call(ctx, http.MethodDelete, path, nil, opt...)
}

// newRequest builds the http request for an API call.
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, opts callOptions) (*http.Request, error) {
	const op = "linkedin.(Client).newRequest"
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.conf.apiBase() + path)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid request path %q: %w", op, path, ErrInvalidParameter)
	}
	q := u.Query()
	for k, vs := range opts.withQuery {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if token := c.AccessToken(); token != "" {
		q.Set(accessTokenParam, string(token))
	}
	u.RawQuery = q.Encode()

	bodyReader, contentType, err := encodeBody(body, opts.withFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w: %w", op, ErrInvalidParameter, err)
	}
	req.Header.Set(formatHeader, opts.withFormat.headerValue())
	if bodyReader != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.withHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

// encodeBody prepares the request payload.  Strings, byte slices and readers
// are sent as-is, url.Values are form encoded, etree documents are
// serialized as xml, and anything else is marshaled according to the format.
func encodeBody(body interface{}, f Format) (io.Reader, string, error) {
	const op = "linkedin.encodeBody"
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		if v == "" {
			return nil, "", nil
		}
		return strings.NewReader(v), f.contentType(), nil
	case []byte:
		if len(v) == 0 {
			return nil, "", nil
		}
		return bytes.NewReader(v), f.contentType(), nil
	case url.Values:
		return strings.NewReader(v.Encode()), FormatURLEncoded.contentType(), nil
	case *etree.Document:
		s, err := v.WriteToString()
		if err != nil {
			return nil, "", fmt.Errorf("%s: unable to serialize xml body: %w: %w", op, ErrInvalidParameter, err)
		}
		return strings.NewReader(s), FormatXML.contentType(), nil
	case io.Reader:
		return v, f.contentType(), nil
	default:
		switch f {
		case FormatXML:
			return nil, "", fmt.Errorf("%s: xml body must be a string, []byte, io.Reader or *etree.Document: %w", op, ErrInvalidParameter)
		case FormatURLEncoded:
			return nil, "", fmt.Errorf("%s: urlencoded body must be url.Values, a string, []byte or io.Reader: %w", op, ErrInvalidParameter)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, "", fmt.Errorf("%s: unable to marshal request body: %w: %w", op, ErrInvalidParameter, err)
			}
			return bytes.NewReader(b), FormatJSON.contentType(), nil
		}
	}
}

// callOptions is the set of available options for API calls
type callOptions struct {
	withFormat  Format
	withHeaders map[string]string
	withQuery   url.Values
}

// callDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func callDefaults() callOptions {
	return callOptions{
		withFormat: FormatJSON,
	}
}

// getCallOpts gets the defaults and applies the opt overrides passed in
func getCallOpts(opt ...Option) callOptions {
	opts := callDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithFormat provides an optional wire format for an API call.  The format
// governs both the request body encoding and the x-li-format response header.
// Mixed calls are still expressible: url.Values and *etree.Document bodies
// encode as themselves under any format, and WithHeaders overrides the
// Content-Type last, so a JSON request asking for an xml response is
// WithFormat(FormatXML) with a string or []byte JSON body and an explicit
// application/json Content-Type header.
func WithFormat(f Format) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *callOptions:
			v.withFormat = f
		}
	}
}

// WithHeaders provides optional additional headers for an API call.
func WithHeaders(headers map[string]string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *callOptions:
			v.withHeaders = headers
		}
	}
}

// WithQuery provides optional query parameters for an API call.
func WithQuery(query url.Values) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *callOptions:
			v.withQuery = query
		}
	}
}
