package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-social/linkedin/internal/strutils"
	"golang.org/x/oauth2"
)

// Client provides integration with the LinkedIn REST API using the typical
// 3-legged OAuth2 authorization code flow.  A Client is safe for concurrent
// use, but an authorization flow is a conversation with a single member: run
// one flow per Client at a time.
type Client struct {
	conf *Config

	mu sync.Mutex

	// accessToken is the bearer token sent with API calls.  Set by Exchange
	// or SetAccessToken.
	accessToken AccessToken

	// expiresIn is the token lifetime in seconds as reported by the token
	// endpoint at exchange time
	expiresIn int64

	// lastAuthState is the state sent with the most recent authorization URL
	lastAuthState string
}

// NewClient creates a client for the LinkedIn API from the config.
func NewClient(c *Config) (*Client, error) {
	const op = "linkedin.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidConfiguration, err)
	}
	return &Client{conf: c}, nil
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	return c.conf
}

// AuthorizationURL will generate a URL the caller can use to kick off the
// authorization code flow with the provider.  The state sent with the URL is
// retained and available from LastAuthState(), so the caller can correlate
// the provider's callback; when no WithState option is given a unique state
// is generated.  When WithScopes is given, those scopes are requested instead
// of the config's.
// Supported options: WithState, WithScopes, WithAuthParams
func (c *Client) AuthorizationURL(opt ...Option) (string, error) {
	const op = "linkedin.(Client).AuthorizationURL"
	if c.conf.CallbackURL == "" {
		return "", fmt.Errorf("%s: config callback URL is empty: %w", op, ErrInvalidConfiguration)
	}
	opts := getAuthURLOpts(opt...)
	state := opts.withState
	if state == "" {
		var err error
		state, err = NewID(WithPrefix("st"))
		if err != nil {
			return "", fmt.Errorf("%s: unable to generate a state: %w", op, err)
		}
	}
	scopes := c.conf.Scopes
	if len(opts.withScopes) > 0 {
		scopes = strutils.RemoveDuplicatesStable(opts.withScopes, false)
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	authCodeOpts := make([]oauth2.AuthCodeOption, 0, len(opts.withAuthParams))
	for k, v := range opts.withAuthParams {
		if reservedAuthParams[k] {
			continue
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam(k, v))
	}
	u := c.oauth2Config(scopes).AuthCodeURL(state, authCodeOpts...)

	c.mu.Lock()
	c.lastAuthState = state
	c.mu.Unlock()

	c.conf.logger().Debug("generated authorization url", "state", state, "scopes", scopes)
	return u, nil
}

// Exchange will request a token from the provider's token endpoint, using
// the authorizationCode received in the provider's callback.  On success the
// token and the lifetime the endpoint reported for it are retained on the
// client for subsequent API calls.
func (c *Client) Exchange(ctx context.Context, authorizationCode string) (AccessToken, error) {
	const op = "linkedin.(Client).Exchange"
	if c.conf == nil {
		return "", fmt.Errorf("%s: client config is nil: %w", op, ErrNilParameter)
	}
	if authorizationCode == "" {
		return "", fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}
	if c.conf.CallbackURL == "" {
		return "", fmt.Errorf("%s: config callback URL is empty: %w", op, ErrInvalidConfiguration)
	}
	client, err := c.conf.HTTPClient()
	if err != nil {
		return "", fmt.Errorf("%s: unable to create http client: %w", op, err)
	}

	tk, err := c.oauth2Config(c.conf.Scopes).Exchange(HTTPClientContext(ctx, client), authorizationCode)
	if err != nil {
		return "", fmt.Errorf("%s: unable to exchange authorization code with provider: %w", op, classifyExchangeErr(err))
	}
	if tk.AccessToken == "" {
		return "", fmt.Errorf("%s: access_token is missing from the token response: %w", op, ErrTokenExchange)
	}
	expiresIn := expiresInSeconds(tk)

	c.mu.Lock()
	c.accessToken = AccessToken(tk.AccessToken)
	c.expiresIn = expiresIn
	c.mu.Unlock()

	c.conf.logger().Debug("exchanged authorization code for token", "expires_in", expiresIn)
	return AccessToken(tk.AccessToken), nil
}

// SetAccessToken stores a token acquired out of band, for example one read
// back from storage.  The token is trimmed of surrounding whitespace before
// it is stored.
// Supported options: WithExpiresIn
func (c *Client) SetAccessToken(token string, opt ...Option) (AccessToken, error) {
	const op = "linkedin.(Client).SetAccessToken"
	opts := getSetTokenOpts(opt...)
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%s: access token is empty: %w", op, ErrInvalidParameter)
	}

	c.mu.Lock()
	c.accessToken = AccessToken(token)
	c.expiresIn = opts.withExpiresIn
	c.mu.Unlock()
	return AccessToken(token), nil
}

// AccessToken returns the token currently held by the client, or the empty
// string when none has been set.
func (c *Client) AccessToken() AccessToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// HasAccessToken reports whether the client currently holds a token.
func (c *Client) HasAccessToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

// AccessTokenExpiresIn returns the lifetime in seconds the token endpoint
// reported for the current token, or zero when it isn't known.
func (c *Client) AccessTokenExpiresIn() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresIn
}

// LastAuthState returns the state sent with the most recent authorization
// URL, or the empty string before the first AuthorizationURL call.  Callers
// should compare it against the state in the provider's callback before
// exchanging the code.
func (c *Client) LastAuthState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAuthState
}

// oauth2Config returns the oauth2 configuration for the client's endpoints.
// The provider wants client credentials in the POST body of a token request,
// not in an Authorization header.
func (c *Client) oauth2Config(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.conf.ClientID,
		ClientSecret: string(c.conf.ClientSecret),
		RedirectURL:  c.conf.CallbackURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.conf.oauthBase() + "/authorization",
			TokenURL:  c.conf.oauthBase() + "/accessToken",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client.  This sets the same context key used by
// the golang.org/x/oauth2 package, so the returned context works for that
// package as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// classifyExchangeErr separates failures to reach the token endpoint from
// rejections issued by it.
func classifyExchangeErr(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return fmt.Errorf("%w: %w", ErrTokenExchange, err)
}

// expiresInSeconds returns the lifetime the token endpoint reported for the
// token.  The raw expires_in field is preferred; the computed expiry is a
// fallback for endpoints that only send an absolute expiration.
func expiresInSeconds(tk *oauth2.Token) int64 {
	if v, ok := tk.Extra("expires_in").(float64); ok {
		return int64(v)
	}
	if !tk.Expiry.IsZero() {
		if d := time.Until(tk.Expiry); d > 0 {
			return int64(d / time.Second)
		}
	}
	return 0
}

// reservedAuthParams are the authorization parameters controlled by the
// client itself.  WithAuthParams cannot override them.
var reservedAuthParams = map[string]bool{
	"client_id":     true,
	"redirect_uri":  true,
	"response_type": true,
	"scope":         true,
	"state":         true,
}

// authURLOptions is the set of available options for AuthorizationURL
type authURLOptions struct {
	withState      string
	withScopes     []string
	withAuthParams map[string]string
}

// authURLDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func authURLDefaults() authURLOptions {
	return authURLOptions{}
}

// getAuthURLOpts gets the defaults and applies the opt overrides passed in
func getAuthURLOpts(opt ...Option) authURLOptions {
	opts := authURLDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithState provides a caller-chosen state for an authorization URL,
// overriding the generated one.
func WithState(s string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *authURLOptions:
			v.withState = s
		}
	}
}

// WithAuthParams provides optional additional query parameters for an
// authorization URL.  Parameters that collide with the standard authorization
// parameters are ignored; use WithState and WithScopes for those.
func WithAuthParams(params map[string]string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *authURLOptions:
			v.withAuthParams = params
		}
	}
}

// setTokenOptions is the set of available options for SetAccessToken
type setTokenOptions struct {
	withExpiresIn int64
}

// setTokenDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func setTokenDefaults() setTokenOptions {
	return setTokenOptions{}
}

// getSetTokenOpts gets the defaults and applies the opt overrides passed in
func getSetTokenOpts(opt ...Option) setTokenOptions {
	opts := setTokenDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithExpiresIn provides an optional lifetime in seconds for a token stored
// with SetAccessToken.
func WithExpiresIn(seconds int64) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *setTokenOptions:
			v.withExpiresIn = seconds
		}
	}
}
