package linkedin

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-social/linkedin/internal/strutils"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

const (
	// DefaultOAuthBaseURL is the base URL for the provider's authorization
	// and token endpoints
	DefaultOAuthBaseURL = "https://www.linkedin.com/oauth/v2"

	// DefaultAPIBaseURL is the base URL for the provider's REST resources
	DefaultAPIBaseURL = "https://api.linkedin.com/v1"

	// DefaultConnectTimeout bounds establishing a connection to the provider,
	// including the TLS handshake
	DefaultConnectTimeout = 30 * time.Second

	// DefaultRequestTimeout bounds an entire request, from connection through
	// reading the response body
	DefaultRequestTimeout = 90 * time.Second
)

// DefaultScopes returns the member permissions requested during authorization
// when the config doesn't specify its own.
func DefaultScopes() []string {
	return []string{"r_basicprofile", "w_share"}
}

// Config represents the configuration for a LinkedIn API client.
type Config struct {
	// ClientID is the application's api key
	ClientID string

	// ClientSecret is the application's api secret
	ClientSecret ClientSecret

	// CallbackURL is the URL the provider redirects back to with a code and
	// state after the member authorizes the application.  It must exactly
	// match one of the redirect URLs registered for the application.  It may
	// be empty for a client that only replays a stored token; AuthorizationURL
	// and Exchange require it.
	CallbackURL string

	// Scopes is a list of member permissions to request during authorization.
	// When empty, DefaultScopes() is requested.
	Scopes []string

	// OAuthBaseURL is the base URL for the authorization and token endpoints.
	// When empty, DefaultOAuthBaseURL is used.
	OAuthBaseURL string

	// APIBaseURL is the base URL for REST calls.  When empty,
	// DefaultAPIBaseURL is used.
	APIBaseURL string

	// ConnectTimeout bounds establishing a connection, including the TLS
	// handshake.  When zero, DefaultConnectTimeout is used.
	ConnectTimeout time.Duration

	// RequestTimeout bounds an entire request, from connection through
	// reading the response body.  When zero, DefaultRequestTimeout is used.
	RequestTimeout time.Duration

	// ProviderCA is an optional CA cert PEM to use when sending requests to
	// the provider.
	ProviderCA string

	// InsecureSkipVerify disables verification of the provider's TLS
	// certificate chain.  It must be requested explicitly and should never be
	// set outside of tests.
	InsecureSkipVerify bool

	// Logger is an optional logger.  Client secrets and access tokens are
	// redacted before anything reaches it.
	Logger hclog.Logger

	// httpClient is an optional client override set via WithHTTPClient
	httpClient *http.Client
}

// NewConfig composes a new config for a client.  The callbackURL may be
// empty when the client will only replay a token stored elsewhere.
// Supported options: WithScopes, WithOAuthBaseURL, WithAPIBaseURL,
// WithConnectTimeout, WithRequestTimeout, WithProviderCA,
// WithInsecureSkipVerify, WithLogger, WithHTTPClient
func NewConfig(clientID string, clientSecret ClientSecret, callbackURL string, opt ...Option) (*Config, error) {
	const op = "linkedin.NewConfig"
	opts := getConfigOpts(opt...)
	scopes := strutils.RemoveDuplicatesStable(opts.withScopes, false)
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	c := &Config{
		ClientID:           clientID,
		ClientSecret:       clientSecret,
		CallbackURL:        callbackURL,
		Scopes:             scopes,
		OAuthBaseURL:       opts.withOAuthBaseURL,
		APIBaseURL:         opts.withAPIBaseURL,
		ConnectTimeout:     opts.withConnectTimeout,
		RequestTimeout:     opts.withRequestTimeout,
		ProviderCA:         opts.withProviderCA,
		InsecureSkipVerify: opts.withInsecureSkipVerify,
		Logger:             opts.withLogger,
		httpClient:         opts.withHTTPClient,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidConfiguration, err)
	}
	return c, nil
}

// Validate the client configuration.  It verifies the client id and client
// secret are not empty, and that every configured URL parses with an http or
// https scheme.  All problems found are reported, not just the first.
func (c *Config) Validate() error {
	const op = "linkedin.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var retErr *multierror.Error
	if c.ClientID == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter))
	}
	if c.CallbackURL != "" {
		if err := validateURL("callback URL", c.CallbackURL); err != nil {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
		}
	}
	if c.OAuthBaseURL != "" {
		if err := validateURL("oauth base URL", c.OAuthBaseURL); err != nil {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
		}
	}
	if c.APIBaseURL != "" {
		if err := validateURL("api base URL", c.APIBaseURL); err != nil {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
		}
	}
	if c.ConnectTimeout < 0 {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: connect timeout is negative: %w", op, ErrInvalidParameter))
	}
	if c.RequestTimeout < 0 {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: request timeout is negative: %w", op, ErrInvalidParameter))
	}
	if c.ProviderCA != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(c.ProviderCA)); !ok {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert))
		}
	}
	return retErr.ErrorOrNil()
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is invalid: %w", name, raw, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("%s %q scheme is not http or https: %w", name, raw, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// configured provider.  The client uses pooled transport defaults, the
// configured timeouts, and the optional CA PEM when one was provided.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "linkedin.(Config).HTTPClient"
	if c.httpClient != nil {
		return c.httpClient, nil
	}
	tr := cleanhttp.DefaultPooledTransport()
	tr.DialContext = (&net.Dialer{
		Timeout:   c.connectTimeout(),
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = c.connectTimeout()

	if c.ProviderCA != "" || c.InsecureSkipVerify {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: c.InsecureSkipVerify,
		}
		if c.ProviderCA != "" {
			certPool := x509.NewCertPool()
			if ok := certPool.AppendCertsFromPEM([]byte(c.ProviderCA)); !ok {
				return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
			}
			tlsConfig.RootCAs = certPool
		}
		tr.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Transport: tr,
		Timeout:   c.requestTimeout(),
	}, nil
}

func (c *Config) oauthBase() string {
	if c.OAuthBaseURL != "" {
		return c.OAuthBaseURL
	}
	return DefaultOAuthBaseURL
}

func (c *Config) apiBase() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return DefaultAPIBaseURL
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (c *Config) requestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return DefaultRequestTimeout
}

func (c *Config) logger() hclog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return hclog.NewNullLogger()
}

// configOptions is the set of available options for Config functions
type configOptions struct {
	withScopes             []string
	withOAuthBaseURL       string
	withAPIBaseURL         string
	withConnectTimeout     time.Duration
	withRequestTimeout     time.Duration
	withProviderCA         string
	withInsecureSkipVerify bool
	withLogger             hclog.Logger
	withHTTPClient         *http.Client
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the config defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithOAuthBaseURL provides an optional base URL for the provider's
// authorization and token endpoints.
func WithOAuthBaseURL(u string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withOAuthBaseURL = u
		}
	}
}

// WithAPIBaseURL provides an optional base URL for the provider's REST
// resources.
func WithAPIBaseURL(u string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withAPIBaseURL = u
		}
	}
}

// WithConnectTimeout provides an optional timeout for establishing a
// connection to the provider.
func WithConnectTimeout(d time.Duration) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withConnectTimeout = d
		}
	}
}

// WithRequestTimeout provides an optional timeout for an entire request to
// the provider.
func WithRequestTimeout(d time.Duration) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withRequestTimeout = d
		}
	}
}

// WithProviderCA provides an optional CA cert PEM for the client's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withProviderCA = cert
		}
	}
}

// WithInsecureSkipVerify disables verification of the provider's TLS
// certificate chain.  Verification is on unless this option is given.
func WithInsecureSkipVerify() Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withInsecureSkipVerify = true
		}
	}
}

// WithLogger provides an optional logger for the client's config
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withLogger = l
		}
	}
}

// WithHTTPClient provides an optional http client, overriding the one the
// config would otherwise build from its CA and timeout settings.
func WithHTTPClient(client *http.Client) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withHTTPClient = client
		}
	}
}
