package linkedin

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedClientSecret
		secret := ClientSecret("bob's phone number")
		assert.Equalf(want, secret.String(), "ClientSecret.String() = %v, want %v", secret.String(), want)
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedClientSecret)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "ClientSecret.MarshalJSON() = %s, want %s", got, want)
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	testCaPem := TestGenerateCA(t, []string{"localhost"})
	testLogger := hclog.NewNullLogger()

	type args struct {
		clientID     string
		clientSecret ClientSecret
		callbackURL  string
		opt          []Option
	}
	tests := []struct {
		name      string
		args      args
		want      *Config
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid-with-all-valid-opts",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithScopes("r_emailaddress", "rw_groups"),
					WithOAuthBaseURL("https://oauth.example.com/v2"),
					WithAPIBaseURL("https://api.example.com/v1"),
					WithConnectTimeout(10 * time.Second),
					WithRequestTimeout(30 * time.Second),
					WithProviderCA(testCaPem),
					WithInsecureSkipVerify(),
					WithLogger(testLogger),
				},
			},
			want: &Config{
				ClientID:           "YOUR_CLIENT_ID",
				ClientSecret:       "YOUR_CLIENT_SECRET",
				CallbackURL:        "http://YOUR_CALLBACK_URL",
				Scopes:             []string{"r_emailaddress", "rw_groups"},
				OAuthBaseURL:       "https://oauth.example.com/v2",
				APIBaseURL:         "https://api.example.com/v1",
				ConnectTimeout:     10 * time.Second,
				RequestTimeout:     30 * time.Second,
				ProviderCA:         testCaPem,
				InsecureSkipVerify: true,
				Logger:             testLogger,
			},
		},
		{
			name: "valid-with-defaults",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
			},
			want: &Config{
				ClientID:     "YOUR_CLIENT_ID",
				ClientSecret: "YOUR_CLIENT_SECRET",
				CallbackURL:  "http://YOUR_CALLBACK_URL",
				Scopes:       DefaultScopes(),
			},
		},
		{
			name: "valid-dedups-scopes",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithScopes("r_basicprofile", "r_basicprofile", "w_share"),
				},
			},
			want: &Config{
				ClientID:     "YOUR_CLIENT_ID",
				ClientSecret: "YOUR_CLIENT_SECRET",
				CallbackURL:  "http://YOUR_CALLBACK_URL",
				Scopes:       []string{"r_basicprofile", "w_share"},
			},
		},
		{
			name: "empty-client-id",
			args: args{
				clientID:     "",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-client-secret",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "",
				callbackURL:  "http://YOUR_CALLBACK_URL",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "valid-empty-callback-url",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "",
			},
			want: &Config{
				ClientID:     "YOUR_CLIENT_ID",
				ClientSecret: "YOUR_CLIENT_SECRET",
				Scopes:       DefaultScopes(),
			},
		},
		{
			name: "bad-callback-scheme",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "ldap://bad-scheme",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "bad-callback-url",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://bad-url\\",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "bad-oauth-base-url",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithOAuthBaseURL("ftp://oauth.example.com"),
				},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "bad-api-base-url",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithAPIBaseURL("gopher://api.example.com"),
				},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "negative-connect-timeout",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithConnectTimeout(-1 * time.Second),
				},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "negative-request-timeout",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithRequestTimeout(-1 * time.Second),
				},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid-provider-ca",
			args: args{
				clientID:     "YOUR_CLIENT_ID",
				clientSecret: "YOUR_CLIENT_SECRET",
				callbackURL:  "http://YOUR_CALLBACK_URL",
				opt: []Option{
					WithProviderCA("bad certificate"),
				},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidCACert,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.args.clientID, tt.args.clientSecret, tt.args.callbackURL, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				assert.Truef(errors.Is(err, ErrInvalidConfiguration), "wanted \"%s\" but got \"%s\"", ErrInvalidConfiguration, err)
				return
			}
			require.NoError(err)
			assert.Equalf(tt.want.ClientID, got.ClientID, "ClientID = %v, want %v", got.ClientID, tt.want.ClientID)
			assert.Equalf(tt.want.ClientSecret, got.ClientSecret, "ClientSecret = %v, want %v", got.ClientSecret, tt.want.ClientSecret)
			assert.Equalf(tt.want.CallbackURL, got.CallbackURL, "CallbackURL = %v, want %v", got.CallbackURL, tt.want.CallbackURL)
			assert.Equalf(tt.want.Scopes, got.Scopes, "Scopes = %v, want %v", got.Scopes, tt.want.Scopes)
			assert.Equalf(tt.want.OAuthBaseURL, got.OAuthBaseURL, "OAuthBaseURL = %v, want %v", got.OAuthBaseURL, tt.want.OAuthBaseURL)
			assert.Equalf(tt.want.APIBaseURL, got.APIBaseURL, "APIBaseURL = %v, want %v", got.APIBaseURL, tt.want.APIBaseURL)
			assert.Equalf(tt.want.ConnectTimeout, got.ConnectTimeout, "ConnectTimeout = %v, want %v", got.ConnectTimeout, tt.want.ConnectTimeout)
			assert.Equalf(tt.want.RequestTimeout, got.RequestTimeout, "RequestTimeout = %v, want %v", got.RequestTimeout, tt.want.RequestTimeout)
			assert.Equalf(tt.want.ProviderCA, got.ProviderCA, "ProviderCA = %v, want %v", got.ProviderCA, tt.want.ProviderCA)
			assert.Equalf(tt.want.InsecureSkipVerify, got.InsecureSkipVerify, "InsecureSkipVerify = %v, want %v", got.InsecureSkipVerify, tt.want.InsecureSkipVerify)
			assert.Equalf(tt.want.Logger, got.Logger, "Logger = %v, want %v", got.Logger, tt.want.Logger)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	// Validate is mostly covered by TestNewConfig, but a couple of conditions
	// are easier to reach directly.
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		assert := assert.New(t)
		var c *Config
		err := c.Validate()
		assert.Truef(errors.Is(err, ErrNilParameter), "Config.Validate() = %v, want %v", err, ErrNilParameter)
	})
	t.Run("reports-every-problem", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{CallbackURL: "ldap://bad-scheme"}
		err := c.Validate()
		require.Error(err)
		assert.Truef(errors.Is(err, ErrInvalidParameter), "wanted \"%s\" but got \"%s\"", ErrInvalidParameter, err)
		assert.Contains(err.Error(), "client id is empty")
		assert.Contains(err.Error(), "client secret is empty")
		assert.Contains(err.Error(), "callback URL")
	})
	t.Run("no-callback-url-is-valid", func(t *testing.T) {
		assert := assert.New(t)
		c := &Config{ClientID: "test-id", ClientSecret: "test-secret"}
		assert.NoError(c.Validate())
	})
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	testCaPem := TestGenerateCA(t, []string{"localhost"})

	t.Run("default", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("test-id", "test-secret", "https://example.com/callback")
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		require.NotNil(client)
		assert.Equal(DefaultRequestTimeout, client.Timeout)
		tr, ok := client.Transport.(*http.Transport)
		require.True(ok)
		assert.Nil(tr.TLSClientConfig)
	})
	t.Run("with-request-timeout", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("test-id", "test-secret", "https://example.com/callback", WithRequestTimeout(5*time.Second))
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		assert.Equal(5*time.Second, client.Timeout)
	})
	t.Run("with-provider-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("test-id", "test-secret", "https://example.com/callback", WithProviderCA(testCaPem))
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		tr, ok := client.Transport.(*http.Transport)
		require.True(ok)
		require.NotNil(tr.TLSClientConfig)
		assert.NotNil(tr.TLSClientConfig.RootCAs)
		assert.False(tr.TLSClientConfig.InsecureSkipVerify)
	})
	t.Run("with-insecure-skip-verify", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("test-id", "test-secret", "https://example.com/callback", WithInsecureSkipVerify())
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		tr, ok := client.Transport.(*http.Transport)
		require.True(ok)
		require.NotNil(tr.TLSClientConfig)
		assert.True(tr.TLSClientConfig.InsecureSkipVerify)
	})
	t.Run("with-http-client", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		custom := &http.Client{Timeout: 1 * time.Second}
		c, err := NewConfig("test-id", "test-secret", "https://example.com/callback", WithHTTPClient(custom))
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		assert.Same(custom, client)
	})
	t.Run("invalid-provider-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{
			ClientID:     "test-id",
			ClientSecret: "test-secret",
			CallbackURL:  "https://example.com/callback",
			ProviderCA:   "bad certificate",
		}
		client, err := c.HTTPClient()
		require.Error(err)
		assert.Nil(client)
		assert.Truef(errors.Is(err, ErrInvalidCACert), "wanted \"%s\" but got \"%s\"", ErrInvalidCACert, err)
	})
}

func Test_WithOAuthBaseURL(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithOAuthBaseURL("https://oauth.example.com/v2"))
	testOpts := configDefaults()
	testOpts.withOAuthBaseURL = "https://oauth.example.com/v2"
	assert.Equal(opts, testOpts)
}

func Test_WithAPIBaseURL(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithAPIBaseURL("https://api.example.com/v1"))
	testOpts := configDefaults()
	testOpts.withAPIBaseURL = "https://api.example.com/v1"
	assert.Equal(opts, testOpts)
}

func Test_WithConnectTimeout(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithConnectTimeout(10 * time.Second))
	testOpts := configDefaults()
	testOpts.withConnectTimeout = 10 * time.Second
	assert.Equal(opts, testOpts)
}

func Test_WithRequestTimeout(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithRequestTimeout(30 * time.Second))
	testOpts := configDefaults()
	testOpts.withRequestTimeout = 30 * time.Second
	assert.Equal(opts, testOpts)
}

func Test_WithProviderCA(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithProviderCA("cert PEM"))
	testOpts := configDefaults()
	testOpts.withProviderCA = "cert PEM"
	assert.Equal(opts, testOpts)
}

func Test_WithInsecureSkipVerify(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(WithInsecureSkipVerify())
	testOpts := configDefaults()
	testOpts.withInsecureSkipVerify = true
	assert.Equal(opts, testOpts)
}

func Test_WithLogger(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	testLogger := hclog.NewNullLogger()
	opts := getConfigOpts(WithLogger(testLogger))
	testOpts := configDefaults()
	testOpts.withLogger = testLogger
	assert.Equal(opts, testOpts)
}

func Test_WithHTTPClient(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	client := &http.Client{}
	opts := getConfigOpts(WithHTTPClient(client))
	testOpts := configDefaults()
	testOpts.withHTTPClient = client
	assert.Equal(opts, testOpts)
}
