package linkedin

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/go-social/linkedin/internal/strutils"
	"github.com/stretchr/testify/require"
)

// TestServer is a local TLS server that simulates the provider's OAuth
// endpoints and REST resources, which makes writing tests much easier.
// Tests point a config at it with WithOAuthBaseURL(s.Addr()),
// WithAPIBaseURL(s.Addr()) and WithProviderCA(s.CACert()).
type TestServer struct {
	httpServer *httptest.Server
	caCert     string

	mu                  sync.Mutex
	clientID            string
	clientSecret        string
	expectedAuthCode    string
	expectedToken       string
	replyExpiresIn      int64
	allowedRedirectURIs []string
	apiResponses        map[string]testAPIResponse
	disableTokenCheck   bool

	t *testing.T
}

type testAPIResponse struct {
	statusCode int
	body       string
}

// StartTestServer creates a disposable TestServer.  The listener picks a
// free port unless WithTestPort is given, and the server is closed via
// t.Cleanup.
// Supported options: WithTestPort
func StartTestServer(t *testing.T, opt ...Option) *TestServer {
	t.Helper()
	require := require.New(t)
	opts := getTestServerOpts(opt...)

	s := &TestServer{
		t:              t,
		expectedToken:  "test-access-token",
		replyExpiresIn: 3600,
		apiResponses:   map[string]testAPIResponse{},
	}

	if opts.withPort != 0 {
		l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(opts.withPort)))
		require.NoError(err)
		s.httpServer = &httptest.Server{
			Listener: l,
			Config:   &http.Server{Handler: s},
		}
	} else {
		s.httpServer = httptest.NewUnstartedServer(s)
	}
	s.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	s.httpServer.StartTLS()
	t.Cleanup(s.httpServer.Close)

	cert := s.httpServer.Certificate()

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(err)
	s.caCert = buf.String()

	return s
}

// Stop stops the running TestServer.
func (s *TestServer) Stop() {
	s.httpServer.Close()
}

// Addr returns the current base URL for the test server.
func (s *TestServer) Addr() string { return s.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test server.
func (s *TestServer) CACert() string { return s.caCert }

// SetClientCreds configures the client information the server requires of
// authorization and token requests.  When unset, any client is accepted.
func (s *TestServer) SetClientCreds(clientID, clientSecret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = clientID
	s.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the auth code returned from the
// authorization endpoint and the only code the token endpoint accepts.
func (s *TestServer) SetExpectedAuthCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectedAuthCode = code
}

// SetExpectedToken configures the access token issued by the token endpoint
// and required of API calls.
func (s *TestServer) SetExpectedToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectedToken = token
}

// SetReplyExpiresIn configures the expires_in value the token endpoint
// reports.
func (s *TestServer) SetReplyExpiresIn(seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyExpiresIn = seconds
}

// SetAllowedRedirectURIs configures the redirect URIs the token endpoint
// accepts.  When unset, any redirect URI is accepted.
func (s *TestServer) SetAllowedRedirectURIs(uris []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowedRedirectURIs = uris
}

// SetAPIResponse configures the reply for an API path.  The body is written
// verbatim with the given HTTP status.
func (s *TestServer) SetAPIResponse(path string, statusCode int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiResponses[path] = testAPIResponse{statusCode: statusCode, body: body}
}

// DisableTokenCheck allows API calls without the expected access token.
func (s *TestServer) DisableTokenCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disableTokenCheck = true
}

func (s *TestServer) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (s *TestServer) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(errorCode)

	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}

	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (s *TestServer) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return s.writeJSON(w, &body)
}

func (s *TestServer) writeAPIError(w http.ResponseWriter, statusCode int, msg string) {
	body := struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}{
		Status:  statusCode,
		Message: msg,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = s.writeJSON(w, &body)
}

// ServeHTTP implements the test server's http.Handler.
func (s *TestServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.t.Helper()

	switch req.URL.Path {
	case "/authorization":
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		qv := req.URL.Query()

		if qv.Get("redirect_uri") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = s.writeJSON(w, map[string]string{
				"error":             "invalid_request",
				"error_description": "missing redirect_uri parameter",
			})
			return
		}
		if qv.Get("response_type") != "code" {
			s.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		}
		if qv.Get("state") == "" {
			s.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		}
		if s.clientID != "" && qv.Get("client_id") != s.clientID {
			s.writeAuthErrorResponse(w, req, "access_denied", "unknown client")
			return
		}
		if s.expectedAuthCode == "" {
			s.writeAuthErrorResponse(w, req, "access_denied", "")
			return
		}

		redirectURI := qv.Get("redirect_uri") +
			"?state=" + url.QueryEscape(qv.Get("state")) +
			"&code=" + url.QueryEscape(s.expectedAuthCode)

		http.Redirect(w, req, redirectURI, http.StatusFound)

	case "/accessToken":
		if req.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		switch {
		case req.FormValue("grant_type") != "authorization_code":
			_ = s.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case s.clientID != "" && req.FormValue("client_id") != s.clientID:
			_ = s.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "unknown client")
			return
		case s.clientSecret != "" && req.FormValue("client_secret") != s.clientSecret:
			_ = s.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "bad client secret")
			return
		case len(s.allowedRedirectURIs) > 0 && !strutils.StrListContains(s.allowedRedirectURIs, req.FormValue("redirect_uri")):
			_ = s.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case s.expectedAuthCode == "" || req.FormValue("code") != s.expectedAuthCode:
			_ = s.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_grant", "unexpected auth code")
			return
		}

		reply := struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}{
			AccessToken: s.expectedToken,
			ExpiresIn:   s.replyExpiresIn,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := s.writeJSON(w, &reply); err != nil {
			return
		}

	default:
		if !s.disableTokenCheck && req.URL.Query().Get(accessTokenParam) != s.expectedToken {
			s.writeAPIError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		contentType := "application/json"
		if req.Header.Get(formatHeader) == "xml" {
			contentType = "text/xml"
		}

		if resp, ok := s.apiResponses[req.URL.Path]; ok {
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(resp.statusCode)
			_, _ = w.Write([]byte(resp.body))
			return
		}
		s.writeAPIError(w, http.StatusNotFound, "not found")
	}
}

// testServerOptions is the set of available options for StartTestServer
type testServerOptions struct {
	withPort int
}

// testServerDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func testServerDefaults() testServerOptions {
	return testServerOptions{}
}

// getTestServerOpts gets the defaults and applies the opt overrides passed in
func getTestServerOpts(opt ...Option) testServerOptions {
	opts := testServerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTestPort provides an optional port for the test server's listener.
func WithTestPort(port int) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *testServerOptions:
			v.withPort = port
		}
	}
}
