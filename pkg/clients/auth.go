// Package clients provides authenticators and the rate-limited request
// client shared by all source connectors.
package clients

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ticketferry/ticketferry/pkg/errors"
)

// SessionHeader is the header carrying a lazily discovered session token.
const SessionHeader = "X-Session-ID"

// mfaMarker flags a 403 body demanding a one-time password. Sources that
// enforce MFA on the API user cannot be exported non-interactively.
const mfaMarker = "OTP_EXPECTED"

// Authenticator produces request-ready auth material for one connector
// instance. Implementations may keep instance-scoped mutable state (cached
// token, session id) but must never share it across credential sets.
type Authenticator interface {
	// Apply attaches auth material to the outgoing request.
	Apply(ctx context.Context, req *http.Request) error

	// HandleResponse inspects a response for auth material or fatal
	// challenges. The request client calls it for every response body.
	HandleResponse(status int, body []byte) error
}

// BasicAuth is a stateless HTTP Basic authenticator.
type BasicAuth struct {
	Username string
	Password string
}

// NewBasicAuth builds a Basic authenticator from static credentials.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{Username: username, Password: password}
}

func (a *BasicAuth) Apply(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

func (a *BasicAuth) HandleResponse(int, []byte) error { return nil }

// TokenAuth attaches a bearer token from an oauth2.TokenSource. The source
// is responsible for caching and refresh; token retrieval failures are
// authentication-fatal.
type TokenAuth struct {
	source oauth2.TokenSource
}

// NewBearerAuth builds a TokenAuth around a static access token.
func NewBearerAuth(accessToken string) *TokenAuth {
	return &TokenAuth{source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})}
}

// NewClientCredentialsAuth builds a TokenAuth that exchanges client
// credentials at tokenURL. The returned source caches the token, refreshes
// it one minute before expiry, and serializes refresh so concurrent callers
// never trigger duplicate token requests.
func NewClientCredentialsAuth(ctx context.Context, clientID, clientSecret, tokenURL string) *TokenAuth {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	raw := &clientCredentialsSource{ctx: ctx, conf: conf}
	return &TokenAuth{source: oauth2.ReuseTokenSourceWithExpiry(nil, raw, time.Minute)}
}

// clientCredentialsSource performs an uncached token exchange per call;
// caching and single-flight live in the surrounding reuse source.
type clientCredentialsSource struct {
	ctx  context.Context
	conf *clientcredentials.Config
}

func (s *clientCredentialsSource) Token() (*oauth2.Token, error) {
	return s.conf.Token(s.ctx)
}

func (a *TokenAuth) Apply(_ context.Context, req *http.Request) error {
	token, err := a.source.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to acquire access token")
	}
	token.SetAuthHeader(req)
	return nil
}

func (a *TokenAuth) HandleResponse(int, []byte) error { return nil }

// SessionAuth starts with Basic credentials and watches every JSON response
// body for a session_id, replaying it as the X-Session-ID header on all
// subsequent requests for the life of the connector instance. A 403 whose
// body carries the MFA challenge marker is a fatal, non-retryable auth
// error distinct from ordinary 403s.
type SessionAuth struct {
	Username string
	Password string

	mu        sync.Mutex
	sessionID string
}

// NewSessionAuth builds a session authenticator from Basic credentials.
func NewSessionAuth(username, password string) *SessionAuth {
	return &SessionAuth{Username: username, Password: password}
}

func (a *SessionAuth) Apply(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)

	a.mu.Lock()
	session := a.sessionID
	a.mu.Unlock()

	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	return nil
}

func (a *SessionAuth) HandleResponse(status int, body []byte) error {
	if status == http.StatusForbidden && bytes.Contains(body, []byte(mfaMarker)) {
		return errors.New(errors.ErrorTypeAuthentication,
			"multi-factor auth is enabled for the API user; disable MFA for the API user to export")
	}

	var envelope struct {
		SessionID string `json:"session_id"`
	}
	if err := gojson.Unmarshal(body, &envelope); err != nil {
		// Non-JSON or shapeless body; nothing to harvest.
		return nil
	}
	if envelope.SessionID != "" {
		a.mu.Lock()
		a.sessionID = envelope.SessionID
		a.mu.Unlock()
	}
	return nil
}

// SessionID returns the currently held session token, if any.
func (a *SessionAuth) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}
