package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketferry/ticketferry/pkg/errors"
	"github.com/ticketferry/ticketferry/pkg/testutil"
)

func TestSessionAuthReplaysDiscoveredSession(t *testing.T) {
	var gotSession atomic.Value
	gotSession.Store("")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession.Store(r.Header.Get(SessionHeader))
		w.Write([]byte(`{"session_id":"sess-abc123","data":[]}`))
	}))
	defer server.Close()

	auth := NewSessionAuth("agent@example.com", "hunter2")
	client := testClient(t, server, auth, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := client.Get(ctx, "/cases", nil)
	require.NoError(t, err)
	assert.Empty(t, gotSession.Load(), "first request carries no session yet")
	assert.Equal(t, "sess-abc123", auth.SessionID())

	_, err = client.Get(ctx, "/cases", nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc123", gotSession.Load(), "second request replays the session")
}

func TestSessionAuthMFAChallengeIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"code":"OTP_EXPECTED"}]}`))
	}))
	defer server.Close()

	auth := NewSessionAuth("agent@example.com", "hunter2")
	client := testClient(t, server, auth, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := client.Get(ctx, "/cases", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Contains(t, err.Error(), "disable MFA")
}

func TestOrdinary403IsNotAuthFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"access denied"}`))
	}))
	defer server.Close()

	auth := NewSessionAuth("agent@example.com", "hunter2")
	client := testClient(t, server, auth, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := client.Get(ctx, "/cases", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePermission))
	assert.False(t, errors.IsFatal(err))
}

func TestClientCredentialsSingleFlightRefresh(t *testing.T) {
	var tokenRequests int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&tokenRequests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":3600}`, n)
	}))
	defer tokenServer.Close()

	auth := NewClientCredentialsAuth(context.Background(), "app-id", "app-secret", tokenServer.URL+"/oauth2/token")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v2/users", nil)
			err := auth.Apply(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenRequests),
		"concurrent callers must not trigger duplicate token requests")
}

func TestClientCredentialsFailureIsAuthFatal(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer tokenServer.Close()

	auth := NewClientCredentialsAuth(context.Background(), "app-id", "wrong", tokenServer.URL+"/oauth2/token")

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v2/users", nil)
	err := auth.Apply(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
}

func TestBasicAuthHeader(t *testing.T) {
	auth := NewBasicAuth("me@example.com/token", "secret")
	req, _ := http.NewRequest(http.MethodGet, "https://example.test/", nil)
	require.NoError(t, auth.Apply(context.Background(), req))

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "me@example.com/token", user)
	assert.Equal(t, "secret", pass)
}
