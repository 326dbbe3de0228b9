package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/errors"
	"github.com/ticketferry/ticketferry/pkg/testutil"
)

func TestSourcesSorted(t *testing.T) {
	assert.Equal(t, []string{"freshdesk", "helpscout", "intercom", "kayako", "zendesk"}, Sources())
}

func TestNewUnknownSource(t *testing.T) {
	cfg := config.NewJobConfig("plutodesk")
	cfg.Credentials["token"] = "x"

	_, err := New(cfg, testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewMissingCredentials(t *testing.T) {
	cfg := config.NewJobConfig("zendesk")
	cfg.Credentials["subdomain"] = "acme"
	// email and token absent

	_, err := New(cfg, testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewBuildsEachSource(t *testing.T) {
	creds := map[string]map[string]string{
		"zendesk":   {"subdomain": "acme", "email": "a@b.c", "token": "t"},
		"freshdesk": {"domain": "acme", "api_key": "k"},
		"helpscout": {"app_id": "id", "app_secret": "s"},
		"intercom":  {"access_token": "tok"},
		"kayako":    {"domain": "acme", "email": "a@b.c", "password": "p"},
	}
	for source, c := range creds {
		cfg := config.NewJobConfig(source)
		cfg.Credentials = c

		conn, err := New(cfg, testutil.TestLogger(t))
		require.NoError(t, err, source)
		assert.Equal(t, source, conn.Name())
		assert.NotEmpty(t, conn.SourcePrefix())
	}
}
