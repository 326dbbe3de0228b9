package syncer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/testutil"
)

func TestFileIngestorWritesBundleAndAppendsEvents(t *testing.T) {
	dir := t.TempDir()
	ing, err := NewFileIngestor(dir)
	require.NoError(t, err)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	bundle := &Bundle{
		Tenant: "acme",
		Ticket: &canonical.Ticket{ID: "zd-5", ExternalID: "5", Source: "zendesk"},
	}
	require.NoError(t, ing.IngestBundle(ctx, bundle))

	raw, err := os.ReadFile(filepath.Join(dir, "bundles", "ticket-5.json"))
	require.NoError(t, err)
	var got Bundle
	require.NoError(t, gojson.Unmarshal(raw, &got))
	assert.Equal(t, "zd-5", got.Ticket.ID)

	for i := 0; i < 2; i++ {
		require.NoError(t, ing.RecordEvent(ctx, &AuditEvent{
			Source:     "zendesk",
			ExternalID: "5",
			ReceivedAt: time.Now().UTC(),
		}))
	}
	log, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, countNewlines(log), "audit log appends, one line per event")
}

func countNewlines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
