package intercom

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/clients"
	"github.com/ticketferry/ticketferry/pkg/connector/core"
	"github.com/ticketferry/ticketferry/pkg/testutil"
)

func fixtureConnector(t *testing.T, server *httptest.Server) *Connector {
	t.Helper()
	cfg := clients.DefaultClientConfig(sourceName, server.URL)
	cfg.RetryAfterFloor = 0
	return &Connector{
		client:   clients.NewClient(cfg, clients.NewBearerAuth("tok-abc"), testutil.TestLogger(t)),
		logger:   testutil.TestLogger(t),
		pageSize: 2,
	}
}

func TestConversationsThreadStartingAfterCursor(t *testing.T) {
	var cursors []string
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		cursor := r.URL.Query().Get("starting_after")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			fmt.Fprint(w, `{"conversations":[{"id":"c1","state":"open"},{"id":"c2","state":"closed"}],"pages":{"next":{"starting_after":"cur-1"}}}`)
		case "cur-1":
			fmt.Fprint(w, `{"conversations":[{"id":"c3","state":"snoozed"}],"pages":{"next":null}}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var ids []string
	var statuses []canonical.Status
	err := c.Tickets(ctx, func(ticket *canonical.Ticket) error {
		ids = append(ids, ticket.ID)
		statuses = append(statuses, ticket.Status)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ic-c1", "ic-c2", "ic-c3"}, ids)
	assert.Equal(t, []canonical.Status{canonical.StatusOpen, canonical.StatusClosed, canonical.StatusOnHold}, statuses)
	assert.Equal(t, []string{"", "cur-1"}, cursors)
}

func TestCompaniesScrollEndsOnEmptyPage(t *testing.T) {
	var scrolls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/companies/scroll", func(w http.ResponseWriter, r *http.Request) {
		scroll := r.URL.Query().Get("scroll_param")
		scrolls = append(scrolls, scroll)
		switch len(scrolls) {
		case 1:
			fmt.Fprint(w, `{"data":[{"id":"co1","name":"Acme"}],"scroll_param":"scr-1"}`)
		case 2:
			fmt.Fprint(w, `{"data":[],"scroll_param":"scr-1"}`)
		default:
			t.Error("scroll called past the end")
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var orgs []string
	err := c.Organizations(ctx, func(o *canonical.Organization) error {
		orgs = append(orgs, o.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ic-co1"}, orgs)
	assert.Equal(t, []string{"", "scr-1"}, scrolls)
}

func TestMessagesIncludeOpenerAndParts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations/c9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id":"c9","state":"open","created_at":1700000000,
			"source":{"body":"<p>my app is down</p>","author":{"id":"u7","type":"user"}},
			"conversation_parts":{"conversation_parts":[
				{"id":"p1","part_type":"comment","body":"looking","author":{"id":"a3","type":"admin"},"created_at":1700000100},
				{"id":"p2","part_type":"note","body":"check infra","author":{"id":"a3","type":"admin"},"created_at":1700000200},
				{"id":"p3","part_type":"assignment","body":"","created_at":1700000300}
			]}
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ticket := &canonical.Ticket{ID: "ic-c9", ExternalID: "c9"}
	var messages []*canonical.Message
	err := c.Messages(ctx, ticket, func(m *canonical.Message) error {
		messages = append(messages, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, "ic-c9-source", messages[0].ID)
	assert.Equal(t, canonical.MessageReply, messages[0].Type)
	assert.Equal(t, "ic-u7", messages[0].Author)

	assert.Equal(t, canonical.MessageReply, messages[1].Type)
	assert.Equal(t, "ic-agent-a3", messages[1].Author)
	assert.Equal(t, canonical.MessageNote, messages[2].Type)
	assert.Equal(t, canonical.MessageSystem, messages[3].Type)
}

func TestArticlesResolveCollectionPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/help_center/collections", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"12","name":"Guides"}],"pages":{"next":null}}`)
	})
	mux.HandleFunc("/articles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"900","title":"Install","body":"steps","parent_id":12}],"pages":{"next":null}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var articles []*canonical.KBArticle
	err := c.KBArticles(ctx, func(a *canonical.KBArticle) error {
		articles = append(articles, a)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "ic-900", articles[0].ID)
	assert.Equal(t, []string{"Guides"}, articles[0].CategoryPath)
}

func TestRulesUnsupported(t *testing.T) {
	c := &Connector{}
	assert.True(t, core.IsUnsupported(c.Rules(nil, nil)))
}

func TestPriorityFlag(t *testing.T) {
	assert.Equal(t, canonical.PriorityHigh, mapPriority("priority"))
	assert.Equal(t, canonical.PriorityNormal, mapPriority("not_priority"))
	assert.Equal(t, canonical.PriorityNormal, mapPriority(""))
}
