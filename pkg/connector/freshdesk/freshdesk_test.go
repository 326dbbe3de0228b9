package freshdesk

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/clients"
	"github.com/ticketferry/ticketferry/pkg/testutil"
)

func fixtureConnector(t *testing.T, server *httptest.Server) *Connector {
	t.Helper()
	cfg := clients.DefaultClientConfig(sourceName, server.URL)
	cfg.RetryAfterFloor = 0
	return &Connector{
		client:   clients.NewClient(cfg, clients.NewBasicAuth("key123", "X"), testutil.TestLogger(t)),
		logger:   testutil.TestLogger(t),
		domain:   "acme",
		pageSize: 2,
	}
}

func TestTicketsStopOnShortPage(t *testing.T) {
	var pages []string
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			fmt.Fprint(w, `[{"id":1,"status":2,"priority":2,"requester_id":7},{"id":2,"status":4,"priority":3,"requester_id":7}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"status":5,"priority":1,"requester_id":8}]`)
		default:
			t.Errorf("unexpected page %q", page)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var ids []string
	err := c.Tickets(ctx, func(ticket *canonical.Ticket) error {
		ids = append(ids, ticket.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fd-1", "fd-2", "fd-3"}, ids)
	assert.Equal(t, []string{"1", "2"}, pages, "short page ends the walk without a probe request")
}

func TestAPIKeyRidesAsBasicUsername(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/agents/me", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key123", user)
		assert.Equal(t, "X", pass)
		fmt.Fprint(w, `{"contact":{"email":"agent@acme.com"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	result, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "agent@acme.com", result.User)
	assert.Equal(t, "acme", result.Account)
}

func TestConversationsMapToMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/9/conversations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":50,"user_id":7,"body_text":"hello","body":"<p>hello</p>","private":false},{"id":51,"user_id":8,"body_text":"fyi","private":true}]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ticket := &canonical.Ticket{ID: "fd-9", ExternalID: "9"}
	var messages []*canonical.Message
	err := c.Messages(ctx, ticket, func(m *canonical.Message) error {
		messages = append(messages, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, canonical.MessageReply, messages[0].Type)
	assert.Equal(t, "<p>hello</p>", messages[0].BodyHTML)
	assert.Equal(t, canonical.MessageNote, messages[1].Type)
}

func TestKBArticlesWalkSolutionsTree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/solutions/categories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"General"}]`)
	})
	mux.HandleFunc("/solutions/categories/1/folders", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":10,"name":"FAQ"}]`)
	})
	mux.HandleFunc("/solutions/folders/10/articles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":100,"title":"Reset password","description":"Click the link"}]`)
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
	assert.Equal(t, "fd-100", articles[0].ID)
	assert.Equal(t, []string{"General", "FAQ"}, articles[0].CategoryPath)
}

func TestCreateTicket(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":321,"subject":"Help","status":2,"priority":3}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	id, err := c.CreateTicket(ctx, &TicketDraft{Subject: "Help", Body: "please", RequesterEmail: "x@acme.com", Priority: canonical.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "321", id)
}

func TestStatusAndPriorityCodes(t *testing.T) {
	assert.Equal(t, canonical.StatusOpen, mapStatus(2))
	assert.Equal(t, canonical.StatusPending, mapStatus(3))
	assert.Equal(t, canonical.StatusSolved, mapStatus(4))
	assert.Equal(t, canonical.StatusClosed, mapStatus(5))
	assert.Equal(t, canonical.StatusOpen, mapStatus(99))

	assert.Equal(t, canonical.PriorityLow, mapPriority(1))
	assert.Equal(t, canonical.PriorityNormal, mapPriority(2))
	assert.Equal(t, canonical.PriorityHigh, mapPriority(3))
	assert.Equal(t, canonical.PriorityUrgent, mapPriority(4))
	assert.Equal(t, canonical.PriorityNormal, mapPriority(0))
}

func TestAgentNamespaceSeparateFromContacts(t *testing.T) {
	contact := mapContact(&apiContact{ID: 5, Name: "Sam", CompanyID: 12})
	agent := mapAgent(&apiAgent{ID: 5})

	assert.Equal(t, "fd-5", contact.ID)
	assert.Equal(t, "fd-agent-5", agent.ID)
	assert.Equal(t, "fd-12", contact.OrgID)
	assert.Equal(t, "user-5", agent.Name)
}
