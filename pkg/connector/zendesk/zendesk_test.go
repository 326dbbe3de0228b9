package zendesk

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
		client:    clients.NewClient(cfg, clients.NewBasicAuth("me@example.com/token", "secret"), testutil.TestLogger(t)),
		logger:    testutil.TestLogger(t),
		subdomain: "acme",
		pageSize:  2,
	}
}

func TestTicketsFollowNextPageLinks(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets.json", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{"tickets":[{"id":1,"requester_id":7,"status":"open"},{"id":2,"requester_id":7,"status":"solved"}],"next_page":%q}`,
				server.URL+"/tickets.json?page=2&per_page=2")
		case "2":
			fmt.Fprint(w, `{"tickets":[{"id":3,"requester_id":8,"status":"closed"}],"next_page":null}`)
		default:
			http.Error(w, "unexpected page", http.StatusBadRequest)
		}
	})
	server = httptest.NewServer(mux)
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
	assert.Equal(t, []string{"zd-1", "zd-2", "zd-3"}, ids)
}

func TestMessagesHydrateOneTicket(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/5/comments.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"comments":[{"id":100,"author_id":7,"body":"hello","public":true},{"id":101,"author_id":9,"body":"internal","public":false}],"next_page":null}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ticket := &canonical.Ticket{ID: "zd-5", ExternalID: "5"}
	var messages []*canonical.Message
	err := c.Messages(ctx, ticket, func(m *canonical.Message) error {
		messages = append(messages, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "zd-5", messages[0].TicketID)
	assert.Equal(t, canonical.MessageReply, messages[0].Type)
	assert.Equal(t, canonical.MessageNote, messages[1].Type)
}

func TestVerify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me.json", func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "me@example.com/token", user)
		fmt.Fprint(w, `{"user":{"id":1,"name":"Me","email":"me@example.com","role":"admin"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	result, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "zendesk", result.Source)
	assert.Equal(t, "acme", result.Account)
	assert.Equal(t, "me@example.com", result.User)
}

func TestCreateTicketFromBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets.json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ticket":{"id":991,"subject":"Help"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	id, err := c.CreateTicket(ctx, &TicketDraft{Subject: "Help", Body: "please", RequesterEmail: "x@example.com", Priority: canonical.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "991", id)
}

func TestCreateTicketFromLocationHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/api/v2/tickets/992.json")
		w.WriteHeader(http.StatusCreated)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	id, err := c.CreateTicket(ctx, &TicketDraft{Subject: "Help", Body: "please"})
	require.NoError(t, err)
	assert.Equal(t, "992", id)
}

func TestFetchUserAbsentIsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/404.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"RecordNotFound"}`, http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	user, err := c.FetchUser(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFetchTicketRefs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/5.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticket":{"id":5,"requester_id":7,"status":"open","organization_id":70,"group_id":80,"brand_id":90,"ticket_form_id":60}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ticket, refs, err := c.FetchTicket(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "zd-5", ticket.ID)
	assert.Equal(t, &TicketRefs{OrganizationID: "70", GroupID: "80", BrandID: "90", FormID: "60"}, refs)
}
