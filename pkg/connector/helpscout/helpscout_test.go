package helpscout

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
		client:   clients.NewClient(cfg, clients.NewBearerAuth("tok"), testutil.TestLogger(t)),
		logger:   testutil.TestLogger(t),
		pageSize: 2,
	}
}

func TestConversationsPageByTotalPages(t *testing.T) {
	var pages []string
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			fmt.Fprint(w, `{"_embedded":{"conversations":[{"id":1,"subject":"a","status":"active"},{"id":2,"subject":"b","status":"pending"}]},"page":{"totalPages":2}}`)
		case "2":
			fmt.Fprint(w, `{"_embedded":{"conversations":[{"id":3,"subject":"c","status":"closed"}]},"page":{"totalPages":2}}`)
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
	assert.Equal(t, []string{"hs-1", "hs-2", "hs-3"}, ids)
	assert.Equal(t, []string{"1", "2"}, pages, "exactly totalPages requests")
}

func TestThreadClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations/9/threads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"_embedded":{"threads":[
			{"id":1,"type":"customer","body":"help","createdBy":{"id":7,"type":"customer"}},
			{"id":2,"type":"message","body":"on it","createdBy":{"id":8,"type":"user"}},
			{"id":3,"type":"note","body":"internal"},
			{"id":4,"type":"lineitem","body":"status changed"}
		]},"page":{"totalPages":1}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ticket := &canonical.Ticket{ID: "hs-9", ExternalID: "9"}
	var types []canonical.MessageType
	err := c.Messages(ctx, ticket, func(m *canonical.Message) error {
		types = append(types, m.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []canonical.MessageType{
		canonical.MessageReply,
		canonical.MessageReply,
		canonical.MessageNote,
		canonical.MessageSystem,
	}, types)
}

func TestCustomerCompanyDerivesOrg(t *testing.T) {
	customer := mapCustomer(&apiCustomer{ID: 5, FirstName: "Ada", LastName: "Lovelace", Company: "Acme Corp"})

	assert.Equal(t, "hs-5", customer.ID)
	assert.Equal(t, "Ada Lovelace", customer.Name)
	assert.Equal(t, "Acme Corp", customer.OrgName)
	assert.Equal(t, canonical.OrgIDFromName("hs", "Acme Corp"), customer.OrgID)

	plain := mapCustomer(&apiCustomer{ID: 6, FirstName: "Sam"})
	assert.Empty(t, plain.OrgID)
	assert.Empty(t, plain.OrgName)
}

func TestCustomerNameFallbacks(t *testing.T) {
	c := &apiCustomer{ID: 7}
	c.Embedded.Emails = []struct {
		Value string `json:"value"`
	}{{Value: "x@example.com"}}

	mapped := mapCustomer(c)
	assert.Equal(t, "x@example.com", mapped.Name)
	assert.Equal(t, "x@example.com", mapped.Email)

	bare := mapCustomer(&apiCustomer{ID: 8})
	assert.Equal(t, "user-8", bare.Name)
}

func TestUnsupportedResources(t *testing.T) {
	c := &Connector{pageSize: 2}

	err := c.Organizations(nil, nil)
	assert.True(t, core.IsUnsupported(err))

	err = c.Rules(nil, nil)
	assert.True(t, core.IsUnsupported(err))

	// No docs key configured: KB is a capability gap, not a failure.
	err = c.KBArticles(nil, nil)
	assert.True(t, core.IsUnsupported(err))
}

func TestDocsArticlesWhenKeyConfigured(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"collections":{"page":1,"pages":1,"items":[{"id":"col-1","name":"Guides"}]}}`)
	})
	mux.HandleFunc("/collections/col-1/articles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"articles":{"page":1,"pages":1,"items":[{"id":"art-1","name":"Getting started","text":"Welcome"}]}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := fixtureConnector(t, server)
	docsCfg := clients.DefaultClientConfig(sourceName+"_docs", server.URL)
	docsCfg.RetryAfterFloor = 0
	c.docs = clients.NewClient(docsCfg, clients.NewBasicAuth("docskey", "X"), testutil.TestLogger(t))

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var articles []*canonical.KBArticle
	err := c.KBArticles(ctx, func(a *canonical.KBArticle) error {
		articles = append(articles, a)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "hs-art-1", articles[0].ID)
	assert.Equal(t, []string{"Guides"}, articles[0].CategoryPath)
	assert.Equal(t, "Welcome", articles[0].Body)
}

func TestStatusVocabulary(t *testing.T) {
	assert.Equal(t, canonical.StatusOpen, mapStatus("active"))
	assert.Equal(t, canonical.StatusPending, mapStatus("pending"))
	assert.Equal(t, canonical.StatusClosed, mapStatus("closed"))
	assert.Equal(t, canonical.StatusClosed, mapStatus("spam"))
	assert.Equal(t, canonical.StatusOpen, mapStatus("archived"))
}
