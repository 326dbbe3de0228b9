// Package helpscout implements the Help Scout source connector. The
// Mailbox API authenticates with OAuth2 client credentials and wraps
// collections in HAL _embedded envelopes paged by page.totalPages. The
// Docs API (knowledge base) rides a separate key and is optional; without
// it the KB pass reports a capability warning. Help Scout has no
// organization resource, so the exporter derives organizations from each
// customer's company name.
package helpscout

import (
	"context"
	"net/url"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/clients"
	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/connector/core"
	"github.com/ticketferry/ticketferry/pkg/errors"
	"github.com/ticketferry/ticketferry/pkg/paginate"
)

const (
	sourceName      = "helpscout"
	sourcePrefix    = "hs"
	defaultPageSize = 25

	mailboxBaseURL = "https://api.helpscout.net/v2"
	tokenURL       = "https://api.helpscout.net/v2/oauth2/token"
	docsBaseURL    = "https://docsapi.helpscout.net/v1"
)

// Connector is one authenticated Help Scout instance. docs is nil when the
// job carries no docs_api_key.
type Connector struct {
	client   *clients.Client
	docs     *clients.Client
	logger   *zap.Logger
	pageSize int
}

// New builds a connector from job credentials {app_id, app_secret} plus an
// optional docs_api_key for the knowledge base.
func New(cfg *config.JobConfig, logger *zap.Logger) (*Connector, error) {
	appID, err := cfg.Credential("app_id")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "helpscout credentials incomplete")
	}
	appSecret, err := cfg.Credential("app_secret")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "helpscout credentials incomplete")
	}

	clientCfg := clients.DefaultClientConfig(sourceName, mailboxBaseURL)
	clientCfg.ApplyRequest(cfg.Request)

	pageSize := defaultPageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}

	auth := clients.NewClientCredentialsAuth(context.Background(), appID, appSecret, tokenURL)
	c := &Connector{
		client:   clients.NewClient(clientCfg, auth, logger),
		logger:   logger.With(zap.String("connector", sourceName)),
		pageSize: pageSize,
	}

	if docsKey := cfg.Credentials["docs_api_key"]; docsKey != "" {
		docsCfg := clients.DefaultClientConfig(sourceName+"_docs", docsBaseURL)
		docsCfg.ApplyRequest(cfg.Request)
		c.docs = clients.NewClient(docsCfg, clients.NewBasicAuth(docsKey, "X"), logger)
	}
	return c, nil
}

func (c *Connector) Name() string         { return sourceName }
func (c *Connector) SourcePrefix() string { return sourcePrefix }

// Verify lists mailboxes, which both exercises the token exchange and
// yields a human-readable account summary.
func (c *Connector) Verify(ctx context.Context) (*core.VerifyResult, error) {
	var envelope struct {
		Embedded struct {
			Mailboxes []apiMailbox `json:"mailboxes"`
		} `json:"_embedded"`
	}
	if err := c.client.GetJSON(ctx, "/mailboxes", nil, &envelope); err != nil {
		return nil, err
	}
	result := &core.VerifyResult{Source: sourceName}
	if len(envelope.Embedded.Mailboxes) > 0 {
		result.Account = envelope.Embedded.Mailboxes[0].Name
		result.Details = map[string]string{
			"mailboxes": extID(int64(len(envelope.Embedded.Mailboxes))),
		}
	}
	return result, nil
}

func (c *Connector) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// unwrapHAL decodes the _embedded envelope plus the page.totalPages
// bookkeeping that drives termination.
func unwrapHAL(key string) paginate.UnwrapFunc {
	return func(body []byte) (*paginate.Page, error) {
		var envelope struct {
			Embedded map[string][]gojson.RawMessage `json:"_embedded"`
			Page     struct {
				TotalPages int `json:"totalPages"`
			} `json:"page"`
		}
		if err := gojson.Unmarshal(body, &envelope); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
		}
		return &paginate.Page{
			Items:      envelope.Embedded[key],
			TotalPages: envelope.Page.TotalPages,
		}, nil
	}
}

func drainInto[T any](ctx context.Context, c *Connector, path, key string, each func(*T) error) error {
	desc := &paginate.Descriptor{
		Strategy:     paginate.StrategyPage,
		Path:         path,
		PageSize:     c.pageSize,
		PerPageParam: "size",
		Unwrap:       unwrapHAL(key),
	}
	return paginate.Drain(ctx, c.fetch, desc, func(item gojson.RawMessage) error {
		var record T
		if err := gojson.Unmarshal(item, &record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" record")
		}
		return each(&record)
	})
}

func (c *Connector) Tickets(ctx context.Context, emit func(*canonical.Ticket) error) error {
	return drainInto(ctx, c, "/conversations", "conversations", func(conv *apiConversation) error {
		return emit(mapConversation(conv))
	})
}

func (c *Connector) Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error {
	path := "/conversations/" + ticket.ExternalID + "/threads"
	return drainInto(ctx, c, path, "threads", func(thread *apiThread) error {
		return emit(mapThread(ticket.ID, thread))
	})
}

func (c *Connector) Customers(ctx context.Context, emit func(*canonical.Customer) error) error {
	return drainInto(ctx, c, "/customers", "customers", func(customer *apiCustomer) error {
		return emit(mapCustomer(customer))
	})
}

func (c *Connector) Agents(ctx context.Context, emit func(*canonical.Customer) error) error {
	return drainInto(ctx, c, "/users", "users", func(u *apiUser) error {
		return emit(mapUser(u))
	})
}

// Organizations reports a capability gap: Help Scout has no organization
// resource and the exporter derives orgs from customer company names.
func (c *Connector) Organizations(context.Context, func(*canonical.Organization) error) error {
	return core.Unsupported(sourceName, core.ResourceOrganizations)
}

// KBArticles walks the Docs API when a docs key is configured.
func (c *Connector) KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error {
	if c.docs == nil {
		return core.Unsupported(sourceName, core.ResourceKBArticles)
	}

	type collection struct {
		id   string
		name string
	}
	var collections []collection
	err := c.drainDocs(ctx, "/collections", func(env *docsEnvelope) *docsPage { return env.Collections },
		func(item gojson.RawMessage) error {
			var col docsCollection
			if err := gojson.Unmarshal(item, &col); err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "failed to decode docs collection")
			}
			collections = append(collections, collection{id: col.ID, name: col.Name})
			return nil
		})
	if err != nil {
		return err
	}

	for _, col := range collections {
		name := col.name
		err := c.drainDocs(ctx, "/collections/"+col.id+"/articles", func(env *docsEnvelope) *docsPage { return env.Articles },
			func(item gojson.RawMessage) error {
				var article docsArticle
				if err := gojson.Unmarshal(item, &article); err != nil {
					return errors.Wrap(err, errors.ErrorTypeData, "failed to decode docs article")
				}
				return emit(mapDocsArticle(&article, name))
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// drainDocs pages a Docs API collection, whose envelope nests the page
// bookkeeping next to the items under a resource-specific key.
func (c *Connector) drainDocs(ctx context.Context, path string, pick func(*docsEnvelope) *docsPage, emit paginate.EmitFunc) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyPage,
		Path:     path,
		PageSize: c.pageSize,
		Unwrap: func(body []byte) (*paginate.Page, error) {
			var envelope docsEnvelope
			if err := gojson.Unmarshal(body, &envelope); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode docs envelope")
			}
			page := pick(&envelope)
			if page == nil {
				return &paginate.Page{}, nil
			}
			return &paginate.Page{Items: page.Items, TotalPages: page.Pages}, nil
		},
	}
	fetch := func(ctx context.Context, path string, query url.Values) ([]byte, error) {
		resp, err := c.docs.Get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
	return paginate.Drain(ctx, fetch, desc, emit)
}

// Rules reports a capability gap: Help Scout workflows are not exposed for
// export by the API plan this connector targets.
func (c *Connector) Rules(context.Context, func(*canonical.Rule) error) error {
	return core.Unsupported(sourceName, core.ResourceRules)
}
