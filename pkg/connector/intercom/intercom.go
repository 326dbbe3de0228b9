// Package intercom implements the Intercom source connector: a static
// bearer access token, opaque cursor pagination (pages.next.starting_after
// for modern endpoints, the legacy scroll_param for companies), and
// conversation parts as messages. Intercom exposes no automation rules.
package intercom

import (
	"context"
	"net/url"
	"strconv"

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
	sourceName      = "intercom"
	sourcePrefix    = "ic"
	defaultPageSize = 50

	baseURL = "https://api.intercom.io"
)

// Connector is one authenticated Intercom workspace.
type Connector struct {
	client   *clients.Client
	logger   *zap.Logger
	pageSize int
}

// New builds a connector from job credentials {access_token}.
func New(cfg *config.JobConfig, logger *zap.Logger) (*Connector, error) {
	token, err := cfg.Credential("access_token")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "intercom credentials incomplete")
	}

	clientCfg := clients.DefaultClientConfig(sourceName, baseURL)
	clientCfg.ApplyRequest(cfg.Request)

	pageSize := defaultPageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}

	return &Connector{
		client:   clients.NewClient(clientCfg, clients.NewBearerAuth(token), logger),
		logger:   logger.With(zap.String("connector", sourceName)),
		pageSize: pageSize,
	}, nil
}

func (c *Connector) Name() string         { return sourceName }
func (c *Connector) SourcePrefix() string { return sourcePrefix }

// Verify fetches the token's own admin identity and workspace.
func (c *Connector) Verify(ctx context.Context) (*core.VerifyResult, error) {
	var me struct {
		Email string `json:"email"`
		App   struct {
			Name string `json:"name"`
		} `json:"app"`
	}
	if err := c.client.GetJSON(ctx, "/me", nil, &me); err != nil {
		return nil, err
	}
	return &core.VerifyResult{
		Source:  sourceName,
		Account: me.App.Name,
		User:    me.Email,
	}, nil
}

func (c *Connector) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// unwrapCursor decodes a modern list envelope: records under a named key,
// continuation under pages.next.starting_after.
func unwrapCursor(key string) paginate.UnwrapFunc {
	return func(body []byte) (*paginate.Page, error) {
		var envelope struct {
			Pages struct {
				Next struct {
					StartingAfter string `json:"starting_after"`
				} `json:"next"`
			} `json:"pages"`
		}
		if err := gojson.Unmarshal(body, &envelope); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
		}
		var keyed map[string]gojson.RawMessage
		if err := gojson.Unmarshal(body, &keyed); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
		}
		page := &paginate.Page{NextCursor: envelope.Pages.Next.StartingAfter}
		if items, ok := keyed[key]; ok {
			if err := gojson.Unmarshal(items, &page.Items); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" records")
			}
		}
		return page, nil
	}
}

func drainCursor[T any](ctx context.Context, c *Connector, path, key string, each func(*T) error) error {
	desc := &paginate.Descriptor{
		Strategy:    paginate.StrategyCursor,
		Path:        path,
		Query:       url.Values{"per_page": []string{strconv.Itoa(c.pageSize)}},
		CursorParam: "starting_after",
		Unwrap:      unwrapCursor(key),
	}
	return paginate.Drain(ctx, c.fetch, desc, decodeEach[T](key, each))
}

func decodeEach[T any](key string, each func(*T) error) paginate.EmitFunc {
	return func(item gojson.RawMessage) error {
		var record T
		if err := gojson.Unmarshal(item, &record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" record")
		}
		return each(&record)
	}
}

func (c *Connector) Tickets(ctx context.Context, emit func(*canonical.Ticket) error) error {
	return drainCursor(ctx, c, "/conversations", "conversations", func(conv *apiConversation) error {
		return emit(mapConversation(conv))
	})
}

// Messages fetches the full conversation detail: the opening source
// message first, then every conversation part.
func (c *Connector) Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error {
	var detail apiConversationDetail
	if err := c.client.GetJSON(ctx, "/conversations/"+ticket.ExternalID, nil, &detail); err != nil {
		return err
	}
	if detail.Source.Body != "" {
		if err := emit(mapOpener(ticket, &detail)); err != nil {
			return err
		}
	}
	for i := range detail.ConversationParts.ConversationParts {
		part := &detail.ConversationParts.ConversationParts[i]
		if err := emit(mapPart(ticket.ID, part)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) Customers(ctx context.Context, emit func(*canonical.Customer) error) error {
	return drainCursor(ctx, c, "/contacts", "data", func(contact *apiContact) error {
		return emit(mapContact(contact))
	})
}

// Agents lists workspace admins; the endpoint is small and unpaginated.
func (c *Connector) Agents(ctx context.Context, emit func(*canonical.Customer) error) error {
	var envelope struct {
		Admins []apiAdmin `json:"admins"`
	}
	if err := c.client.GetJSON(ctx, "/admins", nil, &envelope); err != nil {
		return err
	}
	for i := range envelope.Admins {
		if err := emit(mapAdmin(&envelope.Admins[i])); err != nil {
			return err
		}
	}
	return nil
}

// Organizations walks the legacy companies scroll. The scroll endpoint
// keeps returning the same scroll_param; an empty data page ends the walk.
func (c *Connector) Organizations(ctx context.Context, emit func(*canonical.Organization) error) error {
	desc := &paginate.Descriptor{
		Strategy:    paginate.StrategyCursor,
		Path:        "/companies/scroll",
		CursorParam: "scroll_param",
		Unwrap: func(body []byte) (*paginate.Page, error) {
			var envelope struct {
				Data        []gojson.RawMessage `json:"data"`
				ScrollParam string              `json:"scroll_param"`
			}
			if err := gojson.Unmarshal(body, &envelope); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode companies scroll")
			}
			page := &paginate.Page{Items: envelope.Data}
			if len(envelope.Data) > 0 {
				page.NextCursor = envelope.ScrollParam
			}
			return page, nil
		},
	}
	return paginate.Drain(ctx, c.fetch, desc, decodeEach("companies", func(company *apiCompany) error {
		return emit(mapCompany(company))
	}))
}

// KBArticles loads help center collections for category paths, then the
// articles themselves. Both paginate with pages.next links.
func (c *Connector) KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error {
	collections := make(map[string]string)
	err := c.drainPaged(ctx, "/help_center/collections", "data", func(item gojson.RawMessage) error {
		var col apiCollection
		if err := gojson.Unmarshal(item, &col); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode collection")
		}
		collections[col.ID] = col.Name
		return nil
	})
	if err != nil {
		return err
	}

	return c.drainPaged(ctx, "/articles", "data", decodeEach("articles", func(a *apiArticle) error {
		return emit(mapArticle(a, collections))
	}))
}

// drainPaged handles the endpoints that page with a pages.next URL.
func (c *Connector) drainPaged(ctx context.Context, path, key string, emit paginate.EmitFunc) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyPage,
		Path:     path,
		PageSize: c.pageSize,
		Unwrap: func(body []byte) (*paginate.Page, error) {
			var envelope struct {
				Pages struct {
					Next string `json:"next"`
				} `json:"pages"`
			}
			if err := gojson.Unmarshal(body, &envelope); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
			}
			var keyed map[string]gojson.RawMessage
			if err := gojson.Unmarshal(body, &keyed); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
			}
			page := &paginate.Page{NextURL: envelope.Pages.Next}
			if items, ok := keyed[key]; ok {
				if err := gojson.Unmarshal(items, &page.Items); err != nil {
					return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" records")
				}
			}
			return page, nil
		},
	}
	return paginate.Drain(ctx, c.fetch, desc, emit)
}

// Rules reports a capability gap: Intercom exposes no automation rules
// for export.
func (c *Connector) Rules(context.Context, func(*canonical.Rule) error) error {
	return core.Unsupported(sourceName, core.ResourceRules)
}
