// Package kayako implements the Kayako source connector. Authentication
// starts with Basic credentials; the authenticator harvests the session_id
// every response body carries and replays it as X-Session-ID, and a 403
// demanding a one-time password aborts the run with an operator-facing
// message. Cases, posts, organizations and articles paginate with an
// after_id cursor; the legacy user directory only supports offset/limit.
package kayako

import (
	"context"
	"fmt"
	"net/url"
	"strings"

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
	sourceName      = "kayako"
	sourcePrefix    = "ky"
	defaultPageSize = 50
)

// Connector is one authenticated Kayako instance.
type Connector struct {
	client   *clients.Client
	auth     *clients.SessionAuth
	logger   *zap.Logger
	domain   string
	pageSize int
}

// New builds a connector from job credentials {domain, email, password}.
func New(cfg *config.JobConfig, logger *zap.Logger) (*Connector, error) {
	domain, err := cfg.Credential("domain")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "kayako credentials incomplete")
	}
	email, err := cfg.Credential("email")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "kayako credentials incomplete")
	}
	password, err := cfg.Credential("password")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "kayako credentials incomplete")
	}

	clientCfg := clients.DefaultClientConfig(sourceName, fmt.Sprintf("https://%s.kayako.com/api/v1", domain))
	clientCfg.ApplyRequest(cfg.Request)

	pageSize := defaultPageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}

	auth := clients.NewSessionAuth(email, password)
	return &Connector{
		client:   clients.NewClient(clientCfg, auth, logger),
		auth:     auth,
		logger:   logger.With(zap.String("connector", sourceName)),
		domain:   domain,
		pageSize: pageSize,
	}, nil
}

func (c *Connector) Name() string         { return sourceName }
func (c *Connector) SourcePrefix() string { return sourcePrefix }

// Verify fetches the authenticated user. This is also where an MFA-locked
// API user surfaces, before any export work starts.
func (c *Connector) Verify(ctx context.Context) (*core.VerifyResult, error) {
	var envelope struct {
		Data apiUser `json:"data"`
	}
	if err := c.client.GetJSON(ctx, "/me", nil, &envelope); err != nil {
		return nil, err
	}
	result := &core.VerifyResult{
		Source:  sourceName,
		Account: c.domain,
		User:    envelope.Data.Email,
	}
	if session := c.auth.SessionID(); session != "" {
		result.Details = map[string]string{"session": "established"}
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

// unwrapData decodes the {"data":[...]} envelope and lifts the last
// record's id into the after_id cursor.
func unwrapData(body []byte) (*paginate.Page, error) {
	var envelope struct {
		Data []gojson.RawMessage `json:"data"`
	}
	if err := gojson.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode data envelope")
	}
	page := &paginate.Page{Items: envelope.Data}
	if n := len(envelope.Data); n > 0 {
		var last struct {
			ID int64 `json:"id"`
		}
		if err := gojson.Unmarshal(envelope.Data[n-1], &last); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read record id for cursor")
		}
		page.NextAfter = extID(last.ID)
	}
	return page, nil
}

// drainAfter pages a collection with the after_id cursor.
func drainAfter[T any](ctx context.Context, c *Connector, path string, each func(*T) error) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyAfterID,
		Path:     path,
		PageSize: c.pageSize,
		Unwrap:   unwrapData,
	}
	return paginate.Drain(ctx, c.fetch, desc, decodeEach(path, each))
}

// drainUsers walks the legacy user directory, which predates cursor
// pagination and only understands offset/limit windows.
func (c *Connector) drainUsers(ctx context.Context, each func(*apiUser) error) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyOffset,
		Path:     "/users",
		PageSize: c.pageSize,
		Unwrap:   unwrapData,
	}
	return paginate.Drain(ctx, c.fetch, desc, decodeEach("/users", each))
}

func decodeEach[T any](path string, each func(*T) error) paginate.EmitFunc {
	return func(item gojson.RawMessage) error {
		var record T
		if err := gojson.Unmarshal(item, &record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode record from "+strings.TrimPrefix(path, "/"))
		}
		return each(&record)
	}
}

func (c *Connector) Tickets(ctx context.Context, emit func(*canonical.Ticket) error) error {
	return drainAfter(ctx, c, "/cases", func(kase *apiCase) error {
		return emit(mapCase(kase))
	})
}

func (c *Connector) Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error {
	path := fmt.Sprintf("/cases/%s/posts", ticket.ExternalID)
	return drainAfter(ctx, c, path, func(post *apiPost) error {
		return emit(mapPost(ticket.ID, post))
	})
}

func (c *Connector) Customers(ctx context.Context, emit func(*canonical.Customer) error) error {
	return c.drainUsers(ctx, func(u *apiUser) error {
		if isAgent(u) {
			return nil
		}
		return emit(mapUser(u))
	})
}

func (c *Connector) Agents(ctx context.Context, emit func(*canonical.Customer) error) error {
	return c.drainUsers(ctx, func(u *apiUser) error {
		if !isAgent(u) {
			return nil
		}
		return emit(mapUser(u))
	})
}

func (c *Connector) Organizations(ctx context.Context, emit func(*canonical.Organization) error) error {
	return drainAfter(ctx, c, "/organizations", func(o *apiOrganization) error {
		return emit(mapOrganization(o))
	})
}

func (c *Connector) KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error {
	return drainAfter(ctx, c, "/articles", func(a *apiArticle) error {
		return emit(mapArticle(a))
	})
}

// Rules exports SLAs and macros.
func (c *Connector) Rules(ctx context.Context, emit func(*canonical.Rule) error) error {
	err := drainAfter(ctx, c, "/slas", func(s *apiSLA) error {
		return emit(mapSLA(s))
	})
	if err != nil {
		return err
	}
	return drainAfter(ctx, c, "/macros", func(m *apiMacro) error {
		return emit(mapMacro(m))
	})
}
