// Package zendesk implements the Zendesk source connector: HTTP Basic auth
// with an API token, page-number pagination driven by next_page links, the
// full canonical resource set, ticket write-back, and the point lookups the
// single-entity sync path needs.
package zendesk

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
	sourceName      = "zendesk"
	sourcePrefix    = "zd"
	defaultPageSize = 100
)

// Connector is one authenticated Zendesk instance.
type Connector struct {
	client    *clients.Client
	logger    *zap.Logger
	subdomain string
	pageSize  int
}

// New builds a connector from job credentials {subdomain, email, token}.
func New(cfg *config.JobConfig, logger *zap.Logger) (*Connector, error) {
	subdomain, err := cfg.Credential("subdomain")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "zendesk credentials incomplete")
	}
	email, err := cfg.Credential("email")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "zendesk credentials incomplete")
	}
	token, err := cfg.Credential("token")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "zendesk credentials incomplete")
	}

	clientCfg := clients.DefaultClientConfig(sourceName, fmt.Sprintf("https://%s.zendesk.com/api/v2", subdomain))
	clientCfg.ApplyRequest(cfg.Request)

	pageSize := defaultPageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}

	auth := clients.NewBasicAuth(email+"/token", token)
	return &Connector{
		client:    clients.NewClient(clientCfg, auth, logger),
		logger:    logger.With(zap.String("connector", sourceName)),
		subdomain: subdomain,
		pageSize:  pageSize,
	}, nil
}

func (c *Connector) Name() string         { return sourceName }
func (c *Connector) SourcePrefix() string { return sourcePrefix }

// Verify fetches the authenticated user's own profile.
func (c *Connector) Verify(ctx context.Context) (*core.VerifyResult, error) {
	var envelope struct {
		User apiUser `json:"user"`
	}
	if err := c.client.GetJSON(ctx, "/users/me.json", nil, &envelope); err != nil {
		return nil, err
	}
	return &core.VerifyResult{
		Source:  sourceName,
		Account: c.subdomain,
		User:    envelope.User.Email,
	}, nil
}

func (c *Connector) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// unwrapKeyed decodes the standard Zendesk collection envelope: records
// under a named key, a nullable next_page link alongside.
func unwrapKeyed(key string) paginate.UnwrapFunc {
	return func(body []byte) (*paginate.Page, error) {
		var raw map[string]gojson.RawMessage
		if err := gojson.Unmarshal(body, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" envelope")
		}
		page := &paginate.Page{}
		if items, ok := raw[key]; ok {
			if err := gojson.Unmarshal(items, &page.Items); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode "+key+" records")
			}
		}
		if next, ok := raw["next_page"]; ok {
			var link *string
			if err := gojson.Unmarshal(next, &link); err == nil && link != nil {
				page.NextURL = *link
			}
		}
		return page, nil
	}
}

// drainInto pages through a keyed collection, decoding each record into T.
func drainInto[T any](ctx context.Context, c *Connector, path, key string, query url.Values, each func(*T) error) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyPage,
		Path:     path,
		Query:    query,
		PageSize: c.pageSize,
		Unwrap:   unwrapKeyed(key),
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
	return drainInto(ctx, c, "/tickets.json", "tickets", nil, func(t *apiTicket) error {
		return emit(mapTicket(t))
	})
}

func (c *Connector) Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error {
	path := fmt.Sprintf("/tickets/%s/comments.json", ticket.ExternalID)
	return drainInto(ctx, c, path, "comments", nil, func(comment *apiComment) error {
		return emit(mapComment(ticket.ID, comment))
	})
}

func (c *Connector) Customers(ctx context.Context, emit func(*canonical.Customer) error) error {
	query := url.Values{"role": []string{"end-user"}}
	return drainInto(ctx, c, "/users.json", "users", query, func(u *apiUser) error {
		return emit(mapUser(u, false))
	})
}

func (c *Connector) Agents(ctx context.Context, emit func(*canonical.Customer) error) error {
	query := url.Values{"role[]": []string{"agent", "admin"}}
	return drainInto(ctx, c, "/users.json", "users", query, func(u *apiUser) error {
		return emit(mapUser(u, true))
	})
}

func (c *Connector) Organizations(ctx context.Context, emit func(*canonical.Organization) error) error {
	return drainInto(ctx, c, "/organizations.json", "organizations", nil, func(o *apiOrganization) error {
		return emit(mapOrganization(o))
	})
}

// KBArticles loads the section and category tables first so each article
// can carry its full category path.
func (c *Connector) KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error {
	categories := make(map[int64]string)
	err := drainInto(ctx, c, "/help_center/categories.json", "categories", nil, func(cat *apiCategory) error {
		categories[cat.ID] = cat.Name
		return nil
	})
	if err != nil {
		return err
	}

	sections := make(map[int64]*apiSection)
	err = drainInto(ctx, c, "/help_center/sections.json", "sections", nil, func(s *apiSection) error {
		sections[s.ID] = s
		return nil
	})
	if err != nil {
		return err
	}

	return drainInto(ctx, c, "/help_center/articles.json", "articles", nil, func(a *apiArticle) error {
		return emit(mapArticle(a, sections, categories))
	})
}

func (c *Connector) Rules(ctx context.Context, emit func(*canonical.Rule) error) error {
	kinds := []struct {
		path string
		key  string
		typ  canonical.RuleType
	}{
		{"/macros.json", "macros", canonical.RuleMacro},
		{"/triggers.json", "triggers", canonical.RuleTrigger},
		{"/automations.json", "automations", canonical.RuleAutomation},
	}
	for _, kind := range kinds {
		err := drainInto(ctx, c, kind.path, kind.key, nil, func(r *apiRule) error {
			return emit(mapRule(r, kind.typ))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// TicketDraft is the write-back shape for creating a ticket.
type TicketDraft struct {
	Subject        string
	Body           string
	RequesterEmail string
	Priority       canonical.Priority
	Tags           []string
}

// CreateTicket creates a ticket and returns its external ID. Some Zendesk
// variants answer a bare 201 with only a Location header, so the ID falls
// back to the trailing path segment of that link.
func (c *Connector) CreateTicket(ctx context.Context, draft *TicketDraft) (string, error) {
	payload := map[string]interface{}{
		"ticket": map[string]interface{}{
			"subject": draft.Subject,
			"comment": map[string]string{"body": draft.Body},
			"requester": map[string]string{
				"email": draft.RequesterEmail,
			},
			"priority": string(draft.Priority),
			"tags":     draft.Tags,
		},
	}
	resp, err := c.client.Post(ctx, "/tickets.json", payload)
	if err != nil {
		return "", err
	}

	if len(resp.Body) > 0 {
		var envelope struct {
			Ticket apiTicket `json:"ticket"`
		}
		if err := resp.Decode(&envelope); err == nil && envelope.Ticket.ID != 0 {
			return extID(envelope.Ticket.ID), nil
		}
	}
	if id := idFromLocation(resp.Location()); id != "" {
		return id, nil
	}
	return "", errors.New(errors.ErrorTypeData, "create ticket response carried neither a body nor a Location header")
}

// AddReply posts a public comment to an existing ticket.
func (c *Connector) AddReply(ctx context.Context, externalID, body string) error {
	return c.addComment(ctx, externalID, body, true)
}

// AddNote posts an internal (non-public) comment to an existing ticket.
func (c *Connector) AddNote(ctx context.Context, externalID, body string) error {
	return c.addComment(ctx, externalID, body, false)
}

func (c *Connector) addComment(ctx context.Context, externalID, body string, public bool) error {
	payload := map[string]interface{}{
		"ticket": map[string]interface{}{
			"comment": map[string]interface{}{
				"body":   body,
				"public": public,
			},
		},
	}
	_, err := c.client.Put(ctx, fmt.Sprintf("/tickets/%s.json", externalID), payload)
	return err
}

// UpdateStatus moves a ticket to the given canonical status.
func (c *Connector) UpdateStatus(ctx context.Context, externalID string, status canonical.Status) error {
	raw := "open"
	switch status {
	case canonical.StatusOpen:
		raw = "open"
	case canonical.StatusPending:
		raw = "pending"
	case canonical.StatusOnHold:
		raw = "hold"
	case canonical.StatusSolved:
		raw = "solved"
	case canonical.StatusClosed:
		raw = "closed"
	}
	payload := map[string]interface{}{
		"ticket": map[string]string{"status": raw},
	}
	_, err := c.client.Put(ctx, fmt.Sprintf("/tickets/%s.json", externalID), payload)
	return err
}

// TicketRefs carries the numeric side references of one raw ticket that
// the sync path resolves into names (empty string = unset).
type TicketRefs struct {
	OrganizationID string
	GroupID        string
	BrandID        string
	FormID         string
}

// FetchTicket retrieves one ticket by external ID together with its side
// references, in a single request.
func (c *Connector) FetchTicket(ctx context.Context, externalID string) (*canonical.Ticket, *TicketRefs, error) {
	var envelope struct {
		Ticket apiTicket `json:"ticket"`
	}
	if err := c.client.GetJSON(ctx, fmt.Sprintf("/tickets/%s.json", externalID), nil, &envelope); err != nil {
		return nil, nil, err
	}
	t := envelope.Ticket
	refs := &TicketRefs{}
	if t.OrganizationID != 0 {
		refs.OrganizationID = extID(t.OrganizationID)
	}
	if t.GroupID != 0 {
		refs.GroupID = extID(t.GroupID)
	}
	if t.BrandID != 0 {
		refs.BrandID = extID(t.BrandID)
	}
	if t.FormID != 0 {
		refs.FormID = extID(t.FormID)
	}
	return mapTicket(&t), refs, nil
}

// FetchMessages retrieves the full, paginated conversation of one ticket.
func (c *Connector) FetchMessages(ctx context.Context, ticket *canonical.Ticket) ([]*canonical.Message, error) {
	var messages []*canonical.Message
	err := c.Messages(ctx, ticket, func(m *canonical.Message) error {
		messages = append(messages, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FetchUser retrieves one user by external ID. A missing user is not an
// error: deleted requesters are routine on old tickets.
func (c *Connector) FetchUser(ctx context.Context, externalID string) (*canonical.Customer, error) {
	var envelope struct {
		User apiUser `json:"user"`
	}
	err := c.client.GetJSON(ctx, fmt.Sprintf("/users/%s.json", externalID), nil, &envelope)
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	asAgent := envelope.User.Role == "agent" || envelope.User.Role == "admin"
	return mapUser(&envelope.User, asAgent), nil
}

// FetchOrganization retrieves one organization, nil when absent.
func (c *Connector) FetchOrganization(ctx context.Context, externalID string) (*canonical.Organization, error) {
	var envelope struct {
		Organization apiOrganization `json:"organization"`
	}
	err := c.client.GetJSON(ctx, fmt.Sprintf("/organizations/%s.json", externalID), nil, &envelope)
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapOrganization(&envelope.Organization), nil
}

// FetchGroupName resolves a group ID to its name, "" when absent.
func (c *Connector) FetchGroupName(ctx context.Context, externalID string) (string, error) {
	var envelope struct {
		Group apiGroup `json:"group"`
	}
	err := c.client.GetJSON(ctx, fmt.Sprintf("/groups/%s.json", externalID), nil, &envelope)
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return envelope.Group.Name, nil
}

// FetchBrandName resolves a brand ID to its name, "" when absent.
func (c *Connector) FetchBrandName(ctx context.Context, externalID string) (string, error) {
	var envelope struct {
		Brand apiBrand `json:"brand"`
	}
	err := c.client.GetJSON(ctx, fmt.Sprintf("/brands/%s.json", externalID), nil, &envelope)
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return envelope.Brand.Name, nil
}

// FetchFormName resolves a ticket form ID to its name, "" when absent.
func (c *Connector) FetchFormName(ctx context.Context, externalID string) (string, error) {
	var envelope struct {
		TicketForm apiTicketForm `json:"ticket_form"`
	}
	err := c.client.GetJSON(ctx, fmt.Sprintf("/ticket_forms/%s.json", externalID), nil, &envelope)
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return envelope.TicketForm.Name, nil
}

// idFromLocation pulls the trailing path segment out of a Location link,
// tolerating query strings and .json suffixes.
func idFromLocation(location string) string {
	if location == "" {
		return ""
	}
	if u, err := url.Parse(location); err == nil {
		location = u.Path
	}
	location = strings.TrimRight(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		location = location[i+1:]
	}
	return strings.TrimSuffix(location, ".json")
}
