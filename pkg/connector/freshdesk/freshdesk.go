// Package freshdesk implements the Freshdesk source connector: the API key
// rides as the Basic username with a fixed "X" password, collections are
// bare JSON arrays paged by number with no totals, so the loop stops on the
// first short page. Low-quota plans are served by the client's pre-request
// delay and Retry-After handling.
package freshdesk

import (
	"context"
	"fmt"
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
	sourceName      = "freshdesk"
	sourcePrefix    = "fd"
	defaultPageSize = 30
)

// Connector is one authenticated Freshdesk instance.
type Connector struct {
	client   *clients.Client
	logger   *zap.Logger
	domain   string
	pageSize int
}

// New builds a connector from job credentials {domain, api_key}.
func New(cfg *config.JobConfig, logger *zap.Logger) (*Connector, error) {
	domain, err := cfg.Credential("domain")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "freshdesk credentials incomplete")
	}
	apiKey, err := cfg.Credential("api_key")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "freshdesk credentials incomplete")
	}

	clientCfg := clients.DefaultClientConfig(sourceName, fmt.Sprintf("https://%s.freshdesk.com/api/v2", domain))
	clientCfg.ApplyRequest(cfg.Request)

	pageSize := defaultPageSize
	if cfg.PageSize > 0 {
		pageSize = cfg.PageSize
	}

	// The API key is the Basic username; the password is ignored.
	auth := clients.NewBasicAuth(apiKey, "X")
	return &Connector{
		client:   clients.NewClient(clientCfg, auth, logger),
		logger:   logger.With(zap.String("connector", sourceName)),
		domain:   domain,
		pageSize: pageSize,
	}, nil
}

func (c *Connector) Name() string         { return sourceName }
func (c *Connector) SourcePrefix() string { return sourcePrefix }

// Verify fetches the agent profile behind the API key.
func (c *Connector) Verify(ctx context.Context) (*core.VerifyResult, error) {
	var me struct {
		Contact struct {
			Email string `json:"email"`
		} `json:"contact"`
	}
	if err := c.client.GetJSON(ctx, "/agents/me", nil, &me); err != nil {
		return nil, err
	}
	return &core.VerifyResult{
		Source:  sourceName,
		Account: c.domain,
		User:    me.Contact.Email,
	}, nil
}

func (c *Connector) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// unwrapArray decodes a bare-array page; a full page implies more may
// follow since the API reports no totals.
func (c *Connector) unwrapArray(body []byte) (*paginate.Page, error) {
	var items []gojson.RawMessage
	if err := gojson.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode collection page")
	}
	return &paginate.Page{Items: items, HasMore: len(items) == c.pageSize}, nil
}

func drainInto[T any](ctx context.Context, c *Connector, path string, each func(*T) error) error {
	desc := &paginate.Descriptor{
		Strategy: paginate.StrategyPage,
		Path:     path,
		PageSize: c.pageSize,
		Unwrap:   c.unwrapArray,
	}
	return paginate.Drain(ctx, c.fetch, desc, func(item gojson.RawMessage) error {
		var record T
		if err := gojson.Unmarshal(item, &record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode record from "+path)
		}
		return each(&record)
	})
}

func (c *Connector) Tickets(ctx context.Context, emit func(*canonical.Ticket) error) error {
	return drainInto(ctx, c, "/tickets", func(t *apiTicket) error {
		return emit(mapTicket(t))
	})
}

func (c *Connector) Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error {
	path := fmt.Sprintf("/tickets/%s/conversations", ticket.ExternalID)
	return drainInto(ctx, c, path, func(conv *apiConversation) error {
		return emit(mapConversation(ticket.ID, conv))
	})
}

func (c *Connector) Customers(ctx context.Context, emit func(*canonical.Customer) error) error {
	return drainInto(ctx, c, "/contacts", func(contact *apiContact) error {
		return emit(mapContact(contact))
	})
}

func (c *Connector) Agents(ctx context.Context, emit func(*canonical.Customer) error) error {
	return drainInto(ctx, c, "/agents", func(agent *apiAgent) error {
		return emit(mapAgent(agent))
	})
}

func (c *Connector) Organizations(ctx context.Context, emit func(*canonical.Organization) error) error {
	return drainInto(ctx, c, "/companies", func(company *apiCompany) error {
		return emit(mapCompany(company))
	})
}

// KBArticles walks the solutions tree: categories contain folders, folders
// contain articles, and the two ancestor names form the category path.
func (c *Connector) KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error {
	var categories []apiCategory
	err := drainInto(ctx, c, "/solutions/categories", func(cat *apiCategory) error {
		categories = append(categories, *cat)
		return nil
	})
	if err != nil {
		return err
	}

	for _, cat := range categories {
		var folders []apiFolder
		err := drainInto(ctx, c, fmt.Sprintf("/solutions/categories/%s/folders", extID(cat.ID)), func(f *apiFolder) error {
			folders = append(folders, *f)
			return nil
		})
		if err != nil {
			return err
		}

		for _, folder := range folders {
			path := []string{cat.Name, folder.Name}
			err := drainInto(ctx, c, fmt.Sprintf("/solutions/folders/%s/articles", extID(folder.ID)), func(a *apiArticle) error {
				return emit(mapArticle(a, path))
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Rules drains the automation rule lists. Freshdesk groups them by event
// type: 1 ticket creation, 3 ticket update, 4 time triggered.
func (c *Connector) Rules(ctx context.Context, emit func(*canonical.Rule) error) error {
	kinds := []struct {
		typeID int
		typ    canonical.RuleType
	}{
		{1, canonical.RuleTrigger},
		{3, canonical.RuleTrigger},
		{4, canonical.RuleAutomation},
	}
	for _, kind := range kinds {
		err := drainInto(ctx, c, fmt.Sprintf("/automations/%d/rules", kind.typeID), func(r *apiRule) error {
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

// CreateTicket creates a ticket and returns its external ID.
func (c *Connector) CreateTicket(ctx context.Context, draft *TicketDraft) (string, error) {
	payload := map[string]interface{}{
		"subject":     draft.Subject,
		"description": draft.Body,
		"email":       draft.RequesterEmail,
		"priority":    priorityCode(draft.Priority),
		"status":      2,
		"tags":        draft.Tags,
	}
	resp, err := c.client.Post(ctx, "/tickets", payload)
	if err != nil {
		return "", err
	}
	var created apiTicket
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	return extID(created.ID), nil
}

// AddReply posts a public reply to an existing ticket.
func (c *Connector) AddReply(ctx context.Context, externalID, body string) error {
	_, err := c.client.Post(ctx, fmt.Sprintf("/tickets/%s/reply", externalID), map[string]string{"body": body})
	return err
}

// AddNote posts a private note to an existing ticket.
func (c *Connector) AddNote(ctx context.Context, externalID, body string) error {
	payload := map[string]interface{}{"body": body, "private": true}
	_, err := c.client.Post(ctx, fmt.Sprintf("/tickets/%s/notes", externalID), payload)
	return err
}

func priorityCode(p canonical.Priority) int {
	switch p {
	case canonical.PriorityLow:
		return 1
	case canonical.PriorityHigh:
		return 3
	case canonical.PriorityUrgent:
		return 4
	default:
		return 2
	}
}
