// Package syncer implements the single-entity sync path: given a webhook
// or operator request naming one ticket, it fetches that ticket with its
// full conversation and every related entity from the source, maps the lot
// into a canonical bundle, and hands the bundle to an ingestor. The raw
// event payload is recorded as an audit event keyed by the external ID
// before any fetching starts, so even a failed sync leaves a trace.
package syncer

import (
	"context"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/connector/zendesk"
	"github.com/ticketferry/ticketferry/pkg/errors"
)

// Request identifies one ticket to sync.
type Request struct {
	Tenant    string            `json:"tenant"`
	Workspace string            `json:"workspace"`
	TicketID  string            `json:"ticketId"`
	RawEvent  gojson.RawMessage `json:"rawEvent,omitempty"`
}

// Bundle is everything the sync path resolved for one ticket. Side
// references the source no longer holds (deleted users, removed groups)
// are simply absent.
type Bundle struct {
	Tenant       string                  `json:"tenant"`
	Workspace    string                  `json:"workspace"`
	Ticket       *canonical.Ticket       `json:"ticket"`
	Messages     []*canonical.Message    `json:"messages"`
	Users        []*canonical.Customer   `json:"users"`
	Organization *canonical.Organization `json:"organization,omitempty"`
	GroupName    string                  `json:"groupName,omitempty"`
	BrandName    string                  `json:"brandName,omitempty"`
	FormName     string                  `json:"formName,omitempty"`
}

// AuditEvent is the raw inbound payload, recorded verbatim.
type AuditEvent struct {
	Source     string            `json:"source"`
	ExternalID string            `json:"externalId"`
	Tenant     string            `json:"tenant"`
	ReceivedAt time.Time         `json:"receivedAt"`
	Payload    gojson.RawMessage `json:"payload,omitempty"`
}

// Ingestor receives sync results. Implementations decide where bundles
// land (a database, a queue, another API).
type Ingestor interface {
	IngestBundle(ctx context.Context, bundle *Bundle) error
	RecordEvent(ctx context.Context, event *AuditEvent) error
}

// TicketSource is the connector surface the sync path needs; the Zendesk
// connector satisfies it.
type TicketSource interface {
	Name() string
	SourcePrefix() string
	FetchTicket(ctx context.Context, externalID string) (*canonical.Ticket, *zendesk.TicketRefs, error)
	FetchMessages(ctx context.Context, ticket *canonical.Ticket) ([]*canonical.Message, error)
	FetchUser(ctx context.Context, externalID string) (*canonical.Customer, error)
	FetchOrganization(ctx context.Context, externalID string) (*canonical.Organization, error)
	FetchGroupName(ctx context.Context, externalID string) (string, error)
	FetchBrandName(ctx context.Context, externalID string) (string, error)
	FetchFormName(ctx context.Context, externalID string) (string, error)
}

// Syncer drives single-ticket syncs against one source.
type Syncer struct {
	source   TicketSource
	ingestor Ingestor
	logger   *zap.Logger
}

// New builds a syncer.
func New(source TicketSource, ingestor Ingestor, logger *zap.Logger) *Syncer {
	return &Syncer{
		source:   source,
		ingestor: ingestor,
		logger:   logger.With(zap.String("component", "syncer"), zap.String("source", source.Name())),
	}
}

// SyncTicketByID resolves one ticket and all its related entities and
// hands the bundle to the ingestor.
func (s *Syncer) SyncTicketByID(ctx context.Context, req *Request) (*Bundle, error) {
	if req.TicketID == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "ticketId is required")
	}

	event := &AuditEvent{
		Source:     s.source.Name(),
		ExternalID: req.TicketID,
		Tenant:     req.Tenant,
		ReceivedAt: time.Now().UTC(),
		Payload:    req.RawEvent,
	}
	if err := s.ingestor.RecordEvent(ctx, event); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to record audit event")
	}

	ticket, refs, err := s.source.FetchTicket(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}

	messages, err := s.source.FetchMessages(ctx, ticket)
	if err != nil {
		return nil, err
	}

	users, err := s.fetchUsers(ctx, ticket, messages)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Tenant:    req.Tenant,
		Workspace: req.Workspace,
		Ticket:    ticket,
		Messages:  messages,
		Users:     users,
	}
	if err := s.resolveRefs(ctx, refs, bundle); err != nil {
		return nil, err
	}

	if err := s.ingestor.IngestBundle(ctx, bundle); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to ingest bundle")
	}

	s.logger.Info("ticket synced",
		zap.String("ticket", ticket.ID),
		zap.Int("messages", len(messages)),
		zap.Int("users", len(users)))
	return bundle, nil
}

// fetchUsers resolves every distinct person the ticket touches: the
// requester, the assignee and each message author. Users the source has
// deleted are skipped.
func (s *Syncer) fetchUsers(ctx context.Context, ticket *canonical.Ticket, messages []*canonical.Message) ([]*canonical.Customer, error) {
	prefix := s.source.SourcePrefix()
	seen := make(map[string]bool)
	var order []string

	add := func(canonicalID string) {
		extID, ok := canonical.ExternalID(prefix, canonicalID)
		if !ok || seen[extID] {
			return
		}
		seen[extID] = true
		order = append(order, extID)
	}

	add(ticket.Requester)
	add(ticket.Assignee)
	for _, m := range messages {
		add(m.Author)
	}

	var users []*canonical.Customer
	for _, extID := range order {
		user, err := s.source.FetchUser(ctx, extID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			s.logger.Debug("user no longer exists at source", zap.String("external_id", extID))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// resolveRefs fills in the organization record and the group, brand and
// form names; each lookup treats a 404 as absence.
func (s *Syncer) resolveRefs(ctx context.Context, refs *zendesk.TicketRefs, bundle *Bundle) error {
	if refs == nil {
		return nil
	}
	var err error
	if refs.OrganizationID != "" {
		if bundle.Organization, err = s.source.FetchOrganization(ctx, refs.OrganizationID); err != nil {
			return err
		}
	}
	if refs.GroupID != "" {
		if bundle.GroupName, err = s.source.FetchGroupName(ctx, refs.GroupID); err != nil {
			return err
		}
	}
	if refs.BrandID != "" {
		if bundle.BrandName, err = s.source.FetchBrandName(ctx, refs.BrandID); err != nil {
			return err
		}
	}
	if refs.FormID != "" {
		if bundle.FormName, err = s.source.FetchFormName(ctx, refs.FormID); err != nil {
			return err
		}
	}
	return nil
}
