// Package core defines the contract every source connector implements and
// the capability error used when a source has no endpoint for a resource.
package core

import (
	"context"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/errors"
)

// Resource names an exportable record kind.
type Resource string

const (
	ResourceTickets       Resource = "tickets"
	ResourceMessages      Resource = "messages"
	ResourceCustomers     Resource = "customers"
	ResourceAgents        Resource = "agents"
	ResourceOrganizations Resource = "organizations"
	ResourceKBArticles    Resource = "kb_articles"
	ResourceRules         Resource = "rules"
)

// VerifyResult summarizes a credential check against a live source.
type VerifyResult struct {
	Source  string            `json:"source"`
	Account string            `json:"account,omitempty"`
	User    string            `json:"user,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Connector is one authenticated source instance. All collection methods
// stream records through the emit callback in source order; an emit error
// aborts the stream. Agents stream as Customer records carrying agent IDs;
// the canonical model does not distinguish the two beyond the ID namespace.
//
// A method returns a capability error (see Unsupported) when the source has
// no endpoint for that resource; the exporter downgrades those to warnings.
type Connector interface {
	// Name is the source name used in configs and logs ("zendesk").
	Name() string

	// SourcePrefix is the short canonical ID prefix ("zd").
	SourcePrefix() string

	// Verify checks the credentials with one minimal request.
	Verify(ctx context.Context) (*VerifyResult, error)

	Tickets(ctx context.Context, emit func(*canonical.Ticket) error) error

	// Messages hydrates the conversation of one previously emitted ticket.
	Messages(ctx context.Context, ticket *canonical.Ticket, emit func(*canonical.Message) error) error

	Customers(ctx context.Context, emit func(*canonical.Customer) error) error
	Agents(ctx context.Context, emit func(*canonical.Customer) error) error
	Organizations(ctx context.Context, emit func(*canonical.Organization) error) error
	KBArticles(ctx context.Context, emit func(*canonical.KBArticle) error) error
	Rules(ctx context.Context, emit func(*canonical.Rule) error) error
}

// Unsupported reports that a source exposes no endpoint for a resource.
func Unsupported(source string, resource Resource) error {
	return errors.Newf(errors.ErrorTypeCapability, "%s has no %s endpoint", source, resource).
		WithDetail("source", source).
		WithDetail("resource", string(resource))
}

// IsUnsupported reports whether err is a capability error.
func IsUnsupported(err error) bool {
	return errors.IsType(err, errors.ErrorTypeCapability)
}
