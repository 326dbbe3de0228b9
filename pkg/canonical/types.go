// Package canonical defines the source-independent record shapes every
// connector normalizes into, plus the deterministic ID scheme that ties
// records from one source together. Records are immutable once written in
// the batch export path.
package canonical

import "time"

// Status is the canonical ticket status vocabulary.
type Status string

const (
	StatusOpen    Status = "open"
	StatusPending Status = "pending"
	StatusOnHold  Status = "on_hold"
	StatusSolved  Status = "solved"
	StatusClosed  Status = "closed"
)

// Priority is the canonical ticket priority vocabulary.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// MessageType distinguishes public replies from internal notes and
// system-generated events.
type MessageType string

const (
	MessageReply  MessageType = "reply"
	MessageNote   MessageType = "note"
	MessageSystem MessageType = "system"
)

// RuleType classifies automation rules across sources.
type RuleType string

const (
	RuleMacro      RuleType = "macro"
	RuleTrigger    RuleType = "trigger"
	RuleAutomation RuleType = "automation"
	RuleSLA        RuleType = "sla"
)

// Ticket is the canonical ticket record.
type Ticket struct {
	ID           string                 `json:"id"`
	ExternalID   string                 `json:"externalId"`
	Source       string                 `json:"source"`
	Subject      string                 `json:"subject"`
	Status       Status                 `json:"status"`
	Priority     Priority               `json:"priority"`
	Assignee     string                 `json:"assignee,omitempty"`
	Requester    string                 `json:"requester"`
	Tags         []string               `json:"tags"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	CustomFields map[string]interface{} `json:"customFields,omitempty"`
}

// Attachment describes a file attached to a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Message is one conversation entry on a ticket. TicketID must reference a
// Ticket emitted in the same export run.
type Message struct {
	ID          string       `json:"id"`
	TicketID    string       `json:"ticketId"`
	Author      string       `json:"author"`
	Body        string       `json:"body"`
	BodyHTML    string       `json:"bodyHtml,omitempty"`
	Type        MessageType  `json:"type"`
	CreatedAt   time.Time    `json:"createdAt"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Customer is a canonical end user (or an agent harvested from a users
// endpoint and reused as a customer).
type Customer struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	Source     string `json:"source"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	OrgID      string `json:"orgId,omitempty"`

	// OrgName carries the raw organization name for sources without a
	// dedicated organization resource; the exporter aggregates these into
	// derived Organization records. Never serialized.
	OrgName string `json:"-"`
}

// Organization is a canonical organization/company record.
type Organization struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"externalId"`
	Source     string   `json:"source"`
	Name       string   `json:"name"`
	Domains    []string `json:"domains"`
}

// KBArticle is a canonical knowledge-base article.
type KBArticle struct {
	ID           string   `json:"id"`
	ExternalID   string   `json:"externalId"`
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	CategoryPath []string `json:"categoryPath"`
}

// Rule is a canonical automation rule (macro, trigger, automation, SLA).
type Rule struct {
	ID         string      `json:"id"`
	ExternalID string      `json:"externalId"`
	Source     string      `json:"source"`
	Type       RuleType    `json:"type"`
	Title      string      `json:"title"`
	Conditions interface{} `json:"conditions"`
	Actions    interface{} `json:"actions"`
	Active     bool        `json:"active"`
}

// Counts carries per-resource record totals for a run.
type Counts struct {
	Tickets       int `json:"tickets"`
	Messages      int `json:"messages"`
	Customers     int `json:"customers"`
	Organizations int `json:"organizations"`
	KBArticles    int `json:"kbArticles"`
	Rules         int `json:"rules"`
}

// ExportManifest is written exactly once, last, after all resource passes
// complete. Each count must equal the number of lines in the corresponding
// sink file.
type ExportManifest struct {
	Source     string    `json:"source"`
	ExportedAt time.Time `json:"exportedAt"`
	Counts     Counts    `json:"counts"`
}
