package zendesk

import (
	"time"

	gojson "github.com/goccy/go-json"
)

// Wire shapes of the Zendesk v2 REST API. Collection responses wrap records
// in a named array plus next_page/count bookkeeping.

type apiTicket struct {
	ID             int64            `json:"id"`
	Subject        string           `json:"subject"`
	Status         string           `json:"status"`
	Priority       string           `json:"priority"`
	RequesterID    int64            `json:"requester_id"`
	AssigneeID     int64            `json:"assignee_id"`
	OrganizationID int64            `json:"organization_id"`
	GroupID        int64            `json:"group_id"`
	BrandID        int64            `json:"brand_id"`
	FormID         int64            `json:"ticket_form_id"`
	Tags           []string         `json:"tags"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CustomFields   []apiCustomField `json:"custom_fields"`
}

type apiCustomField struct {
	ID    int64       `json:"id"`
	Value interface{} `json:"value"`
}

type apiComment struct {
	ID          int64           `json:"id"`
	AuthorID    int64           `json:"author_id"`
	Body        string          `json:"body"`
	HTMLBody    string          `json:"html_body"`
	Public      bool            `json:"public"`
	CreatedAt   time.Time       `json:"created_at"`
	Attachments []apiAttachment `json:"attachments"`
	Via         struct {
		Channel string `json:"channel"`
	} `json:"via"`
}

type apiAttachment struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
	Size        int64  `json:"size"`
}

type apiUser struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	OrganizationID int64  `json:"organization_id"`
}

type apiOrganization struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	DomainNames []string `json:"domain_names"`
}

type apiArticle struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	SectionID int64  `json:"section_id"`
}

type apiSection struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

type apiCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// apiRule covers macros, triggers and automations; they share this shape.
type apiRule struct {
	ID         int64               `json:"id"`
	Title      string              `json:"title"`
	Active     bool                `json:"active"`
	Conditions gojson.RawMessage   `json:"conditions,omitempty"`
	Actions    []gojson.RawMessage `json:"actions,omitempty"`
}

type apiGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiBrand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiTicketForm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
