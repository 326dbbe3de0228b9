package freshdesk

import (
	"time"

	gojson "github.com/goccy/go-json"
)

// Wire shapes of the Freshdesk v2 REST API. Collections are bare JSON
// arrays; status and priority are numeric codes.

type apiTicket struct {
	ID           int64                  `json:"id"`
	Subject      string                 `json:"subject"`
	Status       int                    `json:"status"`
	Priority     int                    `json:"priority"`
	RequesterID  int64                  `json:"requester_id"`
	ResponderID  int64                  `json:"responder_id"`
	CompanyID    int64                  `json:"company_id"`
	Tags         []string               `json:"tags"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	CustomFields map[string]interface{} `json:"custom_fields"`
}

type apiConversation struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	BodyText    string          `json:"body_text"`
	Body        string          `json:"body"`
	Private     bool            `json:"private"`
	Incoming    bool            `json:"incoming"`
	CreatedAt   time.Time       `json:"created_at"`
	Attachments []apiAttachment `json:"attachments"`
}

type apiAttachment struct {
	Name          string `json:"name"`
	ContentType   string `json:"content_type"`
	AttachmentURL string `json:"attachment_url"`
	Size          int64  `json:"size"`
}

type apiContact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CompanyID int64  `json:"company_id"`
}

type apiAgent struct {
	ID      int64 `json:"id"`
	Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"contact"`
}

type apiCompany struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
}

type apiCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiFolder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiArticle struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type apiRule struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Active     bool              `json:"active"`
	Conditions gojson.RawMessage `json:"conditions,omitempty"`
	Actions    gojson.RawMessage `json:"actions,omitempty"`
}
