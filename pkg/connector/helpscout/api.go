package helpscout

import (
	"time"

	gojson "github.com/goccy/go-json"
)

// Wire shapes of the Help Scout Mailbox API v2 (HAL envelopes) and the
// Docs API v1.

type apiConversation struct {
	ID        int64     `json:"id"`
	Number    int64     `json:"number"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Tags      []apiTag  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Assignee  *apiRef   `json:"assignee"`
	Customer  *apiRef   `json:"primaryCustomer"`
}

type apiTag struct {
	Tag string `json:"tag"`
}

type apiRef struct {
	ID int64 `json:"id"`
}

type apiThread struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	} `json:"createdBy"`
	Embedded struct {
		Attachments []apiAttachment `json:"attachments"`
	} `json:"_embedded"`
}

type apiAttachment struct {
	FileName string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type apiCustomer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Embedded  struct {
		Emails []struct {
			Value string `json:"value"`
		} `json:"emails"`
		Phones []struct {
			Value string `json:"value"`
		} `json:"phones"`
	} `json:"_embedded"`
}

type apiUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type apiMailbox struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Docs API shapes. Collections nest the page bookkeeping next to the items.

type docsEnvelope struct {
	Collections *docsPage `json:"collections,omitempty"`
	Articles    *docsPage `json:"articles,omitempty"`
}

type docsPage struct {
	Page  int                 `json:"page"`
	Pages int                 `json:"pages"`
	Items []gojson.RawMessage `json:"items"`
}

type docsCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type docsArticle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}
