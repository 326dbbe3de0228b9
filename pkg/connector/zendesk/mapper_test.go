package zendesk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ticketferry/ticketferry/pkg/canonical"
)

func TestMapStatusVocabulary(t *testing.T) {
	assert.Equal(t, canonical.StatusOpen, mapStatus("new"))
	assert.Equal(t, canonical.StatusOpen, mapStatus("open"))
	assert.Equal(t, canonical.StatusPending, mapStatus("pending"))
	assert.Equal(t, canonical.StatusOnHold, mapStatus("hold"))
	assert.Equal(t, canonical.StatusSolved, mapStatus("solved"))
	assert.Equal(t, canonical.StatusClosed, mapStatus("closed"))

	// Total function: never panics, never returns empty.
	assert.Equal(t, canonical.StatusOpen, mapStatus("deleted"))
	assert.Equal(t, canonical.StatusOpen, mapStatus(""))
}

func TestMapPriorityVocabulary(t *testing.T) {
	assert.Equal(t, canonical.PriorityNormal, mapPriority(""))
	assert.Equal(t, canonical.PriorityLow, mapPriority("low"))
	assert.Equal(t, canonical.PriorityUrgent, mapPriority("urgent"))
	assert.Equal(t, canonical.PriorityNormal, mapPriority("sev1"))
}

func TestMapTicket(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := mapTicket(&apiTicket{
		ID:          42,
		Subject:     "Printer on fire",
		Status:      "hold",
		Priority:    "urgent",
		RequesterID: 7,
		AssigneeID:  9,
		Tags:        []string{"hardware"},
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		CustomFields: []apiCustomField{
			{ID: 100, Value: "eu-west"},
			{ID: 101, Value: nil},
		},
	})

	assert.Equal(t, "zd-42", ticket.ID)
	assert.Equal(t, "42", ticket.ExternalID)
	assert.Equal(t, "zendesk", ticket.Source)
	assert.Equal(t, canonical.StatusOnHold, ticket.Status)
	assert.Equal(t, canonical.PriorityUrgent, ticket.Priority)
	assert.Equal(t, "zd-7", ticket.Requester)
	assert.Equal(t, "zd-agent-9", ticket.Assignee)
	assert.Equal(t, map[string]interface{}{"100": "eu-west"}, ticket.CustomFields)
}

func TestMapTicketWithoutAssigneeOrTags(t *testing.T) {
	ticket := mapTicket(&apiTicket{ID: 1, RequesterID: 2})
	assert.Empty(t, ticket.Assignee)
	assert.NotNil(t, ticket.Tags)
	assert.Empty(t, ticket.Tags)
	assert.Nil(t, ticket.CustomFields)
}

func TestMapCommentTypes(t *testing.T) {
	public := mapComment("zd-1", &apiComment{ID: 10, AuthorID: 7, Body: "hi", Public: true})
	assert.Equal(t, canonical.MessageReply, public.Type)
	assert.Equal(t, "zd-1", public.TicketID)
	assert.Equal(t, "zd-7", public.Author)

	note := mapComment("zd-1", &apiComment{ID: 11, Public: false})
	assert.Equal(t, canonical.MessageNote, note.Type)

	system := &apiComment{ID: 12, Public: true}
	system.Via.Channel = "system"
	assert.Equal(t, canonical.MessageSystem, mapComment("zd-1", system).Type)
}

func TestMapUserDisplayNameFallbacks(t *testing.T) {
	named := mapUser(&apiUser{ID: 1, Name: "Ada", Email: "ada@example.com"}, false)
	assert.Equal(t, "Ada", named.Name)

	emailOnly := mapUser(&apiUser{ID: 2, Email: "no-name@example.com"}, false)
	assert.Equal(t, "no-name@example.com", emailOnly.Name)

	bare := mapUser(&apiUser{ID: 3}, false)
	assert.Equal(t, "user-3", bare.Name)
}

func TestMapUserAgentNamespace(t *testing.T) {
	user := mapUser(&apiUser{ID: 5, Name: "Sam"}, false)
	agent := mapUser(&apiUser{ID: 5, Name: "Sam"}, true)

	assert.Equal(t, "zd-5", user.ID)
	assert.Equal(t, "zd-agent-5", agent.ID)
}

func TestMapUserOrgReference(t *testing.T) {
	user := mapUser(&apiUser{ID: 5, OrganizationID: 77}, false)
	assert.Equal(t, "zd-77", user.OrgID)
}

func TestMapArticleCategoryPath(t *testing.T) {
	sections := map[int64]*apiSection{
		20: {ID: 20, Name: "Billing", CategoryID: 30},
	}
	categories := map[int64]string{30: "Account"}

	article := mapArticle(&apiArticle{ID: 1, Title: "Refunds", SectionID: 20}, sections, categories)
	assert.Equal(t, []string{"Account", "Billing"}, article.CategoryPath)

	orphan := mapArticle(&apiArticle{ID: 2, SectionID: 999}, sections, categories)
	assert.Empty(t, orphan.CategoryPath)
	assert.NotNil(t, orphan.CategoryPath)
}

func TestIDFromLocation(t *testing.T) {
	assert.Equal(t, "991", idFromLocation("https://acme.zendesk.com/api/v2/tickets/991.json"))
	assert.Equal(t, "991", idFromLocation("/api/v2/tickets/991"))
	assert.Equal(t, "991", idFromLocation("/api/v2/tickets/991?include=users"))
	assert.Equal(t, "", idFromLocation(""))
}
