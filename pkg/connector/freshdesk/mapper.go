package freshdesk

import (
	"strconv"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

func extID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Freshdesk status codes: 2 open, 3 pending, 4 resolved, 5 closed.
func mapStatus(code int) canonical.Status {
	switch code {
	case 2:
		return canonical.StatusOpen
	case 3:
		return canonical.StatusPending
	case 4:
		return canonical.StatusSolved
	case 5:
		return canonical.StatusClosed
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "status").Inc()
	return canonical.StatusOpen
}

// Freshdesk priority codes: 1 low, 2 medium, 3 high, 4 urgent.
func mapPriority(code int) canonical.Priority {
	switch code {
	case 1:
		return canonical.PriorityLow
	case 2:
		return canonical.PriorityNormal
	case 3:
		return canonical.PriorityHigh
	case 4:
		return canonical.PriorityUrgent
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "priority").Inc()
	return canonical.PriorityNormal
}

func mapTicket(t *apiTicket) *canonical.Ticket {
	ticket := &canonical.Ticket{
		ID:         canonical.ID(sourcePrefix, extID(t.ID)),
		ExternalID: extID(t.ID),
		Source:     sourceName,
		Subject:    t.Subject,
		Status:     mapStatus(t.Status),
		Priority:   mapPriority(t.Priority),
		Requester:  canonical.ID(sourcePrefix, extID(t.RequesterID)),
		Tags:       t.Tags,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if ticket.Tags == nil {
		ticket.Tags = []string{}
	}
	if t.ResponderID != 0 {
		ticket.Assignee = canonical.AgentID(sourcePrefix, extID(t.ResponderID))
	}
	if len(t.CustomFields) > 0 {
		ticket.CustomFields = t.CustomFields
	}
	return ticket
}

func mapConversation(ticketID string, conv *apiConversation) *canonical.Message {
	msg := &canonical.Message{
		ID:        canonical.ID(sourcePrefix, extID(conv.ID)),
		TicketID:  ticketID,
		Author:    canonical.ID(sourcePrefix, extID(conv.UserID)),
		Body:      conv.BodyText,
		BodyHTML:  conv.Body,
		Type:      canonical.MessageReply,
		CreatedAt: conv.CreatedAt,
	}
	if conv.Private {
		msg.Type = canonical.MessageNote
	}
	for _, a := range conv.Attachments {
		msg.Attachments = append(msg.Attachments, canonical.Attachment{
			Name:        a.Name,
			ContentType: a.ContentType,
			URL:         a.AttachmentURL,
			Size:        a.Size,
		})
	}
	return msg
}

func mapContact(c *apiContact) *canonical.Customer {
	customer := &canonical.Customer{
		ID:         canonical.ID(sourcePrefix, extID(c.ID)),
		ExternalID: extID(c.ID),
		Source:     sourceName,
		Name:       displayName(c.Name, c.Email, c.ID),
		Email:      c.Email,
		Phone:      c.Phone,
	}
	if c.CompanyID != 0 {
		customer.OrgID = canonical.ID(sourcePrefix, extID(c.CompanyID))
	}
	return customer
}

func mapAgent(a *apiAgent) *canonical.Customer {
	return &canonical.Customer{
		ID:         canonical.AgentID(sourcePrefix, extID(a.ID)),
		ExternalID: extID(a.ID),
		Source:     sourceName,
		Name:       displayName(a.Contact.Name, a.Contact.Email, a.ID),
		Email:      a.Contact.Email,
		Phone:      a.Contact.Phone,
	}
}

func displayName(name, email string, id int64) string {
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "user-" + extID(id)
}

func mapCompany(c *apiCompany) *canonical.Organization {
	org := &canonical.Organization{
		ID:         canonical.ID(sourcePrefix, extID(c.ID)),
		ExternalID: extID(c.ID),
		Source:     sourceName,
		Name:       c.Name,
		Domains:    c.Domains,
	}
	if org.Domains == nil {
		org.Domains = []string{}
	}
	return org
}

func mapArticle(a *apiArticle, categoryPath []string) *canonical.KBArticle {
	if categoryPath == nil {
		categoryPath = []string{}
	}
	return &canonical.KBArticle{
		ID:           canonical.ID(sourcePrefix, extID(a.ID)),
		ExternalID:   extID(a.ID),
		Source:       sourceName,
		Title:        a.Title,
		Body:         a.Description,
		CategoryPath: categoryPath,
	}
}

func mapRule(r *apiRule, ruleType canonical.RuleType) *canonical.Rule {
	rule := &canonical.Rule{
		ID:         canonical.ID(sourcePrefix, extID(r.ID)),
		ExternalID: extID(r.ID),
		Source:     sourceName,
		Type:       ruleType,
		Title:      r.Name,
		Active:     r.Active,
	}
	if len(r.Conditions) > 0 {
		rule.Conditions = r.Conditions
	}
	if len(r.Actions) > 0 {
		rule.Actions = r.Actions
	}
	return rule
}
