package intercom

import (
	"strconv"
	"time"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

func epoch(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func mapState(raw string) canonical.Status {
	switch raw {
	case "open":
		return canonical.StatusOpen
	case "snoozed":
		return canonical.StatusOnHold
	case "closed":
		return canonical.StatusClosed
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "status").Inc()
	return canonical.StatusOpen
}

// Intercom has a binary priority flag rather than a scale.
func mapPriority(raw string) canonical.Priority {
	if raw == "priority" {
		return canonical.PriorityHigh
	}
	return canonical.PriorityNormal
}

func mapConversation(conv *apiConversation) *canonical.Ticket {
	subject := conv.Title
	if subject == "" {
		subject = "Conversation " + conv.ID
	}
	ticket := &canonical.Ticket{
		ID:         canonical.ID(sourcePrefix, conv.ID),
		ExternalID: conv.ID,
		Source:     sourceName,
		Subject:    subject,
		Status:     mapState(conv.State),
		Priority:   mapPriority(conv.Priority),
		Tags:       []string{},
		CreatedAt:  epoch(conv.CreatedAt),
		UpdatedAt:  epoch(conv.UpdatedAt),
	}
	for _, tag := range conv.Tags.Tags {
		ticket.Tags = append(ticket.Tags, tag.Name)
	}
	if conv.AdminAssigneeID != 0 {
		ticket.Assignee = canonical.AgentID(sourcePrefix, strconv.FormatInt(conv.AdminAssigneeID, 10))
	}
	if len(conv.Contacts.Contacts) > 0 {
		ticket.Requester = canonical.ID(sourcePrefix, conv.Contacts.Contacts[0].ID)
	}
	return ticket
}

func authorID(a *apiAuthor) string {
	if a == nil || a.ID == "" {
		return ""
	}
	if a.Type == "admin" || a.Type == "team" {
		return canonical.AgentID(sourcePrefix, a.ID)
	}
	return canonical.ID(sourcePrefix, a.ID)
}

// mapOpener turns the conversation source (the opening message) into the
// first canonical message; Intercom does not repeat it in the parts list.
func mapOpener(ticket *canonical.Ticket, detail *apiConversationDetail) *canonical.Message {
	return &canonical.Message{
		ID:        canonical.ID(sourcePrefix, detail.ID+"-source"),
		TicketID:  ticket.ID,
		Author:    authorID(detail.Source.Author),
		BodyHTML:  detail.Source.Body,
		Body:      detail.Source.Body,
		Type:      canonical.MessageReply,
		CreatedAt: epoch(detail.CreatedAt),
	}
}

func mapPart(ticketID string, part *apiPart) *canonical.Message {
	msg := &canonical.Message{
		ID:        canonical.ID(sourcePrefix, part.ID),
		TicketID:  ticketID,
		Author:    authorID(part.Author),
		Body:      part.Body,
		BodyHTML:  part.Body,
		CreatedAt: epoch(part.CreatedAt),
	}
	switch part.PartType {
	case "comment":
		msg.Type = canonical.MessageReply
	case "note":
		msg.Type = canonical.MessageNote
	default:
		msg.Type = canonical.MessageSystem
	}
	for _, a := range part.Attachments {
		msg.Attachments = append(msg.Attachments, canonical.Attachment{
			Name:        a.Name,
			ContentType: a.ContentType,
			URL:         a.URL,
			Size:        a.FileSize,
		})
	}
	return msg
}

func mapContact(c *apiContact) *canonical.Customer {
	customer := &canonical.Customer{
		ID:         canonical.ID(sourcePrefix, c.ID),
		ExternalID: c.ID,
		Source:     sourceName,
		Name:       displayName(c.Name, c.Email, c.ID),
		Email:      c.Email,
		Phone:      c.Phone,
	}
	if len(c.Companies.Data) > 0 {
		customer.OrgID = canonical.ID(sourcePrefix, c.Companies.Data[0].ID)
	}
	return customer
}

func mapAdmin(a *apiAdmin) *canonical.Customer {
	return &canonical.Customer{
		ID:         canonical.AgentID(sourcePrefix, a.ID),
		ExternalID: a.ID,
		Source:     sourceName,
		Name:       displayName(a.Name, a.Email, a.ID),
		Email:      a.Email,
	}
}

func displayName(name, email, id string) string {
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "user-" + id
}

func mapCompany(c *apiCompany) *canonical.Organization {
	org := &canonical.Organization{
		ID:         canonical.ID(sourcePrefix, c.ID),
		ExternalID: c.ID,
		Source:     sourceName,
		Name:       c.Name,
		Domains:    []string{},
	}
	if c.Website != "" {
		org.Domains = append(org.Domains, c.Website)
	}
	return org
}

// mapArticle resolves the parent collection name; article parent_id is
// numeric while collection ids arrive as strings, hence the conversion.
func mapArticle(a *apiArticle, collections map[string]string) *canonical.KBArticle {
	path := []string{}
	if name, ok := collections[strconv.FormatInt(a.ParentID, 10)]; ok {
		path = append(path, name)
	}
	return &canonical.KBArticle{
		ID:           canonical.ID(sourcePrefix, a.ID),
		ExternalID:   a.ID,
		Source:       sourceName,
		Title:        a.Title,
		Body:         a.Body,
		CategoryPath: path,
	}
}
