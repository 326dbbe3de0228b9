package helpscout

import (
	"strconv"
	"strings"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

func extID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mapStatus(raw string) canonical.Status {
	switch raw {
	case "active", "open":
		return canonical.StatusOpen
	case "pending":
		return canonical.StatusPending
	case "closed", "spam":
		return canonical.StatusClosed
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "status").Inc()
	return canonical.StatusOpen
}

func mapConversation(conv *apiConversation) *canonical.Ticket {
	ticket := &canonical.Ticket{
		ID:         canonical.ID(sourcePrefix, extID(conv.ID)),
		ExternalID: extID(conv.ID),
		Source:     sourceName,
		Subject:    conv.Subject,
		Status:     mapStatus(conv.Status),
		// Help Scout has no priority concept; everything is normal.
		Priority:  canonical.PriorityNormal,
		Tags:      []string{},
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	for _, tag := range conv.Tags {
		ticket.Tags = append(ticket.Tags, tag.Tag)
	}
	if conv.Assignee != nil && conv.Assignee.ID != 0 {
		ticket.Assignee = canonical.AgentID(sourcePrefix, extID(conv.Assignee.ID))
	}
	if conv.Customer != nil && conv.Customer.ID != 0 {
		ticket.Requester = canonical.ID(sourcePrefix, extID(conv.Customer.ID))
	}
	return ticket
}

// mapThread classifies Help Scout thread types: customer and message
// threads are public replies, notes are internal, everything else
// (lineitem, phone, forward) is system noise.
func mapThread(ticketID string, thread *apiThread) *canonical.Message {
	msg := &canonical.Message{
		ID:        canonical.ID(sourcePrefix, extID(thread.ID)),
		TicketID:  ticketID,
		Body:      thread.Body,
		CreatedAt: thread.CreatedAt,
	}
	switch thread.Type {
	case "customer", "message":
		msg.Type = canonical.MessageReply
	case "note":
		msg.Type = canonical.MessageNote
	default:
		msg.Type = canonical.MessageSystem
	}
	if thread.CreatedBy.ID != 0 {
		msg.Author = canonical.ID(sourcePrefix, extID(thread.CreatedBy.ID))
	}
	for _, a := range thread.Embedded.Attachments {
		msg.Attachments = append(msg.Attachments, canonical.Attachment{
			Name:        a.FileName,
			ContentType: a.MimeType,
			Size:        a.Size,
		})
	}
	return msg
}

// mapCustomer carries the company name out-of-band so the exporter can
// derive organization records; Help Scout has no org endpoint.
func mapCustomer(c *apiCustomer) *canonical.Customer {
	email := ""
	if len(c.Embedded.Emails) > 0 {
		email = c.Embedded.Emails[0].Value
	}
	phone := ""
	if len(c.Embedded.Phones) > 0 {
		phone = c.Embedded.Phones[0].Value
	}
	customer := &canonical.Customer{
		ID:         canonical.ID(sourcePrefix, extID(c.ID)),
		ExternalID: extID(c.ID),
		Source:     sourceName,
		Name:       fullName(c.FirstName, c.LastName, email, c.ID),
		Email:      email,
		Phone:      phone,
		OrgName:    c.Company,
	}
	if c.Company != "" {
		customer.OrgID = canonical.OrgIDFromName(sourcePrefix, c.Company)
	}
	return customer
}

func mapUser(u *apiUser) *canonical.Customer {
	return &canonical.Customer{
		ID:         canonical.AgentID(sourcePrefix, extID(u.ID)),
		ExternalID: extID(u.ID),
		Source:     sourceName,
		Name:       fullName(u.FirstName, u.LastName, u.Email, u.ID),
		Email:      u.Email,
	}
}

// fullName composes first/last, then falls back to the email, then to a
// stable placeholder.
func fullName(first, last, email string, id int64) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "user-" + extID(id)
}

func mapDocsArticle(a *docsArticle, collectionName string) *canonical.KBArticle {
	path := []string{}
	if collectionName != "" {
		path = append(path, collectionName)
	}
	return &canonical.KBArticle{
		ID:           canonical.ID(sourcePrefix, a.ID),
		ExternalID:   a.ID,
		Source:       sourceName,
		Title:        a.Name,
		Body:         a.Text,
		CategoryPath: path,
	}
}
