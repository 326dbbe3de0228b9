package zendesk

import (
	"strconv"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

func extID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// mapStatus is total: unknown vocabulary falls back to open and the
// fallback is counted so vocabulary drift shows up in metrics.
func mapStatus(raw string) canonical.Status {
	switch raw {
	case "new", "open":
		return canonical.StatusOpen
	case "pending":
		return canonical.StatusPending
	case "hold":
		return canonical.StatusOnHold
	case "solved":
		return canonical.StatusSolved
	case "closed":
		return canonical.StatusClosed
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "status").Inc()
	return canonical.StatusOpen
}

func mapPriority(raw string) canonical.Priority {
	switch raw {
	case "", "normal":
		return canonical.PriorityNormal
	case "low":
		return canonical.PriorityLow
	case "high":
		return canonical.PriorityHigh
	case "urgent":
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
	if t.AssigneeID != 0 {
		ticket.Assignee = canonical.AgentID(sourcePrefix, extID(t.AssigneeID))
	}
	if len(t.CustomFields) > 0 {
		fields := make(map[string]interface{}, len(t.CustomFields))
		for _, f := range t.CustomFields {
			if f.Value != nil {
				fields[extID(f.ID)] = f.Value
			}
		}
		if len(fields) > 0 {
			ticket.CustomFields = fields
		}
	}
	return ticket
}

func mapComment(ticketID string, c *apiComment) *canonical.Message {
	msg := &canonical.Message{
		ID:        canonical.ID(sourcePrefix, extID(c.ID)),
		TicketID:  ticketID,
		Author:    canonical.ID(sourcePrefix, extID(c.AuthorID)),
		Body:      c.Body,
		BodyHTML:  c.HTMLBody,
		Type:      canonical.MessageReply,
		CreatedAt: c.CreatedAt,
	}
	if !c.Public {
		msg.Type = canonical.MessageNote
	}
	if c.Via.Channel == "system" {
		msg.Type = canonical.MessageSystem
	}
	for _, a := range c.Attachments {
		msg.Attachments = append(msg.Attachments, canonical.Attachment{
			Name:        a.FileName,
			ContentType: a.ContentType,
			URL:         a.ContentURL,
			Size:        a.Size,
		})
	}
	return msg
}

// mapUser maps end users and agents alike; asAgent moves the record into
// the agent ID namespace so it never collides with the same person's
// end-user record.
func mapUser(u *apiUser, asAgent bool) *canonical.Customer {
	id := canonical.ID(sourcePrefix, extID(u.ID))
	if asAgent {
		id = canonical.AgentID(sourcePrefix, extID(u.ID))
	}
	customer := &canonical.Customer{
		ID:         id,
		ExternalID: extID(u.ID),
		Source:     sourceName,
		Name:       displayName(u.Name, u.Email, u.ID),
		Email:      u.Email,
		Phone:      u.Phone,
	}
	if u.OrganizationID != 0 {
		customer.OrgID = canonical.ID(sourcePrefix, extID(u.OrganizationID))
	}
	return customer
}

// displayName falls back from the profile name to the email to a stable
// placeholder so downstream systems never see an empty name.
func displayName(name, email string, id int64) string {
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "user-" + extID(id)
}

func mapOrganization(o *apiOrganization) *canonical.Organization {
	org := &canonical.Organization{
		ID:         canonical.ID(sourcePrefix, extID(o.ID)),
		ExternalID: extID(o.ID),
		Source:     sourceName,
		Name:       o.Name,
		Domains:    o.DomainNames,
	}
	if org.Domains == nil {
		org.Domains = []string{}
	}
	return org
}

// mapArticle resolves the category path from the section and category
// lookup tables built before the article pass.
func mapArticle(a *apiArticle, sections map[int64]*apiSection, categories map[int64]string) *canonical.KBArticle {
	path := []string{}
	if section, ok := sections[a.SectionID]; ok {
		if category, ok := categories[section.CategoryID]; ok {
			path = append(path, category)
		}
		path = append(path, section.Name)
	}
	return &canonical.KBArticle{
		ID:           canonical.ID(sourcePrefix, extID(a.ID)),
		ExternalID:   extID(a.ID),
		Source:       sourceName,
		Title:        a.Title,
		Body:         a.Body,
		CategoryPath: path,
	}
}

func mapRule(r *apiRule, ruleType canonical.RuleType) *canonical.Rule {
	rule := &canonical.Rule{
		ID:         canonical.ID(sourcePrefix, extID(r.ID)),
		ExternalID: extID(r.ID),
		Source:     sourceName,
		Type:       ruleType,
		Title:      r.Title,
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
