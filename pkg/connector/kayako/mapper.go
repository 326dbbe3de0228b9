package kayako

import (
	"strconv"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

func extID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mapStatus(raw string) canonical.Status {
	switch raw {
	case "NEW", "OPEN":
		return canonical.StatusOpen
	case "PENDING":
		return canonical.StatusPending
	case "HOLD":
		return canonical.StatusOnHold
	case "COMPLETED":
		return canonical.StatusSolved
	case "CLOSED":
		return canonical.StatusClosed
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "status").Inc()
	return canonical.StatusOpen
}

func mapPriority(raw string) canonical.Priority {
	switch raw {
	case "LOW":
		return canonical.PriorityLow
	case "", "NORMAL":
		return canonical.PriorityNormal
	case "HIGH":
		return canonical.PriorityHigh
	case "URGENT":
		return canonical.PriorityUrgent
	}
	metrics.MappingDefaults.WithLabelValues(sourceName, "priority").Inc()
	return canonical.PriorityNormal
}

func mapCase(kase *apiCase) *canonical.Ticket {
	ticket := &canonical.Ticket{
		ID:         canonical.ID(sourcePrefix, extID(kase.ID)),
		ExternalID: extID(kase.ID),
		Source:     sourceName,
		Subject:    kase.Subject,
		Status:     mapStatus(kase.Status.Type),
		Priority:   mapPriority(kase.Priority.Label),
		Tags:       []string{},
		CreatedAt:  kase.CreatedAt,
		UpdatedAt:  kase.UpdatedAt,
	}
	for _, tag := range kase.Tags {
		ticket.Tags = append(ticket.Tags, tag.Name)
	}
	if kase.Requester.ID != 0 {
		ticket.Requester = canonical.ID(sourcePrefix, extID(kase.Requester.ID))
	}
	if kase.AssignedAgent.ID != 0 {
		ticket.Assignee = canonical.AgentID(sourcePrefix, extID(kase.AssignedAgent.ID))
	}
	return ticket
}

func mapPost(ticketID string, post *apiPost) *canonical.Message {
	msg := &canonical.Message{
		ID:        canonical.ID(sourcePrefix, extID(post.ID)),
		TicketID:  ticketID,
		Body:      post.Contents,
		CreatedAt: post.CreatedAt,
	}
	switch post.SourceChannel {
	case "NOTE":
		msg.Type = canonical.MessageNote
	case "SYSTEM":
		msg.Type = canonical.MessageSystem
	default:
		msg.Type = canonical.MessageReply
	}
	if post.Creator.ID != 0 {
		msg.Author = canonical.ID(sourcePrefix, extID(post.Creator.ID))
	}
	for _, a := range post.Attachments {
		msg.Attachments = append(msg.Attachments, canonical.Attachment{
			Name:        a.Name,
			ContentType: a.Type,
			URL:         a.URL,
			Size:        a.Size,
		})
	}
	return msg
}

// mapUser routes agents into the agent ID namespace based on the role type.
func mapUser(u *apiUser) *canonical.Customer {
	id := canonical.ID(sourcePrefix, extID(u.ID))
	if isAgent(u) {
		id = canonical.AgentID(sourcePrefix, extID(u.ID))
	}
	customer := &canonical.Customer{
		ID:         id,
		ExternalID: extID(u.ID),
		Source:     sourceName,
		Name:       displayName(u.FullName, u.Email, u.ID),
		Email:      u.Email,
		Phone:      u.Phone,
	}
	if u.Organization.ID != 0 {
		customer.OrgID = canonical.ID(sourcePrefix, extID(u.Organization.ID))
	}
	return customer
}

func isAgent(u *apiUser) bool {
	return u.Role.Type == "AGENT" || u.Role.Type == "ADMIN" || u.Role.Type == "OWNER"
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

func mapOrganization(o *apiOrganization) *canonical.Organization {
	org := &canonical.Organization{
		ID:         canonical.ID(sourcePrefix, extID(o.ID)),
		ExternalID: extID(o.ID),
		Source:     sourceName,
		Name:       o.Name,
		Domains:    []string{},
	}
	for _, d := range o.Domains {
		org.Domains = append(org.Domains, d.Domain)
	}
	return org
}

func mapArticle(a *apiArticle) *canonical.KBArticle {
	path := []string{}
	if a.Section.Title != "" {
		path = append(path, a.Section.Title)
	}
	return &canonical.KBArticle{
		ID:           canonical.ID(sourcePrefix, extID(a.ID)),
		ExternalID:   extID(a.ID),
		Source:       sourceName,
		Title:        a.Title,
		Body:         a.Contents,
		CategoryPath: path,
	}
}

func mapSLA(s *apiSLA) *canonical.Rule {
	return &canonical.Rule{
		ID:         canonical.ID(sourcePrefix, extID(s.ID)),
		ExternalID: extID(s.ID),
		Source:     sourceName,
		Type:       canonical.RuleSLA,
		Title:      s.Title,
		Active:     s.Enabled,
	}
}

func mapMacro(m *apiMacro) *canonical.Rule {
	return &canonical.Rule{
		ID:         canonical.ID(sourcePrefix, extID(m.ID)),
		ExternalID: extID(m.ID),
		Source:     sourceName,
		Type:       canonical.RuleMacro,
		Title:      m.Title,
		Active:     true,
	}
}
