package intercom

// Wire shapes of the Intercom REST API. IDs are strings, timestamps are
// unix epoch seconds, list responses carry a pages.next cursor object and
// the legacy companies scroll returns a scroll_param.

type apiConversation struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	State           string `json:"state"`
	Priority        string `json:"priority"`
	AdminAssigneeID int64  `json:"admin_assignee_id"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
	Source          struct {
		Body   string     `json:"body"`
		Author *apiAuthor `json:"author"`
	} `json:"source"`
	Contacts struct {
		Contacts []struct {
			ID string `json:"id"`
		} `json:"contacts"`
	} `json:"contacts"`
	Tags struct {
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"tags"`
}

type apiAuthor struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type apiConversationDetail struct {
	apiConversation
	ConversationParts struct {
		ConversationParts []apiPart `json:"conversation_parts"`
	} `json:"conversation_parts"`
}

type apiPart struct {
	ID          string          `json:"id"`
	PartType    string          `json:"part_type"`
	Body        string          `json:"body"`
	CreatedAt   int64           `json:"created_at"`
	Author      *apiAuthor      `json:"author"`
	Attachments []apiAttachment `json:"attachments"`
}

type apiAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	FileSize    int64  `json:"filesize"`
}

type apiContact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Companies struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"companies"`
}

type apiAdmin struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type apiCompany struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Website string `json:"website"`
}

type apiArticle struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ParentID int64  `json:"parent_id"`
}

type apiCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
