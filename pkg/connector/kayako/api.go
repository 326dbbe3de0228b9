package kayako

import "time"

// Wire shapes of the Kayako REST API. Collection responses wrap records in
// a data array with total_count bookkeeping; the session_id travelling in
// the envelope is harvested by the session authenticator, not decoded here.

type apiCase struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    struct {
		Type string `json:"type"`
	} `json:"status"`
	Priority struct {
		Label string `json:"label"`
	} `json:"priority"`
	Requester struct {
		ID int64 `json:"id"`
	} `json:"requester"`
	AssignedAgent struct {
		ID int64 `json:"id"`
	} `json:"assigned_agent"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type apiPost struct {
	ID        int64     `json:"id"`
	Contents  string    `json:"contents"`
	CreatedAt time.Time `json:"created_at"`
	Creator   struct {
		ID int64 `json:"id"`
	} `json:"creator"`
	SourceChannel string `json:"source_channel"`
	Attachments   []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		URL  string `json:"url"`
		Size int64  `json:"size"`
	} `json:"attachments"`
}

type apiUser struct {
	ID           int64  `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization struct {
		ID int64 `json:"id"`
	} `json:"organization"`
	Role struct {
		Type string `json:"type"`
	} `json:"role"`
}

type apiOrganization struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Domains []struct {
		Domain string `json:"domain"`
	} `json:"domains"`
}

type apiArticle struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Contents string `json:"contents"`
	Section  struct {
		Title string `json:"title"`
	} `json:"section"`
}

type apiSLA struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

type apiMacro struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
