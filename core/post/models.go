package post

import (
	"encoding/json"
	"strconv"
)

// Acknowledgement is a user's tri-state response to a post: yes, no or unset (nil).
type Acknowledgement struct {
	Username string `json:"username"`
	Response *bool  `json:"response"`
}

type Post struct {
	ID                      string            `json:"id"`
	Title                   string            `json:"title"`
	Body                    string            `json:"body"`
	GroupID                 string            `json:"group_id"`
	AuthorID                string            `json:"author_id"`
	DateCreated             int64             `json:"date_created"` // epoch seconds
	DateDue                 *int64            `json:"date_due"`     // epoch seconds
	Location                *string           `json:"location"`
	RequiresAcknowledgement bool              `json:"requires_acknowledgement"`
	Viewed                  []string          `json:"viewed"`
	Acknowledged            []Acknowledgement `json:"acknowledged"`
}

func (p Post) ViewedBy(username string) bool {
	for _, u := range p.Viewed {
		if u == username {
			return true
		}
	}
	return false
}

// AcknowledgementOf returns username's response and whether an acknowledgement entry exists.
func (p Post) AcknowledgementOf(username string) (*bool, bool) {
	for _, ack := range p.Acknowledged {
		if ack.Username == username {
			return ack.Response, true
		}
	}
	return nil, false
}

// Summary is a post as seen by one viewer in a listing.
// Viewed & Acknowledged are relative to that viewer.
type Summary struct {
	ID                      string  `json:"id"`
	Title                   string  `json:"title"`
	Body                    string  `json:"body"`
	DateCreated             int64   `json:"date_created"`
	DateDue                 *int64  `json:"date_due"`
	Location                *string `json:"location"`
	RequiresAcknowledgement bool    `json:"requires_acknowledgement"`
	AuthorName              string  `json:"author_name"`
	GroupName               string  `json:"group_name"`
	Viewed                  bool    `json:"viewed"`
	Acknowledged            *bool   `json:"acknowledged"`
}

// ResponseState is one group member's view of a post.
// Acknowledged is only meaningful (and only serialized) when AckRequired.
type ResponseState struct {
	Viewed       bool
	Acknowledged *bool
	AckRequired  bool
}

func (rs ResponseState) MarshalJSON() ([]byte, error) {
	if !rs.AckRequired {
		return json.Marshal(struct {
			Viewed bool `json:"viewed"`
		}{rs.Viewed})
	}
	return json.Marshal(struct {
		Viewed       bool  `json:"viewed"`
		Acknowledged *bool `json:"acknowledged"`
	}{rs.Viewed, rs.Acknowledged})
}

// Detail is a single post with the response summary of every group member.
type Detail struct {
	ID                      string                   `json:"id"`
	Title                   string                   `json:"title"`
	Body                    string                   `json:"body"`
	GroupID                 string                   `json:"group_id"`
	AuthorID                string                   `json:"author_id"`
	DateCreated             int64                    `json:"date_created"`
	DateDue                 *int64                   `json:"date_due"`
	Location                *string                  `json:"location"`
	RequiresAcknowledgement bool                     `json:"requires_acknowledgement"`
	AuthorName              string                   `json:"author_name"`
	GroupName               string                   `json:"group_name"`
	Responses               map[string]ResponseState `json:"responses"`
}

// ResponseRow is one line of a post's response export.
type ResponseRow struct {
	Username    string
	Viewed      bool
	Response    *bool
	AckRequired bool
}

// Record returns the row's export columns: username, viewed (0|1), response (1|0|"").
// The response column is always empty when the post does not require acknowledgement.
func (r ResponseRow) Record() []string {
	var response string
	if r.AckRequired && r.Response != nil {
		response = boolDigit(*r.Response)
	}
	return []string{r.Username, boolDigit(r.Viewed), response}
}

func boolDigit(b bool) string {
	if b {
		return strconv.Itoa(1)
	}
	return strconv.Itoa(0)
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	GroupIDs    []string // posts of any of these groups; required
	NotViewedBy string   // posts not yet viewed by this username
	Search      string   // full-text search over title & body
}
