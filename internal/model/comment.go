package model

// Comment is the record shown in the list. Identity is ID.
// PostID and Email are only carried so server payloads round-trip.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Body   string `json:"body"`
}
