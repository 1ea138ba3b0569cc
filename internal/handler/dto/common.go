// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// Upgrade signals the client should offer a plan upgrade.
	Upgrade bool `json:"upgrade,omitempty"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}
