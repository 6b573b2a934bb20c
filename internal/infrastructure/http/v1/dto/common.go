// Package dto provides request and response types for the HTTP API.
package dto

// IDResponse is returned by create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list payloads.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total,omitempty"`
}
