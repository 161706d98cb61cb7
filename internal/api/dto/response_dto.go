package dto

// CreatedResponse acknowledges a created row.
type CreatedResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// UpdatedResponse carries the row as stored after a partial update.
type UpdatedResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// MessageResponse acknowledges a write with no payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
