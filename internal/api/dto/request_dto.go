package dto

import "github.com/goccy/go-json"

// CreateRegistrationRequest payload for POST /api/cadastros. cidade may be empty
// but must be present.
type CreateRegistrationRequest struct {
	ID     json.Number `json:"id" validate:"required"`
	Nome   string      `json:"nome" validate:"required"`
	Cidade *string     `json:"cidade" validate:"required"`
	Cargo  string      `json:"cargo" validate:"required"`
}

// GoalRequest payload for POST /api/metas. Thresholds accept numbers or numeric
// strings and default to 0.
type GoalRequest struct {
	Cargo     string `json:"cargo" validate:"required"`
	Metrica   string `json:"metrica" validate:"required"`
	Promocao  any    `json:"promocao"`
	Premiacao any    `json:"premiacao"`
}

// GoalPatchRequest payload for PATCH /api/metas/:cargo/:metrica.
type GoalPatchRequest struct {
	Promocao  any `json:"promocao"`
	Premiacao any `json:"premiacao"`
}
