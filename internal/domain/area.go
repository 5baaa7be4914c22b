package domain

import "time"

// Area representa uma área física do restaurante onde se faz contagem de
// estoque (ex: cozinha, bar, depósito).
type Area struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CountedAt *time.Time `json:"counted_at,omitempty"` // última contagem enviada
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Lista representa uma lista de compras/contagem montada pelo gestor.
type Lista struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CountedAt *time.Time `json:"counted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
