package domain

import (
	"context"
	"time"
)

// Fornecedor representa um fornecedor cadastrado no sistema.
type Fornecedor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"` // número usado nos envios de pedido (WhatsApp)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FornecedorRepository define o contrato de persistência para fornecedores.
type FornecedorRepository interface {
	Save(ctx context.Context, f Fornecedor) (Fornecedor, error)
	FindByID(ctx context.Context, id string) (Fornecedor, error)
	FindAll(ctx context.Context) ([]Fornecedor, error)
}

// FornecedorService define o contrato de lógica de negócio para fornecedores.
type FornecedorService interface {
	Create(ctx context.Context, f Fornecedor) (Fornecedor, error)
	GetByID(ctx context.Context, id string) (Fornecedor, error)
	List(ctx context.Context) ([]Fornecedor, error)
}
