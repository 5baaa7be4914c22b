package fornecedorrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// FornecedorRepository implementa a interface domain.FornecedorRepository.
type FornecedorRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewFornecedorRepository cria e retorna uma nova instância do Repositório de Fornecedores.
func NewFornecedorRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *FornecedorRepository {
	return &FornecedorRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo fornecedor no banco de dados.
func (r *FornecedorRepository) Save(ctx context.Context, f domain.Fornecedor) (domain.Fornecedor, error) {
	r.logger.Debug("Iniciando Save de fornecedor no repositório.", map[string]interface{}{"name": f.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	query := `
        INSERT INTO fornecedores (id, name, email, phone, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(ctxTimeout, query, f.ID, f.Name, f.Email, f.Phone, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		// unique_violation indica e-mail já cadastrado
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.Fornecedor{}, errors.NewConflictError(fmt.Sprintf("O fornecedor com e-mail '%s' já está cadastrado.", f.Email))
		}
		r.logger.Error("Falha ao inserir fornecedor no DB.", err)
		return domain.Fornecedor{}, errors.NewDBError("Falha ao inserir fornecedor", err)
	}

	r.logger.Info("Fornecedor salvo com sucesso.", map[string]interface{}{"fornecedor_id": f.ID})
	return f, nil
}

// FindByID busca um fornecedor pelo ID.
func (r *FornecedorRepository) FindByID(ctx context.Context, id string) (domain.Fornecedor, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, email, phone, created_at, updated_at FROM fornecedores WHERE id = $1`

	var f domain.Fornecedor
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&f.ID, &f.Name, &f.Email, &f.Phone, &f.CreatedAt, &f.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Fornecedor{}, errors.NewNotFoundError(fmt.Sprintf("Fornecedor %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar fornecedor no DB.", err)
		return domain.Fornecedor{}, errors.NewDBError("Falha ao buscar fornecedor", err)
	}

	return f, nil
}

// FindAll lista todos os fornecedores cadastrados.
func (r *FornecedorRepository) FindAll(ctx context.Context) ([]domain.Fornecedor, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, email, phone, created_at, updated_at FROM fornecedores ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao buscar fornecedores no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar fornecedores", err)
	}
	defer rows.Close()

	var fornecedores []domain.Fornecedor
	for rows.Next() {
		var f domain.Fornecedor
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Phone, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler fornecedor", err)
		}
		fornecedores = append(fornecedores, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar fornecedores", err)
	}

	return fornecedores, nil
}
