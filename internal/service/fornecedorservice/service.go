package fornecedorservice

import (
	"context"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// Service implementa a interface domain.FornecedorService.
type Service struct {
	repo   domain.FornecedorRepository
	logger logger.Logger
}

// NewService cria uma nova instância do serviço de fornecedores.
func NewService(repo domain.FornecedorRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Create cadastra um novo fornecedor após validação básica.
func (s *Service) Create(ctx context.Context, f domain.Fornecedor) (domain.Fornecedor, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)

	if f.Name == "" {
		return domain.Fornecedor{}, apperror.NewValidationError("O nome do fornecedor não pode ser vazio.")
	}
	if f.Phone == "" {
		return domain.Fornecedor{}, apperror.NewValidationError("O telefone do fornecedor é obrigatório para o envio de pedidos.")
	}

	created, err := s.repo.Save(ctx, f)
	if err != nil {
		s.logger.Error("Falha ao cadastrar fornecedor.", err)
		return domain.Fornecedor{}, err
	}

	s.logger.Info("Fornecedor cadastrado.", map[string]interface{}{"fornecedor_id": created.ID})
	return created, nil
}

// GetByID busca um fornecedor pelo ID.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Fornecedor, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Fornecedor{}, apperror.NewValidationError("O ID do fornecedor é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// List devolve todos os fornecedores cadastrados.
func (s *Service) List(ctx context.Context) ([]domain.Fornecedor, error) {
	return s.repo.FindAll(ctx)
}
