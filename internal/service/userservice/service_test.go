package userservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/token"
	"gosupply/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface domain.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService é uma implementação mock da interface TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

func TestRegister_Sucesso(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		// A senha nunca pode chegar ao repositório em texto puro.
		if u.PasswordHash == "senha-forte" {
			return false
		}
		err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("senha-forte"))
		return err == nil && u.Email == "chef@restaurante.com" && u.Role == domain.RoleOperador
	})).Return(domain.User{ID: "user-1", Email: "chef@restaurante.com", Role: domain.RoleOperador}, nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "chef@restaurante.com",
		Password: "senha-forte",
	})

	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	repo.AssertExpectations(t)
}

func TestRegister_CamposObrigatorios(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "", Password: ""})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "Save")
}

func TestRegister_EmailDuplicado(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	conflict := apperror.NewConflictError("O usuário com e-mail 'chef@restaurante.com' já está cadastrado.")
	repo.On("Save", mock.Anything, mock.Anything).Return(domain.User{}, conflict)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "chef@restaurante.com",
		Password: "senha-forte",
	})

	assert.Error(t, err)
	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestLogin_Sucesso(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	hash, _ := bcrypt.GenerateFromPassword([]byte("senha-forte"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "chef@restaurante.com").Return(domain.User{
		ID:           "user-1",
		Email:        "chef@restaurante.com",
		PasswordHash: string(hash),
		Role:         domain.RoleGestor,
	}, nil)
	tokenSvc.On("GenerateToken", "user-1", "gestor").Return("jwt-assinado", nil)

	tokenString, err := svc.Login(context.Background(), "chef@restaurante.com", "senha-forte")

	assert.NoError(t, err)
	assert.Equal(t, "jwt-assinado", tokenString)
	tokenSvc.AssertExpectations(t)
}

func TestLogin_SenhaIncorreta(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	hash, _ := bcrypt.GenerateFromPassword([]byte("senha-forte"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "chef@restaurante.com").Return(domain.User{
		ID:           "user-1",
		PasswordHash: string(hash),
	}, nil)

	_, err := svc.Login(context.Background(), "chef@restaurante.com", "senha-errada")

	assert.Error(t, err)
	var unauthorizedErr *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorizedErr)
	tokenSvc.AssertNotCalled(t, "GenerateToken")
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := userservice.NewService(repo, tokenSvc, logger.NewLogger("error"))

	notFound := apperror.NewNotFoundError("Usuário não encontrado.")
	repo.On("FindByEmail", mock.Anything, "fantasma@restaurante.com").Return(domain.User{}, notFound)

	_, err := svc.Login(context.Background(), "fantasma@restaurante.com", "qualquer")

	// NotFound não pode vazar: a resposta é a mesma de senha incorreta.
	assert.Error(t, err)
	var unauthorizedErr *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorizedErr)
}
