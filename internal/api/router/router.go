package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gosupply/internal/api/area"
	"gosupply/internal/api/contagem"
	"gosupply/internal/api/fornecedor"
	"gosupply/internal/api/user"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/middleware"
)

// Dependencies reúne tudo o que o roteador precisa já inicializado.
type Dependencies struct {
	UserHandler       *user.Handler
	AreaHandler       *area.Handler
	ContagemHandler   *contagem.Handler
	FornecedorHandler *fornecedor.Handler
	TokenService      middleware.TokenService
	CacheClient       cache.Client
	RateLimitMax      int
	RateLimitPeriod   time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(deps Dependencies) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	// Em projetos maiores, pode-se usar um mux de terceiros (e.g., gorilla/mux, chi)
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(deps.TokenService)
	gestorOnly := middleware.PermissionMiddleware(domain.RoleGestor)
	limiter := middleware.RateLimiter(deps.CacheClient, deps.RateLimitMax, deps.RateLimitPeriod)

	// --- 1. Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Documentação (Swagger UI sobre api/swagger.json) ---
	mux.HandleFunc("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "api/swagger.json")
	})
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	// --- 3. Rotas públicas (com rate limit por IP) ---
	mux.Handle("/v1/register", limiter(http.HandlerFunc(deps.UserHandler.RegisterUserHandler)))
	mux.Handle("/v1/login", limiter(http.HandlerFunc(deps.UserHandler.LoginUserHandler)))

	// --- 4. Cadastros (áreas, listas e fornecedores) ---
	mux.HandleFunc("/v1/areas", auth(deps.AreaHandler.ListAreasHandler))
	mux.HandleFunc("/v1/listas", auth(deps.AreaHandler.ListListasHandler))

	// POST de fornecedor é restrito ao papel gestor; GET é liberado a qualquer
	// usuário autenticado.
	mux.HandleFunc("/v1/fornecedores", auth(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			gestorOnly(deps.FornecedorHandler.CollectionHandler)(w, r)
			return
		}
		deps.FornecedorHandler.CollectionHandler(w, r)
	}))
	mux.HandleFunc("/v1/fornecedores/", auth(deps.FornecedorHandler.GetByIDHandler))

	// --- 5. Sessões de contagem ---
	// Toda a subárvore /v1/contagens/{scope}/{id}/... é resolvida pelo
	// próprio handler, que extrai escopo, id e ação do caminho.
	mux.HandleFunc("/v1/contagens/", auth(deps.ContagemHandler.Dispatch))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
