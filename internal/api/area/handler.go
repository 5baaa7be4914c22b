package area

import (
	"context"
	"encoding/json"
	"net/http"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// AreaRepository define o contrato de leitura que o Handler espera.
// Áreas e listas são cadastros simples; não há camada de serviço entre eles.
type AreaRepository interface {
	FindAllAreas(ctx context.Context) ([]domain.Area, error)
	FindAllListas(ctx context.Context) ([]domain.Lista, error)
}

// Handler agrupa os métodos de Handler de áreas e listas.
type Handler struct {
	Repo   AreaRepository
	Logger logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(repo AreaRepository, log logger.Logger) *Handler {
	return &Handler{Repo: repo, Logger: log}
}

func (h *Handler) respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		status, category, message := apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error("Erro ao listar cadastros.", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":     status,
			"category": category,
			"message":  message,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}

// ListAreasHandler lida com GET /v1/areas.
func (h *Handler) ListAreasHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	areas, err := h.Repo.FindAllAreas(r.Context())
	if areas == nil && err == nil {
		areas = []domain.Area{}
	}
	h.respond(w, areas, err)
}

// ListListasHandler lida com GET /v1/listas.
func (h *Handler) ListListasHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	listas, err := h.Repo.FindAllListas(r.Context())
	if listas == nil && err == nil {
		listas = []domain.Lista{}
	}
	h.respond(w, listas, err)
}
