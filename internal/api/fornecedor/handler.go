package fornecedor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// Handler agrupa os métodos de Handler de fornecedores.
type Handler struct {
	Service domain.FornecedorService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.FornecedorService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// CollectionHandler lida com GET e POST /v1/fornecedores.
// @Summary Lista ou cadastra fornecedores
// @Tags fornecedores
// @Accept json
// @Produce json
// @Success 200 {array} domain.Fornecedor
// @Success 201 {object} domain.Fornecedor
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Router /fornecedores [get]
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		fornecedores, err := h.Service.List(r.Context())
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, 0)
			return
		}
		if fornecedores == nil {
			fornecedores = []domain.Fornecedor{}
		}
		h.handleServiceResponse(w, r, fornecedores, nil, http.StatusOK)

	case http.MethodPost:
		var f domain.Fornecedor
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
			return
		}

		created, err := h.Service.Create(r.Context(), f)
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, 0)
			return
		}
		h.handleServiceResponse(w, r, created, nil, http.StatusCreated)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// GetByIDHandler lida com GET /v1/fornecedores/{id}.
func (h *Handler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/fornecedores/")
	f, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, f, nil, http.StatusOK)
}
