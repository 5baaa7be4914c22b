package contagem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/service/contagemservice"
)

// ContagemService define o contrato que o Handler espera da camada de Serviço.
type ContagemService interface {
	Open(ctx context.Context, scope domain.DraftScope, id int64) (contagemservice.SessionState, error)
	Session(scope domain.DraftScope, id int64) (*contagemservice.Session, bool)
	Close(ctx context.Context, scope domain.DraftScope, id int64)
}

// Handler agrupa os métodos de Handler das telas de contagem.
type Handler struct {
	Service ContagemService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ContagemService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// EditRequest é o payload de edição de uma quantidade.
// O valor segue como texto, pois pode ser uma expressão ainda incompleta.
type EditRequest struct {
	CurrentQuantity string `json:"currentQuantity"`
}

// SaveResponse combina o resultado do salvar/enviar com o estado da sessão.
type SaveResponse struct {
	contagemservice.SaveOutcome
	State contagemservice.SessionState `json:"state"`
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
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
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

// Dispatch roteia as sub-rotas de /v1/contagens/{escopo}/{id}/...
// O ServeMux padrão não extrai parâmetros de caminho, então o parsing é manual.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/contagens/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Rota de contagem inválida."), 0)
		return
	}

	scope := domain.DraftScope(parts[0])
	if !scope.Valid() {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Escopo de contagem inválido. Use 'area' ou 'lista'."), 0)
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O id da área/lista deve ser numérico."), 0)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.closeSession(w, r, scope, id)
	case len(parts) == 3 && parts[2] == "abrir" && r.Method == http.MethodPost:
		h.openSession(w, r, scope, id)
	case len(parts) == 3 && parts[2] == "salvar" && r.Method == http.MethodPost:
		h.save(w, r, scope, id, false)
	case len(parts) == 3 && parts[2] == "enviar" && r.Method == http.MethodPost:
		h.save(w, r, scope, id, true)
	case len(parts) == 4 && parts[2] == "itens" && r.Method == http.MethodPut:
		lineID, convErr := strconv.ParseInt(parts[3], 10, 64)
		if convErr != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O id da linha de estoque deve ser numérico."), 0)
			return
		}
		h.edit(w, r, scope, id, lineID)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// openSession lida com POST /v1/contagens/{escopo}/{id}/abrir.
// @Summary Abre uma sessão de contagem
// @Description Busca o estado do servidor, reconcilia com rascunho pendente e devolve a tela pronta para edição (possivelmente em modo offline).
// @Tags contagens
// @Produce json
// @Success 200 {object} contagemservice.SessionState "Sessão aberta"
// @Failure 400 {object} domain.ErrorResponse "Escopo ou id inválido"
// @Failure 503 {object} domain.ErrorResponse "Servidor de dados indisponível e sem rascunho local"
// @Router /contagens/{escopo}/{id}/abrir [post]
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request, scope domain.DraftScope, id int64) {
	state, err := h.Service.Open(r.Context(), scope, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, state, nil, http.StatusOK)
}

// edit lida com PUT /v1/contagens/{escopo}/{id}/itens/{linha}.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, scope domain.DraftScope, id, lineID int64) {
	session, ok := h.Service.Session(scope, id)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewNotFoundError("Nenhuma sessão de contagem aberta para esta chave. Abra a contagem primeiro."), 0)
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	state, err := session.Edit(lineID, req.CurrentQuantity)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, state, nil, http.StatusOK)
}

// save lida com POST .../salvar e .../enviar (finalize).
func (h *Handler) save(w http.ResponseWriter, r *http.Request, scope domain.DraftScope, id int64, finalize bool) {
	session, ok := h.Service.Session(scope, id)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewNotFoundError("Nenhuma sessão de contagem aberta para esta chave. Abra a contagem primeiro."), 0)
		return
	}

	outcome, err := session.Save(r.Context(), finalize)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	resp := SaveResponse{SaveOutcome: outcome, State: session.Snapshot()}

	// Bloqueio local por linhas não interpretáveis: 422, com as linhas apontadas.
	status := http.StatusOK
	if len(outcome.InvalidIDs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	h.handleServiceResponse(w, r, resp, nil, status)
}

// closeSession lida com DELETE /v1/contagens/{escopo}/{id}.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request, scope domain.DraftScope, id int64) {
	h.Service.Close(r.Context(), scope, id)
	w.WriteHeader(http.StatusNoContent)
}
