package contagemservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/quantity"
)

// flushTimeout limita a gravação de rascunho disparada pelo timer de
// debounce, que roda fora de qualquer requisição.
const flushTimeout = 5 * time.Second

// Session é uma tela de contagem aberta: o estado em memória das edições do
// usuário para uma área/lista, com persistência debounced em rascunho.
type Session struct {
	svc     *Service
	scope   domain.DraftScope
	scopeID int64
	key     string

	mu            sync.Mutex
	name          string
	items         []domain.StockLine
	baseline      []domain.StockLine // último estado confirmado pelo servidor
	offline       bool
	draftRestored bool
	closed        bool
	timer         *time.Timer
}

// SessionState é o snapshot devolvido ao handler após abrir/editar/salvar.
type SessionState struct {
	Scope         domain.DraftScope  `json:"scope"`
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Items         []domain.StockLine `json:"items"`
	Offline       bool               `json:"offline"`
	DraftRestored bool               `json:"draftRestored"`
}

// SaveOutcome descreve o resultado de um salvar/enviar que não foi uma falha
// genérica: sucesso, bloqueio local por linhas inválidas, ou salvamento apenas
// local porque o servidor estava inacessível.
type SaveOutcome struct {
	Saved        bool    `json:"saved"`
	SavedLocally bool    `json:"savedLocally"`
	InvalidIDs   []int64 `json:"invalidIds,omitempty"`
}

func (s *Service) newSession(scope domain.DraftScope, id int64, key, name string, items, baseline []domain.StockLine, offline, draftRestored bool) *Session {
	return &Session{
		svc:           s,
		scope:         scope,
		scopeID:       id,
		key:           key,
		name:          name,
		items:         items,
		baseline:      baseline,
		offline:       offline,
		draftRestored: draftRestored,
	}
}

// Snapshot devolve uma cópia do estado atual da sessão.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionState {
	return SessionState{
		Scope:         s.scope,
		ID:            s.scopeID,
		Name:          s.name,
		Items:         cloneLines(s.items),
		Offline:       s.offline,
		DraftRestored: s.draftRestored,
	}
}

// Edit aplica uma tecla do usuário: atualiza o texto da quantidade, recalcula
// Changed contra o baseline e (re)arma o timer de persistência debounced.
// O texto é aceito mesmo quando ainda não é um número válido ("3+", ",").
func (s *Session) Edit(lineID int64, raw string) (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SessionState{}, apperror.NewValidationError("A sessão de contagem já foi encerrada.")
	}

	idx := -1
	for i := range s.items {
		if s.items[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return SessionState{}, apperror.NewNotFoundError(fmt.Sprintf("Linha de estoque %d não faz parte desta contagem.", lineID))
	}

	s.items[idx].CurrentQuantity = raw
	s.items[idx].Changed = s.changedLocked(lineID, raw)

	s.armTimerLocked()

	return s.snapshotLocked(), nil
}

// changedLocked compara o valor digitado com o baseline pelo número
// interpretado, não pelo texto: "3" e "3.0" não contam como alteração, e um
// valor não interpretável conta sempre (não dá para confirmar que está igual).
func (s *Session) changedLocked(lineID int64, raw string) bool {
	for i := range s.baseline {
		if s.baseline[i].ID == lineID {
			return !quantity.Equal(raw, s.baseline[i].CurrentQuantity)
		}
	}
	// Sem baseline correspondente, não há como confirmar o valor.
	return true
}

// armTimerLocked (re)agenda a gravação do rascunho para depois da janela de
// silêncio. Rajadas de edição colapsam em uma única gravação.
func (s *Session) armTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.svc.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.flushLocked(ctx)
	})
}

// flushLocked materializa o estado atual no armazenamento de rascunhos:
// grava quando existe alguma linha alterada; caso contrário remove qualquer
// rascunho pendente (não gravamos rascunhos vazios).
func (s *Session) flushLocked(ctx context.Context) {
	for i := range s.items {
		if s.items[i].Changed {
			s.svc.drafts.Save(ctx, domain.Draft{
				Key:           s.key,
				UpdatedAt:     time.Now().UnixMilli(),
				Items:         cloneLines(s.items),
				OriginalItems: cloneLines(s.baseline),
				Meta:          map[string]interface{}{"name": s.name},
			})
			return
		}
	}
	s.svc.drafts.Remove(ctx, s.key)
}

// Save valida e envia o lote de contagens ao servidor.
// finalize distingue "salvar contagem" (parcial) de "enviar contagem"
// (definitivo, marca a área/lista como contada).
//
// Nenhum caminho de falha descarta as edições em memória:
//   - linha não interpretável  -> bloqueio local, nenhuma chamada de rede;
//   - servidor inacessível     -> rascunho preservado, resultado "salvo localmente";
//   - outra falha remota       -> erro devolvido, rascunho e edições intactos.
func (s *Session) Save(ctx context.Context, finalize bool) (SaveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SaveOutcome{}, apperror.NewValidationError("A sessão de contagem já foi encerrada.")
	}

	// Qualquer gravação debounced pendente é substituída pelo desfecho daqui.
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	// 1. Validação local: nunca enviar dados parcialmente numéricos.
	updates := make([]domain.QuantityUpdate, 0, len(s.items))
	var invalid []int64
	for i := range s.items {
		value, ok := quantity.Parse(s.items[i].CurrentQuantity)
		if !ok {
			invalid = append(invalid, s.items[i].ID)
			s.items[i].Changed = true
			continue
		}
		updates = append(updates, domain.QuantityUpdate{
			StockLineID:     s.items[i].ID,
			CurrentQuantity: value,
		})
	}
	if len(invalid) > 0 {
		s.svc.logger.Debug("Envio bloqueado localmente: linhas não interpretáveis.", map[string]interface{}{
			"key":     s.key,
			"invalid": len(invalid),
		})
		return SaveOutcome{InvalidIDs: invalid}, nil
	}

	// 2. Chamada remota.
	err := s.svc.saver.ApplyCounts(ctx, s.scope, s.scopeID, updates, finalize)
	if err == nil {
		// Sucesso: re-baseline, limpa flags e apaga o rascunho.
		for i := range s.items {
			s.items[i].Changed = false
		}
		s.baseline = cloneLines(s.items)
		s.offline = false
		s.svc.drafts.Remove(ctx, s.key)
		return SaveOutcome{Saved: true}, nil
	}

	// 3. Falha: o rascunho atual é persistido imediatamente nos dois casos;
	// o trabalho do usuário nunca depende do timer para sobreviver.
	s.flushLocked(ctx)

	if apperror.IsUnreachable(err) {
		s.offline = true
		s.svc.logger.Warn("Servidor inacessível no envio; contagem salva localmente.", map[string]interface{}{"key": s.key})
		return SaveOutcome{SavedLocally: true}, nil
	}

	return SaveOutcome{}, err
}

// stopTimer interrompe o timer de debounce sem gravação final (usado quando a
// sessão é substituída por uma reabertura).
func (s *Session) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.closed = true
}

// close encerra a sessão com uma gravação final síncrona do rascunho.
func (s *Session) close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.flushLocked(ctx)
	s.closed = true
}
