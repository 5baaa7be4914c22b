// Package contagemservice coordena o ciclo de vida de uma contagem de estoque:
// busca do estado autoritativo no servidor, reconciliação com um rascunho
// local pendente, persistência debounced das edições não salvas e limpeza do
// rascunho quando o envio é confirmado.
//
// A mesma lógica atende as telas de contagem por área e por lista: uma
// sessão por chave de rascunho, nunca duas sessões abertas para a mesma chave.
package contagemservice

import (
	"context"
	"sync"
	"time"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// StateFetcher é o colaborador que fornece o estado autoritativo do servidor:
// a lista de linhas de estoque e o nome de exibição da área/lista.
type StateFetcher interface {
	FetchItems(ctx context.Context, scope domain.DraftScope, id int64) ([]domain.StockLine, error)
	FetchName(ctx context.Context, scope domain.DraftScope, id int64) (string, error)
}

// CountSaver é o colaborador que grava o lote de contagens validadas.
type CountSaver interface {
	ApplyCounts(ctx context.Context, scope domain.DraftScope, id int64, updates []domain.QuantityUpdate, finalize bool) error
}

// DraftStore é o contrato de persistência de rascunhos (ver draftrepo).
// Nenhuma operação devolve erro: persistir rascunho é best-effort.
type DraftStore interface {
	Save(ctx context.Context, draft domain.Draft)
	Load(ctx context.Context, key string) (domain.Draft, bool)
	Remove(ctx context.Context, key string)
}

// Service mantém o registro de sessões de contagem abertas, uma por chave de
// rascunho (escopo + id).
type Service struct {
	fetcher  StateFetcher
	saver    CountSaver
	drafts   DraftStore
	debounce time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService cria o serviço de contagem. debounce é a janela de silêncio antes
// de persistir edições não salvas (~400ms em produção; os testes injetam
// janelas curtas).
func NewService(fetcher StateFetcher, saver CountSaver, drafts DraftStore, debounce time.Duration, log logger.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		saver:    saver,
		drafts:   drafts,
		debounce: debounce,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// Open abre (ou reabre) a sessão de contagem de uma área/lista, executando a
// reconciliação: busca o servidor, procura rascunho pendente e mescla os dois.
// Reabrir uma chave já aberta descarta a sessão anterior; equivale a montar a
// tela de novo.
func (s *Service) Open(ctx context.Context, scope domain.DraftScope, id int64) (SessionState, error) {
	if !scope.Valid() {
		return SessionState{}, apperror.NewValidationError("Escopo de contagem inválido. Use 'area' ou 'lista'.")
	}

	key := domain.DraftKey(scope, id)

	s.mu.Lock()
	if prev, ok := s.sessions[key]; ok {
		prev.stopTimer()
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	session, err := s.reconcile(ctx, scope, id, key)
	if err != nil {
		return SessionState{}, err
	}

	s.mu.Lock()
	s.sessions[key] = session
	s.mu.Unlock()

	return session.Snapshot(), nil
}

// reconcile implementa a máquina de estados de carregamento:
// fetch ok + sem rascunho  -> adota o servidor;
// fetch ok + com rascunho  -> mescla (servidor autoritativo, valor do rascunho);
// fetch falhou + rascunho  -> modo offline com os dados do rascunho;
// fetch falhou + nada      -> erro (tela inutilizável para edição).
func (s *Service) reconcile(ctx context.Context, scope domain.DraftScope, id int64, key string) (*Session, error) {
	// As duas buscas ao servidor saem em paralelo.
	var (
		wg       sync.WaitGroup
		items    []domain.StockLine
		itemsErr error
		name     string
		nameErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		items, itemsErr = s.fetcher.FetchItems(ctx, scope, id)
	}()
	go func() {
		defer wg.Done()
		name, nameErr = s.fetcher.FetchName(ctx, scope, id)
	}()
	wg.Wait()

	if itemsErr != nil {
		// Fetch falhou: o rascunho é a única fonte disponível.
		draft, found := s.drafts.Load(ctx, key)
		if !found {
			s.logger.Error("Falha ao carregar contagem e nenhum rascunho disponível.", itemsErr)
			return nil, itemsErr
		}

		s.logger.Warn("Servidor indisponível; contagem aberta em modo offline a partir do rascunho.", map[string]interface{}{"key": key})

		offlineItems := cloneLines(draft.Items)
		for i := range offlineItems {
			// Nada está confirmado contra o servidor neste modo.
			offlineItems[i].Changed = true
		}

		return s.newSession(scope, id, key, draft.MetaName(), offlineItems, cloneLines(draft.OriginalItems), true, true), nil
	}

	// Fetch ok; o nome é best-effort (um rascunho pode supri-lo).
	draft, found := s.drafts.Load(ctx, key)
	if nameErr != nil {
		name = draft.MetaName()
	}

	if !found {
		return s.newSession(scope, id, key, name, cloneLines(items), cloneLines(items), false, false), nil
	}

	s.logger.Info("Rascunho pendente restaurado na abertura da contagem.", map[string]interface{}{"key": key})
	merged := Merge(items, draft.Items)
	return s.newSession(scope, id, key, name, merged, cloneLines(items), false, true), nil
}

// Session devolve a sessão aberta para a chave, se existir.
func (s *Service) Session(scope domain.DraftScope, id int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[domain.DraftKey(scope, id)]
	return session, ok
}

// Close encerra a sessão: interrompe o timer de debounce, faz uma gravação
// final síncrona do rascunho e remove a sessão do registro. Fechar uma sessão
// inexistente não é erro.
func (s *Service) Close(ctx context.Context, scope domain.DraftScope, id int64) {
	key := domain.DraftKey(scope, id)

	s.mu.Lock()
	session, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	session.close(ctx)
}
