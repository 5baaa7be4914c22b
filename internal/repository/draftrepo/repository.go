// Package draftrepo implementa o armazenamento de rascunhos de contagem
// offline: um KV durável e assíncrono (Redis) como meio primário, com um meio
// secundário síncrono e de menor capacidade (memória) quando o primário está
// indisponível.
//
// Persistir rascunho é conveniência, nunca dependência rígida: nenhuma
// operação deste pacote devolve erro ao chamador. Falhas degradam para
// "tenta o secundário, depois desiste em silêncio", registradas via telemetria
// para que o operador enxergue falhas sistêmicas de armazenamento.
package draftrepo

import (
	"context"
	"encoding/json"
	"time"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
)

// Eventos de telemetria emitidos quando a cadeia de fallback é acionada.
const (
	EventPrimarySaveFailed   = "draft_store.primary_save_failed"
	EventPrimaryLoadFailed   = "draft_store.primary_load_failed"
	EventPrimaryRemoveFailed = "draft_store.primary_remove_failed"
	EventCorruptRecord       = "draft_store.corrupt_record"
)

// Store persiste registros domain.Draft endereçados pela chave
// `draft:<escopo>:<id>` (ver domain.DraftKey).
type Store struct {
	primary  cache.Client // pode ser nil quando o Redis não está configurado
	fallback *memoryStore
	ttl      time.Duration // 0 = rascunho nunca expira no meio primário
	logger   logger.Logger
}

// NewStore cria o armazenamento de rascunhos.
// Esta função é chamada no main.go.
func NewStore(primary cache.Client, fallbackCapacity int, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		primary:  primary,
		fallback: newMemoryStore(fallbackCapacity),
		ttl:      ttl,
		logger:   log,
	}
}

// Save grava (upsert) o rascunho completo sob draft.Key.
// Nunca devolve erro: uma falha de armazenamento não pode interromper o fluxo
// de edição do usuário.
func (s *Store) Save(ctx context.Context, draft domain.Draft) {
	payload, err := json.Marshal(draft)
	if err != nil {
		// Draft é serializável por construção; se chegar aqui é bug, não
		// condição operacional: registra e desiste.
		s.logger.Error("Falha ao serializar rascunho.", err)
		return
	}

	if s.primary != nil {
		err := s.primary.Set(ctx, draft.Key, payload, s.ttl)
		if err == nil {
			return
		}
		s.logger.Telemetry(EventPrimarySaveFailed, map[string]interface{}{
			"key":   draft.Key,
			"error": err.Error(),
		})
	}

	// Meio secundário: síncrono, em memória, capacidade limitada.
	s.fallback.save(draft)
}

// Load busca o rascunho pela chave. Procura no meio primário e, em caso de
// falha, ausência ou registro corrompido, no secundário. ok=false quando a
// chave não existe em nenhum dos dois.
func (s *Store) Load(ctx context.Context, key string) (domain.Draft, bool) {
	if s.primary != nil {
		raw, err := s.primary.Get(ctx, key)
		switch {
		case err == nil:
			var draft domain.Draft
			if unmarshalErr := json.Unmarshal([]byte(raw), &draft); unmarshalErr == nil {
				return draft, true
			}
			// Registro corrompido conta como ausência, não como erro.
			s.logger.Telemetry(EventCorruptRecord, map[string]interface{}{
				"key":   key,
				"error": "json inválido no meio primário",
			})
		case err == cache.ErrCacheMiss:
			// Ausência limpa no primário; ainda pode existir no secundário.
		default:
			s.logger.Telemetry(EventPrimaryLoadFailed, map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return s.fallback.load(key)
}

// Remove apaga a chave dos dois meios, incondicionalmente.
// Remover uma chave inexistente não é erro (operação idempotente).
func (s *Store) Remove(ctx context.Context, key string) {
	if s.primary != nil {
		if err := s.primary.Delete(ctx, key); err != nil {
			s.logger.Telemetry(EventPrimaryRemoveFailed, map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	s.fallback.remove(key)
}
