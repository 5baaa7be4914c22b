package draftrepo

import (
	"sync"

	"gosupply/internal/domain"
)

// memoryStore é o meio secundário de persistência de rascunhos: um mapa em
// memória protegido por mutex, com capacidade limitada. Ele existe para o
// cenário em que o meio primário (Redis) está indisponível: os rascunhos
// sobrevivem pelo menos ao tempo de vida do processo.
type memoryStore struct {
	mu       sync.Mutex
	capacity int
	drafts   map[string]domain.Draft
	order    []string // chaves na ordem de primeira gravação, para eviction
}

func newMemoryStore(capacity int) *memoryStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &memoryStore{
		capacity: capacity,
		drafts:   make(map[string]domain.Draft),
	}
}

// save grava (ou sobrescreve) um rascunho. Quando a capacidade é atingida,
// a chave gravada há mais tempo é descartada.
func (m *memoryStore) save(draft domain.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drafts[draft.Key]; !exists {
		if len(m.order) >= m.capacity {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.drafts, oldest)
		}
		m.order = append(m.order, draft.Key)
	}
	m.drafts[draft.Key] = draft
}

// load devolve uma cópia do rascunho, se existir.
func (m *memoryStore) load(key string) (domain.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft, ok := m.drafts[key]
	return draft, ok
}

// remove apaga a chave; remover uma chave inexistente não é erro.
func (m *memoryStore) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drafts[key]; !exists {
		return
	}
	delete(m.drafts, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
