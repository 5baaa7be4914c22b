package draftrepo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/repository/draftrepo"
)

// fakeCache é uma implementação em memória de cache.Client com injeção de
// falhas, usada para exercitar a cadeia de fallback do Store.
type fakeCache struct {
	data    map[string]string
	failAll bool // quando true, toda operação devolve erro de conexão
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

var errConexao = errors.New("connection refused")

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.failAll {
		return "", errConexao
	}
	val, ok := f.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeCache) GetInt(ctx context.Context, key string) (int, error) {
	return 0, cache.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.failAll {
		return errConexao
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		f.data[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) error { return nil }

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	if f.failAll {
		return errConexao
	}
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

func rascunhoDeTeste(key string) domain.Draft {
	return domain.Draft{
		Key:       key,
		UpdatedAt: 1700000000000,
		Items: []domain.StockLine{
			{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "3+2", MinimumQuantity: 5, Changed: true},
			{ID: 2, ItemID: 11, Name: "Óleo", Unit: "l", CurrentQuantity: "1,5", MinimumQuantity: 2, Changed: true},
		},
		OriginalItems: []domain.StockLine{
			{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "0", MinimumQuantity: 5},
			{ID: 2, ItemID: 11, Name: "Óleo", Unit: "l", CurrentQuantity: "1", MinimumQuantity: 2},
		},
		Meta: map[string]interface{}{"name": "Cozinha"},
	}
}

// TestSaveLoad_RoundTrip garante que Save seguido de Load devolve um rascunho
// profundamente igual ao gravado.
func TestSaveLoad_RoundTrip(t *testing.T) {
	primary := newFakeCache()
	store := draftrepo.NewStore(primary, 8, 0, logger.NewLogger("error"))
	ctx := context.Background()

	draft := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 7))
	store.Save(ctx, draft)

	loaded, ok := store.Load(ctx, draft.Key)
	assert.True(t, ok)
	assert.Equal(t, draft, loaded)
}

// TestRemove_Idempotente: Remove seguido de Load devolve ausência, e remover
// chave inexistente não é erro.
func TestRemove_Idempotente(t *testing.T) {
	primary := newFakeCache()
	store := draftrepo.NewStore(primary, 8, 0, logger.NewLogger("error"))
	ctx := context.Background()

	draft := rascunhoDeTeste(domain.DraftKey(domain.ScopeLista, 3))
	store.Save(ctx, draft)

	store.Remove(ctx, draft.Key)
	_, ok := store.Load(ctx, draft.Key)
	assert.False(t, ok)

	// Remover de novo (chave já ausente) não pode gerar pânico nem erro.
	store.Remove(ctx, draft.Key)
	store.Remove(ctx, "draft:area:999")
}

// TestSave_FallbackQuandoPrimarioFalha: com o meio primário fora do ar, o
// rascunho sobrevive no meio secundário e o fluxo nunca vê erro.
func TestSave_FallbackQuandoPrimarioFalha(t *testing.T) {
	primary := newFakeCache()
	primary.failAll = true
	store := draftrepo.NewStore(primary, 8, 0, logger.NewLogger("error"))
	ctx := context.Background()

	draft := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 1))
	store.Save(ctx, draft)

	loaded, ok := store.Load(ctx, draft.Key)
	assert.True(t, ok)
	assert.Equal(t, draft, loaded)
}

// TestSave_SemMeioPrimario: o Store funciona com primário ausente (nil).
func TestSave_SemMeioPrimario(t *testing.T) {
	store := draftrepo.NewStore(nil, 8, 0, logger.NewLogger("error"))
	ctx := context.Background()

	draft := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 2))
	store.Save(ctx, draft)

	loaded, ok := store.Load(ctx, draft.Key)
	assert.True(t, ok)
	assert.Equal(t, draft, loaded)
}

// TestLoad_RegistroCorrompido: JSON inválido no primário conta como ausência
// e cai para o secundário sem propagar erro.
func TestLoad_RegistroCorrompido(t *testing.T) {
	primary := newFakeCache()
	store := draftrepo.NewStore(primary, 8, 0, logger.NewLogger("error"))
	ctx := context.Background()

	key := domain.DraftKey(domain.ScopeLista, 9)
	primary.data[key] = "{isto não é json"

	_, ok := store.Load(ctx, key)
	assert.False(t, ok)
}

// TestFallback_CapacidadeLimitada: o meio secundário descarta a gravação mais
// antiga quando a capacidade é atingida.
func TestFallback_CapacidadeLimitada(t *testing.T) {
	// Sem primário, tudo vai para o secundário com capacidade 2.
	store := draftrepo.NewStore(nil, 2, 0, logger.NewLogger("error"))
	ctx := context.Background()

	first := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 1))
	second := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 2))
	third := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 3))

	store.Save(ctx, first)
	store.Save(ctx, second)
	store.Save(ctx, third)

	_, ok := store.Load(ctx, first.Key)
	assert.False(t, ok, "a chave mais antiga deveria ter sido descartada")

	_, ok = store.Load(ctx, second.Key)
	assert.True(t, ok)
	_, ok = store.Load(ctx, third.Key)
	assert.True(t, ok)
}

// TestTelemetria_FalhaDoPrimario: falhas engolidas ficam visíveis via hook.
func TestTelemetria_FalhaDoPrimario(t *testing.T) {
	primary := newFakeCache()
	primary.failAll = true

	var events []string
	log := logger.NewLoggerWithHook("error", func(event string, fields map[string]interface{}) {
		events = append(events, event)
	})

	store := draftrepo.NewStore(primary, 8, 0, log)
	ctx := context.Background()

	draft := rascunhoDeTeste(domain.DraftKey(domain.ScopeArea, 4))
	store.Save(ctx, draft)
	store.Load(ctx, draft.Key)
	store.Remove(ctx, draft.Key)

	assert.Contains(t, events, draftrepo.EventPrimarySaveFailed)
	assert.Contains(t, events, draftrepo.EventPrimaryLoadFailed)
	assert.Contains(t, events, draftrepo.EventPrimaryRemoveFailed)
}
