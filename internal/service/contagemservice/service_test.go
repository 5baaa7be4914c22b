package contagemservice_test

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/service/contagemservice"
)

// MockStateFetcher é uma implementação mock da interface StateFetcher.
type MockStateFetcher struct {
	mock.Mock
}

func (m *MockStateFetcher) FetchItems(ctx context.Context, scope domain.DraftScope, id int64) ([]domain.StockLine, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockLine), args.Error(1)
}

func (m *MockStateFetcher) FetchName(ctx context.Context, scope domain.DraftScope, id int64) (string, error) {
	args := m.Called(ctx, scope, id)
	return args.String(0), args.Error(1)
}

// MockCountSaver é uma implementação mock da interface CountSaver.
type MockCountSaver struct {
	mock.Mock
}

func (m *MockCountSaver) ApplyCounts(ctx context.Context, scope domain.DraftScope, id int64, updates []domain.QuantityUpdate, finalize bool) error {
	args := m.Called(ctx, scope, id, updates, finalize)
	return args.Error(0)
}

// fakeDraftStore é um armazenamento de rascunhos em memória que conta as
// gravações, para verificar o comportamento do debounce.
type fakeDraftStore struct {
	mu     sync.Mutex
	drafts map[string]domain.Draft
	saves  int
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{drafts: make(map[string]domain.Draft)}
}

func (f *fakeDraftStore) Save(ctx context.Context, draft domain.Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[draft.Key] = draft
	f.saves++
}

func (f *fakeDraftStore) Load(ctx context.Context, key string) (domain.Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[key]
	return draft, ok
}

func (f *fakeDraftStore) Remove(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, key)
}

func (f *fakeDraftStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func linhasDoServidor() []domain.StockLine {
	return []domain.StockLine{
		{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "0", MinimumQuantity: 5},
		{ID: 2, ItemID: 11, Name: "Óleo", Unit: "l", CurrentQuantity: "2", MinimumQuantity: 1},
	}
}

// TestMerge_Lei verifica a lei do merge: o resultado tem exatamente os ids do
// servidor; valores em edição vêm do rascunho, todo o resto vem do servidor;
// linhas só do rascunho são descartadas.
func TestMerge_Lei(t *testing.T) {
	server := []domain.StockLine{
		{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "0", MinimumQuantity: 5},
		{ID: 2, ItemID: 11, Name: "Óleo", Unit: "l", CurrentQuantity: "2", MinimumQuantity: 1},
		{ID: 3, ItemID: 12, Name: "Açúcar", Unit: "kg", CurrentQuantity: "4", MinimumQuantity: 2},
	}
	draft := []domain.StockLine{
		{ID: 1, Name: "nome velho", CurrentQuantity: "3+2", Changed: true},
		{ID: 3, CurrentQuantity: "4.0", Changed: true},
		{ID: 99, CurrentQuantity: "7", Changed: true}, // não existe mais no servidor
	}

	merged := contagemservice.Merge(server, draft)

	assert.Len(t, merged, 3)

	// id 1: valor do rascunho, demais campos do servidor; 5 != 0 -> alterado.
	assert.Equal(t, "3+2", merged[0].CurrentQuantity)
	assert.Equal(t, "Farinha", merged[0].Name)
	assert.Equal(t, float64(5), merged[0].MinimumQuantity)
	assert.True(t, merged[0].Changed)

	// id 2: não está no rascunho -> idêntico ao servidor, sem alteração.
	assert.Equal(t, server[1].CurrentQuantity, merged[1].CurrentQuantity)
	assert.False(t, merged[1].Changed)

	// id 3: "4.0" interpreta igual a "4" -> valores iguais não contam como alteração.
	assert.Equal(t, "4.0", merged[2].CurrentQuantity)
	assert.False(t, merged[2].Changed)
}

// TestOpen_SemRascunho: abrir a contagem sem rascunho pendente adota o estado
// do servidor como está, sem nada marcado como alterado.
func TestOpen_SemRascunho(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)

	state, err := svc.Open(context.Background(), domain.ScopeArea, 1)

	assert.NoError(t, err)
	assert.Equal(t, "Cozinha", state.Name)
	assert.False(t, state.Offline)
	assert.False(t, state.DraftRestored)
	assert.Len(t, state.Items, 2)
	for _, item := range state.Items {
		assert.False(t, item.Changed)
	}
	fetcher.AssertExpectations(t)
}

// TestEdit_DebounceGravaUmaVez: edições em rajada colapsam em uma única
// gravação de rascunho após a janela de silêncio, contendo o último valor.
func TestEdit_DebounceGravaUmaVez(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)

	session, ok := svc.Session(domain.ScopeArea, 1)
	assert.True(t, ok)

	state, err := session.Edit(1, "2")
	assert.NoError(t, err)
	assert.True(t, state.Items[0].Changed)

	// Segunda edição dentro da janela: reinicia o debounce.
	time.Sleep(20 * time.Millisecond)
	state, err = session.Edit(1, "3")
	assert.NoError(t, err)
	assert.True(t, state.Items[0].Changed)

	// Nenhuma gravação ainda (janela não venceu desde a última edição).
	assert.Equal(t, 0, drafts.saveCount())

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 1, drafts.saveCount(), "rajada de edições deveria gerar exatamente uma gravação")

	draft, found := drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.True(t, found)
	assert.Equal(t, "3", draft.Items[0].CurrentQuantity)
	assert.True(t, draft.Items[0].Changed)
	assert.Equal(t, "0", draft.OriginalItems[0].CurrentQuantity)
	assert.Equal(t, "Cozinha", draft.Meta["name"])
	assert.NotZero(t, draft.UpdatedAt)
}

// TestEdit_SemAlteracaoRemoveRascunho: voltar todos os valores ao baseline faz
// o debounce remover o rascunho em vez de gravar um rascunho vazio.
func TestEdit_SemAlteracaoRemoveRascunho(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 30*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)
	session, _ := svc.Session(domain.ScopeArea, 1)

	_, err = session.Edit(1, "5")
	assert.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	_, found := drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.True(t, found)

	// "0.0" interpreta igual ao baseline "0": nada mais está alterado.
	state, err := session.Edit(1, "0.0")
	assert.NoError(t, err)
	assert.False(t, state.Items[0].Changed)

	time.Sleep(100 * time.Millisecond)
	_, found = drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.False(t, found, "rascunho deveria ter sido removido quando nada está alterado")
}

// TestOpen_OfflineComRascunho: com o servidor fora do ar e um rascunho
// presente, a contagem abre em modo offline com os dados do rascunho, tudo
// marcado como alterado e o nome vindo do meta.
func TestOpen_OfflineComRascunho(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	key := domain.DraftKey(domain.ScopeArea, 1)
	drafts.Save(context.Background(), domain.Draft{
		Key:       key,
		UpdatedAt: time.Now().UnixMilli(),
		Items: []domain.StockLine{
			{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "3", MinimumQuantity: 5, Changed: true},
		},
		OriginalItems: []domain.StockLine{
			{ID: 1, ItemID: 10, Name: "Farinha", Unit: "kg", CurrentQuantity: "0", MinimumQuantity: 5},
		},
		Meta: map[string]interface{}{"name": "Cozinha"},
	})

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(nil, syscall.ECONNREFUSED)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("", syscall.ECONNREFUSED)

	state, err := svc.Open(context.Background(), domain.ScopeArea, 1)

	assert.NoError(t, err)
	assert.True(t, state.Offline)
	assert.True(t, state.DraftRestored)
	assert.Equal(t, "Cozinha", state.Name)
	assert.Len(t, state.Items, 1)
	assert.Equal(t, "3", state.Items[0].CurrentQuantity)
	assert.True(t, state.Items[0].Changed)
}

// TestOpen_FalhaSemRascunho: sem servidor e sem rascunho, a abertura falha e a
// tela fica inutilizável para edição.
func TestOpen_FalhaSemRascunho(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeLista, int64(9)).Return(nil, syscall.ECONNREFUSED)
	fetcher.On("FetchName", mock.Anything, domain.ScopeLista, int64(9)).Return("", syscall.ECONNREFUSED)

	_, err := svc.Open(context.Background(), domain.ScopeLista, 9)
	assert.Error(t, err)

	_, ok := svc.Session(domain.ScopeLista, 9)
	assert.False(t, ok)
}

// TestSave_BloqueadoPorLinhaInvalida: um campo vazio bloqueia o envio
// localmente: nenhuma chamada de rede acontece e a linha é apontada.
func TestSave_BloqueadoPorLinhaInvalida(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)
	session, _ := svc.Session(domain.ScopeArea, 1)

	_, err = session.Edit(1, "")
	assert.NoError(t, err)

	outcome, err := session.Save(context.Background(), true)

	assert.NoError(t, err)
	assert.False(t, outcome.Saved)
	assert.Equal(t, []int64{1}, outcome.InvalidIDs)
	saver.AssertNotCalled(t, "ApplyCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSave_SucessoLimpaRascunho: envio bem-sucedido re-baselina os itens,
// zera os flags e apaga o rascunho da chave.
func TestSave_SucessoLimpaRascunho(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 20*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)
	saver.On("ApplyCounts", mock.Anything, domain.ScopeArea, int64(1), mock.Anything, true).Return(nil)

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)
	session, _ := svc.Session(domain.ScopeArea, 1)

	_, err = session.Edit(1, "3")
	assert.NoError(t, err)
	_, err = session.Edit(2, "4,5")
	assert.NoError(t, err)

	// Garante um rascunho persistido antes do envio.
	time.Sleep(80 * time.Millisecond)
	_, found := drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.True(t, found)

	outcome, err := session.Save(context.Background(), true)

	assert.NoError(t, err)
	assert.True(t, outcome.Saved)

	state := session.Snapshot()
	for _, item := range state.Items {
		assert.False(t, item.Changed)
	}

	_, found = drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.False(t, found, "rascunho deveria ter sido apagado após envio confirmado")

	// O lote enviado contém os valores interpretados.
	saver.AssertCalled(t, "ApplyCounts", mock.Anything, domain.ScopeArea, int64(1), []domain.QuantityUpdate{
		{StockLineID: 1, CurrentQuantity: 3},
		{StockLineID: 2, CurrentQuantity: 4.5},
	}, true)
}

// TestSave_ServidorInacessivel: falha de transporte preserva as edições e o
// rascunho, e o resultado informa que o trabalho ficou salvo localmente.
func TestSave_ServidorInacessivel(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)
	saver.On("ApplyCounts", mock.Anything, domain.ScopeArea, int64(1), mock.Anything, false).
		Return(apperror.NewUnavailableError("sem rede", syscall.ENETUNREACH))

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)
	session, _ := svc.Session(domain.ScopeArea, 1)

	_, err = session.Edit(1, "7")
	assert.NoError(t, err)

	outcome, err := session.Save(context.Background(), false)

	assert.NoError(t, err)
	assert.True(t, outcome.SavedLocally)

	state := session.Snapshot()
	assert.True(t, state.Offline)
	assert.Equal(t, "7", state.Items[0].CurrentQuantity)
	assert.True(t, state.Items[0].Changed)

	draft, found := drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.True(t, found, "rascunho deveria ter sido preservado")
	assert.Equal(t, "7", draft.Items[0].CurrentQuantity)
}

// TestSave_OutraFalhaRemota: uma falha de aplicação (e.g. validação do
// servidor) é devolvida ao chamador; edições e rascunho permanecem intactos.
func TestSave_OutraFalhaRemota(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)
	saver.On("ApplyCounts", mock.Anything, domain.ScopeArea, int64(1), mock.Anything, true).
		Return(apperror.NewNotFoundError("Linha de estoque 1 não existe mais."))

	_, err := svc.Open(context.Background(), domain.ScopeArea, 1)
	assert.NoError(t, err)
	session, _ := svc.Session(domain.ScopeArea, 1)

	_, err = session.Edit(1, "7")
	assert.NoError(t, err)

	outcome, err := session.Save(context.Background(), true)

	assert.Error(t, err)
	assert.False(t, outcome.Saved)
	assert.False(t, outcome.SavedLocally)

	state := session.Snapshot()
	assert.Equal(t, "7", state.Items[0].CurrentQuantity)
	assert.True(t, state.Items[0].Changed)

	_, found := drafts.Load(context.Background(), domain.DraftKey(domain.ScopeArea, 1))
	assert.True(t, found, "rascunho não pode ser apagado quando o envio falhou")
}

// TestOpen_ComRascunhoMescla: reabrir com servidor disponível mescla o valor
// em digitação do rascunho sobre o estado do servidor e sinaliza a restauração.
func TestOpen_ComRascunhoMescla(t *testing.T) {
	fetcher := new(MockStateFetcher)
	saver := new(MockCountSaver)
	drafts := newFakeDraftStore()
	svc := contagemservice.NewService(fetcher, saver, drafts, 50*time.Millisecond, logger.NewLogger("error"))

	key := domain.DraftKey(domain.ScopeArea, 1)
	drafts.Save(context.Background(), domain.Draft{
		Key:   key,
		Items: []domain.StockLine{{ID: 1, CurrentQuantity: "3", Changed: true}},
		Meta:  map[string]interface{}{"name": "Cozinha"},
	})

	fetcher.On("FetchItems", mock.Anything, domain.ScopeArea, int64(1)).Return(linhasDoServidor(), nil)
	fetcher.On("FetchName", mock.Anything, domain.ScopeArea, int64(1)).Return("Cozinha", nil)

	state, err := svc.Open(context.Background(), domain.ScopeArea, 1)

	assert.NoError(t, err)
	assert.False(t, state.Offline)
	assert.True(t, state.DraftRestored)
	assert.Equal(t, "3", state.Items[0].CurrentQuantity)
	assert.True(t, state.Items[0].Changed)
	// A linha 2 não estava no rascunho: permanece como o servidor mandou.
	assert.Equal(t, "2", state.Items[1].CurrentQuantity)
	assert.False(t, state.Items[1].Changed)
}
