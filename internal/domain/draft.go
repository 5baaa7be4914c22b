package domain

import "fmt"

// DraftScope é a categoria de entidade a que um rascunho pertence.
// Faz parte da chave persistida, portanto os valores são um contrato estável.
type DraftScope string

const (
	ScopeArea  DraftScope = "area"
	ScopeLista DraftScope = "lista"
)

// Valid informa se o escopo é um dos escopos conhecidos de contagem.
func (s DraftScope) Valid() bool {
	return s == ScopeArea || s == ScopeLista
}

// DraftKey monta a chave de um rascunho no formato `draft:<escopo>:<id>`.
// Rascunhos já persistidos dependem deste formato; não alterar.
func DraftKey(scope DraftScope, id int64) string {
	return fmt.Sprintf("draft:%s:%d", scope, id)
}

// Draft é o snapshot persistido localmente de uma contagem em andamento.
// A forma JSON (key/updatedAt/items/originalItems/meta) é gravada verbatim
// no meio de persistência e precisa permanecer compatível entre versões.
type Draft struct {
	Key       string      `json:"key"`
	UpdatedAt int64       `json:"updatedAt"` // epoch ms da última gravação; apenas observabilidade
	Items     []StockLine `json:"items"`
	// OriginalItems é o último estado confirmado pelo servidor no momento da
	// gravação, para permitir recalcular Changed após um reload totalmente offline.
	OriginalItems []StockLine            `json:"originalItems,omitempty"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
}

// MetaName lê o nome de exibição gravado no rascunho (meta["name"]),
// usado quando a busca ao servidor que normalmente o forneceria está indisponível.
func (d *Draft) MetaName() string {
	if d == nil || d.Meta == nil {
		return ""
	}
	if name, ok := d.Meta["name"].(string); ok {
		return name
	}
	return ""
}
