package contagemservice

import (
	"gosupply/internal/domain"
	"gosupply/internal/pkg/quantity"
)

// Merge reconcilia o estado do servidor com um rascunho pendente.
//
// Regra: o servidor é autoritativo para tudo, exceto o valor em digitação.
// Para cada linha do servidor que também existe no rascunho, o resultado leva
// o CurrentQuantity do rascunho verbatim e todos os demais campos do servidor;
// Changed é recalculado pelo valor interpretado (não interpretável conta como
// alterado). Linhas do rascunho cujo id não existe mais no servidor são
// descartadas em silêncio: a linha foi removida/alterada do lado do servidor.
func Merge(server, draft []domain.StockLine) []domain.StockLine {
	byID := make(map[int64]string, len(draft))
	for i := range draft {
		byID[draft[i].ID] = draft[i].CurrentQuantity
	}

	merged := cloneLines(server)
	for i := range merged {
		raw, ok := byID[merged[i].ID]
		if !ok {
			merged[i].Changed = false
			continue
		}
		serverValue := merged[i].CurrentQuantity
		merged[i].CurrentQuantity = raw
		merged[i].Changed = !quantity.Equal(raw, serverValue)
	}
	return merged
}

// cloneLines devolve uma cópia independente da fatia de linhas.
func cloneLines(lines []domain.StockLine) []domain.StockLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.StockLine, len(lines))
	copy(out, lines)
	return out
}
