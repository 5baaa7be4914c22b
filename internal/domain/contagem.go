package domain

// StockLine representa uma linha da contagem de estoque: um item do catálogo
// sendo contado dentro de uma área ou lista.
//
// CurrentQuantity guarda o texto exatamente como digitado pelo usuário,
// inclusive valores ainda incompletos ("3+", ",", ""); o campo é string de
// ponta a ponta e só é convertido em número pelo pacote quantity.
type StockLine struct {
	ID              int64   `json:"id"`              // identidade da linha de estoque (servidor)
	ItemID          int64   `json:"itemId"`          // referência ao item do catálogo
	Name            string  `json:"name"`            // nome de exibição (vem do catálogo)
	Unit            string  `json:"unit"`            // unidade de medida (vem do catálogo)
	CurrentQuantity string  `json:"currentQuantity"` // valor em edição, possivelmente inválido
	MinimumQuantity float64 `json:"minimumQuantity"` // mínimo definido no servidor (somente leitura)
	Changed         bool    `json:"changed"`         // true quando o valor difere do confirmado no servidor
}

// QuantityUpdate é uma entrada do lote enviado ao servidor em salvar/enviar.
// Só chega aqui depois de validado: CurrentQuantity é sempre um número finito.
type QuantityUpdate struct {
	StockLineID     int64   `json:"stockLineId"`
	CurrentQuantity float64 `json:"currentQuantity"`
}
