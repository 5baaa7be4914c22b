// Package quantity normaliza os textos de quantidade digitados nas telas de
// contagem de estoque. A equipe de salão costuma anotar contagens como
// "2+3+1" (caixas encontradas em locais diferentes) ou com decimal de vírgula
// ("1,5"); o parser aceita as duas formas sem jamais converter lixo em zero;
// zero é uma contagem válida e precisa ser distinguível de "não entendi".
package quantity

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Parse converte o texto de uma quantidade em um número finito.
// ok=false é a sentinela de "não interpretável": campo vazio, expressão de
// soma incompleta ("3+"), segmento inválido ("1+x") ou texto não numérico.
// Nunca retorna NaN e nunca gera panic.
func Parse(raw string) (value float64, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// Campo vazio significa "ainda não preenchido", não zero.
		return 0, false
	}

	if strings.ContainsRune(trimmed, '+') {
		return parseSum(trimmed)
	}

	return parseSegment(trimmed)
}

// Equal informa se dois textos representam a mesma quantidade.
// Textos não interpretáveis nunca são iguais a nada (nem a si mesmos):
// um valor que não dá para entender não pode ser confirmado como inalterado.
func Equal(a, b string) bool {
	va, okA := Parse(a)
	if !okA {
		return false
	}
	vb, okB := Parse(b)
	if !okB {
		return false
	}
	return va == vb
}

// parseSum interpreta uma expressão de soma "a+b+c".
// Todos os segmentos precisam ser válidos; não existe soma parcial.
func parseSum(expr string) (float64, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)

	var sum float64
	for _, segment := range strings.Split(compact, "+") {
		v, ok := parseSegment(segment)
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

// parseSegment interpreta um único número, aceitando decimal de vírgula.
func parseSegment(segment string) (float64, bool) {
	if segment == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(segment, ",", "."), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
