package errors

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"
)

// IsUnreachable classifica falhas de transporte: a operação remota não obteve
// resposta alguma (conexão recusada, rede fora, timeout de transporte).
// Falhas de aplicação (validação, autenticação, erro de servidor) NÃO entram
// nesta categoria; o chamador decide entre modo offline e erro visível com base
// nesta distinção.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *UnavailableError
	if errors.As(err, &appErr) {
		return true
	}

	// Conexão de driver rompida antes de qualquer resposta.
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	// Timeout de transporte: nenhuma resposta chegou dentro do prazo.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Erros clássicos de socket.
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
