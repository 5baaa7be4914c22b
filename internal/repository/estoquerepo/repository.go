package estoquerepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// EstoqueRepository é a fonte autoritativa das linhas de contagem: o servidor
// é dono de tudo, exceto do valor em digitação (que vive no rascunho).
type EstoqueRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewEstoqueRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewEstoqueRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *EstoqueRepository {
	return &EstoqueRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FetchItems busca as linhas de estoque de uma área ou lista, já com nome e
// unidade vindos do catálogo. CurrentQuantity sai como texto: é o último valor
// confirmado no servidor, pronto para servir de baseline de edição.
func (r *EstoqueRepository) FetchItems(ctx context.Context, scope domain.DraftScope, id int64) ([]domain.StockLine, error) {
	r.logger.Debug("Buscando linhas de estoque no repositório.", map[string]interface{}{"scope": string(scope), "id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT sl.id, sl.item_id, ci.name, ci.unit,
               COALESCE(sl.current_quantity::text, ''), sl.minimum_quantity
        FROM stock_lines sl
        JOIN catalog_items ci ON ci.id = sl.item_id
        WHERE sl.scope = $1 AND sl.scope_id = $2
        ORDER BY ci.name, sl.id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, string(scope), id)
	if err != nil {
		r.logger.Error("Falha ao buscar linhas de estoque no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar linhas de estoque", err)
	}
	defer rows.Close()

	var items []domain.StockLine
	for rows.Next() {
		var line domain.StockLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.Name, &line.Unit, &line.CurrentQuantity, &line.MinimumQuantity); err != nil {
			r.logger.Error("Falha ao ler linha de estoque.", err)
			return nil, errors.NewDBError("Falha ao ler linha de estoque", err)
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar linhas de estoque", err)
	}

	return items, nil
}

// FetchName busca o nome de exibição da área ou lista.
func (r *EstoqueRepository) FetchName(ctx context.Context, scope domain.DraftScope, id int64) (string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	table := "areas"
	if scope == domain.ScopeLista {
		table = "listas"
	}

	var name string
	query := fmt.Sprintf(`SELECT name FROM %s WHERE id = $1`, table)
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&name)

	if err == sql.ErrNoRows {
		return "", errors.NewNotFoundError(fmt.Sprintf("%s %d não encontrada.", scope, id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar nome de exibição no DB.", err)
		return "", errors.NewDBError("Falha ao buscar nome de exibição", err)
	}

	return name, nil
}

// ApplyCounts aplica um lote de contagens validadas em uma única transação.
// O lote é tudo-ou-nada: uma linha inexistente aborta o lote inteiro (a linha
// foi removida/alterada no servidor desde o carregamento).
// finalize marca a área/lista como contada (envio definitivo).
func (r *EstoqueRepository) ApplyCounts(ctx context.Context, scope domain.DraftScope, id int64, updates []domain.QuantityUpdate, finalize bool) error {
	r.logger.Debug("Iniciando aplicação de contagens no repositório.", map[string]interface{}{
		"scope":    string(scope),
		"id":       id,
		"updates":  len(updates),
		"finalize": finalize,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de contagem.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	const updateSQL = `
        UPDATE stock_lines
        SET current_quantity = $1, updated_at = $2
        WHERE id = $3 AND scope = $4 AND scope_id = $5`

	now := time.Now().UTC()
	for _, update := range updates {
		result, err := tx.ExecContext(ctxTimeout, updateSQL,
			update.CurrentQuantity, now, update.StockLineID, string(scope), id,
		)
		if err != nil {
			r.logger.Error("Falha ao atualizar linha de estoque.", err)
			return errors.NewDBError("Falha ao atualizar linha de estoque", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errors.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rowsAffected == 0 {
			r.logger.Warn("Linha de estoque não existe mais no servidor.", map[string]interface{}{
				"stock_line_id": update.StockLineID,
				"scope":         string(scope),
				"scope_id":      id,
			})
			return errors.NewNotFoundError(fmt.Sprintf("Linha de estoque %d não existe mais.", update.StockLineID))
		}
	}

	if finalize {
		table := "areas"
		if scope == domain.ScopeLista {
			table = "listas"
		}
		stampSQL := fmt.Sprintf(`UPDATE %s SET counted_at = $1, updated_at = $1 WHERE id = $2`, table)
		if _, err := tx.ExecContext(ctxTimeout, stampSQL, now, id); err != nil {
			r.logger.Error("Falha ao marcar contagem como enviada.", err)
			return errors.NewDBError("Falha ao marcar contagem como enviada", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de contagem.", commitErr)
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Contagens aplicadas com sucesso.", map[string]interface{}{
		"scope":    string(scope),
		"id":       id,
		"updates":  len(updates),
		"finalize": finalize,
	})
	return nil
}
