package arearepo

import (
	"context"
	"database/sql"
	"time"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// AreaRepository lê as áreas e listas de contagem cadastradas.
type AreaRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAreaRepository cria e retorna uma nova instância do Repositório de Áreas.
func NewAreaRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AreaRepository {
	return &AreaRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindAllAreas lista todas as áreas de contagem.
func (r *AreaRepository) FindAllAreas(ctx context.Context) ([]domain.Area, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, counted_at, created_at, updated_at FROM areas ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao buscar áreas no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar áreas", err)
	}
	defer rows.Close()

	var areas []domain.Area
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.ID, &a.Name, &a.CountedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler área", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar áreas", err)
	}

	return areas, nil
}

// FindAllListas lista todas as listas de compras/contagem.
func (r *AreaRepository) FindAllListas(ctx context.Context) ([]domain.Lista, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, counted_at, created_at, updated_at FROM listas ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao buscar listas no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar listas", err)
	}
	defer rows.Close()

	var listas []domain.Lista
	for rows.Next() {
		var l domain.Lista
		if err := rows.Scan(&l.ID, &l.Name, &l.CountedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler lista", err)
		}
		listas = append(listas, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar listas", err)
	}

	return listas, nil
}
