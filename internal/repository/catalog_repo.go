package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artcry/vpn-service/internal/models"
)

// CatalogRepository stores the descriptive catalog dimensions: VPN types
// and countries.
type CatalogRepository struct {
	db Querier
}

func NewCatalogRepository(db Querier) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ==================== Types ====================

func (r *CatalogRepository) ListTypes(ctx context.Context) ([]*models.VPNType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM vpn_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	var types []*models.VPNType
	for rows.Next() {
		t := &models.VPNType{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *CatalogRepository) GetType(ctx context.Context, id int64) (*models.VPNType, error) {
	t := &models.VPNType{}
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM vpn_types WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get type: %w", err)
	}
	return t, nil
}

func (r *CatalogRepository) CreateType(ctx context.Context, t *models.VPNType) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO vpn_types (name, description) VALUES ($1, $2) RETURNING id`,
		t.Name, t.Description,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert type: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateType(ctx context.Context, t *models.VPNType) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vpn_types SET name = $1, description = $2 WHERE id = $3`,
		t.Name, t.Description, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteType(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vpn_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Countries ====================

func (r *CatalogRepository) ListCountries(ctx context.Context) ([]*models.VPNCountry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM vpn_countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	var countries []*models.VPNCountry
	for rows.Next() {
		c := &models.VPNCountry{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (r *CatalogRepository) GetCountry(ctx context.Context, id int64) (*models.VPNCountry, error) {
	c := &models.VPNCountry{}
	err := r.db.QueryRow(ctx, `SELECT id, name FROM vpn_countries WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get country: %w", err)
	}
	return c, nil
}

func (r *CatalogRepository) CreateCountry(ctx context.Context, c *models.VPNCountry) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO vpn_countries (name) VALUES ($1) RETURNING id`, c.Name,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert country: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateCountry(ctx context.Context, c *models.VPNCountry) error {
	tag, err := r.db.Exec(ctx, `UPDATE vpn_countries SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("update country: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteCountry(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vpn_countries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete country: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
