package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artcry/vpn-service/internal/models"
)

type ServerRepository struct {
	db Querier
}

func NewServerRepository(db Querier) *ServerRepository {
	return &ServerRepository{db: db}
}

const serverColumns = `id, name, price, max_conn, now_conn, server_ip, api_url, api_token, is_active, type_id, country_id`

// ListActiveSummaries returns active servers as user-facing summaries. The
// admin endpoint columns stay out of the result on purpose.
func (r *ServerRepository) ListActiveSummaries(ctx context.Context) ([]*models.ServerSummary, error) {
	query := `
		SELECT id, name, price, max_conn, now_conn, server_ip, type_id, country_id
		FROM vpn_servers
		WHERE is_active
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	var servers []*models.ServerSummary
	for rows.Next() {
		s := &models.ServerSummary{}
		err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.MaxConn, &s.NowConn, &s.ServerIP, &s.TypeID, &s.CountryID)
		if err != nil {
			return nil, fmt.Errorf("scan server summary: %w", err)
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

// List returns all servers with admin fields included.
func (r *ServerRepository) List(ctx context.Context) ([]*models.VPNServer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+serverColumns+` FROM vpn_servers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	var servers []*models.VPNServer
	for rows.Next() {
		s := &models.VPNServer{}
		if err := r.scanInto(rows, s); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *ServerRepository) GetByID(ctx context.Context, id int64) (*models.VPNServer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+serverColumns+` FROM vpn_servers WHERE id = $1`, id)

	s := &models.VPNServer{}
	if err := r.scanInto(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ServerRepository) Create(ctx context.Context, s *models.VPNServer) error {
	query := `
		INSERT INTO vpn_servers (name, price, max_conn, server_ip, api_url, api_token, is_active, type_id, country_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		s.Name, s.Price, s.MaxConn, s.ServerIP, s.APIURL, s.APIToken, s.IsActive, s.TypeID, s.CountryID,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	return nil
}

func (r *ServerRepository) Update(ctx context.Context, s *models.VPNServer) error {
	query := `
		UPDATE vpn_servers SET
			name = $1, price = $2, max_conn = $3, server_ip = $4,
			api_url = $5, api_token = $6, is_active = $7, type_id = $8, country_id = $9
		WHERE id = $10
	`

	tag, err := r.db.Exec(ctx, query,
		s.Name, s.Price, s.MaxConn, s.ServerIP, s.APIURL, s.APIToken, s.IsActive, s.TypeID, s.CountryID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ServerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vpn_servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByType returns how many servers reference a VPN type.
func (r *ServerRepository) CountByType(ctx context.Context, typeID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vpn_servers WHERE type_id = $1`, typeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count servers by type: %w", err)
	}
	return count, nil
}

// CountByCountry returns how many servers reference a country.
func (r *ServerRepository) CountByCountry(ctx context.Context, countryID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vpn_servers WHERE country_id = $1`, countryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count servers by country: %w", err)
	}
	return count, nil
}

// AcquireSlot takes one connection slot on the server. The guard repeats the
// capacity check so concurrent purchases cannot oversubscribe the server.
func (r *ServerRepository) AcquireSlot(ctx context.Context, serverID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vpn_servers SET now_conn = now_conn + 1 WHERE id = $1 AND now_conn < max_conn`,
		serverID,
	)
	if err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServerFull
	}
	return nil
}

// ReleaseSlot frees one connection slot on the server.
func (r *ServerRepository) ReleaseSlot(ctx context.Context, serverID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE vpn_servers SET now_conn = GREATEST(now_conn - 1, 0) WHERE id = $1`,
		serverID,
	)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *ServerRepository) scanInto(row pgx.Row, s *models.VPNServer) error {
	err := row.Scan(
		&s.ID, &s.Name, &s.Price, &s.MaxConn, &s.NowConn, &s.ServerIP,
		&s.APIURL, &s.APIToken, &s.IsActive, &s.TypeID, &s.CountryID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan server: %w", err)
	}
	return nil
}
