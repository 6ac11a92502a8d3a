package service

import (
	"context"
	"errors"
	"log"

	"github.com/artcry/vpn-service/internal/apperrors"
	"github.com/artcry/vpn-service/internal/models"
	"github.com/artcry/vpn-service/internal/repository"
)

// CatalogService implements catalog administration: types, countries and
// servers. Referential rules live here, not in the database error path, so
// the admin gets a real message instead of a foreign key violation.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// ==================== Types ====================

func (s *CatalogService) ListTypes(ctx context.Context) ([]*models.VPNType, error) {
	types, err := s.store.ListTypes(ctx)
	if err != nil {
		return nil, apperrors.Storage("failed to list types", err)
	}
	return types, nil
}

func (s *CatalogService) CreateType(ctx context.Context, req *models.TypeUpsertRequest) (*models.VPNType, error) {
	t := &models.VPNType{Name: req.Name, Description: req.Description}
	if err := s.store.CreateType(ctx, t); err != nil {
		return nil, apperrors.Storage("failed to create type", err)
	}
	log.Printf("[Catalog] Created type %d (%s)", t.ID, t.Name)
	return t, nil
}

func (s *CatalogService) UpdateType(ctx context.Context, id int64, req *models.TypeUpsertRequest) (*models.VPNType, error) {
	t := &models.VPNType{ID: id, Name: req.Name, Description: req.Description}
	if err := s.store.UpdateType(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("type %d not found", id)
		}
		return nil, apperrors.Storage("failed to update type", err)
	}
	return t, nil
}

// DeleteType removes a VPN type. Deletion is refused while any server still
// references the type.
func (s *CatalogService) DeleteType(ctx context.Context, id int64) error {
	count, err := s.store.CountServersByType(ctx, id)
	if err != nil {
		return apperrors.Storage("failed to check type references", err)
	}
	if count > 0 {
		return apperrors.Validationf("type %d is referenced by %d server(s)", id, count)
	}

	if err := s.store.DeleteType(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundf("type %d not found", id)
		}
		return apperrors.Storage("failed to delete type", err)
	}
	log.Printf("[Catalog] Deleted type %d", id)
	return nil
}

// ==================== Countries ====================

func (s *CatalogService) ListCountries(ctx context.Context) ([]*models.VPNCountry, error) {
	countries, err := s.store.ListCountries(ctx)
	if err != nil {
		return nil, apperrors.Storage("failed to list countries", err)
	}
	return countries, nil
}

func (s *CatalogService) CreateCountry(ctx context.Context, req *models.CountryUpsertRequest) (*models.VPNCountry, error) {
	c := &models.VPNCountry{Name: req.Name}
	if err := s.store.CreateCountry(ctx, c); err != nil {
		return nil, apperrors.Storage("failed to create country", err)
	}
	log.Printf("[Catalog] Created country %d (%s)", c.ID, c.Name)
	return c, nil
}

func (s *CatalogService) UpdateCountry(ctx context.Context, id int64, req *models.CountryUpsertRequest) (*models.VPNCountry, error) {
	c := &models.VPNCountry{ID: id, Name: req.Name}
	if err := s.store.UpdateCountry(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("country %d not found", id)
		}
		return nil, apperrors.Storage("failed to update country", err)
	}
	return c, nil
}

// DeleteCountry removes a country. Deletion is refused while any server
// still references it.
func (s *CatalogService) DeleteCountry(ctx context.Context, id int64) error {
	count, err := s.store.CountServersByCountry(ctx, id)
	if err != nil {
		return apperrors.Storage("failed to check country references", err)
	}
	if count > 0 {
		return apperrors.Validationf("country %d is referenced by %d server(s)", id, count)
	}

	if err := s.store.DeleteCountry(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundf("country %d not found", id)
		}
		return apperrors.Storage("failed to delete country", err)
	}
	log.Printf("[Catalog] Deleted country %d", id)
	return nil
}

// ==================== Servers ====================

func (s *CatalogService) ListServers(ctx context.Context) ([]*models.VPNServer, error) {
	servers, err := s.store.ListServers(ctx)
	if err != nil {
		return nil, apperrors.Storage("failed to list servers", err)
	}
	return servers, nil
}

func (s *CatalogService) CreateServer(ctx context.Context, req *models.ServerUpsertRequest) (*models.VPNServer, error) {
	srv, err := s.validateServer(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateServer(ctx, srv); err != nil {
		return nil, apperrors.Storage("failed to create server", err)
	}
	log.Printf("[Catalog] Created server %d (%s)", srv.ID, srv.Name)
	return srv, nil
}

func (s *CatalogService) UpdateServer(ctx context.Context, id int64, req *models.ServerUpsertRequest) (*models.VPNServer, error) {
	srv, err := s.validateServer(ctx, req)
	if err != nil {
		return nil, err
	}
	srv.ID = id

	if err := s.store.UpdateServer(ctx, srv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("server %d not found", id)
		}
		return nil, apperrors.Storage("failed to update server", err)
	}
	return srv, nil
}

func (s *CatalogService) DeleteServer(ctx context.Context, id int64) error {
	if err := s.store.DeleteServer(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundf("server %d not found", id)
		}
		return apperrors.Storage("failed to delete server", err)
	}
	log.Printf("[Catalog] Deleted server %d", id)
	return nil
}

// ListReferralEarnings returns the earnings credited to a referrer.
func (s *CatalogService) ListReferralEarnings(ctx context.Context, referrerID int64) ([]*models.ReferralEarning, error) {
	earnings, err := s.store.ListReferralEarnings(ctx, referrerID)
	if err != nil {
		return nil, apperrors.Storage("failed to list referral earnings", err)
	}
	if earnings == nil {
		earnings = []*models.ReferralEarning{}
	}
	return earnings, nil
}

// validateServer checks field bounds and that the referenced type and
// country exist, and builds the model.
func (s *CatalogService) validateServer(ctx context.Context, req *models.ServerUpsertRequest) (*models.VPNServer, error) {
	if req.Price <= 0 {
		return nil, apperrors.Validationf("price must be positive")
	}
	if req.MaxConn <= 0 {
		return nil, apperrors.Validationf("max_conn must be positive")
	}

	if _, err := s.store.GetType(ctx, req.TypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validationf("type %d does not exist", req.TypeID)
		}
		return nil, apperrors.Storage("failed to check type", err)
	}
	if _, err := s.store.GetCountry(ctx, req.CountryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validationf("country %d does not exist", req.CountryID)
		}
		return nil, apperrors.Storage("failed to check country", err)
	}

	return &models.VPNServer{
		Name:      req.Name,
		Price:     req.Price,
		MaxConn:   req.MaxConn,
		ServerIP:  req.ServerIP,
		APIURL:    req.APIURL,
		APIToken:  req.APIToken,
		IsActive:  req.IsActive,
		TypeID:    req.TypeID,
		CountryID: req.CountryID,
	}, nil
}
