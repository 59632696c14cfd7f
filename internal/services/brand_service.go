package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/cache"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
)

// BrandDirectory is the remote source of client brands.
type BrandDirectory interface {
	ListBrands(ctx context.Context) ([]agencycrm.Brand, error)
	GetBrand(ctx context.Context, id int64) (*agencycrm.Brand, error)
}

// BrandService serves the brand directory through a TTL cache.
type BrandService struct {
	remote BrandDirectory
	cache  cache.Store
	ttl    time.Duration
	log    zerolog.Logger
}

// NewBrandService creates a new BrandService. A nil store disables caching.
func NewBrandService(remote BrandDirectory, store cache.Store, ttl time.Duration, log zerolog.Logger) *BrandService {
	if store == nil {
		store = cache.Noop{}
	}
	return &BrandService{
		remote: remote,
		cache:  store,
		ttl:    ttl,
		log:    log,
	}
}

var brandListKey = cache.Key("brands")

// ListBrands returns the brand directory, from cache when fresh.
func (s *BrandService) ListBrands(ctx context.Context) ([]agencycrm.Brand, error) {
	if raw, err := s.cache.Get(ctx, brandListKey); err == nil {
		var brands []agencycrm.Brand
		if err := json.Unmarshal(raw, &brands); err == nil {
			return brands, nil
		}
		s.log.Warn().Msg("discarding undecodable brand cache entry")
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Msg("brand cache read failed")
	}

	brands, err := s.remote.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list brands: %v", apierrors.ErrRemoteUnavailable, err)
	}

	if raw, err := json.Marshal(brands); err == nil {
		if err := s.cache.Set(ctx, brandListKey, raw, s.ttl); err != nil {
			s.log.Warn().Err(err).Msg("brand cache write failed")
		}
	}
	return brands, nil
}

// ResolveBrandName returns the display name snapshot stored on a project.
// An unknown brand is a validation error. When the agency CRM cannot be
// reached the snapshot is left empty and the write proceeds.
func (s *BrandService) ResolveBrandName(ctx context.Context, id int64) (string, error) {
	if brands, err := s.ListBrands(ctx); err == nil {
		for _, b := range brands {
			if b.ID == id {
				return b.DisplayName(), nil
			}
		}
	}

	brand, err := s.remote.GetBrand(ctx, id)
	switch {
	case err == nil:
		return brand.DisplayName(), nil
	case errors.Is(err, agencycrm.ErrNotFound):
		return "", apierrors.Field("client_brand_id", "does not match a known brand")
	default:
		s.log.Warn().Err(err).Int64("brand_id", id).Msg("brand lookup unavailable, storing empty brand name")
		return "", nil
	}
}
