package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// CachedOracle caches the answers of another oracle. Errors are passed
// through and never cached. A failing cache only costs a lookup.
type CachedOracle struct {
	next  usecase.LocationOracle
	cache usecase.Cache
	ttl   time.Duration
}

// NewCachedOracle wraps next with cache.
func NewCachedOracle(next usecase.LocationOracle, cache usecase.Cache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: cache, ttl: ttl}
}

func (o *CachedOracle) GetCountries(ctx context.Context) ([]domain.Country, error) {
	return cached(ctx, o, "countries", func() ([]domain.Country, error) {
		return o.next.GetCountries(ctx)
	})
}

func (o *CachedOracle) GetStates(ctx context.Context, countryCode string) ([]domain.State, error) {
	cc := domain.NormalizeCode(countryCode)
	return cached(ctx, o, "states:"+cc, func() ([]domain.State, error) {
		return o.next.GetStates(ctx, cc)
	})
}

func (o *CachedOracle) GetCities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error) {
	cc, sc := domain.NormalizeCode(countryCode), domain.NormalizeCode(stateCode)
	return cached(ctx, o, "cities:"+cc+":"+sc, func() ([]domain.City, error) {
		return o.next.GetCities(ctx, cc, sc)
	})
}

func (o *CachedOracle) SearchPostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error) {
	return cached(ctx, o, "postal:city:"+domain.FoldName(cityName), func() ([]domain.PostalRecord, error) {
		return o.next.SearchPostalByCity(ctx, cityName)
	})
}

func (o *CachedOracle) SearchPostalByCode(ctx context.Context, code string) ([]domain.PostalRecord, error) {
	return cached(ctx, o, "postal:code:"+code, func() ([]domain.PostalRecord, error) {
		return o.next.SearchPostalByCode(ctx, code)
	})
}

func cached[T any](ctx context.Context, o *CachedOracle, key string, load func() ([]T, error)) ([]T, error) {
	logger := zerolog.Ctx(ctx)

	data, err := o.cache.Get(ctx, key)
	switch {
	case err == nil:
		var out []T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		logger.Warn().Str("key", key).Msg("discarding undecodable oracle cache entry")
	case !errors.Is(err, domain.ErrCacheMiss):
		logger.Warn().Err(err).Str("key", key).Msg("oracle cache read failed")
	}

	out, err := load()
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := o.cache.Set(ctx, key, data, o.ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("oracle cache write failed")
	}
	return out, nil
}
