package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/iho/orgconf/internal/domain"
)

// ReferenceUseCase exposes reference data for rendering selection widgets.
// Unlike the resolver it reports oracle failures to the caller.
type ReferenceUseCase struct {
	oracle   LocationOracle
	resolver *LocationResolver
}

// NewReferenceUseCase creates a new ReferenceUseCase.
func NewReferenceUseCase(oracle LocationOracle, resolver *LocationResolver) *ReferenceUseCase {
	return &ReferenceUseCase{oracle: oracle, resolver: resolver}
}

// Countries lists all countries.
func (uc *ReferenceUseCase) Countries(ctx context.Context) ([]domain.Country, error) {
	return uc.resolver.Countries(ctx)
}

// States lists the states of a country.
func (uc *ReferenceUseCase) States(ctx context.Context, countryCode string) ([]domain.State, error) {
	return lookup(ctx, uc.resolver, "get_states", func(ctx context.Context) ([]domain.State, error) {
		return uc.oracle.GetStates(ctx, domain.NormalizeCode(countryCode))
	})
}

// Cities lists the cities of a state.
func (uc *ReferenceUseCase) Cities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error) {
	return lookup(ctx, uc.resolver, "get_cities", func(ctx context.Context) ([]domain.City, error) {
		return uc.oracle.GetCities(ctx, domain.NormalizeCode(countryCode), domain.NormalizeCode(stateCode))
	})
}

// Postal looks up the records of a postal code.
func (uc *ReferenceUseCase) Postal(ctx context.Context, code string) ([]domain.PostalRecord, error) {
	return lookup(ctx, uc.resolver, "search_postal_by_code", func(ctx context.Context) ([]domain.PostalRecord, error) {
		return uc.oracle.SearchPostalByCode(ctx, code)
	})
}

// PostalByCity lists the postal records of a city.
func (uc *ReferenceUseCase) PostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error) {
	if strings.TrimSpace(cityName) == "" {
		return nil, fmt.Errorf("%w: city is required", domain.ErrInvalidFieldValue)
	}
	return lookup(ctx, uc.resolver, "search_postal_by_city", func(ctx context.Context) ([]domain.PostalRecord, error) {
		return uc.oracle.SearchPostalByCity(ctx, strings.TrimSpace(cityName))
	})
}

// Currency returns the derived currency profile of a country.
func (uc *ReferenceUseCase) Currency(countryCode string) domain.CurrencyProfile {
	return uc.resolver.DeriveCurrency(countryCode)
}
