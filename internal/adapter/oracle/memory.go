// Package oracle provides implementations of usecase.LocationOracle.
package oracle

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/iho/orgconf/internal/domain"
)

//go:embed data/locations.json
var defaultDataset []byte

type dataset struct {
	Countries []countryData `json:"countries"`
	Postal    []postalData  `json:"postal"`
}

type countryData struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	States []stateData `json:"states"`
}

type stateData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

type postalData struct {
	domain.PostalRecord
	City string `json:"city"`
}

// MemoryOracle serves reference data from a static dataset. It is safe for
// concurrent use; the dataset is never modified after construction.
type MemoryOracle struct {
	countries []domain.Country
	states    map[string][]domain.State
	cities    map[string][]domain.City
	postal    []postalData
}

// NewMemoryOracle creates a MemoryOracle over the embedded dataset.
func NewMemoryOracle() (*MemoryOracle, error) {
	return NewMemoryOracleFromJSON(defaultDataset)
}

// NewMemoryOracleFromJSON creates a MemoryOracle from a JSON dataset.
func NewMemoryOracleFromJSON(data []byte) (*MemoryOracle, error) {
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse location dataset: %w", err)
	}

	o := &MemoryOracle{
		states: make(map[string][]domain.State),
		cities: make(map[string][]domain.City),
		postal: ds.Postal,
	}

	for _, c := range ds.Countries {
		cc := domain.NormalizeCode(c.Code)
		o.countries = append(o.countries, domain.Country{Code: cc, Name: c.Name})

		for _, s := range c.States {
			sc := domain.NormalizeCode(s.Code)
			o.states[cc] = append(o.states[cc], domain.State{Code: sc, Name: s.Name, CountryCode: cc})

			for _, city := range s.Cities {
				o.cities[cityKey(cc, sc)] = append(o.cities[cityKey(cc, sc)], domain.City{Name: city, StateCode: sc, CountryCode: cc})
			}
		}
	}

	sort.Slice(o.countries, func(i, j int) bool { return o.countries[i].Name < o.countries[j].Name })
	for cc := range o.states {
		states := o.states[cc]
		sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	}

	return o, nil
}

// GetCountries returns every country sorted by name.
func (o *MemoryOracle) GetCountries(ctx context.Context) ([]domain.Country, error) {
	return slices.Clone(o.countries), nil
}

// GetStates returns the states of a country sorted by name.
func (o *MemoryOracle) GetStates(ctx context.Context, countryCode string) ([]domain.State, error) {
	return slices.Clone(o.states[domain.NormalizeCode(countryCode)]), nil
}

// GetCities returns the cities of a state in dataset order.
func (o *MemoryOracle) GetCities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error) {
	return slices.Clone(o.cities[cityKey(domain.NormalizeCode(countryCode), domain.NormalizeCode(stateCode))]), nil
}

// SearchPostalByCity returns the post offices tagged with the city or whose
// fields mention it.
func (o *MemoryOracle) SearchPostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error) {
	want := domain.FoldName(cityName)
	if want == "" {
		return nil, nil
	}

	var out []domain.PostalRecord
	for _, p := range o.postal {
		if domain.FoldName(p.City) == want || p.MatchesCity(cityName) {
			out = append(out, p.PostalRecord)
		}
	}
	return out, nil
}

// SearchPostalByCode returns the post offices sharing a postal code.
func (o *MemoryOracle) SearchPostalByCode(ctx context.Context, code string) ([]domain.PostalRecord, error) {
	var out []domain.PostalRecord
	for _, p := range o.postal {
		if p.Code == code {
			out = append(out, p.PostalRecord)
		}
	}
	return out, nil
}

func cityKey(countryCode, stateCode string) string {
	return countryCode + "/" + stateCode
}
