package usecase

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// DefaultOracleTimeout bounds a single oracle lookup made by the resolver.
const DefaultOracleTimeout = 5 * time.Second

var (
	defaultPostalPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,9}$`)

	postalPatterns = map[string]*regexp.Regexp{
		"IN": regexp.MustCompile(`^\d{6}$`),
		"US": regexp.MustCompile(`^\d{5}(-\d{4})?$`),
		"DE": regexp.MustCompile(`^\d{5}$`),
		"FR": regexp.MustCompile(`^\d{5}$`),
		"AU": regexp.MustCompile(`^\d{4}$`),
		"CA": regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`),
		"GB": regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]? ?\d[A-Za-z]{2}$`),
	}
)

// LocationResolver keeps the country/state/city/postal selection consistent.
// It holds no state between calls: every method takes the current selection
// and returns the next one.
type LocationResolver struct {
	oracle            LocationOracle
	richLookupCountry string
	timeout           time.Duration
	metrics           *metrics.Metrics
}

// NewLocationResolver creates a new LocationResolver. richLookupCountry is the
// country whose postal codes are cross-checked against the oracle.
func NewLocationResolver(oracle LocationOracle, richLookupCountry string, m *metrics.Metrics) *LocationResolver {
	if richLookupCountry == "" {
		richLookupCountry = DefaultRichLookupCountry
	}
	return &LocationResolver{
		oracle:            oracle,
		richLookupCountry: domain.NormalizeCode(richLookupCountry),
		timeout:           DefaultOracleTimeout,
		metrics:           m,
	}
}

// CountryChange is the result of selecting a country.
type CountryChange struct {
	Selection     domain.LocationSelection
	States        []domain.State
	ClearedFields []domain.FieldKey
	Currency      domain.CurrencyProfile
	Degraded      bool
}

// StateChange is the result of selecting a state.
type StateChange struct {
	Selection     domain.LocationSelection
	Cities        []domain.City
	ClearedFields []domain.FieldKey
	Degraded      bool
}

// CityChange is the result of selecting a city.
type CityChange struct {
	Selection        domain.LocationSelection
	PostalCandidates []domain.PostalRecord
	ClearedFields    []domain.FieldKey
	Degraded         bool
}

// IsRichLookup reports whether countryCode has a dedicated postal oracle.
func (r *LocationResolver) IsRichLookup(countryCode string) bool {
	return domain.NormalizeCode(countryCode) == r.richLookupCountry
}

// SetCountry selects a country. State, city and postal code are always
// cleared.
func (r *LocationResolver) SetCountry(ctx context.Context, sel domain.LocationSelection, code string) CountryChange {
	next := sel.WithCountry(code)
	change := CountryChange{
		Selection:     next,
		ClearedFields: []domain.FieldKey{domain.FieldState, domain.FieldCity, domain.FieldPostalCode},
		Currency:      domain.DeriveCurrency(next.CountryCode),
	}
	if next.CountryCode == "" {
		return change
	}

	states, err := lookup(ctx, r, "get_states", func(ctx context.Context) ([]domain.State, error) {
		return r.oracle.GetStates(ctx, next.CountryCode)
	})
	change.States = states
	change.Degraded = err != nil

	return change
}

// SetState selects a state. City and postal code are cleared.
func (r *LocationResolver) SetState(ctx context.Context, sel domain.LocationSelection, code string) StateChange {
	next := sel.WithState(code)
	change := StateChange{
		Selection:     next,
		ClearedFields: []domain.FieldKey{domain.FieldCity, domain.FieldPostalCode},
	}
	if next.CountryCode == "" || next.StateCode == "" {
		return change
	}

	cities, err := lookup(ctx, r, "get_cities", func(ctx context.Context) ([]domain.City, error) {
		return r.oracle.GetCities(ctx, next.CountryCode, next.StateCode)
	})
	change.Cities = cities
	change.Degraded = err != nil

	return change
}

// SetCity selects a city. The postal code is cleared. Postal candidates are
// only fetched for the rich-lookup country.
func (r *LocationResolver) SetCity(ctx context.Context, sel domain.LocationSelection, name string) CityChange {
	next := sel.WithCity(name)
	change := CityChange{
		Selection:        next,
		PostalCandidates: []domain.PostalRecord{},
		ClearedFields:    []domain.FieldKey{domain.FieldPostalCode},
	}
	if next.CityName == "" || !r.IsRichLookup(next.CountryCode) {
		return change
	}

	records, err := lookup(ctx, r, "search_postal_by_city", func(ctx context.Context) ([]domain.PostalRecord, error) {
		return r.oracle.SearchPostalByCity(ctx, next.CityName)
	})
	if records != nil {
		change.PostalCandidates = records
	}
	change.Degraded = err != nil

	return change
}

// PostalFormatValid reports whether code matches the postal pattern of the
// country.
func (r *LocationResolver) PostalFormatValid(countryCode, code string) bool {
	pattern, ok := postalPatterns[domain.NormalizeCode(countryCode)]
	if !ok {
		pattern = defaultPostalPattern
	}
	return pattern.MatchString(code)
}

// ResolvePostalInput validates a postal code against the selected city. The
// oracle is best-effort: when it fails, a code of the right format is
// accepted and the outcome is marked degraded.
func (r *LocationResolver) ResolvePostalInput(ctx context.Context, raw string, sel domain.LocationSelection) domain.PostalOutcome {
	outcome := r.resolvePostal(ctx, strings.TrimSpace(raw), sel)

	if r.metrics != nil {
		reason := string(outcome.Reason)
		if outcome.OK {
			reason = "ok"
		}
		r.metrics.PostalValidations.WithLabelValues(reason).Inc()
	}

	return outcome
}

func (r *LocationResolver) resolvePostal(ctx context.Context, code string, sel domain.LocationSelection) domain.PostalOutcome {
	outcome := domain.PostalOutcome{CityName: sel.CityName, Code: code}

	if code == "" {
		outcome.OK = true
		return outcome
	}

	if sel.CityName == "" {
		outcome.Reason = domain.PostalReasonCityRequired
		outcome.Detail = "select a city before entering the postal code"
		return outcome
	}

	if !r.PostalFormatValid(sel.CountryCode, code) {
		outcome.Reason = domain.PostalReasonMalformed
		outcome.Detail = fmt.Sprintf("postal code %q does not match the expected format", code)
		return outcome
	}

	if !r.IsRichLookup(sel.CountryCode) {
		outcome.OK = true
		return outcome
	}

	records, err := lookup(ctx, r, "search_postal_by_code", func(ctx context.Context) ([]domain.PostalRecord, error) {
		return r.oracle.SearchPostalByCode(ctx, code)
	})
	if err != nil {
		outcome.OK = true
		outcome.Degraded = true
		return outcome
	}

	if len(records) == 0 {
		outcome.Reason = domain.PostalReasonNotFound
		outcome.Detail = fmt.Sprintf("postal code %s was not found", code)
		return outcome
	}

	for _, rec := range records {
		if rec.MatchesCity(sel.CityName) {
			outcome.OK = true
			return outcome
		}
	}

	outcome.Reason = domain.PostalReasonCityMismatch
	outcome.Detail = fmt.Sprintf("postal code %s belongs to %s, not %s", code, describeRecords(records), sel.CityName)

	return outcome
}

// ReverseResolveFromExisting maps stored free-text or code values onto a
// selection. Each field is matched by exact code, then by case-insensitive
// name. Unresolved fields are left empty, as is everything below them.
func (r *LocationResolver) ReverseResolveFromExisting(ctx context.Context, stored domain.StoredLocation) domain.LocationSelection {
	var sel domain.LocationSelection

	countries, err := lookup(ctx, r, "get_countries", r.oracle.GetCountries)
	switch {
	case err == nil:
		sel.CountryCode = matchCountry(countries, stored.Country)
	case len(strings.TrimSpace(stored.Country)) == 2 && domain.KnownCurrencyCountry(stored.Country):
		// Oracle down: trust a well-formed stored code.
		sel.CountryCode = domain.NormalizeCode(stored.Country)
	}
	if sel.CountryCode == "" {
		return sel
	}

	states, err := lookup(ctx, r, "get_states", func(ctx context.Context) ([]domain.State, error) {
		return r.oracle.GetStates(ctx, sel.CountryCode)
	})
	if err != nil {
		return sel
	}
	sel.StateCode = matchState(states, stored.State)
	if sel.StateCode == "" {
		return sel
	}

	cities, err := lookup(ctx, r, "get_cities", func(ctx context.Context) ([]domain.City, error) {
		return r.oracle.GetCities(ctx, sel.CountryCode, sel.StateCode)
	})
	if err != nil {
		return sel
	}
	sel.CityName = matchCity(cities, stored.City)
	if sel.CityName == "" {
		return sel
	}

	sel.PostalCode = strings.TrimSpace(stored.PostalCode)

	return sel
}

// Candidates returns the option lists for sel.
func (r *LocationResolver) Candidates(ctx context.Context, sel domain.LocationSelection) domain.LocationCandidates {
	var cands domain.LocationCandidates

	if sel.CountryCode != "" {
		change := r.SetCountry(ctx, domain.LocationSelection{}, sel.CountryCode)
		cands.States = change.States
		cands.Degraded = cands.Degraded || change.Degraded
	}
	if sel.StateCode != "" {
		change := r.SetState(ctx, sel, sel.StateCode)
		cands.Cities = change.Cities
		cands.Degraded = cands.Degraded || change.Degraded
	}
	if sel.CityName != "" {
		change := r.SetCity(ctx, sel, sel.CityName)
		cands.PostalCandidates = change.PostalCandidates
		cands.Degraded = cands.Degraded || change.Degraded
	}

	return cands
}

// Countries returns every country known to the oracle.
func (r *LocationResolver) Countries(ctx context.Context) ([]domain.Country, error) {
	return lookup(ctx, r, "get_countries", r.oracle.GetCountries)
}

// DeriveCurrency returns the currency profile for a country.
func (r *LocationResolver) DeriveCurrency(countryCode string) domain.CurrencyProfile {
	return domain.DeriveCurrency(countryCode)
}

// lookup runs one oracle call with a timeout. Errors and panics are reported
// as domain.ErrOracleUnavailable.
func lookup[T any](ctx context.Context, r *LocationResolver, op string, fn func(context.Context) ([]T, error)) (result []T, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("%w: %s panicked: %v", domain.ErrOracleUnavailable, op, p)
		}
		r.observe(ctx, op, start, err)
	}()

	result, err = fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrOracleUnavailable, op, err)
	}

	return result, nil
}

func (r *LocationResolver) observe(ctx context.Context, op string, start time.Time, err error) {
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("operation", op).
			Msg("location oracle unavailable, degrading")
	}

	if r.metrics == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
		r.metrics.OracleDegraded.WithLabelValues(op).Inc()
	}
	r.metrics.OracleRequests.WithLabelValues(op, result).Inc()
	r.metrics.OracleDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func matchCountry(countries []domain.Country, label string) string {
	code := domain.NormalizeCode(label)
	if code == "" {
		return ""
	}
	for _, c := range countries {
		if domain.NormalizeCode(c.Code) == code {
			return domain.NormalizeCode(c.Code)
		}
	}
	name := domain.FoldName(label)
	for _, c := range countries {
		if domain.FoldName(c.Name) == name {
			return domain.NormalizeCode(c.Code)
		}
	}
	return ""
}

func matchState(states []domain.State, label string) string {
	code := domain.NormalizeCode(label)
	if code == "" {
		return ""
	}
	for _, s := range states {
		if domain.NormalizeCode(s.Code) == code {
			return domain.NormalizeCode(s.Code)
		}
	}
	name := domain.FoldName(label)
	for _, s := range states {
		if domain.FoldName(s.Name) == name {
			return domain.NormalizeCode(s.Code)
		}
	}
	return ""
}

func matchCity(cities []domain.City, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	for _, c := range cities {
		if c.Name == label {
			return c.Name
		}
	}
	name := domain.FoldName(label)
	for _, c := range cities {
		if domain.FoldName(c.Name) == name {
			return c.Name
		}
	}
	return ""
}

func describeRecords(records []domain.PostalRecord) string {
	var places []string
	for _, rec := range records {
		place := rec.District
		if place == "" {
			place = rec.Area
		}
		if place != "" && !slices.Contains(places, place) {
			places = append(places, place)
		}
	}
	if len(places) == 0 {
		return "another city"
	}
	return strings.Join(places, ", ")
}
