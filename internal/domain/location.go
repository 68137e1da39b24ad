package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Country is a country known to the location oracle.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// State is a first-level subdivision of a country.
type State struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

// City is a city inside a state.
type City struct {
	Name        string `json:"name"`
	StateCode   string `json:"state_code"`
	CountryCode string `json:"country_code"`
}

// PostalRecord is one post office entry returned by the postal oracle.
type PostalRecord struct {
	Code        string `json:"code"`
	Area        string `json:"area"`
	Circle      string `json:"circle"`
	District    string `json:"district"`
	SubDistrict string `json:"sub_district"`
}

// LocationSelection is the country/state/city/postal tuple of an entity.
// StateCode is only meaningful relative to CountryCode and CityName relative
// to both.
type LocationSelection struct {
	CountryCode string `json:"country_code"`
	StateCode   string `json:"state_code"`
	CityName    string `json:"city_name"`
	PostalCode  string `json:"postal_code"`
}

// WithCountry sets the country and clears every downstream field.
func (s LocationSelection) WithCountry(code string) LocationSelection {
	return LocationSelection{CountryCode: NormalizeCode(code)}
}

// WithState sets the state and clears city and postal code.
func (s LocationSelection) WithState(code string) LocationSelection {
	return LocationSelection{
		CountryCode: s.CountryCode,
		StateCode:   NormalizeCode(code),
	}
}

// WithCity sets the city and clears the postal code.
func (s LocationSelection) WithCity(name string) LocationSelection {
	return LocationSelection{
		CountryCode: s.CountryCode,
		StateCode:   s.StateCode,
		CityName:    strings.TrimSpace(name),
	}
}

// WithPostalCode sets the postal code only.
func (s LocationSelection) WithPostalCode(code string) LocationSelection {
	s.PostalCode = strings.TrimSpace(code)
	return s
}

// IsEmpty reports whether no field is selected.
func (s LocationSelection) IsEmpty() bool {
	return s == LocationSelection{}
}

// StoredLocation is the location as persisted on an entity. Values may be
// codes or free-text labels and are not guaranteed to be consistent.
type StoredLocation struct {
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// LocationCandidates holds the option lists for the selection widgets.
type LocationCandidates struct {
	States           []State        `json:"states"`
	Cities           []City         `json:"cities"`
	PostalCandidates []PostalRecord `json:"postal_candidates"`
	// Degraded is set when an oracle lookup failed and a list was left empty.
	Degraded bool `json:"degraded,omitempty"`
}

// PostalReason classifies a postal code validation failure.
type PostalReason string

const (
	PostalReasonNone         PostalReason = ""
	PostalReasonCityRequired PostalReason = "city-required"
	PostalReasonMalformed    PostalReason = "malformed"
	PostalReasonNotFound     PostalReason = "not-found"
	PostalReasonCityMismatch PostalReason = "city-mismatch"
)

// PostalOutcome is the result of validating a postal code against a city.
// CityName and Code record the input the outcome was computed for.
type PostalOutcome struct {
	OK       bool         `json:"ok"`
	Reason   PostalReason `json:"reason,omitempty"`
	Detail   string       `json:"detail,omitempty"`
	Degraded bool         `json:"degraded,omitempty"`
	CityName string       `json:"city_name,omitempty"`
	Code     string       `json:"code,omitempty"`
}

// Err returns the sentinel error matching the outcome, or nil when OK.
func (o PostalOutcome) Err() error {
	switch o.Reason {
	case PostalReasonCityRequired:
		return ErrCityRequired
	case PostalReasonMalformed:
		return ErrMalformedInput
	case PostalReasonNotFound:
		return ErrPostalNotFound
	case PostalReasonCityMismatch:
		return ErrCityMismatch
	}
	return nil
}

// AppliesTo reports whether the outcome was computed for sel.
func (o PostalOutcome) AppliesTo(sel LocationSelection) bool {
	return o.CityName == sel.CityName && o.Code == sel.PostalCode
}

// MatchesCity reports whether the record plausibly belongs to city. A record
// matches when one of its area/circle/district/sub-district fields contains
// the city name, or the city name contains a field of at least four
// characters. Comparison is case-folded.
func (r PostalRecord) MatchesCity(city string) bool {
	want := FoldName(city)
	if want == "" {
		return false
	}

	for _, field := range []string{r.Area, r.Circle, r.District, r.SubDistrict} {
		got := FoldName(field)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) {
			return true
		}
		if len([]rune(got)) >= 4 && strings.Contains(want, got) {
			return true
		}
	}

	return false
}

// FoldName trims, collapses inner whitespace and case-folds a name for
// comparison. A Caser is stateful, so one is built per call.
func FoldName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// FoldEntityName trims and case-folds a company or branch name. Inner
// whitespace is kept, matching the lower(name) index on entities.
func FoldEntityName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizeCode trims and upper-cases a country or state code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
