package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/orgconf/internal/domain"
)

// ReferenceService defines the behavior needed by ReferenceHandler.
type ReferenceService interface {
	Countries(ctx context.Context) ([]domain.Country, error)
	States(ctx context.Context, countryCode string) ([]domain.State, error)
	Cities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error)
	Postal(ctx context.Context, code string) ([]domain.PostalRecord, error)
	PostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error)
	Currency(countryCode string) domain.CurrencyProfile
}

// ReferenceHandler serves reference data for selection widgets.
type ReferenceHandler struct {
	referenceUC ReferenceService
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(referenceUC ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceUC: referenceUC}
}

func (h *ReferenceHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.referenceUC.Countries(r.Context())
	writeList(w, r, "countries", countries, err)
}

func (h *ReferenceHandler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.referenceUC.States(r.Context(), chi.URLParam(r, "cc"))
	writeList(w, r, "states", states, err)
}

func (h *ReferenceHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.referenceUC.Cities(r.Context(), chi.URLParam(r, "cc"), chi.URLParam(r, "sc"))
	writeList(w, r, "cities", cities, err)
}

// Postal looks up a postal code.
func (h *ReferenceHandler) Postal(w http.ResponseWriter, r *http.Request) {
	records, err := h.referenceUC.Postal(r.Context(), chi.URLParam(r, "code"))
	writeList(w, r, "postal", records, err)
}

// PostalByCity lists the postal codes of ?city=.
func (h *ReferenceHandler) PostalByCity(w http.ResponseWriter, r *http.Request) {
	records, err := h.referenceUC.PostalByCity(r.Context(), r.URL.Query().Get("city"))
	writeList(w, r, "postal", records, err)
}

// Currency returns the currency profile derived from a country.
func (h *ReferenceHandler) Currency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.referenceUC.Currency(chi.URLParam(r, "cc")))
}

func writeList[T any](w http.ResponseWriter, r *http.Request, name string, items []T, err error) {
	if err != nil {
		writeDomainError(w, r, err, "failed to load "+name)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string][]T{name: items})
}
