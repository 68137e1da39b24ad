package domain

import (
	"fmt"
	"strings"
)

// Currency display limits.
const (
	MinDecimalPlaces = 0
	MaxDecimalPlaces = 6
)

// CurrencyProfile is the currency an entity keeps its books in, plus display
// preferences.
type CurrencyProfile struct {
	Symbol                      string `json:"symbol"`
	FormalName                  string `json:"formal_name"`
	ShowInMillions              bool   `json:"show_in_millions"`
	DecimalPlaces               int    `json:"decimal_places"`
	AfterDecimalWord            string `json:"after_decimal_word"`
	DecimalPlacesInWords        int    `json:"decimal_places_in_words"`
	SuffixSymbolToAmount        bool   `json:"suffix_symbol_to_amount"`
	SpaceBetweenAmountAndSymbol bool   `json:"space_between_amount_and_symbol"`
}

// Validate checks the profile's display preferences.
func (p CurrencyProfile) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("%w: currency symbol is required", ErrInvalidFieldValue)
	}
	if strings.TrimSpace(p.FormalName) == "" {
		return fmt.Errorf("%w: currency formal name is required", ErrInvalidFieldValue)
	}
	if err := ValidateDecimalPlaces(p.DecimalPlaces); err != nil {
		return err
	}
	return ValidateDecimalPlaces(p.DecimalPlacesInWords)
}

// ValidateDecimalPlaces checks n is within the supported range.
func ValidateDecimalPlaces(n int) error {
	if n < MinDecimalPlaces || n > MaxDecimalPlaces {
		return fmt.Errorf("%w: decimal places must be between %d and %d", ErrInvalidFieldValue, MinDecimalPlaces, MaxDecimalPlaces)
	}
	return nil
}
