package domain

import (
	"errors"
	"testing"
)

func TestDeriveCurrency(t *testing.T) {
	tests := []struct {
		country    string
		symbol     string
		formalName string
	}{
		{country: "IN", symbol: "₹", formalName: "INR"},
		{country: "in", symbol: "₹", formalName: "INR"},
		{country: "GB", symbol: "£", formalName: "GBP"},
		{country: "DE", symbol: "€", formalName: "EUR"},
		{country: "US", symbol: "$", formalName: "USD"},
		{country: "XX", symbol: "$", formalName: "USD"},
		{country: "", symbol: "$", formalName: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got := DeriveCurrency(tt.country)
			if got.Symbol != tt.symbol || got.FormalName != tt.formalName {
				t.Errorf("DeriveCurrency(%q) = {%s, %s}, want {%s, %s}",
					tt.country, got.Symbol, got.FormalName, tt.symbol, tt.formalName)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("derived profile should be valid: %v", err)
			}
		})
	}
}

func TestDeriveCurrency_IsPure(t *testing.T) {
	for code := range countryCurrencies {
		if DeriveCurrency(code) != DeriveCurrency(code) {
			t.Fatalf("DeriveCurrency(%q) is not deterministic", code)
		}
	}
	if DeriveCurrency("ZZ") != DefaultCurrencyProfile() {
		t.Error("unknown code should yield the default profile")
	}
}

func TestDeriveCurrency_DecimalPlaces(t *testing.T) {
	if got := DeriveCurrency("IN").DecimalPlaces; got != 2 {
		t.Errorf("expected 2 decimal places for INR, got %d", got)
	}
	if got := DeriveCurrency("JP").DecimalPlaces; got != 0 {
		t.Errorf("expected 0 decimal places for JPY, got %d", got)
	}
	if got := DeriveCurrency("IN").AfterDecimalWord; got != "Paise" {
		t.Errorf("expected Paise, got %q", got)
	}
}

func TestCountryCurrencyTableSize(t *testing.T) {
	if len(countryCurrencies) < 100 {
		t.Errorf("expected at least 100 countries, got %d", len(countryCurrencies))
	}
	if !KnownCurrencyCountry("in") || KnownCurrencyCountry("ZZ") {
		t.Error("KnownCurrencyCountry returned unexpected result")
	}
}

func TestCurrencyProfile_Validate(t *testing.T) {
	valid := DeriveCurrency("IN")

	tests := []struct {
		name   string
		mutate func(p *CurrencyProfile)
		ok     bool
	}{
		{name: "valid", mutate: func(p *CurrencyProfile) {}, ok: true},
		{name: "missing symbol", mutate: func(p *CurrencyProfile) { p.Symbol = " " }},
		{name: "missing formal name", mutate: func(p *CurrencyProfile) { p.FormalName = "" }},
		{name: "decimal places too high", mutate: func(p *CurrencyProfile) { p.DecimalPlaces = 7 }},
		{name: "decimal places in words negative", mutate: func(p *CurrencyProfile) { p.DecimalPlacesInWords = -1 }},
		{name: "six places allowed", mutate: func(p *CurrencyProfile) { p.DecimalPlaces = 6 }, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidFieldValue) {
				t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
			}
		})
	}
}
