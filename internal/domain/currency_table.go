package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// DefaultCurrencyCode is used for countries missing from the table and for
// entities with no country.
const DefaultCurrencyCode = "USD"

type countryCurrency struct {
	code    string
	symbol  string
	subunit string
}

// countryCurrencies maps ISO 3166-1 alpha-2 country codes to their currency.
var countryCurrencies = map[string]countryCurrency{
	"AE": {"AED", "د.إ", "Fils"},
	"AF": {"AFN", "؋", "Pul"},
	"AL": {"ALL", "L", "Qindarka"},
	"AM": {"AMD", "֏", "Luma"},
	"AO": {"AOA", "Kz", "Cêntimo"},
	"AR": {"ARS", "$", "Centavo"},
	"AT": {"EUR", "€", "Cent"},
	"AU": {"AUD", "A$", "Cent"},
	"AZ": {"AZN", "₼", "Qəpik"},
	"BA": {"BAM", "KM", "Fening"},
	"BD": {"BDT", "৳", "Paisa"},
	"BE": {"EUR", "€", "Cent"},
	"BG": {"BGN", "лв", "Stotinka"},
	"BH": {"BHD", ".د.ب", "Fils"},
	"BN": {"BND", "B$", "Sen"},
	"BO": {"BOB", "Bs.", "Centavo"},
	"BR": {"BRL", "R$", "Centavo"},
	"BT": {"BTN", "Nu.", "Chhertum"},
	"BW": {"BWP", "P", "Thebe"},
	"BY": {"BYN", "Br", "Kapeyka"},
	"CA": {"CAD", "C$", "Cent"},
	"CH": {"CHF", "CHF", "Rappen"},
	"CL": {"CLP", "$", "Centavo"},
	"CN": {"CNY", "¥", "Fen"},
	"CO": {"COP", "$", "Centavo"},
	"CR": {"CRC", "₡", "Céntimo"},
	"CY": {"EUR", "€", "Cent"},
	"CZ": {"CZK", "Kč", "Haléř"},
	"DE": {"EUR", "€", "Cent"},
	"DK": {"DKK", "kr", "Øre"},
	"DO": {"DOP", "RD$", "Centavo"},
	"DZ": {"DZD", "د.ج", "Santeem"},
	"EC": {"USD", "$", "Cent"},
	"EE": {"EUR", "€", "Cent"},
	"EG": {"EGP", "E£", "Piastre"},
	"ES": {"EUR", "€", "Cent"},
	"ET": {"ETB", "Br", "Santim"},
	"FI": {"EUR", "€", "Cent"},
	"FJ": {"FJD", "FJ$", "Cent"},
	"FR": {"EUR", "€", "Cent"},
	"GB": {"GBP", "£", "Penny"},
	"GE": {"GEL", "₾", "Tetri"},
	"GH": {"GHS", "₵", "Pesewa"},
	"GR": {"EUR", "€", "Cent"},
	"GT": {"GTQ", "Q", "Centavo"},
	"HK": {"HKD", "HK$", "Cent"},
	"HN": {"HNL", "L", "Centavo"},
	"HR": {"EUR", "€", "Cent"},
	"HU": {"HUF", "Ft", "Fillér"},
	"ID": {"IDR", "Rp", "Sen"},
	"IE": {"EUR", "€", "Cent"},
	"IL": {"ILS", "₪", "Agora"},
	"IN": {"INR", "₹", "Paise"},
	"IQ": {"IQD", "ع.د", "Fils"},
	"IR": {"IRR", "﷼", "Dinar"},
	"IS": {"ISK", "kr", "Eyrir"},
	"IT": {"EUR", "€", "Cent"},
	"JM": {"JMD", "J$", "Cent"},
	"JO": {"JOD", "د.ا", "Piastre"},
	"JP": {"JPY", "¥", "Sen"},
	"KE": {"KES", "KSh", "Cent"},
	"KG": {"KGS", "с", "Tyiyn"},
	"KH": {"KHR", "៛", "Sen"},
	"KR": {"KRW", "₩", "Jeon"},
	"KW": {"KWD", "د.ك", "Fils"},
	"KZ": {"KZT", "₸", "Tiyn"},
	"LA": {"LAK", "₭", "Att"},
	"LB": {"LBP", "ل.ل", "Piastre"},
	"LK": {"LKR", "Rs", "Cent"},
	"LT": {"EUR", "€", "Cent"},
	"LU": {"EUR", "€", "Cent"},
	"LV": {"EUR", "€", "Cent"},
	"MA": {"MAD", "د.م.", "Santim"},
	"MD": {"MDL", "L", "Ban"},
	"MG": {"MGA", "Ar", "Iraimbilanja"},
	"MK": {"MKD", "ден", "Deni"},
	"MM": {"MMK", "K", "Pya"},
	"MN": {"MNT", "₮", "Möngö"},
	"MT": {"EUR", "€", "Cent"},
	"MU": {"MUR", "₨", "Cent"},
	"MV": {"MVR", "Rf", "Laari"},
	"MX": {"MXN", "Mex$", "Centavo"},
	"MY": {"MYR", "RM", "Sen"},
	"MZ": {"MZN", "MT", "Centavo"},
	"NA": {"NAD", "N$", "Cent"},
	"NG": {"NGN", "₦", "Kobo"},
	"NI": {"NIO", "C$", "Centavo"},
	"NL": {"EUR", "€", "Cent"},
	"NO": {"NOK", "kr", "Øre"},
	"NP": {"NPR", "रू", "Paisa"},
	"NZ": {"NZD", "NZ$", "Cent"},
	"OM": {"OMR", "ر.ع.", "Baisa"},
	"PA": {"PAB", "B/.", "Centésimo"},
	"PE": {"PEN", "S/", "Céntimo"},
	"PG": {"PGK", "K", "Toea"},
	"PH": {"PHP", "₱", "Sentimo"},
	"PK": {"PKR", "₨", "Paisa"},
	"PL": {"PLN", "zł", "Grosz"},
	"PT": {"EUR", "€", "Cent"},
	"PY": {"PYG", "₲", "Céntimo"},
	"QA": {"QAR", "ر.ق", "Dirham"},
	"RO": {"RON", "lei", "Ban"},
	"RS": {"RSD", "дин.", "Para"},
	"RU": {"RUB", "₽", "Kopeck"},
	"RW": {"RWF", "FRw", "Centime"},
	"SA": {"SAR", "﷼", "Halala"},
	"SE": {"SEK", "kr", "Öre"},
	"SG": {"SGD", "S$", "Cent"},
	"SI": {"EUR", "€", "Cent"},
	"SK": {"EUR", "€", "Cent"},
	"SV": {"USD", "$", "Cent"},
	"TH": {"THB", "฿", "Satang"},
	"TN": {"TND", "د.ت", "Millime"},
	"TR": {"TRY", "₺", "Kuruş"},
	"TT": {"TTD", "TT$", "Cent"},
	"TW": {"TWD", "NT$", "Cent"},
	"TZ": {"TZS", "TSh", "Cent"},
	"UA": {"UAH", "₴", "Kopiyka"},
	"UG": {"UGX", "USh", "Cent"},
	"US": {"USD", "$", "Cent"},
	"UY": {"UYU", "$U", "Centésimo"},
	"UZ": {"UZS", "soʻm", "Tiyin"},
	"VE": {"VES", "Bs.", "Céntimo"},
	"VN": {"VND", "₫", "Hào"},
	"ZA": {"ZAR", "R", "Cent"},
	"ZM": {"ZMW", "ZK", "Ngwee"},
	"ZW": {"USD", "$", "Cent"},
}

// DefaultCurrencyProfile is the global fallback profile.
func DefaultCurrencyProfile() CurrencyProfile {
	return profileFor(countryCurrency{code: DefaultCurrencyCode, symbol: "$", subunit: "Cent"})
}

// DeriveCurrency returns the currency profile for a country code. Unknown or
// empty codes yield DefaultCurrencyProfile.
func DeriveCurrency(countryCode string) CurrencyProfile {
	entry, ok := countryCurrencies[NormalizeCode(countryCode)]
	if !ok {
		return DefaultCurrencyProfile()
	}
	return profileFor(entry)
}

// KnownCurrencyCountry reports whether the table has an entry for the code.
func KnownCurrencyCountry(countryCode string) bool {
	_, ok := countryCurrencies[NormalizeCode(countryCode)]
	return ok
}

func profileFor(entry countryCurrency) CurrencyProfile {
	profile := CurrencyProfile{
		Symbol:           entry.symbol,
		FormalName:       entry.code,
		DecimalPlaces:    2,
		AfterDecimalWord: entry.subunit,
	}

	if c := money.GetCurrency(entry.code); c != nil {
		profile.DecimalPlaces = clampDecimalPlaces(c.Fraction)
		// go-money templates put the amount as "1" and the symbol as "$",
		// e.g. "$1" or "1 $".
		profile.SuffixSymbolToAmount = strings.HasPrefix(c.Template, "1")
		profile.SpaceBetweenAmountAndSymbol = strings.Contains(c.Template, " ")
	}
	profile.DecimalPlacesInWords = profile.DecimalPlaces

	return profile
}

func clampDecimalPlaces(n int) int {
	if n < MinDecimalPlaces {
		return MinDecimalPlaces
	}
	if n > MaxDecimalPlaces {
		return MaxDecimalPlaces
	}
	return n
}
