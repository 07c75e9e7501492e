// internal/services/currency_service.go
package services

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// CanonicalCurrencyCode is the unit every stored amount is kept in.
const CanonicalCurrencyCode = "USD"

type Currency struct {
	Code            string  `json:"code" yaml:"code"`
	Symbol          string  `json:"symbol" yaml:"symbol"`
	RateToCanonical float64 `json:"rate" yaml:"rate"`
	ZeroDecimal     bool    `json:"zero_decimal" yaml:"zero_decimal"`
}

// Decimals is the number of fraction digits shown for the currency.
func (c Currency) Decimals() int {
	if c.ZeroDecimal {
		return 0
	}
	return 2
}

var zeroDecimalCodes = map[string]bool{"JPY": true, "NGN": true, "INR": true}

var usd = Currency{Code: "USD", Symbol: "$", RateToCanonical: 1}

// DefaultCurrencyTable maps a user's country to the display currency.
func DefaultCurrencyTable() map[string]Currency {
	eur := Currency{Code: "EUR", Symbol: "€", RateToCanonical: 0.93}
	return map[string]Currency{
		"United States":  usd,
		"United Kingdom": {Code: "GBP", Symbol: "£", RateToCanonical: 0.82},
		"Canada":         {Code: "CAD", Symbol: "CA$", RateToCanonical: 1.37},
		"Australia":      {Code: "AUD", Symbol: "A$", RateToCanonical: 1.52},
		"Germany":        eur,
		"France":         eur,
		"Japan":          {Code: "JPY", Symbol: "¥", RateToCanonical: 157.0, ZeroDecimal: true},
		"Brazil":         {Code: "BRL", Symbol: "R$", RateToCanonical: 5.35},
		"Nigeria":        {Code: "NGN", Symbol: "₦", RateToCanonical: 1480.0, ZeroDecimal: true},
		"India":          {Code: "INR", Symbol: "₹", RateToCanonical: 83.5, ZeroDecimal: true},
	}
}

type currencyFile struct {
	DefaultCountry string `yaml:"default_country"`
	Currencies     []struct {
		Country  string `yaml:"country"`
		Currency `yaml:",inline"`
	} `yaml:"currencies"`
}

// CurrencyService converts canonical amounts for display. It never fails: unknown
// countries and codes resolve to the default currency.
type CurrencyService struct {
	byCountry map[string]Currency
	byCode    map[string]Currency
	fallback  Currency
}

func NewCurrencyService(table map[string]Currency, defaultCountry string) *CurrencyService {
	s := &CurrencyService{
		byCountry: make(map[string]Currency, len(table)),
		byCode:    make(map[string]Currency, len(table)+1),
		fallback:  usd,
	}

	s.byCode[usd.Code] = usd
	for country, c := range table {
		c.Code = strings.ToUpper(c.Code)
		if zeroDecimalCodes[c.Code] {
			c.ZeroDecimal = true
		}
		s.byCountry[strings.ToLower(country)] = c
		s.byCode[c.Code] = c
	}

	if c, ok := s.byCountry[strings.ToLower(defaultCountry)]; ok {
		s.fallback = c
	}
	return s
}

// LoadCurrencyService reads a YAML currency table. An empty path yields the built-in table.
func LoadCurrencyService(path, defaultCountry string) (*CurrencyService, error) {
	if path == "" {
		return NewCurrencyService(DefaultCurrencyTable(), defaultCountry), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read currency table %s: %w", path, err)
	}

	var file currencyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse currency table %s: %w", path, err)
	}

	table := make(map[string]Currency, len(file.Currencies))
	for _, entry := range file.Currencies {
		if entry.Country == "" || entry.Code == "" || entry.RateToCanonical <= 0 {
			return nil, fmt.Errorf("invalid currency entry for country %q", entry.Country)
		}
		table[entry.Country] = entry.Currency
	}

	if file.DefaultCountry != "" {
		defaultCountry = file.DefaultCountry
	}
	return NewCurrencyService(table, defaultCountry), nil
}

func (s *CurrencyService) Default() Currency {
	return s.fallback
}

func (s *CurrencyService) ForCountry(country string) Currency {
	if c, ok := s.byCountry[strings.ToLower(strings.TrimSpace(country))]; ok {
		return c
	}
	return s.fallback
}

func (s *CurrencyService) ForCode(code string) Currency {
	if c, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return s.fallback
}

// Currencies lists the distinct currencies of the table ordered by code.
func (s *CurrencyService) Currencies() []Currency {
	out := make([]Currency, 0, len(s.byCode))
	for _, c := range s.byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Convert applies the display rate; rounding is left to Format.
func (s *CurrencyService) Convert(amountCanonical float64, target Currency) float64 {
	return amountCanonical * target.RateToCanonical
}

// ToCanonical converts an amount entered in the display currency back to canonical units.
func (s *CurrencyService) ToCanonical(amountDisplay float64, source Currency) float64 {
	if source.RateToCanonical == 0 {
		return amountDisplay
	}
	return amountDisplay / source.RateToCanonical
}

// Format converts and renders the amount with en-US grouping, e.g. "$1,234.56" or "¥4,709".
func (s *CurrencyService) Format(amountCanonical float64, target Currency) string {
	value := s.Convert(amountCanonical, target)

	sign := ""
	if value < 0 {
		sign = "-"
		value = math.Abs(value)
	}

	p := message.NewPrinter(language.AmericanEnglish)
	var digits string
	if target.Decimals() == 0 {
		digits = p.Sprintf("%.0f", value)
	} else {
		digits = p.Sprintf("%.2f", value)
	}
	return sign + target.Symbol + digits
}
