// Package money formats monetary values for display on rendered documents.
// Formatting is a presentation policy: values stay unrounded float64 inside
// the pricing engine and only pick up currency precision and locale
// separators here. Defaults target Brazilian Portuguese / BRL but both are
// parameterized through configuration.
package money

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// symbols maps ISO 4217 codes to their display symbol. Codes without an
// entry fall back to the ISO code itself.
var symbols = map[string]string{
	"BRL": "R$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Formatter renders amounts with two decimal places and locale-appropriate
// thousands/decimal separators.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// New builds a formatter for a BCP 47 locale and an ISO 4217 currency code.
// Unknown locales fall back to pt-BR, unknown currency codes to BRL.
func New(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.BRL
	}
	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String()
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Default returns the pt-BR / BRL formatter.
func Default() *Formatter {
	return New("pt-BR", "BRL")
}

// Number formats the bare amount: two decimals, locale separators.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Format prefixes the amount with the currency symbol.
func (f *Formatter) Format(v float64) string {
	return f.symbol + " " + f.Number(v)
}
