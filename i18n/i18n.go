// Package i18n holds the label translations used on rendered documents.
// Portuguese (pt-BR) is the default; English is available as an alternative.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

type ctxKey struct{}

// DefaultLang is used when no preference can be determined.
const DefaultLang = "pt"

var supported = []language.Tag{
	language.BrazilianPortuguese, // first tag is the fallback
	language.English,
}

var matcher = language.NewMatcher(supported)

var translations = map[string]map[string]string{
	"pt": {
		"lang_code":        "pt-BR",
		"quote":            "Orçamento",
		"date":             "Data",
		"client":           "Cliente",
		"email":            "E-mail",
		"description":      "Descrição",
		"unit_price":       "Preço unit.",
		"needed_qty":       "Qtd. necessária",
		"owned_qty":        "Qtd. em mãos",
		"buy_qty":          "Qtd. a comprar",
		"line_total":       "Total",
		"savings":          "Economia",
		"subtotal":         "Subtotal",
		"discount":         "Desconto",
		"total":            "Total geral",
		"notes":            "Observações",
		"no_items":         "Nenhum item adicionado",
		"no_client":        "Cliente não informado",
		"no_company":       "Empresa não informada",
		"disclaimer":       "Este orçamento não constitui documento fiscal. Valores sujeitos a alteração sem aviso prévio.",
		"required":         "Obrigatório",
	},
	"en": {
		"lang_code":        "en",
		"quote":            "Quote",
		"date":             "Date",
		"client":           "Client",
		"email":            "Email",
		"description":      "Description",
		"unit_price":       "Unit price",
		"needed_qty":       "Needed qty",
		"owned_qty":        "Owned qty",
		"buy_qty":          "Buy qty",
		"line_total":       "Total",
		"savings":          "Savings",
		"subtotal":         "Subtotal",
		"discount":         "Discount",
		"total":            "Grand total",
		"notes":            "Notes",
		"no_items":         "No items added",
		"no_client":        "No client provided",
		"no_company":       "No company provided",
		"disclaimer":       "This quote is not a fiscal document. Prices are subject to change without notice.",
		"required":         "Required",
	},
}

// T translates a label code for the given language.
// Unknown languages fall back to Portuguese; unknown codes fall back to the
// code itself so missing entries are visible rather than blank.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations[DefaultLang][code]; ok {
		return s
	}
	return code
}

// IsSupported reports whether lang has a translation table.
func IsSupported(lang string) bool {
	_, ok := translations[lang]
	return ok
}

// DetectLanguage resolves an Accept-Language header to a supported language.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	if _, ok := translations[base.String()]; ok {
		return base.String()
	}
	return DefaultLang
}

// WithLang stores the language preference in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext retrieves the language preference, defaulting to pt.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
