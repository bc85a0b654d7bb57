package shopping

import (
	"regexp"
	"strings"
)

const (
	// UnknownIngredient replaces empty or missing names
	UnknownIngredient = "Unknown ingredient"
	// IngredientToVerify replaces names that leaked a translation-service error
	IngredientToVerify = "Ingredient to verify"
)

// translationErrorPattern matches the diagnostic the upstream translation
// service returns when it is called without a query, e.g.
// "NO QUERY SPECIFIED. EXAMPLE REQUEST: GET?Q=HELLO&LANGPAIR=EN|IT".
var translationErrorPattern = regexp.MustCompile(`(?i)NO QUERY SPECIFIED|EXAMPLE REQUEST|GET\?Q=|LANGPAIR=`)

// CleanName returns the display name for a raw ingredient name.
// The result is never empty.
func CleanName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnknownIngredient
	}
	if translationErrorPattern.MatchString(raw) {
		return IngredientToVerify
	}
	return raw
}

// IsTranslationError reports whether s carries the translation-service
// diagnostic. Units are checked with it before being displayed.
func IsTranslationError(s string) bool {
	return translationErrorPattern.MatchString(s)
}
