package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain name kept", "Tomate", "Tomate"},
		{"empty", "", UnknownIngredient},
		{"whitespace only", "   ", UnknownIngredient},
		{"translation error", "NO QUERY SPECIFIED. EXAMPLE REQUEST: GET?Q=HELLO&LANGPAIR=EN|IT", IngredientToVerify},
		{"lower case fragment", "langpair=fr|en", IngredientToVerify},
		{"query fragment", "get?q=oignon", IngredientToVerify},
		{"similar but harmless", "Example of request", "Example of request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.raw))
		})
	}
}

func TestCleanNameIdempotent(t *testing.T) {
	for _, raw := range []string{"", "Lait", "EXAMPLE REQUEST", UnknownIngredient, IngredientToVerify} {
		once := CleanName(raw)
		assert.Equal(t, once, CleanName(once), raw)
		assert.NotEmpty(t, once)
	}
}

func TestIsTranslationError(t *testing.T) {
	assert.True(t, IsTranslationError("MYMEMORY WARNING: NO QUERY SPECIFIED"))
	assert.False(t, IsTranslationError("g"))
	assert.False(t, IsTranslationError(""))
}
