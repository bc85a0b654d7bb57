package shopping

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// ChecklistParser reads pasted checklists: markdown task lines such as
// "- [x] 2 cups flour" and the numbered lines written by Render.
type ChecklistParser struct {
	checkboxPattern *regexp.Regexp
	renderedPattern *regexp.Regexp
	rangePattern    *regexp.Regexp
	mixedPattern    *regexp.Regexp
	fractionPattern *regexp.Regexp
	quantityPattern *regexp.Regexp
	unitPattern     *regexp.Regexp
	notesPattern    *regexp.Regexp
	spacePattern    *regexp.Regexp
}

// Unicode vulgar fractions
var unicodeFractions = map[rune]float64{
	'¼': 0.25,
	'½': 0.5,
	'¾': 0.75,
	'⅓': 1.0 / 3,
	'⅔': 2.0 / 3,
	'⅕': 0.2,
	'⅛': 0.125,
	'⅜': 0.375,
	'⅝': 0.625,
	'⅞': 0.875,
}

var unitNormalization = map[string]string{
	"tsp": "teaspoon", "teaspoons": "teaspoon", "cac": "teaspoon",
	"tbsp": "tablespoon", "tablespoons": "tablespoon", "cas": "tablespoon",
	"cups": "cup", "c": "cup",
	"l": "liter", "liters": "liter", "litres": "liter", "litre": "liter",
	"ml": "milliliter", "cl": "centiliter",
	"g": "gram", "grams": "gram", "gr": "gram", "grammes": "gram",
	"kg": "kilogram", "kilograms": "kilogram",
	"oz": "ounce", "ounces": "ounce",
	"lb": "pound", "lbs": "pound", "pounds": "pound",
	"pc": "piece", "pcs": "piece", "pieces": "piece", "pièces": "piece",
	"cloves": "clove", "gousses": "clove", "gousse": "clove",
	"cans": "can", "boîtes": "can", "boîte": "can",
	"bunches": "bunch", "bottes": "bunch", "botte": "bunch",
	"pinches": "pinch", "pincée": "pinch", "pincées": "pinch",
}

// NewChecklistParser creates a parser
func NewChecklistParser() *ChecklistParser {
	return &ChecklistParser{
		// - [ ] item, * [x] item, 1. [ ] item
		checkboxPattern: regexp.MustCompile(`^(?:[-*+]|\d+\.)\s*\[([ xX]?)\]\s*(.+)$`),
		// 3. [x] Tomate: 2 pcs. The amount follows the last colon.
		renderedPattern: regexp.MustCompile(`^\d+\.\s*\[([ xX])\]\s*(.+):\s*(.*)$`),
		// 2.5 - 3
		rangePattern: regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*-\s*(\d+(?:[.,]\d+)?)\s*`),
		// 1 1/2
		mixedPattern: regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)\s*`),
		// 1/2
		fractionPattern: regexp.MustCompile(`^(\d+)/(\d+)\s*`),
		// 1, 1.5, 1,5
		quantityPattern: regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*`),
		// Longer units first
		unitPattern:  regexp.MustCompile(`(?i)^(tablespoons?|teaspoons?|kilograms?|grammes|grams?|ounces?|pounds?|pieces?|pièces|liters?|litres?|cloves?|gousses?|bunch(?:es)?|bottes?|pinch(?:es)?|pincées?|boîtes?|cans?|cups?|tbsp|tsp|cac|cas|lbs?|oz|ml|cl|kg|gr|pcs?|g|l|c)\.?(?:\s+|$)`),
		notesPattern: regexp.MustCompile(`\(([^)]+)\)`),
		spacePattern: regexp.MustCompile(`\s+`),
	}
}

// Parse returns one item per checklist line. Other lines, such as headings
// or the "For:" lines of a rendered list, are skipped.
func (p *ChecklistParser) Parse(content string) []models.ShoppingListItem {
	var items []models.ShoppingListItem
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := p.renderedPattern.FindStringSubmatch(line); m != nil {
			qty, unit := p.parseAmount(m[3])
			items = append(items, models.ShoppingListItem{
				Name:     p.cleanName(m[2]),
				Quantity: qty,
				Unit:     unit,
				Checked:  isChecked(m[1]),
			})
			continue
		}

		if m := p.checkboxPattern.FindStringSubmatch(line); m != nil {
			item := p.parseLine(strings.TrimSpace(m[2]))
			item.Checked = isChecked(m[1])
			if item.Name != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func isChecked(box string) bool {
	return strings.EqualFold(box, "x")
}

// parseLine reads "quantity unit name (notes)"
func (p *ChecklistParser) parseLine(s string) models.ShoppingListItem {
	rest, qty, ok := p.extractQuantity(s)
	unit := ""
	if ok {
		rest, unit = p.extractUnit(rest)
	}
	rest = p.notesPattern.ReplaceAllString(rest, "")
	if i := strings.Index(rest, ","); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimPrefix(strings.TrimSpace(rest), "de ")
	rest = strings.TrimPrefix(rest, "d'")
	return models.ShoppingListItem{
		Name:     p.cleanName(rest),
		Quantity: qty,
		Unit:     unit,
	}
}

// parseAmount reads the "2 pcs" part of a rendered line. The unit is kept
// as written.
func (p *ChecklistParser) parseAmount(s string) (string, string) {
	rest, qty, _ := p.extractQuantity(s)
	return qty, strings.TrimSpace(rest)
}

// extractQuantity returns the remaining text and the quantity. ok is false
// when s does not start with one and the default quantity is used.
func (p *ChecklistParser) extractQuantity(s string) (rest, qty string, ok bool) {
	s = strings.TrimSpace(s)

	if m := p.rangePattern.FindStringSubmatch(s); m != nil {
		low, high := parseNumber(m[1]), parseNumber(m[2])
		return strings.TrimSpace(s[len(m[0]):]), formatQuantity((low + high) / 2), true
	}
	if m := p.mixedPattern.FindStringSubmatch(s); m != nil {
		whole, num, den := parseNumber(m[1]), parseNumber(m[2]), parseNumber(m[3])
		if den != 0 {
			return strings.TrimSpace(s[len(m[0]):]), formatQuantity(whole + num/den), true
		}
	}
	if rest, v, ok := p.leadingNumberWithVulgar(s); ok {
		return rest, formatQuantity(v), true
	}
	if m := p.fractionPattern.FindStringSubmatch(s); m != nil {
		num, den := parseNumber(m[1]), parseNumber(m[2])
		if den != 0 {
			return strings.TrimSpace(s[len(m[0]):]), formatQuantity(num / den), true
		}
	}
	if m := p.quantityPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(s[len(m[0]):]), formatQuantity(parseNumber(m[1])), true
	}
	return s, models.DefaultQuantity, false
}

// leadingNumberWithVulgar reads "½" or "1 ½"
func (p *ChecklistParser) leadingNumberWithVulgar(s string) (string, float64, bool) {
	runes := []rune(s)
	i := 0
	whole := 0.0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		whole = whole*10 + float64(runes[i]-'0')
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if i >= len(runes) {
		return s, 0, false
	}
	frac, ok := unicodeFractions[runes[i]]
	if !ok {
		return s, 0, false
	}
	return strings.TrimSpace(string(runes[i+1:])), whole + frac, true
}

func (p *ChecklistParser) extractUnit(s string) (string, string) {
	m := p.unitPattern.FindStringSubmatch(s)
	if m == nil {
		return s, ""
	}
	return strings.TrimSpace(s[len(m[0]):]), normalizeUnit(m[1])
}

func normalizeUnit(unit string) string {
	unit = strings.ToLower(strings.TrimSuffix(unit, "."))
	if n, ok := unitNormalization[unit]; ok {
		return n
	}
	return unit
}

func (p *ChecklistParser) cleanName(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".,;:-_")
	return strings.TrimSpace(p.spacePattern.ReplaceAllString(s, " "))
}

func parseNumber(s string) float64 {
	v, _ := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return v
}

// formatQuantity keeps at most two decimals
func formatQuantity(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
