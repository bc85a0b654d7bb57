package shopping

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// Render writes a printable plain-text version of a categorized list.
// Empty categories are skipped and units carrying a translation error are
// hidden.
func Render(w io.Writer, title string, c Categorized) error {
	bw := bufio.NewWriter(w)

	if title != "" {
		fmt.Fprintln(bw, title)
		fmt.Fprintln(bw, strings.Repeat("=", len([]rune(title))))
	}

	total, checked := 0, 0
	buckets := c.NonEmpty()
	if len(buckets) == 0 {
		fmt.Fprintln(bw, "Your shopping list is empty.")
		return bw.Flush()
	}

	for i, b := range buckets {
		if i > 0 || title != "" {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "%s (%d)\n", b.Name, len(b.Items))
		for _, e := range b.Items {
			total++
			if e.Item.Checked {
				checked++
			}
			fmt.Fprintf(bw, "  %d. %s\n", e.Index, formatItem(e.Item))
			if names := e.Item.RecipeNames(); len(names) > 0 {
				fmt.Fprintf(bw, "       For: %s\n", strings.Join(names, ", "))
			}
		}
	}

	fmt.Fprintf(bw, "\n%d/%d items checked\n", checked, total)
	return bw.Flush()
}

func formatItem(item models.ShoppingListItem) string {
	box := "[ ]"
	if item.Checked {
		box = "[x]"
	}
	amount := item.Quantity
	if item.Unit != "" && !IsTranslationError(item.Unit) {
		amount += " " + item.Unit
	}
	return fmt.Sprintf("%s %s: %s", box, CleanName(item.Name), amount)
}

// Render writes the current list, categorized, in printable form
func (r *Reconciler) Render(w io.Writer) error {
	r.mu.Lock()
	title := r.listName
	r.mu.Unlock()
	if title == "" {
		title = "Shopping list"
	}
	return Render(w, title, r.Categorize())
}
