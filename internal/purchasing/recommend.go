// Package purchasing derives purchase suggestions from current stock levels.
package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/shared"
)

// OrderDateLayout formats the date in the plain-text order header.
const OrderDateLayout = "02/01/2006"

// Recommendation is one item below its minimum and the quantity to buy.
type Recommendation struct {
	Item      inventory.Item `json:"item"`
	Shortfall float64        `json:"shortfall"`
}

// CategoryGroup lists recommendations that share a category.
type CategoryGroup struct {
	Category string           `json:"category"`
	Lines    []Recommendation `json:"lines"`
}

// Recommend returns every item whose quantity is below its minimum, sorted by
// category then name. The shortfall is rounded half away from zero to two
// decimals.
func Recommend(items []inventory.Item) []Recommendation {
	out := make([]Recommendation, 0)
	for _, item := range items {
		if !item.BelowMinimum() {
			continue
		}
		out = append(out, Recommendation{Item: item, Shortfall: Shortfall(item)})
	}
	shared.SortFold(out,
		func(r Recommendation) string { return r.Item.Category },
		func(r Recommendation) string { return r.Item.Name },
	)
	return out
}

// Shortfall is minStock minus quantity, rounded to two decimals.
func Shortfall(item inventory.Item) float64 {
	diff := decimal.NewFromFloat(item.MinStock).Sub(decimal.NewFromFloat(item.Quantity))
	return diff.Round(2).InexactFloat64()
}

// Group splits sorted recommendations by category. Categories come out in the
// order of their first line, which is sorted when recs come from Recommend.
func Group(recs []Recommendation) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)
	for _, rec := range recs {
		i, ok := index[rec.Item.Category]
		if !ok {
			i = len(groups)
			index[rec.Item.Category] = i
			groups = append(groups, CategoryGroup{Category: rec.Item.Category})
		}
		groups[i].Lines = append(groups[i].Lines, rec)
	}
	shared.SortFold(groups, func(g CategoryGroup) string { return g.Category })
	return groups
}

// FormatOrder renders groups as a plain-text purchase order suitable for
// pasting into a chat message.
func FormatOrder(groups []CategoryGroup, date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*PEDIDO DE COMPRA - %s*\n\n", date.Format(OrderDateLayout))
	for _, g := range groups {
		category := g.Category
		if category == "" {
			category = "Sem categoria"
		}
		fmt.Fprintf(&b, "*%s*\n", category)
		for _, line := range g.Lines {
			fmt.Fprintf(&b, "- %s: %s %s\n", line.Item.Name, formatQuantity(line.Shortfall), line.Item.Unit)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatQuantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}
