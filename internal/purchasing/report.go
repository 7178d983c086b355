package purchasing

import (
	"time"

	"github.com/odyssey-erp/pantry/internal/inventory"
)

// Report is the grouped recommendation for one unit at a point in time.
type Report struct {
	UnitID      string          `json:"unitId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	TotalLines  int             `json:"totalLines"`
	Groups      []CategoryGroup `json:"groups"`
}

// Text renders the report as a plain-text purchase order.
func (r Report) Text() string {
	return FormatOrder(r.Groups, r.GeneratedAt)
}

// Build projects items into a Report.
func Build(unitID string, items []inventory.Item, at time.Time) Report {
	recs := Recommend(items)
	return Report{
		UnitID:      unitID,
		GeneratedAt: at,
		TotalLines:  len(recs),
		Groups:      Group(recs),
	}
}

// Reporter builds reports from item snapshots. It satisfies the inventory
// count reporter so a finished stock count can return the next order.
type Reporter struct {
	Now func() time.Time
}

// FromItems builds a Report for the unit of the given items.
func (r Reporter) FromItems(items []inventory.Item) any {
	unitID := ""
	if len(items) > 0 {
		unitID = items[0].UnitID
	}
	return Build(unitID, items, r.now())
}

func (r Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
