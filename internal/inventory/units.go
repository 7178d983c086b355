package inventory

// RestaurantUnit is one branch, the top-level partition of all inventory data.
type RestaurantUnit struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Units lists the known restaurant units.
var Units = []RestaurantUnit{
	{ID: "P10", Label: "Coqueiro Verde - Parque 10"},
	{ID: "P14", Label: "Coqueiro Verde - Praça 14"},
	{ID: "AMS", Label: "Coqueiro Verde - Amazonas Shopping"},
}

// KnownUnit reports whether id names a registered unit.
func KnownUnit(id string) bool {
	for _, u := range Units {
		if u.ID == id {
			return true
		}
	}
	return false
}
