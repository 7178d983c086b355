package inventory

import "fmt"

// CatalogEntry is one line of the opening catalogue with per-unit minimums.
type CatalogEntry struct {
	Name     string
	Category string
	Unit     string
	MinStock map[string]float64
}

// OpeningCatalog is the initial supply list loaded into empty units.
var OpeningCatalog = []CatalogEntry{
	{Name: "MARGARINA BALDE 15KG", Category: "Mercearia", Unit: "un", MinStock: map[string]float64{"P14": 2, "P10": 2}},
	{Name: "ÓLEO CX 20", Category: "Mercearia", Unit: "cx", MinStock: map[string]float64{"P14": 5, "P10": 5}},
	{Name: "SAL REFINADO FD 10 LEBR", Category: "Mercearia", Unit: "pct", MinStock: map[string]float64{"P14": 3, "P10": 0}},
	{Name: "SAZON FEIJÃO PC 12 SACH", Category: "Mercearia", Unit: "pct", MinStock: map[string]float64{"P14": 15, "P10": 15}},
	{Name: "VINAGRE BRANCO 750ML", Category: "Mercearia", Unit: "un", MinStock: map[string]float64{"P14": 24, "P10": 24}},
	{Name: "SAL GROSSO KG", Category: "Mercearia", Unit: "kg", MinStock: map[string]float64{"P14": 3, "P10": 3}},
	{Name: "ÁGUA SANITÁRIA 5L", Category: "Limpeza", Unit: "L", MinStock: map[string]float64{"P14": 1, "P10": 1}},
	{Name: "DETERGENTE NEUTRO 5L", Category: "Limpeza", Unit: "L", MinStock: map[string]float64{"P14": 2, "P10": 2}},
	{Name: "PANO DE CHÃO", Category: "Limpeza", Unit: "un", MinStock: map[string]float64{"P14": 4, "P10": 4}},
	{Name: "PASTILHA DE CLORO", Category: "Limpeza", Unit: "un", MinStock: map[string]float64{"P14": 2, "P10": 2}},
	{Name: "BOBINA AMARELA CX", Category: "Expediente", Unit: "cx", MinStock: map[string]float64{"P14": 2, "P10": 2}},
	{Name: "LACRE DELIVERY MILHEIRO", Category: "Expediente", Unit: "un", MinStock: map[string]float64{"P14": 5, "P10": 5}},
	{Name: "PAPEL A4 RESMA", Category: "Expediente", Unit: "pct", MinStock: map[string]float64{"P14": 2, "P10": 2}},
	{Name: "PICADINHO 1 KG", Category: "Carnes", Unit: "kg", MinStock: map[string]float64{"P14": 5, "P10": 0}},
	{Name: "BIFE 1 KG", Category: "Carnes", Unit: "kg", MinStock: map[string]float64{"P14": 5, "P10": 0}},
	{Name: "QUEIJO ESPETO PCT", Category: "Carnes", Unit: "pct", MinStock: map[string]float64{"P14": 20, "P10": 10}},
	{Name: "BACON PC", Category: "Carnes", Unit: "pct", MinStock: map[string]float64{"P14": 2, "P10": 3}},
	{Name: "LINGUIÇA TOSCANA PCT", Category: "Carnes", Unit: "pct", MinStock: map[string]float64{"P14": 5, "P10": 2}},
	{Name: "COPO 180ML PC", Category: "Descartáveis", Unit: "pct", MinStock: map[string]float64{"P14": 1, "P10": 3}},
	{Name: "EMBALAGEM G-302 CX C/100", Category: "Descartáveis", Unit: "cx", MinStock: map[string]float64{"P14": 6, "P10": 6}},
	{Name: "FILME SELADORA GRANDE", Category: "Descartáveis", Unit: "un", MinStock: map[string]float64{"P14": 15, "P10": 10}},
	{Name: "GARRAFA PET 1L PCT C/30", Category: "Descartáveis", Unit: "pct", MinStock: map[string]float64{"P14": 10, "P10": 10}},
	{Name: "SACO CRAFT PCT 100", Category: "Descartáveis", Unit: "pct", MinStock: map[string]float64{"P14": 15, "P10": 9}},
	{Name: "VELA VULÇÃO AZUL", Category: "Descartáveis", Unit: "un", MinStock: map[string]float64{"P14": 5, "P10": 5}},
	{Name: "VENENO DE BARATA GEL", Category: "Outros", Unit: "un", MinStock: map[string]float64{"P14": 0, "P10": 0}},
}

// SeedDescription marks items created by the opening catalogue.
const SeedDescription = "Initial load"

// SeedItems builds the opening items for unitID. Entries without a minimum
// for the unit are skipped. IDs are stable per catalogue line and unit.
func SeedItems(catalog []CatalogEntry, unitID string, stamp Stamp) []Item {
	items := make([]Item, 0, len(catalog))
	for i, entry := range catalog {
		minStock, ok := entry.MinStock[unitID]
		if !ok {
			continue
		}
		items = append(items, Item{
			ID:           fmt.Sprintf("%d-%s", i, unitID),
			UnitID:       unitID,
			Name:         entry.Name,
			Category:     entry.Category,
			Quantity:     SeedQuantity(minStock),
			Unit:         entry.Unit,
			MinStock:     minStock,
			Description:  SeedDescription,
			LastUpdated:  stamp.At,
			PriceHistory: []PriceHistoryEntry{{Date: stamp.At, Price: 0}},
		})
	}
	return items
}
