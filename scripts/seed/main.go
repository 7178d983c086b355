package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/odyssey-erp/pantry/internal/app"
	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/shared"
)

func main() {
	ctx := shared.ContextWithActor(context.Background(), "seed")

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open backends: %v", err)
	}
	defer backends.Close(logger)

	services, err := app.NewServices(cfg, logger, backends, nil)
	if err != nil {
		log.Fatalf("wire services: %v", err)
	}

	for _, unit := range inventory.Units {
		fmt.Printf("→ Seeding %s (%s)...\n", unit.ID, unit.Label)
		n, err := services.Inventory.Seed(ctx, unit.ID, inventory.OpeningCatalog)
		if err != nil {
			log.Fatalf("seed %s: %v", unit.ID, err)
		}
		if n == 0 {
			fmt.Println("  unit already has items or no catalogue entries, skipped")
			continue
		}
		fmt.Printf("  %d items created\n", n)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}
