// Command seed loads a few sample bottles into the configured store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/whiskey-inventory/cmd/api/backend"
	"github.com/whiskey-inventory/cmd/api/config"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

func main() {
	err := run()
	if err != nil {
		slog.Error("seeding", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := config.SetupLogger(cfg)

	ctx := context.Background()
	store, closeStore, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := seed(ctx, whiskey.NewService(store))
	if err != nil {
		return err
	}
	logger.Info("seeded whiskey items", slog.Int("count", created))
	return nil
}

// Creator is the part of the whiskey service seeding needs.
type Creator interface {
	Create(ctx context.Context, req whiskey.CreateRequest) (whiskey.Whiskey, error)
}

func seed(ctx context.Context, svc Creator) (int, error) {
	for i, item := range samples() {
		if _, err := svc.Create(ctx, item); err != nil {
			return i, fmt.Errorf("creating %q: %w", item.Name, err)
		}
	}
	return len(samples()), nil
}

func samples() []whiskey.CreateRequest {
	return []whiskey.CreateRequest{
		{
			Name:         "Glen Example 12",
			Distillery:   toPointer("Glen Example Distillery"),
			Region:       toPointer("Speyside"),
			Age:          toPointer(12),
			ABV:          toPointer(43.0),
			SizeML:       toPointer(700),
			Quantity:     toPointer(3),
			PurchaseDate: toPointer("2024-08-01"),
			PriceCents:   toPointer(4999),
			Notes:        toPointer("Light, fruity, honeyed"),
			ImageURL:     toPointer("https://example.com/images/glen-example-12.jpg"),
			Tags:         []string{"speyside", "single-malt"},
			Rating:       toPointer(4.2),
		},
		{
			Name:         "Lag 16",
			Distillery:   toPointer("Lag Example"),
			Region:       toPointer("Islay"),
			Age:          toPointer(16),
			ABV:          toPointer(46.0),
			SizeML:       toPointer(700),
			Quantity:     toPointer(2),
			PurchaseDate: toPointer("2023-12-15"),
			PriceCents:   toPointer(8999),
			Notes:        toPointer("Peaty and smoky"),
			Tags:         []string{"islay", "peat"},
			Rating:       toPointer(4.5),
		},
	}
}

func toPointer[T any](v T) *T {
	return &v
}
