package main

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/whiskey-inventory/cmd/api/inmemory"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

type failingCreator struct{}

func (failingCreator) Create(ctx context.Context, req whiskey.CreateRequest) (whiskey.Whiskey, error) {
	return whiskey.Whiskey{}, whiskey.ErrConflict
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("creates every sample through the service", func(t *testing.T) {
		is := is.New(t)

		store, err := inmemory.NewInMemoryStore()
		is.NoErr(err)
		svc := whiskey.NewService(store)

		created, err := seed(ctx, svc)
		is.NoErr(err)
		is.Equal(created, 2)

		page, err := svc.List(ctx, whiskey.ListParams{Tag: "peat"})
		is.NoErr(err)
		is.Equal(page.Total, 1)
		is.Equal(page.Items[0].Name, "Lag 16")
		is.Equal(page.Items[0].PurchaseDate.Format(whiskey.DateLayout), "2023-12-15")
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		is := is.New(t)

		created, err := seed(ctx, failingCreator{})
		is.True(errors.Is(err, whiskey.ErrConflict))
		is.Equal(created, 0)
	})
}
