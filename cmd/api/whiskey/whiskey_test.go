package whiskey_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

func TestPatchApply(t *testing.T) {
	created := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	base := func() whiskey.Whiskey {
		return whiskey.Whiskey{
			ID:         uuid.New(),
			Name:       "Lag 16",
			Distillery: toPointer("Lag"),
			Region:     toPointer("Islay"),
			ABV:        toPointer(46.0),
			Quantity:   toPointer(1),
			Tags:       []string{"islay", "peat"},
			Rating:     toPointer(4.5),
			CreatedAt:  created,
			UpdatedAt:  created,
		}
	}

	t.Run("untouched fields survive", func(t *testing.T) {
		is := is.New(t)
		w := base()

		whiskey.Patch{Quantity: whiskey.Some(3)}.Apply(&w)
		is.Equal(*w.Quantity, 3)
		is.Equal(w.Name, "Lag 16")
		is.Equal(*w.Region, "Islay")
		is.Equal(w.Tags, []string{"islay", "peat"})
		is.Equal(w.CreatedAt, created)
	})

	t.Run("explicit null clears a field", func(t *testing.T) {
		is := is.New(t)
		w := base()

		whiskey.Patch{Rating: whiskey.Null[float64](), Distillery: whiskey.Null[string]()}.Apply(&w)
		is.True(w.Rating == nil)
		is.True(w.Distillery == nil)
		is.Equal(*w.ABV, 46.0)
	})

	t.Run("tags are replaced and never nil", func(t *testing.T) {
		is := is.New(t)
		w := base()

		whiskey.Patch{Tags: whiskey.Some([]string{"sherry"})}.Apply(&w)
		is.Equal(w.Tags, []string{"sherry"})

		whiskey.Patch{Tags: whiskey.Null[[]string]()}.Apply(&w)
		is.True(w.Tags != nil)
		is.Equal(len(w.Tags), 0)
	})

	t.Run("patched values are copies", func(t *testing.T) {
		is := is.New(t)
		w := base()

		p := whiskey.Patch{Notes: whiskey.Some("smoke")}
		p.Apply(&w)
		*p.Notes.Value = "changed"
		is.Equal(*w.Notes, "smoke")
	})
}
