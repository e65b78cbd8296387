package whiskey_test

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

func TestParseID(t *testing.T) {
	t.Run("accepts canonical uuids in any case", func(t *testing.T) {
		is := is.New(t)

		id, err := whiskey.ParseID("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
		is.NoErr(err)
		is.Equal(id.String(), "3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	})

	t.Run("rejects anything else", func(t *testing.T) {
		is := is.New(t)

		for _, raw := range []string{
			"",
			"not-a-uuid",
			"{3f2504e0-4f89-11d3-9a0c-0305e82c3301}",
			"urn:uuid:3f2504e0-4f89-11d3-9a0c-0305e82c3301",
			"3f2504e04f8911d39a0c0305e82c3301",
		} {
			_, err := whiskey.ParseID(raw)
			is.True(errors.Is(err, whiskey.ErrInvalidInput))
		}
	})
}

func TestValidateCreate(t *testing.T) {
	t.Run("trims text fields", func(t *testing.T) {
		is := is.New(t)

		req := whiskey.CreateRequest{
			Name:       "  Lag 16 ",
			Distillery: toPointer(" Lag "),
			Region:     toPointer("Islay  "),
			Notes:      toPointer("\tsmoke\n"),
		}
		is.NoErr(whiskey.ValidateCreate(&req))
		is.Equal(req.Name, "Lag 16")
		is.Equal(*req.Distillery, "Lag")
		is.Equal(*req.Region, "Islay")
		is.Equal(*req.Notes, "smoke")
	})

	t.Run("name is required", func(t *testing.T) {
		is := is.New(t)

		err := whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "   "})
		is.True(errors.Is(err, whiskey.ErrInvalidInput))

		var errResp whiskey.ErrResponse
		is.True(errors.As(err, &errResp))
		is.Equal(errResp.Details["field"], "name")
	})

	t.Run("rating bounds", func(t *testing.T) {
		is := is.New(t)

		is.NoErr(whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "a", Rating: toPointer(0.0)}))
		is.NoErr(whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "a", Rating: toPointer(5.0)}))

		err := whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "a", Rating: toPointer(5.1)})
		var errResp whiskey.ErrResponse
		is.True(errors.As(err, &errResp))
		is.Equal(errResp.Details["field"], "rating")
	})

	t.Run("abv bounds", func(t *testing.T) {
		is := is.New(t)

		is.NoErr(whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "a", ABV: toPointer(100.0)}))

		err := whiskey.ValidateCreate(&whiskey.CreateRequest{Name: "a", ABV: toPointer(-0.5)})
		var errResp whiskey.ErrResponse
		is.True(errors.As(err, &errResp))
		is.Equal(errResp.Details["field"], "abv")
	})
}

func TestValidateUpdate(t *testing.T) {
	t.Run("empty update is valid", func(t *testing.T) {
		is := is.New(t)
		is.NoErr(whiskey.ValidateUpdate(&whiskey.UpdateRequest{}))
	})

	t.Run("name may not be null or blank when present", func(t *testing.T) {
		is := is.New(t)

		err := whiskey.ValidateUpdate(&whiskey.UpdateRequest{Name: whiskey.Null[string]()})
		is.True(errors.Is(err, whiskey.ErrInvalidInput))

		err = whiskey.ValidateUpdate(&whiskey.UpdateRequest{Name: whiskey.Some(" ")})
		is.True(errors.Is(err, whiskey.ErrInvalidInput))
	})

	t.Run("present fields are trimmed and range checked", func(t *testing.T) {
		is := is.New(t)

		req := whiskey.UpdateRequest{Name: whiskey.Some(" New name "), Region: whiskey.Some(" Islay")}
		is.NoErr(whiskey.ValidateUpdate(&req))
		is.Equal(*req.Name.Value, "New name")
		is.Equal(*req.Region.Value, "Islay")

		err := whiskey.ValidateUpdate(&whiskey.UpdateRequest{Rating: whiskey.Some(-1.0)})
		is.True(errors.Is(err, whiskey.ErrInvalidInput))
	})

	t.Run("explicit nulls are valid for optional fields", func(t *testing.T) {
		is := is.New(t)
		is.NoErr(whiskey.ValidateUpdate(&whiskey.UpdateRequest{
			Rating: whiskey.Null[float64](),
			ABV:    whiskey.Null[float64](),
			Notes:  whiskey.Null[string](),
		}))
	})
}
