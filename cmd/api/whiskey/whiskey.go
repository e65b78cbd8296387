package whiskey

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the textual form of purchase dates, both inbound and outbound.
const DateLayout = "2006-01-02"

type Whiskey struct {
	ID           uuid.UUID
	Name         string
	Distillery   *string
	Region       *string
	Age          *int
	ABV          *float64
	SizeML       *int
	Quantity     *int
	PurchaseDate *time.Time
	PriceCents   *int
	Notes        *string
	ImageURL     *string
	Tags         []string
	Rating       *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

/* Full payload used by create and replace. PurchaseDate is still raw text here, it is parsed after validation. */
type CreateRequest struct {
	Name         string
	Distillery   *string
	Region       *string
	Age          *int
	ABV          *float64
	SizeML       *int
	Quantity     *int
	PurchaseDate *string
	PriceCents   *int
	Notes        *string
	ImageURL     *string
	Tags         []string
	Rating       *float64
}

// Optional is a patch field: Set reports whether the field was supplied at all,
// a nil Value with Set == true means an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

/* Partial payload used by patch. Only fields with Set == true are touched. */
type UpdateRequest struct {
	Name         Optional[string]
	Distillery   Optional[string]
	Region       Optional[string]
	Age          Optional[int]
	ABV          Optional[float64]
	SizeML       Optional[int]
	Quantity     Optional[int]
	PurchaseDate Optional[string]
	PriceCents   Optional[int]
	Notes        Optional[string]
	ImageURL     Optional[string]
	Tags         Optional[[]string]
	Rating       Optional[float64]
}

// Patch is an UpdateRequest after validation and date parsing, as handed to the store.
type Patch struct {
	Name         Optional[string]
	Distillery   Optional[string]
	Region       Optional[string]
	Age          Optional[int]
	ABV          Optional[float64]
	SizeML       Optional[int]
	Quantity     Optional[int]
	PurchaseDate Optional[time.Time]
	PriceCents   Optional[int]
	Notes        Optional[string]
	ImageURL     Optional[string]
	Tags         Optional[[]string]
	Rating       Optional[float64]
}

/* Merges the supplied fields of the patch into w. Identity and timestamps are left to the store. */
func (p Patch) Apply(w *Whiskey) {
	if p.Name.Set && p.Name.Value != nil {
		w.Name = *p.Name.Value
	}
	applyOptional(p.Distillery, &w.Distillery)
	applyOptional(p.Region, &w.Region)
	applyOptional(p.Age, &w.Age)
	applyOptional(p.ABV, &w.ABV)
	applyOptional(p.SizeML, &w.SizeML)
	applyOptional(p.Quantity, &w.Quantity)
	applyOptional(p.PurchaseDate, &w.PurchaseDate)
	applyOptional(p.PriceCents, &w.PriceCents)
	applyOptional(p.Notes, &w.Notes)
	applyOptional(p.ImageURL, &w.ImageURL)
	applyOptional(p.Rating, &w.Rating)
	if p.Tags.Set {
		w.Tags = []string{}
		if p.Tags.Value != nil {
			w.Tags = append(w.Tags, (*p.Tags.Value)...)
		}
	}
}

func applyOptional[T any](o Optional[T], dst **T) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

