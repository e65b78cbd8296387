package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

const table = "whiskey"

type InMemoryStore struct {
	db *memdb.MemDB
}

func NewInMemoryStore() (*InMemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validating in-memory schema: %w", err)
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &InMemoryStore{db: db}, nil
}

// AdaptedWhiskey is the stored form: memdb indexes on string fields, so the id is kept as text.
type AdaptedWhiskey struct {
	ID           string
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

// Stored records must never share memory with callers, memdb objects are immutable once inserted.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func adaptWhiskeyIdToString(w whiskey.Whiskey) AdaptedWhiskey {
	return AdaptedWhiskey{
		ID:           w.ID.String(),
		Name:         w.Name,
		Distillery:   clonePtr(w.Distillery),
		Region:       clonePtr(w.Region),
		Age:          clonePtr(w.Age),
		ABV:          clonePtr(w.ABV),
		SizeML:       clonePtr(w.SizeML),
		Quantity:     clonePtr(w.Quantity),
		PurchaseDate: clonePtr(w.PurchaseDate),
		PriceCents:   clonePtr(w.PriceCents),
		Notes:        clonePtr(w.Notes),
		ImageURL:     clonePtr(w.ImageURL),
		Tags:         slices.Clone(w.Tags),
		Rating:       clonePtr(w.Rating),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func adaptWhiskeyIdToUUID(a AdaptedWhiskey) whiskey.Whiskey {
	tags := slices.Clone(a.Tags)
	if tags == nil {
		tags = []string{}
	}
	return whiskey.Whiskey{
		ID:           uuid.MustParse(a.ID),
		Name:         a.Name,
		Distillery:   clonePtr(a.Distillery),
		Region:       clonePtr(a.Region),
		Age:          clonePtr(a.Age),
		ABV:          clonePtr(a.ABV),
		SizeML:       clonePtr(a.SizeML),
		Quantity:     clonePtr(a.Quantity),
		PurchaseDate: clonePtr(a.PurchaseDate),
		PriceCents:   clonePtr(a.PriceCents),
		Notes:        clonePtr(a.Notes),
		ImageURL:     clonePtr(a.ImageURL),
		Tags:         tags,
		Rating:       clonePtr(a.Rating),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// nextUpdatedAt keeps updatedAt strictly increasing even when two writes land in the same millisecond.
func nextUpdatedAt(prev time.Time) time.Time {
	t := now()
	if floor := prev.Add(time.Millisecond); t.Before(floor) {
		return floor
	}
	return t
}

func (store *InMemoryStore) Insert(ctx context.Context, w whiskey.Whiskey) (whiskey.Whiskey, error) {
	txn := store.db.Txn(true)
	defer txn.Abort()

	w.ID = uuid.New()
	w.CreatedAt = now()
	w.UpdatedAt = w.CreatedAt

	raw, err := txn.First(table, "id", w.ID.String())
	if err != nil {
		return whiskey.Whiskey{}, fmt.Errorf("storing whiskey on db: %w", err)
	}
	if raw != nil {
		return whiskey.Whiskey{}, fmt.Errorf("storing whiskey on db: %w", whiskey.ErrConflict)
	}

	if err := txn.Insert(table, adaptWhiskeyIdToString(w)); err != nil {
		return whiskey.Whiskey{}, fmt.Errorf("storing whiskey on db: %w", err)
	}
	txn.Commit()

	return adaptWhiskeyIdToUUID(adaptWhiskeyIdToString(w)), nil
}

func (store *InMemoryStore) FindByID(ctx context.Context, id uuid.UUID) (whiskey.Whiskey, error) {
	txn := store.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(table, "id", id.String())
	if err != nil {
		return whiskey.Whiskey{}, fmt.Errorf("searching by ID: %w", err)
	}
	if raw == nil {
		return whiskey.Whiskey{}, fmt.Errorf("searching by ID: %w", whiskey.ErrNotFound)
	}
	return adaptWhiskeyIdToUUID(raw.(AdaptedWhiskey)), nil
}

func (store *InMemoryStore) Scan(ctx context.Context, q whiskey.Query) ([]whiskey.Whiskey, error) {
	byField, ok := comparators[q.Sort.Field]
	if !ok {
		return nil, fmt.Errorf("listing whiskeys from db: %w", whiskey.InvalidSortField(q.Sort.Field))
	}

	matched, err := store.filter(q.Filter)
	if err != nil {
		return nil, fmt.Errorf("listing whiskeys from db: %w", err)
	}

	desc := strings.EqualFold(q.Sort.Direction, whiskey.SortDesc)
	slices.SortFunc(matched, func(a, b AdaptedWhiskey) int {
		c := byField(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	start := min(max(q.Offset, 0), len(matched))
	end := min(start+max(q.Limit, 0), len(matched))

	page := make([]whiskey.Whiskey, 0, end-start)
	for _, a := range matched[start:end] {
		page = append(page, adaptWhiskeyIdToUUID(a))
	}
	return page, nil
}

func (store *InMemoryStore) Count(ctx context.Context, f whiskey.Filter) (int, error) {
	matched, err := store.filter(f)
	if err != nil {
		return 0, fmt.Errorf("counting whiskeys from db: %w", err)
	}
	return len(matched), nil
}

func (store *InMemoryStore) filter(f whiskey.Filter) ([]AdaptedWhiskey, error) {
	txn := store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, "id")
	if err != nil {
		return nil, err
	}

	matched := []AdaptedWhiskey{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		a := obj.(AdaptedWhiskey)
		if f.Matches(adaptWhiskeyIdToUUID(a)) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

/* Overwrites every mutable field. CreatedAt is kept and UpdatedAt is bumped. */
func (store *InMemoryStore) UpdateByID(ctx context.Context, id uuid.UUID, w whiskey.Whiskey) (whiskey.Whiskey, error) {
	return store.modify(id, "updating whiskey on db", func(current *whiskey.Whiskey) {
		w.ID = current.ID
		w.CreatedAt = current.CreatedAt
		w.UpdatedAt = current.UpdatedAt
		*current = w
	})
}

func (store *InMemoryStore) MergeByID(ctx context.Context, id uuid.UUID, p whiskey.Patch) (whiskey.Whiskey, error) {
	return store.modify(id, "merging whiskey on db", p.Apply)
}

// modify runs read, change and write inside one write transaction, memdb allows a single writer at a time.
func (store *InMemoryStore) modify(id uuid.UUID, op string, change func(*whiskey.Whiskey)) (whiskey.Whiskey, error) {
	txn := store.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(table, "id", id.String())
	if err != nil {
		return whiskey.Whiskey{}, fmt.Errorf("%s: %w", op, err)
	}
	if raw == nil {
		return whiskey.Whiskey{}, fmt.Errorf("%s: %w", op, whiskey.ErrNotFound)
	}

	w := adaptWhiskeyIdToUUID(raw.(AdaptedWhiskey))
	change(&w)
	w.UpdatedAt = nextUpdatedAt(w.UpdatedAt)

	updated := adaptWhiskeyIdToString(w)
	if err := txn.Insert(table, updated); err != nil {
		return whiskey.Whiskey{}, fmt.Errorf("%s: %w", op, err)
	}
	txn.Commit()

	return adaptWhiskeyIdToUUID(updated), nil
}

func (store *InMemoryStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	txn := store.db.Txn(true)
	defer txn.Abort()

	count, err := txn.DeleteAll(table, "id", id.String())
	if err != nil {
		return fmt.Errorf("deleting whiskey from db: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("deleting whiskey from db: %w", whiskey.ErrNotFound)
	}
	txn.Commit()
	return nil
}

// CheckReady always succeeds, there is nothing to connect to.
func (store *InMemoryStore) CheckReady() (status string, message string) {
	return "ok", "in-memory store"
}

// comparators order records by API field name. A nil value sorts after every
// non-nil one, so ascending puts nulls last and descending puts them first.
var comparators = map[string]func(a, b AdaptedWhiskey) int{
	"id":           func(a, b AdaptedWhiskey) int { return strings.Compare(a.ID, b.ID) },
	"name":         func(a, b AdaptedWhiskey) int { return strings.Compare(a.Name, b.Name) },
	"distillery":   func(a, b AdaptedWhiskey) int { return comparePtr(a.Distillery, b.Distillery) },
	"region":       func(a, b AdaptedWhiskey) int { return comparePtr(a.Region, b.Region) },
	"age":          func(a, b AdaptedWhiskey) int { return comparePtr(a.Age, b.Age) },
	"abv":          func(a, b AdaptedWhiskey) int { return comparePtr(a.ABV, b.ABV) },
	"size_ml":      func(a, b AdaptedWhiskey) int { return comparePtr(a.SizeML, b.SizeML) },
	"quantity":     func(a, b AdaptedWhiskey) int { return comparePtr(a.Quantity, b.Quantity) },
	"priceCents":   func(a, b AdaptedWhiskey) int { return comparePtr(a.PriceCents, b.PriceCents) },
	"notes":        func(a, b AdaptedWhiskey) int { return comparePtr(a.Notes, b.Notes) },
	"imageUrl":     func(a, b AdaptedWhiskey) int { return comparePtr(a.ImageURL, b.ImageURL) },
	"rating":       func(a, b AdaptedWhiskey) int { return comparePtr(a.Rating, b.Rating) },
	"purchaseDate": func(a, b AdaptedWhiskey) int { return compareTime(a.PurchaseDate, b.PurchaseDate) },
	"createdAt":    func(a, b AdaptedWhiskey) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":    func(a, b AdaptedWhiskey) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func comparePtr[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
