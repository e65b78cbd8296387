package whiskey

//go:generate mockgen -source=service.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository is the record store. Implementations assign id, createdAt and
// updatedAt, and wrap ErrNotFound when the target id does not exist.
type Repository interface {
	Insert(ctx context.Context, w Whiskey) (Whiskey, error)
	FindByID(ctx context.Context, id uuid.UUID) (Whiskey, error)
	Scan(ctx context.Context, q Query) ([]Whiskey, error)
	Count(ctx context.Context, f Filter) (int, error)
	UpdateByID(ctx context.Context, id uuid.UUID, w Whiskey) (Whiskey, error)
	MergeByID(ctx context.Context, id uuid.UUID, p Patch) (Whiskey, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Page struct {
	Items  []Whiskey
	Total  int
	Limit  int
	Offset int
}

/* Returns one page of whiskeys plus the total count of records matching the same filter. */
func (s *Service) List(ctx context.Context, params ListParams) (Page, error) {
	q := BuildQuery(params)

	var items []Whiskey
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.Scan(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, q.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, wrapRepoErr("List", err)
	}

	if items == nil {
		items = []Whiskey{}
	}
	return Page{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (Whiskey, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Whiskey{}, err
	}
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Whiskey{}, wrapRepoErr("Get", err)
	}
	return w, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Whiskey, error) {
	w, err := fromCreateRequest(&req)
	if err != nil {
		return Whiskey{}, err
	}
	created, err := s.repo.Insert(ctx, w)
	if err != nil {
		return Whiskey{}, wrapRepoErr("Create", err)
	}
	return created, nil
}

/* Overwrites every mutable field of an existing whiskey with the full payload. */
func (s *Service) Replace(ctx context.Context, rawID string, req CreateRequest) (Whiskey, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Whiskey{}, err
	}
	w, err := fromCreateRequest(&req)
	if err != nil {
		return Whiskey{}, err
	}
	replaced, err := s.repo.UpdateByID(ctx, id, w)
	if err != nil {
		return Whiskey{}, wrapRepoErr("Replace", err)
	}
	return replaced, nil
}

/* Changes only the supplied fields. No version check: concurrent writers on the same id race and the last one wins. */
func (s *Service) Patch(ctx context.Context, rawID string, req UpdateRequest) (Whiskey, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Whiskey{}, err
	}
	if err := ValidateUpdate(&req); err != nil {
		return Whiskey{}, err
	}
	p, err := toPatch(req)
	if err != nil {
		return Whiskey{}, err
	}
	patched, err := s.repo.MergeByID(ctx, id, p)
	if err != nil {
		return Whiskey{}, wrapRepoErr("Patch", err)
	}
	return patched, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return wrapRepoErr("Delete", err)
	}
	return nil
}

func wrapRepoErr(call string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout on call to %s: %w", call, err)
	}
	return fmt.Errorf("calling %s: %w", call, err)
}

func fromCreateRequest(req *CreateRequest) (Whiskey, error) {
	if err := ValidateCreate(req); err != nil {
		return Whiskey{}, err
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return Whiskey{}, err
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	return Whiskey{
		Name:         req.Name,
		Distillery:   req.Distillery,
		Region:       req.Region,
		Age:          req.Age,
		ABV:          req.ABV,
		SizeML:       req.SizeML,
		Quantity:     req.Quantity,
		PurchaseDate: purchaseDate,
		PriceCents:   req.PriceCents,
		Notes:        req.Notes,
		ImageURL:     req.ImageURL,
		Tags:         tags,
		Rating:       req.Rating,
	}, nil
}

func toPatch(req UpdateRequest) (Patch, error) {
	p := Patch{
		Name:       req.Name,
		Distillery: req.Distillery,
		Region:     req.Region,
		Age:        req.Age,
		ABV:        req.ABV,
		SizeML:     req.SizeML,
		Quantity:   req.Quantity,
		PriceCents: req.PriceCents,
		Notes:      req.Notes,
		ImageURL:   req.ImageURL,
		Tags:       req.Tags,
		Rating:     req.Rating,
	}
	if req.PurchaseDate.Set {
		d, err := parseDate(req.PurchaseDate.Value)
		if err != nil {
			return Patch{}, err
		}
		p.PurchaseDate = Optional[time.Time]{Set: true, Value: d}
	}
	return p, nil
}
