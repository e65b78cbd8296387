package http

//go:generate mockgen -source=handlers.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

// TimestampLayout renders createdAt and updatedAt: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type ServiceAPI interface {
	List(ctx context.Context, params whiskey.ListParams) (whiskey.Page, error)
	Get(ctx context.Context, id string) (whiskey.Whiskey, error)
	Create(ctx context.Context, req whiskey.CreateRequest) (whiskey.Whiskey, error)
	Replace(ctx context.Context, id string, req whiskey.CreateRequest) (whiskey.Whiskey, error)
	Patch(ctx context.Context, id string, req whiskey.UpdateRequest) (whiskey.Whiskey, error)
	Delete(ctx context.Context, id string) error
}

type WhiskeyHandler struct {
	whiskeyService ServiceAPI
}

func NewWhiskeyHandler(whiskeyService ServiceAPI) *WhiskeyHandler {
	return &WhiskeyHandler{whiskeyService: whiskeyService}
}

/* Returns one page of whiskeys. Malformed query parameters fall back to their defaults. */
func (h *WhiskeyHandler) listWhiskeys(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := whiskey.ListParams{
		Limit:  query.Get("limit"),
		Offset: query.Get("offset"),
		Q:      query.Get("q"),
		Tag:    query.Get("tag"),
		Region: query.Get("region"),
		MinABV: query.Get("min_abv"),
		MaxABV: query.Get("max_abv"),
		Sort:   query.Get("sort"),
	}

	page, err := h.whiskeyService.List(r.Context(), params)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusOK, pageToResponse(page))
}

func (h *WhiskeyHandler) getWhiskey(w http.ResponseWriter, r *http.Request) {
	found, err := h.whiskeyService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusOK, whiskeyToResponse(found))
}

func (h *WhiskeyHandler) createWhiskey(w http.ResponseWriter, r *http.Request) {
	var entry WhiskeyEntry
	if err := decodeEntry(r, &entry); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := h.whiskeyService.Create(r.Context(), entryToCreateReq(entry))
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusCreated, whiskeyToResponse(created))
}

func (h *WhiskeyHandler) replaceWhiskey(w http.ResponseWriter, r *http.Request) {
	var entry WhiskeyEntry
	if err := decodeEntry(r, &entry); err != nil {
		handleError(w, r, err)
		return
	}

	replaced, err := h.whiskeyService.Replace(r.Context(), chi.URLParam(r, "id"), entryToCreateReq(entry))
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusOK, whiskeyToResponse(replaced))
}

func (h *WhiskeyHandler) patchWhiskey(w http.ResponseWriter, r *http.Request) {
	var entry WhiskeyPatchEntry
	if err := decodeEntry(r, &entry); err != nil {
		handleError(w, r, err)
		return
	}

	patched, err := h.whiskeyService.Patch(r.Context(), chi.URLParam(r, "id"), entryToUpdateReq(entry))
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusOK, whiskeyToResponse(patched))
}

func (h *WhiskeyHandler) deleteWhiskey(w http.ResponseWriter, r *http.Request) {
	if err := h.whiskeyService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type WhiskeyEntry struct {
	Name         string   `json:"name"`
	Distillery   *string  `json:"distillery"`
	Region       *string  `json:"region"`
	Age          *int     `json:"age"`
	ABV          *float64 `json:"abv"`
	SizeML       *int     `json:"size_ml"`
	Quantity     *int     `json:"quantity"`
	PurchaseDate *string  `json:"purchaseDate"`
	PriceCents   *int     `json:"priceCents"`
	Notes        *string  `json:"notes"`
	ImageURL     *string  `json:"imageUrl"`
	Tags         []string `json:"tags"`
	Rating       *float64 `json:"rating"`
}

// optional maps a decoded patch field onto the domain form: unspecified stays unset,
// an explicit null becomes Null and a value becomes Some.
func optional[T any](n nullable.Nullable[T]) whiskey.Optional[T] {
	if !n.IsSpecified() {
		return whiskey.Optional[T]{}
	}
	if n.IsNull() {
		return whiskey.Null[T]()
	}
	return whiskey.Some(n.MustGet())
}

type WhiskeyPatchEntry struct {
	Name         nullable.Nullable[string]   `json:"name"`
	Distillery   nullable.Nullable[string]   `json:"distillery"`
	Region       nullable.Nullable[string]   `json:"region"`
	Age          nullable.Nullable[int]      `json:"age"`
	ABV          nullable.Nullable[float64]  `json:"abv"`
	SizeML       nullable.Nullable[int]      `json:"size_ml"`
	Quantity     nullable.Nullable[int]      `json:"quantity"`
	PurchaseDate nullable.Nullable[string]   `json:"purchaseDate"`
	PriceCents   nullable.Nullable[int]      `json:"priceCents"`
	Notes        nullable.Nullable[string]   `json:"notes"`
	ImageURL     nullable.Nullable[string]   `json:"imageUrl"`
	Tags         nullable.Nullable[[]string] `json:"tags"`
	Rating       nullable.Nullable[float64]  `json:"rating"`
}

/* Reads the JSON body into dst. Syntax errors, type errors and trailing data all become a 400. */
func decodeEntry(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return invalidJSON(r, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidJSON(r, errTrailingData)
	}
	return nil
}

var errTrailingData = errors.New("body must contain a single JSON value")

func invalidJSON(r *http.Request, err error) error {
	slog.DebugContext(r.Context(), "decoding request body", slog.String("error", err.Error()))
	return whiskey.ErrResponse{
		Code:    whiskey.ErrResponseEntryInvalidJSON.Code,
		Message: whiskey.ErrResponseEntryInvalidJSON.Message + err.Error(),
	}
}

func entryToCreateReq(e WhiskeyEntry) whiskey.CreateRequest {
	return whiskey.CreateRequest{
		Name:         e.Name,
		Distillery:   e.Distillery,
		Region:       e.Region,
		Age:          e.Age,
		ABV:          e.ABV,
		SizeML:       e.SizeML,
		Quantity:     e.Quantity,
		PurchaseDate: e.PurchaseDate,
		PriceCents:   e.PriceCents,
		Notes:        e.Notes,
		ImageURL:     e.ImageURL,
		Tags:         e.Tags,
		Rating:       e.Rating,
	}
}

func entryToUpdateReq(e WhiskeyPatchEntry) whiskey.UpdateRequest {
	return whiskey.UpdateRequest{
		Name:         optional(e.Name),
		Distillery:   optional(e.Distillery),
		Region:       optional(e.Region),
		Age:          optional(e.Age),
		ABV:          optional(e.ABV),
		SizeML:       optional(e.SizeML),
		Quantity:     optional(e.Quantity),
		PurchaseDate: optional(e.PurchaseDate),
		PriceCents:   optional(e.PriceCents),
		Notes:        optional(e.Notes),
		ImageURL:     optional(e.ImageURL),
		Tags:         optional(e.Tags),
		Rating:       optional(e.Rating),
	}
}

type WhiskeyResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Distillery   *string             `json:"distillery"`
	Region       *string             `json:"region"`
	Age          *int                `json:"age"`
	ABV          *float64            `json:"abv"`
	SizeML       *int                `json:"size_ml"`
	Quantity     *int                `json:"quantity"`
	PurchaseDate *openapi_types.Date `json:"purchaseDate"`
	PriceCents   *int                `json:"priceCents"`
	Notes        *string             `json:"notes"`
	ImageURL     *string             `json:"imageUrl"`
	Tags         []string            `json:"tags"`
	Rating       *float64            `json:"rating"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
}

/* Copies a whiskey into its wire form: date-only purchaseDate, millisecond UTC timestamps and a non-nil tags list. */
func whiskeyToResponse(w whiskey.Whiskey) WhiskeyResponse {
	var purchaseDate *openapi_types.Date
	if w.PurchaseDate != nil {
		purchaseDate = &openapi_types.Date{Time: *w.PurchaseDate}
	}
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return WhiskeyResponse{
		ID:           w.ID,
		Name:         w.Name,
		Distillery:   w.Distillery,
		Region:       w.Region,
		Age:          w.Age,
		ABV:          w.ABV,
		SizeML:       w.SizeML,
		Quantity:     w.Quantity,
		PurchaseDate: purchaseDate,
		PriceCents:   w.PriceCents,
		Notes:        w.Notes,
		ImageURL:     w.ImageURL,
		Tags:         tags,
		Rating:       w.Rating,
		CreatedAt:    formatTimestamp(w.CreatedAt),
		UpdatedAt:    formatTimestamp(w.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type PageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PageResponse struct {
	Items []WhiskeyResponse `json:"items"`
	Meta  PageMeta          `json:"meta"`
}

func pageToResponse(page whiskey.Page) PageResponse {
	items := make([]WhiskeyResponse, 0, len(page.Items))
	for _, w := range page.Items {
		items = append(items, whiskeyToResponse(w))
	}
	return PageResponse{
		Items: items,
		Meta: PageMeta{
			Total:  page.Total,
			Limit:  page.Limit,
			Offset: page.Offset,
		},
	}
}

/* Writes a JSON response into a http.ResponseWriter. */
func responseJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response body", slog.String("error", err.Error()))
	}
}
