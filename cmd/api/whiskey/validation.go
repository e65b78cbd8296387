package whiskey

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

/* Validates a path id. Only the canonical 8-4-4-4-12 form is accepted, uuid.Parse alone would also take urn and braced forms. */
func ParseID(raw string) (uuid.UUID, error) {
	if !uuidPattern.MatchString(raw) {
		return uuid.Nil, ErrResponseIdInvalidFormat
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrResponseIdInvalidFormat
	}
	return id, nil
}

/* Verifies a full create/replace payload and trims its free-text fields in place. */
func ValidateCreate(req *CreateRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return invalidField("name", `Field "name" is required and must be a non-empty string`)
	}
	trimPtr(req.Distillery)
	trimPtr(req.Region)
	trimPtr(req.Notes)

	if err := checkRating(req.Rating); err != nil {
		return err
	}
	return checkABV(req.ABV)
}

/* Verifies a partial payload. Absent fields are always valid, present ones follow the create rules. */
func ValidateUpdate(req *UpdateRequest) error {
	if req.Name.Set {
		if req.Name.Value == nil || strings.TrimSpace(*req.Name.Value) == "" {
			return invalidField("name", `Field "name" must be a non-empty string`)
		}
		trimPtr(req.Name.Value)
	}
	trimPtr(req.Distillery.Value)
	trimPtr(req.Region.Value)
	trimPtr(req.Notes.Value)

	if err := checkRating(req.Rating.Value); err != nil {
		return err
	}
	return checkABV(req.ABV.Value)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func checkRating(rating *float64) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return invalidField("rating", `Field "rating" must be a number between 0 and 5`)
	}
	return nil
}

func checkABV(abv *float64) error {
	if abv != nil && (*abv < 0 || *abv > 100) {
		return invalidField("abv", `Field "abv" must be a number between 0 and 100`)
	}
	return nil
}

// parseDate turns an optional YYYY-MM-DD string into a UTC midnight date.
// An empty string counts as absent.
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, *raw)
	if err != nil {
		return nil, invalidField("purchaseDate", fmt.Sprintf(`Field "purchaseDate" must be a date in %s format`, "YYYY-MM-DD"))
	}
	return &d, nil
}
