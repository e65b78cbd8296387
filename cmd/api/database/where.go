package database

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

// sortColumns maps API field names to columns. Anything not listed cannot be sorted on.
var sortColumns = map[string]string{
	"id":           "id",
	"name":         "name",
	"distillery":   "distillery",
	"region":       "region",
	"age":          "age",
	"abv":          "abv",
	"size_ml":      "size_ml",
	"quantity":     "quantity",
	"purchaseDate": "purchase_date",
	"priceCents":   "price_cents",
	"notes":        "notes",
	"imageUrl":     "image_url",
	"rating":       "rating",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

/*
Builds the WHERE clause for a filter with numbered placeholders starting at startArg.
Conditions are joined with AND, an empty filter yields an empty clause.
*/
func buildWhere(f whiskey.Filter, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	if f.Text != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR distillery ILIKE $%d OR notes ILIKE $%d)", argNum, argNum, argNum))
		args = append(args, "%"+likeEscaper.Replace(f.Text)+"%")
		argNum++
	}

	if f.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argNum))
		args = append(args, f.Tag)
		argNum++
	}

	if f.Region != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(region) = LOWER($%d)", argNum))
		args = append(args, f.Region)
		argNum++
	}

	if f.MinABV != nil {
		conditions = append(conditions, fmt.Sprintf("abv >= $%d", argNum))
		args = append(args, *f.MinABV)
		argNum++
	}

	if f.MaxABV != nil {
		conditions = append(conditions, fmt.Sprintf("abv <= $%d", argNum))
		args = append(args, *f.MaxABV)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildOrderBy only ever emits whitelisted column names, the sort field never reaches the SQL text.
func buildOrderBy(s whiskey.Sort) (string, error) {
	column, ok := sortColumns[s.Field]
	if !ok {
		return "", whiskey.InvalidSortField(s.Field)
	}
	direction := "ASC"
	if strings.EqualFold(s.Direction, whiskey.SortDesc) {
		direction = "DESC"
	}
	if column == "id" {
		return " ORDER BY id " + direction, nil
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction), nil
}

/*
Builds the SET list for a merge. Only supplied fields are assigned, placeholders start at startArg.
updated_at is always refreshed so even an empty patch counts as a mutation.
*/
func patchAssignments(p whiskey.Patch, startArg int) (sets []string, args []any) {
	argNum := startArg
	assign := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if p.Name.Set && p.Name.Value != nil {
		assign("name", *p.Name.Value)
	}
	if p.Distillery.Set {
		assign("distillery", p.Distillery.Value)
	}
	if p.Region.Set {
		assign("region", p.Region.Value)
	}
	if p.Age.Set {
		assign("age", p.Age.Value)
	}
	if p.ABV.Set {
		assign("abv", p.ABV.Value)
	}
	if p.SizeML.Set {
		assign("size_ml", p.SizeML.Value)
	}
	if p.Quantity.Set {
		assign("quantity", p.Quantity.Value)
	}
	if p.PurchaseDate.Set {
		assign("purchase_date", dateParam(p.PurchaseDate.Value))
	}
	if p.PriceCents.Set {
		assign("price_cents", p.PriceCents.Value)
	}
	if p.Notes.Set {
		assign("notes", p.Notes.Value)
	}
	if p.ImageURL.Set {
		assign("image_url", p.ImageURL.Value)
	}
	if p.Tags.Set {
		tags := []string{}
		if p.Tags.Value != nil {
			tags = *p.Tags.Value
		}
		assign("tags", pq.Array(tags))
	}
	if p.Rating.Set {
		assign("rating", p.Rating.Value)
	}

	sets = append(sets, touchUpdatedAt)
	return sets, args
}

const touchUpdatedAt = "updated_at = GREATEST(date_trunc('milliseconds', now()), updated_at + interval '1 millisecond')"
