package recipes

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/apperr"
	"foodgram/models"
)

// ShoppingListFilename is the fixed attachment name for the rendered list.
const ShoppingListFilename = "shopping_list.txt"

// ShoppingItem is one aggregated purchase line: every occurrence of the same
// (name, unit) pair across the carted recipes summed together.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// ShoppingList collects every ingredient line belonging to a recipe in the
// user's cart, groups by (name, measurement_unit) and sums amounts. Groups
// keep first-encountered order; nothing is re-sorted. An empty cart is a
// caller-visible failure, not a crash.
func (s *Service) ShoppingList(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	cartIDs, err := s.tracker.RecipeIDsFor(ctx, userID, models.RelationCart)
	if err != nil {
		return nil, err
	}

	var rows []ShoppingItem
	if len(cartIDs) > 0 {
		err = s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
			Select("ingredients.name as name, ingredients.measurement_unit as measurement_unit, recipe_ingredients.amount as amount").
			Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
			Where("recipe_ingredients.recipe_id IN ?", cartIDs).
			Order("recipe_ingredients.id asc").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("collect cart ingredient lines: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil, apperr.EmptyResult("Shopping cart is empty")
	}

	type key struct{ name, unit string }
	index := make(map[key]int, len(rows))
	items := make([]ShoppingItem, 0, len(rows))
	for _, row := range rows {
		k := key{row.Name, row.MeasurementUnit}
		if at, ok := index[k]; ok {
			items[at].Amount += row.Amount
			continue
		}
		index[k] = len(items)
		items = append(items, row)
	}

	return items, nil
}

// RenderShoppingList formats the aggregated items as the line-oriented
// plain-text list served as a download.
func RenderShoppingList(items []ShoppingItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "Shopping list:\n")
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("• %s - %d %s", item.Name, item.Amount, item.MeasurementUnit))
	}
	return strings.Join(lines, "\n")
}
