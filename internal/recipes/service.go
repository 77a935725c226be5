// Package recipes owns the recipe aggregate: the recipe row, its tag set and
// its weighted ingredient lines are written and read as one unit. All
// multi-row writes run inside a single transaction; a failure at any point
// leaves the prior state intact.
package recipes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/apperr"
	"foodgram/internal/catalog"
	"foodgram/internal/relations"
	"foodgram/models"
)

// Service coordinates aggregate writes and denormalized reads.
type Service struct {
	db       *gorm.DB
	catalog  *catalog.Store
	tracker  *relations.Tracker
}

// NewService builds a Service over the shared database handle.
func NewService(db *gorm.DB, store *catalog.Store, tracker *relations.Tracker) *Service {
	return &Service{db: db, catalog: store, tracker: tracker}
}

// IngredientLineInput is one requested (ingredient, amount) pairing. Line
// order is preserved exactly as supplied.
type IngredientLineInput struct {
	IngredientID uint `json:"id"`
	Amount       int  `json:"amount"`
}

// Input carries a full recipe payload for creation.
type Input struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	TagIDs      []uint
	Ingredients []IngredientLineInput
}

// UpdateInput carries a recipe update. Nil fields are left untouched on a
// partial update; a full update requires tags, ingredients and image.
type UpdateInput struct {
	Name        *string
	Image       *string
	Text        *string
	CookingTime *int
	TagIDs      []uint
	Ingredients []IngredientLineInput
}

// Create validates the payload and writes the recipe row, its tag
// associations and every ingredient line atomically. Either all rows exist
// afterward or none do.
func (s *Service) Create(ctx context.Context, authorID uint, input Input) (*RecipeView, error) {
	v := apperr.NewValidation()
	validateScalars(v, input.Name, input.Image, input.Text, input.CookingTime)
	validateTagSet(v, input.TagIDs)
	validateIngredientSet(v, input.Ingredients)
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	tags, err := s.catalog.TagsByIDs(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.IngredientsByIDs(ctx, lineIngredientIDs(input.Ingredients)); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Image:       input.Image,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe row: %w", err)
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("attach tags: %w", err)
		}
		if err := insertLines(tx, recipe.ID, input.Ingredients); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID, authorID)
}

// Update applies a payload to an existing recipe. Only the owning author may
// call it. Supplied tag and ingredient sets replace the existing sets
// wholesale inside the same transaction as the scalar updates.
func (s *Service) Update(ctx context.Context, recipeID, callerID uint, input UpdateInput, partial bool) (*RecipeView, error) {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != callerID {
		return nil, apperr.Forbidden("Only the author may modify this recipe")
	}

	v := apperr.NewValidation()
	if !partial {
		if input.TagIDs == nil {
			v.Add("tags", "This field is required")
		}
		if input.Ingredients == nil {
			v.Add("ingredients", "This field is required")
		}
		if input.Image == nil {
			v.Add("image", "This field is required")
		}
	}
	if input.Name != nil && *input.Name == "" {
		v.Add("name", "This field may not be blank")
	}
	if input.Image != nil && *input.Image == "" {
		v.Add("image", "This field may not be blank")
	}
	if input.CookingTime != nil && *input.CookingTime < 1 {
		v.Add("cooking_time", "Cooking time must be at least 1 minute")
	}
	if input.TagIDs != nil {
		validateTagSet(v, input.TagIDs)
	}
	if input.Ingredients != nil {
		validateIngredientSet(v, input.Ingredients)
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	var tags []models.Tag
	if input.TagIDs != nil {
		if tags, err = s.catalog.TagsByIDs(ctx, input.TagIDs); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if _, err := s.catalog.IngredientsByIDs(ctx, lineIngredientIDs(input.Ingredients)); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Image != nil {
			updates["image"] = *input.Image
		}
		if input.Text != nil {
			updates["text"] = *input.Text
		}
		if input.CookingTime != nil {
			updates["cooking_time"] = *input.CookingTime
		}
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("update recipe fields: %w", err)
			}
		}

		if input.TagIDs != nil {
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return fmt.Errorf("replace tags: %w", err)
			}
		}

		if input.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return fmt.Errorf("clear ingredient lines: %w", err)
			}
			if err := insertLines(tx, recipe.ID, input.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID, callerID)
}

// Delete removes the recipe, its ingredient lines, its tag joins and every
// favorite/cart relation referencing it. Catalog rows are never touched.
func (s *Service) Delete(ctx context.Context, recipeID, callerID uint) error {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != callerID {
		return apperr.Forbidden("Only the author may delete this recipe")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete ingredient lines: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.UserRecipeRelation{}).Error; err != nil {
			return fmt.Errorf("delete recipe relations: %w", err)
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear tag joins: %w", err)
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return fmt.Errorf("delete recipe row: %w", err)
		}
		return nil
	})
}

func (s *Service) loadRecipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Recipe does not exist")
		}
		return nil, fmt.Errorf("load recipe %d: %w", recipeID, err)
	}
	return &recipe, nil
}

func validateScalars(v *apperr.ValidationError, name, image, text string, cookingTime int) {
	if name == "" {
		v.Add("name", "This field is required")
	}
	if image == "" {
		v.Add("image", "This field is required")
	}
	if text == "" {
		v.Add("text", "This field is required")
	}
	if cookingTime < 1 {
		v.Add("cooking_time", "Cooking time must be at least 1 minute")
	}
}

func validateTagSet(v *apperr.ValidationError, tagIDs []uint) {
	if len(tagIDs) == 0 {
		v.Add("tags", "You need to add at least one tag")
		return
	}
	seen := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			v.Add("tags", "Tags must be unique")
			return
		}
		seen[id] = true
	}
}

func validateIngredientSet(v *apperr.ValidationError, lines []IngredientLineInput) {
	if len(lines) == 0 {
		v.Add("ingredients", "You need to add at least one ingredient")
		return
	}
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if seen[line.IngredientID] {
			v.Add("ingredients", "Ingredients must be unique")
			return
		}
		seen[line.IngredientID] = true
	}
	for _, line := range lines {
		if line.Amount < 1 {
			v.Add("ingredients", "Amount must be at least 1")
			return
		}
	}
}

func lineIngredientIDs(lines []IngredientLineInput) []uint {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}
	return ids
}

// insertLines writes the lines one batch in supplied order; no implicit
// re-sort.
func insertLines(tx *gorm.DB, recipeID uint, lines []IngredientLineInput) error {
	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert ingredient lines: %w", err)
	}
	return nil
}
