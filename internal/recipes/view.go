package recipes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/apperr"
	"foodgram/models"
)

// TagView is the expanded tag object in recipe responses.
type TagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AuthorView is the expanded author object, caller-relative through
// IsSubscribed.
type AuthorView struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar,omitempty"`
}

// IngredientLineView is one expanded ingredient line.
type IngredientLineView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the denormalized recipe representation. The two booleans are
// relative to the requesting identity and read false for anonymous callers.
type RecipeView struct {
	ID               uint                 `json:"id"`
	Tags             []TagView            `json:"tags"`
	Author           AuthorView           `json:"author"`
	Ingredients      []IngredientLineView `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
}

// ShortView is the compact representation returned by relation endpoints.
type ShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Filter narrows List results. Zero values leave a dimension unfiltered.
type Filter struct {
	AuthorID      uint
	TagSlugs      []string
	FavoritedOnly bool
	InCartOnly    bool
}

// Get returns the denormalized view of one recipe, with caller-relative
// booleans probed for viewerID (0 means anonymous).
func (s *Service) Get(ctx context.Context, recipeID, viewerID uint) (*RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id asc")
		}).
		Preload("Ingredients.Ingredient").
		First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Recipe does not exist")
		}
		return nil, fmt.Errorf("load recipe %d: %w", recipeID, err)
	}

	return s.project(ctx, &recipe, viewerID)
}

// ShortGet returns the compact representation used by favorite/cart
// responses.
func (s *Service) ShortGet(ctx context.Context, recipeID uint) (*ShortView, error) {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return &ShortView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}, nil
}

// List returns denormalized views matching the filter, newest first.
func (s *Service) List(ctx context.Context, viewerID uint, filter Filter) ([]RecipeView, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id asc")
		}).
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at desc, recipes.id desc")

	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.Where(
			"recipes.id IN (?)",
			s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs),
		)
	}
	if filter.FavoritedOnly && viewerID != 0 {
		query = query.Where(
			"recipes.id IN (?)",
			s.relationSubquery(viewerID, models.RelationFavorite),
		)
	}
	if filter.InCartOnly && viewerID != 0 {
		query = query.Where(
			"recipes.id IN (?)",
			s.relationSubquery(viewerID, models.RelationCart),
		)
	}

	var rows []models.Recipe
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	views := make([]RecipeView, 0, len(rows))
	for i := range rows {
		view, err := s.project(ctx, &rows[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *Service) relationSubquery(userID uint, kind models.RelationKind) *gorm.DB {
	return s.db.Model(&models.UserRecipeRelation{}).
		Select("recipe_id").
		Where("user_id = ? AND kind = ?", userID, kind)
}

func (s *Service) project(ctx context.Context, recipe *models.Recipe, viewerID uint) (*RecipeView, error) {
	favorited, err := s.tracker.HasRecipeRelation(ctx, viewerID, recipe.ID, models.RelationFavorite)
	if err != nil {
		return nil, err
	}
	inCart, err := s.tracker.HasRecipeRelation(ctx, viewerID, recipe.ID, models.RelationCart)
	if err != nil {
		return nil, err
	}

	author := AuthorView{ID: recipe.AuthorID}
	if recipe.Author != nil {
		subscribed, err := s.tracker.IsSubscribed(ctx, viewerID, recipe.Author.ID)
		if err != nil {
			return nil, err
		}
		author = AuthorView{
			ID:           recipe.Author.ID,
			Username:     recipe.Author.Username,
			FirstName:    recipe.Author.FirstName,
			LastName:     recipe.Author.LastName,
			Email:        recipe.Author.Email,
			IsSubscribed: subscribed,
			Avatar:       recipe.Author.Avatar,
		}
	}

	tags := make([]TagView, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, TagView{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}

	lines := make([]IngredientLineView, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		view := IngredientLineView{ID: line.IngredientID, Amount: line.Amount}
		if line.Ingredient != nil {
			view.Name = line.Ingredient.Name
			view.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		lines = append(lines, view)
	}

	return &RecipeView{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      lines,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}
