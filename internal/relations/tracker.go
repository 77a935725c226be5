// Package relations manages the uniqueness-constrained joins between users
// and recipes (favorite, shopping cart) and between users (subscriptions).
// Every transition is a single constraint-guarded write: concurrent duplicate
// adds resolve at the database, one commits and the other reports a conflict.
package relations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/apperr"
	"foodgram/models"
)

// Tracker exposes the relation state machine over the shared database handle.
type Tracker struct {
	db *gorm.DB
}

// NewTracker builds a Tracker over the given database.
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

func relationLabel(kind models.RelationKind) string {
	if kind == models.RelationCart {
		return "shopping cart"
	}
	return "favorites"
}

// AddRecipeRelation transitions the (user, recipe, kind) pair from absent to
// present. The unique index is the authority: a duplicate insert surfaces as
// a conflict, never a silent double row.
func (t *Tracker) AddRecipeRelation(ctx context.Context, userID, recipeID uint, kind models.RelationKind) error {
	var exists int64
	if err := t.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&exists).Error; err != nil {
		return fmt.Errorf("check recipe %d: %w", recipeID, err)
	}
	if exists == 0 {
		return apperr.NotFound("Recipe does not exist")
	}

	relation := models.UserRecipeRelation{UserID: userID, RecipeID: recipeID, Kind: kind}
	if err := t.db.WithContext(ctx).Create(&relation).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Recipe is already in %s", relationLabel(kind))
		}
		return fmt.Errorf("add %s relation: %w", kind, err)
	}
	return nil
}

// RemoveRecipeRelation transitions present to absent, reporting a not-found
// failure when the relation was never there.
func (t *Tracker) RemoveRecipeRelation(ctx context.Context, userID, recipeID uint, kind models.RelationKind) error {
	result := t.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", userID, recipeID, kind).
		Delete(&models.UserRecipeRelation{})
	if result.Error != nil {
		return fmt.Errorf("remove %s relation: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Recipe is not in %s", relationLabel(kind))
	}
	return nil
}

// HasRecipeRelation probes a single pair. Anonymous callers (userID == 0)
// always read false.
func (t *Tracker) HasRecipeRelation(ctx context.Context, userID, recipeID uint, kind models.RelationKind) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := t.db.WithContext(ctx).Model(&models.UserRecipeRelation{}).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", userID, recipeID, kind).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("probe %s relation: %w", kind, err)
	}
	return count > 0, nil
}

// RecipeIDsFor returns every recipe the user holds the relation against,
// oldest relation first.
func (t *Tracker) RecipeIDsFor(ctx context.Context, userID uint, kind models.RelationKind) ([]uint, error) {
	var ids []uint
	err := t.db.WithContext(ctx).Model(&models.UserRecipeRelation{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("id asc").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list %s recipe ids: %w", kind, err)
	}
	return ids, nil
}

// CountByRecipe is the reverse lookup: how many users hold the relation
// against the recipe.
func (t *Tracker) CountByRecipe(ctx context.Context, recipeID uint, kind models.RelationKind) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.UserRecipeRelation{}).
		Where("recipe_id = ? AND kind = ?", recipeID, kind).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %s relations: %w", kind, err)
	}
	return count, nil
}

// Subscribe records that subscriber follows author. Self-subscription is
// rejected before the row is attempted.
func (t *Tracker) Subscribe(ctx context.Context, subscriberID, authorID uint) error {
	if subscriberID == authorID {
		return apperr.Invalid("author", "You cannot subscribe to yourself")
	}

	var exists int64
	if err := t.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", authorID).Count(&exists).Error; err != nil {
		return fmt.Errorf("check author %d: %w", authorID, err)
	}
	if exists == 0 {
		return apperr.NotFound("Author does not exist")
	}

	subscription := models.Subscription{SubscriberID: subscriberID, AuthorID: authorID}
	if err := t.db.WithContext(ctx).Create(&subscription).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("You are already subscribed to this author")
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes an existing subscription.
func (t *Tracker) Unsubscribe(ctx context.Context, subscriberID, authorID uint) error {
	result := t.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return fmt.Errorf("delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("You are not subscribed to this author")
	}
	return nil
}

// IsSubscribed probes a subscription pair. Anonymous callers read false.
func (t *Tracker) IsSubscribed(ctx context.Context, subscriberID, authorID uint) (bool, error) {
	if subscriberID == 0 {
		return false, nil
	}
	var count int64
	err := t.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("probe subscription: %w", err)
	}
	return count > 0, nil
}

// SubscribedAuthorIDs returns the authors the user follows, oldest first.
func (t *Tracker) SubscribedAuthorIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	var ids []uint
	err := t.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Order("id asc").
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list subscribed author ids: %w", err)
	}
	return ids, nil
}

// isUniqueViolation recognises duplicate-key failures from both the postgres
// and sqlite drivers, with or without GORM error translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
