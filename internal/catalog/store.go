// Package catalog holds the Tag and Ingredient reference data. End users only
// read it; writes happen through the bulk loaders at setup time.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/apperr"
	"foodgram/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Store provides lookups over the catalog tables.
type Store struct {
	db *gorm.DB
}

// NewStore builds a Store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tags returns every tag ordered by name.
func (s *Store) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name asc").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// TagByID returns one tag or a not-found failure.
func (s *Store) TagByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Tag does not exist")
		}
		return nil, fmt.Errorf("load tag %d: %w", id, err)
	}
	return &tag, nil
}

// TagsByIDs resolves a set of tag ids, reporting every missing id in one
// validation failure.
func (s *Store) TagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	if len(tags) != len(uniqueIDs(ids)) {
		found := make(map[uint]bool, len(tags))
		for _, tag := range tags {
			found[tag.ID] = true
		}
		missing := make([]string, 0)
		for _, id := range uniqueIDs(ids) {
			if !found[id] {
				missing = append(missing, fmt.Sprintf("%d", id))
			}
		}
		return nil, apperr.Invalid("tags", "Tags with IDs %s do not exist", strings.Join(missing, ", "))
	}

	byID := make(map[uint]models.Tag, len(tags))
	for _, tag := range tags {
		byID[tag.ID] = tag
	}
	ordered := make([]models.Tag, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered, nil
}

// Ingredients lists ingredients, optionally filtered by a case-insensitive
// name prefix, ordered by name.
func (s *Store) Ingredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name asc")
	if trimmed := strings.TrimSpace(namePrefix); trimmed != "" {
		query = query.Where("lower(name) LIKE ?", strings.ToLower(trimmed)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// IngredientByID returns one ingredient or a not-found failure.
func (s *Store) IngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Ingredient does not exist")
		}
		return nil, fmt.Errorf("load ingredient %d: %w", id, err)
	}
	return &ingredient, nil
}

// IngredientsByIDs resolves a set of ingredient ids into a lookup map,
// reporting every missing id in one validation failure.
func (s *Store) IngredientsByIDs(ctx context.Context, ids []uint) (map[uint]models.Ingredient, error) {
	if len(ids) == 0 {
		return map[uint]models.Ingredient{}, nil
	}

	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}

	byID := make(map[uint]models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		byID[ingredient.ID] = ingredient
	}

	missing := make([]uint, 0)
	for _, id := range uniqueIDs(ids) {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		parts := make([]string, len(missing))
		for i, id := range missing {
			parts[i] = fmt.Sprintf("%d", id)
		}
		return nil, apperr.Invalid("ingredients", "Ingredients with IDs %s do not exist", strings.Join(parts, ", "))
	}

	return byID, nil
}

// Slugify derives a URL-safe slug from a tag name.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := false
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ValidSlug reports whether the slug matches the allowed pattern.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
