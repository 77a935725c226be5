package recipes

import (
	"context"
	"fmt"

	"foodgram/models"
)

// ShortListByAuthor returns the author's recipes as compact views, newest
// first, together with the author's total recipe count. A non-positive limit
// returns every recipe.
func (s *Service) ShortListByAuthor(ctx context.Context, authorID uint, limit int) ([]ShortView, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count author recipes: %w", err)
	}

	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Recipe
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list author recipes: %w", err)
	}

	views := make([]ShortView, 0, len(rows))
	for _, recipe := range rows {
		views = append(views, ShortView{
			ID:          recipe.ID,
			Name:        recipe.Name,
			Image:       recipe.Image,
			CookingTime: recipe.CookingTime,
		})
	}
	return views, total, nil
}
