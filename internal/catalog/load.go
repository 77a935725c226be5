package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"foodgram/models"
)

// LoadReport summarises one bulk-load run.
type LoadReport struct {
	Created int
	Skipped int
}

// LoadTags reads "name,slug" CSV rows and creates any tag that does not exist
// yet. The slug column is optional; a missing slug is derived from the name.
func (s *Store) LoadTags(ctx context.Context, r io.Reader) (LoadReport, error) {
	report := LoadReport{}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read tags csv: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}

		slug := ""
		if len(row) > 1 {
			slug = strings.TrimSpace(row[1])
		}
		if slug == "" {
			slug = Slugify(name)
		}
		if !ValidSlug(slug) {
			return report, fmt.Errorf("tag %q: slug %q contains invalid characters", name, slug)
		}

		var existing int64
		if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("name = ?", name).Count(&existing).Error; err != nil {
			return report, fmt.Errorf("check tag %q: %w", name, err)
		}
		if existing > 0 {
			report.Skipped++
			continue
		}

		if err := s.db.WithContext(ctx).Create(&models.Tag{Name: name, Slug: slug}).Error; err != nil {
			return report, fmt.Errorf("create tag %q: %w", name, err)
		}
		report.Created++
	}

	return report, nil
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// LoadIngredients reads a JSON array of {name, measurement_unit} objects and
// creates any pair that does not exist yet.
func (s *Store) LoadIngredients(ctx context.Context, r io.Reader) (LoadReport, error) {
	report := LoadReport{}

	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return report, fmt.Errorf("decode ingredients json: %w", err)
	}

	for _, record := range records {
		name := strings.TrimSpace(record.Name)
		unit := strings.TrimSpace(record.MeasurementUnit)
		if name == "" || unit == "" {
			return report, fmt.Errorf("ingredient %q: name and measurement_unit are required", record.Name)
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing int64
			if err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", name, unit).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("check ingredient %q: %w", name, err)
			}
			if existing > 0 {
				report.Skipped++
				return nil
			}
			if err := tx.Create(&models.Ingredient{Name: name, MeasurementUnit: unit}).Error; err != nil {
				return fmt.Errorf("create ingredient %q: %w", name, err)
			}
			report.Created++
			return nil
		})
		if err != nil {
			return report, err
		}
	}

	return report, nil
}
