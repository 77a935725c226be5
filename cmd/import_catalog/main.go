// Command import_catalog loads the tag and ingredient reference data into the
// database. Existing entries are left untouched, so the loader is safe to run
// repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"foodgram/internal/catalog"
	"foodgram/internal/config"
	"foodgram/internal/db"
)

func main() {
	tagsPath := "data/tags.csv"
	ingredientsPath := "data/ingredients.json"
	if len(os.Args) > 1 {
		tagsPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		ingredientsPath = os.Args[2]
	}

	if err := run(context.Background(), tagsPath, ingredientsPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, tagsPath, ingredientsPath string) error {
	if strings.TrimSpace(tagsPath) == "" || strings.TrimSpace(ingredientsPath) == "" {
		return fmt.Errorf("tags and ingredients paths must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	store := catalog.NewStore(database)

	tagsFile, err := os.Open(tagsPath)
	if err != nil {
		return fmt.Errorf("open tags csv: %w", err)
	}
	defer tagsFile.Close()

	tagReport, err := store.LoadTags(ctx, tagsFile)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	fmt.Printf("tags: %d created, %d already present\n", tagReport.Created, tagReport.Skipped)

	ingredientsFile, err := os.Open(ingredientsPath)
	if err != nil {
		return fmt.Errorf("open ingredients json: %w", err)
	}
	defer ingredientsFile.Close()

	ingredientReport, err := store.LoadIngredients(ctx, ingredientsFile)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	fmt.Printf("ingredients: %d created, %d already present\n", ingredientReport.Created, ingredientReport.Skipped)

	return nil
}
