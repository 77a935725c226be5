package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "foodgram/internal/log"
	"foodgram/models"
)

// New returns an in-memory sqlite database seeded with representative
// catalog and recipe data for local development.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:foodgram-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.UserRecipeRelation{},
		&models.Subscription{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("kitchen"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	author := &models.User{
		Email:        "chef@example.com",
		Username:     "chef",
		FirstName:    "Avery",
		LastName:     "Knox",
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Where(models.User{Email: author.Email}).FirstOrCreate(author).Error; err != nil {
		return err
	}

	tags := []models.Tag{
		{Name: "Breakfast", Slug: "breakfast"},
		{Name: "Dinner", Slug: "dinner"},
		{Name: "Dessert", Slug: "dessert"},
	}
	for i := range tags {
		if err := db.WithContext(ctx).Where(models.Tag{Slug: tags[i].Slug}).FirstOrCreate(&tags[i]).Error; err != nil {
			return err
		}
	}

	ingredients := []models.Ingredient{
		{Name: "flour", MeasurementUnit: "g"},
		{Name: "sugar", MeasurementUnit: "g"},
		{Name: "milk", MeasurementUnit: "ml"},
		{Name: "egg", MeasurementUnit: "pcs"},
	}
	for i := range ingredients {
		cond := models.Ingredient{Name: ingredients[i].Name, MeasurementUnit: ingredients[i].MeasurementUnit}
		if err := db.WithContext(ctx).Where(cond).FirstOrCreate(&ingredients[i]).Error; err != nil {
			return err
		}
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Recipe{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        "Pancakes",
		Image:       "/media/recipes/pancakes.png",
		Text:        "Whisk, rest, fry on a hot pan.",
		CookingTime: 20,
		Tags:        tags[:1],
	}
	if err := db.WithContext(ctx).Create(recipe).Error; err != nil {
		return err
	}

	lines := []models.RecipeIngredient{
		{RecipeID: recipe.ID, IngredientID: ingredients[0].ID, Amount: 200},
		{RecipeID: recipe.ID, IngredientID: ingredients[2].ID, Amount: 300},
		{RecipeID: recipe.ID, IngredientID: ingredients[3].ID, Amount: 2},
	}
	if err := db.WithContext(ctx).Create(&lines).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "recipeID", recipe.ID)
	return nil
}
