package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/catalog"
	"foodgram/internal/images"
	"foodgram/internal/recipes"
	"foodgram/internal/relations"
	"foodgram/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

// withTestApp wires the full handler dependency set against an in-memory
// database and restores the previous globals afterwards.
func withTestApp(t *testing.T) (*gorm.DB, *scs.SessionManager) {
	t.Helper()

	prevDB := database
	prevRecipes := recipeService
	prevTracker := tracker
	prevCatalog := catalogStore
	prevImages := imageStore

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
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
		t.Fatalf("failed to migrate schema: %v", err)
	}

	sm, cleanupSession := withTestSessionManager(t)

	store := catalog.NewStore(db)
	trk := relations.NewTracker(db)
	Configure(sm, db, Dependencies{
		Recipes: recipes.NewService(db, store, trk),
		Tracker: trk,
		Catalog: store,
		Images:  images.NewStore(t.TempDir(), "/media/"),
	})

	t.Cleanup(func() {
		cleanupSession()
		database = prevDB
		recipeService = prevRecipes
		tracker = prevTracker
		catalogStore = prevCatalog
		imageStore = prevImages
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, sm
}

func authenticateRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(req.Context(), sessionUserIDKey, int(userID))
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	return req
}

func createTestUser(t *testing.T, db *gorm.DB, email, username, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Email:        email,
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func seedCatalog(t *testing.T, db *gorm.DB) ([]models.Tag, []models.Ingredient) {
	t.Helper()
	tags := []models.Tag{
		{Name: "Breakfast", Slug: "breakfast"},
		{Name: "Dinner", Slug: "dinner"},
	}
	if err := db.Create(&tags).Error; err != nil {
		t.Fatalf("failed to seed tags: %v", err)
	}
	ingredients := []models.Ingredient{
		{Name: "flour", MeasurementUnit: "g"},
		{Name: "milk", MeasurementUnit: "ml"},
	}
	if err := db.Create(&ingredients).Error; err != nil {
		t.Fatalf("failed to seed ingredients: %v", err)
	}
	return tags, ingredients
}

func TestParsePageParams(t *testing.T) {
	cases := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, defaultPageSize},
		{"page=3&limit=25", 3, 25},
		{"page=0&limit=-4", 1, defaultPageSize},
		{"page=abc&limit=xyz", 1, defaultPageSize},
		{"limit=500", 1, maxPageSize},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/recipes/?"+tc.query, nil)
		params := parsePageParams(req)
		if params.page != tc.page || params.limit != tc.limit {
			t.Errorf("query %q: got page=%d limit=%d, want page=%d limit=%d",
				tc.query, params.page, params.limit, tc.page, tc.limit)
		}
	}
}

func TestPaginateEnvelope(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/?page=2&limit=10", nil)
	envelope := paginate(req, items, pageParams{page: 2, limit: 10})

	if envelope.Count != 25 {
		t.Fatalf("expected count 25, got %d", envelope.Count)
	}
	page, ok := envelope.Results.([]int)
	if !ok {
		t.Fatalf("unexpected results type %T", envelope.Results)
	}
	if len(page) != 10 || page[0] != 10 || page[9] != 19 {
		t.Fatalf("unexpected page slice: %v", page)
	}
	if envelope.Next == nil || envelope.Previous == nil {
		t.Fatal("middle page should link both directions")
	}

	next, err := url.Parse(*envelope.Next)
	if err != nil {
		t.Fatalf("next link is not a URL: %v", err)
	}
	if next.Query().Get("page") != "3" || next.Query().Get("limit") != "10" {
		t.Fatalf("next link should keep the query, got %q", *envelope.Next)
	}

	// last page: no next, short slice
	envelope = paginate(req, items, pageParams{page: 3, limit: 10})
	if envelope.Next != nil {
		t.Fatal("last page must not link forward")
	}
	if page := envelope.Results.([]int); len(page) != 5 {
		t.Fatalf("expected trailing 5 items, got %d", len(page))
	}

	// page past the end is empty but well-formed
	envelope = paginate(req, items, pageParams{page: 9, limit: 10})
	if page := envelope.Results.([]int); len(page) != 0 {
		t.Fatalf("expected empty page, got %v", page)
	}
}

func TestRequireAuthentication(t *testing.T) {
	_, sm := withTestApp(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil)
	w := httptest.NewRecorder()
	RequireAuthentication(next).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request should get 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil)
	req = authenticateRequest(t, sm, req, 1)
	w = httptest.NewRecorder()
	RequireAuthentication(next).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated request should pass, got %d", w.Code)
	}
}
