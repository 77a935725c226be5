package recipes

import (
	"context"
	"testing"

	"foodgram/models"
)

func (f *fixture) createRecipe(t *testing.T, name string, tagID uint) *RecipeView {
	t.Helper()
	input := f.validInput()
	input.Name = name
	input.TagIDs = []uint{tagID}
	view, err := f.service.Create(context.Background(), f.author.ID, input)
	if err != nil {
		t.Fatalf("failed to create recipe %q: %v", name, err)
	}
	return view
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createRecipe(t, "First", f.tags[0].ID)
	second := f.createRecipe(t, "Second", f.tags[0].ID)
	third := f.createRecipe(t, "Third", f.tags[1].ID)

	views, err := f.service.List(ctx, 0, Filter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 recipes, got %d", len(views))
	}
	if views[0].ID != third.ID || views[1].ID != second.ID || views[2].ID != first.ID {
		t.Fatalf("expected newest first, got %d %d %d", views[0].ID, views[1].ID, views[2].ID)
	}
}

func TestListFiltersByTagSlugs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	breakfast := f.createRecipe(t, "Porridge", f.tags[0].ID)
	dinner := f.createRecipe(t, "Roast", f.tags[1].ID)

	views, err := f.service.List(ctx, 0, Filter{TagSlugs: []string{"dinner"}})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 1 || views[0].ID != dinner.ID {
		t.Fatalf("expected only the dinner recipe, got %+v", views)
	}

	// multiple slugs union, each recipe appearing once
	views, err = f.service.List(ctx, 0, Filter{TagSlugs: []string{"breakfast", "dinner"}})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected both recipes, got %d", len(views))
	}
	_ = breakfast
}

func TestListRelationFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	favored := f.createRecipe(t, "Favored", f.tags[0].ID)
	carted := f.createRecipe(t, "Carted", f.tags[0].ID)
	f.createRecipe(t, "Plain", f.tags[0].ID)

	if err := f.tracker.AddRecipeRelation(ctx, f.viewer.ID, favored.ID, models.RelationFavorite); err != nil {
		t.Fatalf("add favorite returned error: %v", err)
	}
	if err := f.tracker.AddRecipeRelation(ctx, f.viewer.ID, carted.ID, models.RelationCart); err != nil {
		t.Fatalf("add cart returned error: %v", err)
	}

	views, err := f.service.List(ctx, f.viewer.ID, Filter{FavoritedOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 1 || views[0].ID != favored.ID || !views[0].IsFavorited {
		t.Fatalf("unexpected favorited list: %+v", views)
	}

	views, err = f.service.List(ctx, f.viewer.ID, Filter{InCartOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 1 || views[0].ID != carted.ID || !views[0].IsInShoppingCart {
		t.Fatalf("unexpected cart list: %+v", views)
	}

	// anonymous callers cannot hold relations, so the filter is a no-op
	views, err = f.service.List(ctx, 0, Filter{FavoritedOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("anonymous favorited filter should not narrow, got %d", len(views))
	}
}

func TestGetViewerRelativeBooleans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, "Shared", f.tags[0].ID)
	if err := f.tracker.AddRecipeRelation(ctx, f.viewer.ID, recipe.ID, models.RelationFavorite); err != nil {
		t.Fatalf("add favorite returned error: %v", err)
	}
	if err := f.tracker.Subscribe(ctx, f.viewer.ID, f.author.ID); err != nil {
		t.Fatalf("subscribe returned error: %v", err)
	}

	asViewer, err := f.service.Get(ctx, recipe.ID, f.viewer.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !asViewer.IsFavorited || asViewer.IsInShoppingCart {
		t.Fatalf("unexpected viewer booleans: %+v", asViewer)
	}
	if !asViewer.Author.IsSubscribed {
		t.Fatal("viewer subscription should surface on the author")
	}

	asAnonymous, err := f.service.Get(ctx, recipe.ID, 0)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if asAnonymous.IsFavorited || asAnonymous.Author.IsSubscribed {
		t.Fatalf("anonymous view must read all booleans false: %+v", asAnonymous)
	}
}

func TestShortGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, "Compact", f.tags[0].ID)
	short, err := f.service.ShortGet(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("ShortGet returned error: %v", err)
	}
	if short.ID != recipe.ID || short.Name != "Compact" || short.CookingTime != recipe.CookingTime {
		t.Fatalf("unexpected short view: %+v", short)
	}
}

func TestShortListByAuthorHonorsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		f.createRecipe(t, name, f.tags[0].ID)
	}

	views, total, err := f.service.ShortListByAuthor(ctx, f.author.ID, 2)
	if err != nil {
		t.Fatalf("ShortListByAuthor returned error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(views) != 2 || views[0].Name != "Three" || views[1].Name != "Two" {
		t.Fatalf("expected newest two recipes, got %+v", views)
	}

	views, total, err = f.service.ShortListByAuthor(ctx, f.author.ID, 0)
	if err != nil {
		t.Fatalf("ShortListByAuthor returned error: %v", err)
	}
	if len(views) != 3 || total != 3 {
		t.Fatalf("non-positive limit should return everything, got %d of %d", len(views), total)
	}
}
