package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"foodgram/internal/apperr"
	applog "foodgram/internal/log"
	"foodgram/internal/recipes"
	"foodgram/models"
)

type recipeLineRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

type createRecipeRequest struct {
	Ingredients []recipeLineRequest `json:"ingredients"`
	Tags        []uint              `json:"tags"`
	Image       string              `json:"image"`
	Name        string              `json:"name"`
	Text        string              `json:"text"`
	CookingTime int                 `json:"cooking_time"`
}

type updateRecipeRequest struct {
	Ingredients *[]recipeLineRequest `json:"ingredients"`
	Tags        *[]uint              `json:"tags"`
	Image       *string              `json:"image"`
	Name        *string              `json:"name"`
	Text        *string              `json:"text"`
	CookingTime *int                 `json:"cooking_time"`
}

// RecipeResource routes every /api/recipes request: the collection, the item,
// the relation sub-resources and the shopping list download.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if recipeService == nil || tracker == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/recipes"), "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r)
		case http.MethodPost:
			createRecipe(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "download_shopping_cart" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		downloadShoppingCart(w, r)
		return
	}

	segments := strings.Split(path, "/")
	recipeID, err := parseResourceID(segments[0])
	if err != nil {
		applog.Debug(r.Context(), "invalid recipe identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 {
		switch segments[1] {
		case "favorite":
			recipeRelation(w, r, recipeID, models.RelationFavorite)
		case "shopping_cart":
			recipeRelation(w, r, recipeID, models.RelationCart)
		case "get-link":
			recipeShortLink(w, r, recipeID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID)
	case http.MethodPut:
		updateRecipe(w, r, recipeID, false)
	case http.MethodPatch:
		updateRecipe(w, r, recipeID, true)
	case http.MethodDelete:
		deleteRecipe(w, r, recipeID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := recipes.Filter{
		TagSlugs:      queryValues(r, "tags"),
		FavoritedOnly: queryFlag(query, "is_favorited"),
		InCartOnly:    queryFlag(query, "is_in_shopping_cart"),
	}
	if raw := strings.TrimSpace(query.Get("author")); raw != "" {
		if authorID, err := parseResourceID(raw); err == nil {
			filter.AuthorID = authorID
		}
	}

	views, err := recipeService.List(r.Context(), viewerID(r), filter)
	if err != nil {
		applog.Error(r.Context(), "failed to list recipes", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
		return
	}

	writeJSON(w, http.StatusOK, paginate(r, views, parsePageParams(r)))
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	view, err := recipeService.Get(r.Context(), recipeID, viewerID(r))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func createRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	var payload createRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid recipe create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	imageRef, err := resolveImage(payload.Image)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	view, err := recipeService.Create(r.Context(), userID, recipes.Input{
		Name:        strings.TrimSpace(payload.Name),
		Image:       imageRef,
		Text:        payload.Text,
		CookingTime: payload.CookingTime,
		TagIDs:      payload.Tags,
		Ingredients: toLineInputs(payload.Ingredients),
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	applog.Info(r.Context(), "recipe created", "recipeID", view.ID, "authorID", userID)
	writeJSON(w, http.StatusCreated, view)
}

func updateRecipe(w http.ResponseWriter, r *http.Request, recipeID uint, partial bool) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	var payload updateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid recipe update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input := recipes.UpdateInput{
		Name:        payload.Name,
		Text:        payload.Text,
		CookingTime: payload.CookingTime,
	}
	if payload.Image != nil {
		imageRef, err := resolveImage(*payload.Image)
		if err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		input.Image = &imageRef
	}
	if payload.Tags != nil {
		input.TagIDs = *payload.Tags
	}
	if payload.Ingredients != nil {
		lines := toLineInputs(*payload.Ingredients)
		input.Ingredients = lines
	}

	view, err := recipeService.Update(r.Context(), recipeID, userID, input, partial)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	applog.Info(r.Context(), "recipe updated", "recipeID", recipeID, "authorID", userID)
	writeJSON(w, http.StatusOK, view)
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	if err := recipeService.Delete(r.Context(), recipeID, userID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	applog.Info(r.Context(), "recipe deleted", "recipeID", recipeID, "authorID", userID)
	w.WriteHeader(http.StatusNoContent)
}

func recipeRelation(w http.ResponseWriter, r *http.Request, recipeID uint, kind models.RelationKind) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := tracker.AddRecipeRelation(r.Context(), userID, recipeID, kind); err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		view, err := recipeService.ShortGet(r.Context(), recipeID)
		if err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	case http.MethodDelete:
		if err := tracker.RemoveRecipeRelation(r.Context(), userID, recipeID, kind); err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func downloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	items, err := recipeService.ShoppingList(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	body := recipes.RenderShoppingList(items)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+recipes.ShoppingListFilename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		applog.Error(r.Context(), "failed to write shopping list", "error", err)
	}
}

func recipeShortLink(w http.ResponseWriter, r *http.Request, recipeID uint) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, err := recipeService.ShortGet(r.Context(), recipeID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"short-link": fmt.Sprintf("%s://%s/s/%d", scheme, r.Host, recipeID),
	})
}

// ShortLinkRedirect resolves /s/{id} to the canonical recipe URL.
func ShortLinkRedirect(w http.ResponseWriter, r *http.Request) {
	if recipeService == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/s"), "/")
	recipeID, err := parseResourceID(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if _, err := recipeService.ShortGet(r.Context(), recipeID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/api/recipes/%d", recipeID), http.StatusFound)
}

func resolveImage(encoded string) (string, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return "", nil
	}
	if !strings.HasPrefix(trimmed, "data:") {
		// Already a stored reference; keep it as supplied.
		return trimmed, nil
	}
	if imageStore == nil {
		return "", apperr.Invalid("image", "image storage is not configured")
	}
	ref, err := imageStore.Save("recipes", trimmed)
	if err != nil {
		return "", apperr.Invalid("image", "%s", err.Error())
	}
	return ref, nil
}

func toLineInputs(lines []recipeLineRequest) []recipes.IngredientLineInput {
	out := make([]recipes.IngredientLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, recipes.IngredientLineInput{IngredientID: line.ID, Amount: line.Amount})
	}
	return out
}
