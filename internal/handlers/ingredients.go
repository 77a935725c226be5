package handlers

import (
	"net/http"
	"strings"

	applog "foodgram/internal/log"
)

type ingredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientResource serves the read-only ingredient catalog with optional
// case-insensitive name-prefix filtering.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if catalogStore == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/ingredients"), "/")
	if path == "" {
		ingredients, err := catalogStore.Ingredients(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			applog.Error(r.Context(), "failed to list ingredients", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
			return
		}
		responses := make([]ingredientResponse, 0, len(ingredients))
		for _, ingredient := range ingredients {
			responses = append(responses, ingredientResponse{
				ID:              ingredient.ID,
				Name:            ingredient.Name,
				MeasurementUnit: ingredient.MeasurementUnit,
			})
		}
		writeJSON(w, http.StatusOK, responses)
		return
	}

	ingredientID, err := parseResourceID(path)
	if err != nil {
		applog.Debug(r.Context(), "invalid ingredient identifier", "identifier", path)
		http.NotFound(w, r)
		return
	}

	ingredient, err := catalogStore.IngredientByID(r.Context(), ingredientID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	})
}
