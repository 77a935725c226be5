package handlers

import (
	"net/http"
	"strings"

	applog "foodgram/internal/log"
)

type tagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagResource serves the read-only tag catalog. No pagination: the tag set is
// small reference data.
func TagResource(w http.ResponseWriter, r *http.Request) {
	if catalogStore == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tags"), "/")
	if path == "" {
		tags, err := catalogStore.Tags(r.Context())
		if err != nil {
			applog.Error(r.Context(), "failed to list tags", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load tags")
			return
		}
		responses := make([]tagResponse, 0, len(tags))
		for _, tag := range tags {
			responses = append(responses, tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
		}
		writeJSON(w, http.StatusOK, responses)
		return
	}

	tagID, err := parseResourceID(path)
	if err != nil {
		applog.Debug(r.Context(), "invalid tag identifier", "identifier", path)
		http.NotFound(w, r)
		return
	}

	tag, err := catalogStore.TagByID(r.Context(), tagID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
}
