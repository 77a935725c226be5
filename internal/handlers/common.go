package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"foodgram/internal/apperr"
	"foodgram/internal/catalog"
	"foodgram/internal/images"
	applog "foodgram/internal/log"
	"foodgram/internal/recipes"
	"foodgram/internal/relations"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	recipeService  *recipes.Service
	tracker        *relations.Tracker
	catalogStore   *catalog.Store
	imageStore     *images.Store
	validate       = validator.New(validator.WithRequiredStructEnabled())
)

// Dependencies bundles the collaborators the handlers dispatch into.
type Dependencies struct {
	Recipes *recipes.Service
	Tracker *relations.Tracker
	Catalog *catalog.Store
	Images  *images.Store
}

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, deps Dependencies) {
	sessionManager = sm
	database = db
	recipeService = deps.Recipes
	tracker = deps.Tracker
	catalogStore = deps.Catalog
	imageStore = deps.Images
}

// currentUserID resolves the authenticated subject from the session, or
// reports false for anonymous callers.
func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	if !sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// viewerID is like currentUserID but folds anonymous into the zero identity.
func viewerID(r *http.Request) uint {
	id, _ := currentUserID(r)
	return id
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	_, ok := currentUserID(r)
	return ok
}

// RequireAuthentication rejects anonymous requests with a structured 401.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActiveSession(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"errors": message})
}

// writeDomainError translates the service error taxonomy into the structured
// responses the API contract promises. Unclassified errors become opaque 500s.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	if v, ok := apperr.AsValidation(err); ok {
		applog.Debug(ctx, "request validation failed", "error", err)
		writeJSON(w, http.StatusBadRequest, v.Fields)
		return
	}
	if apperr.IsConflict(err) || apperr.IsEmptyResult(err) {
		applog.Debug(ctx, "request conflict", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if apperr.IsNotFound(err) {
		applog.Debug(ctx, "entity not found", "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return
	}
	if apperr.IsForbidden(err) {
		applog.Debug(ctx, "forbidden request", "error", err)
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": err.Error()})
		return
	}
	applog.Error(ctx, "unhandled service error", "error", err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

// validationErrorFrom converts validator field failures into the shared
// per-field taxonomy.
func validationErrorFrom(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Invalid("non_field_errors", "invalid request payload")
	}
	v := apperr.NewValidation()
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			v.Add(field, "This field is required")
		case "email":
			v.Add(field, "Enter a valid email address")
		case "min":
			v.Add(field, "Ensure this value has at least %s characters", fe.Param())
		case "max":
			v.Add(field, "Ensure this value has at most %s characters", fe.Param())
		default:
			v.Add(field, "Invalid value")
		}
	}
	return v.ErrOrNil()
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type pageParams struct {
	page  int
	limit int
}

func parsePageParams(r *http.Request) pageParams {
	params := pageParams{page: 1, limit: defaultPageSize}
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			params.page = page
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.limit = limit
		}
	}
	if params.limit > maxPageSize {
		params.limit = maxPageSize
	}
	return params
}

type pageEnvelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// paginate slices the full ordered result and wraps it in the count/next/
// previous envelope. The slicing is deliberately the collaborator's job; the
// services always produce full sequences.
func paginate[T any](r *http.Request, items []T, params pageParams) pageEnvelope {
	total := len(items)
	start := (params.page - 1) * params.limit
	if start > total {
		start = total
	}
	end := start + params.limit
	if end > total {
		end = total
	}

	envelope := pageEnvelope{Count: total, Results: items[start:end]}
	if end < total {
		envelope.Next = pageLink(r, params.page+1)
	}
	if params.page > 1 {
		envelope.Previous = pageLink(r, params.page-1)
	}
	return envelope
}

func pageLink(r *http.Request, page int) *string {
	link := *r.URL
	query := link.Query()
	query.Set("page", strconv.Itoa(page))
	link.RawQuery = query.Encode()
	value := link.String()
	return &value
}

// parseResourceID extracts a positive integer identifier from a path segment.
func parseResourceID(segment string) (uint, error) {
	value, err := strconv.ParseUint(segment, 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid identifier %q", segment)
	}
	return uint(value), nil
}

func queryValues(r *http.Request, key string) []string {
	values := r.URL.Query()[key]
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func queryFlag(query url.Values, key string) bool {
	value := strings.TrimSpace(query.Get(key))
	return value == "1" || strings.EqualFold(value, "true")
}
