package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/apperr"
	applog "foodgram/internal/log"
	"foodgram/internal/recipes"
	"foodgram/models"
)

type signupRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar,omitempty"`
}

type subscriptionResponse struct {
	userResponse
	Recipes      []recipes.ShortView `json:"recipes"`
	RecipesCount int64               `json:"recipes_count"`
}

type setAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// UserResource routes every /api/users request: registration, profile reads,
// the current user, avatar management and subscriptions.
func UserResource(w http.ResponseWriter, r *http.Request) {
	if database == nil || tracker == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users"), "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			listUsers(w, r)
		case http.MethodPost:
			signupUser(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case "me":
		currentUser(w, r)
		return
	case "me/avatar":
		userAvatar(w, r)
		return
	case "subscriptions":
		listSubscriptions(w, r)
		return
	}

	segments := strings.Split(path, "/")
	userID, err := parseResourceID(segments[0])
	if err != nil {
		applog.Debug(r.Context(), "invalid user identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 {
		if segments[1] == "subscribe" {
			subscribeUser(w, r, userID)
			return
		}
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	showUser(w, r, userID)
}

func projectUser(r *http.Request, user *models.User) (userResponse, error) {
	subscribed, err := tracker.IsSubscribed(r.Context(), viewerID(r), user.ID)
	if err != nil {
		return userResponse{}, err
	}
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		IsSubscribed: subscribed,
		Avatar:       user.Avatar,
	}, nil
}

func signupUser(w http.ResponseWriter, r *http.Request) {
	var payload signupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid signup payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeDomainError(r.Context(), w, validationErrorFrom(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		applog.Error(r.Context(), "failed to hash password", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Username:     strings.TrimSpace(payload.Username),
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		PasswordHash: string(hashed),
	}

	if err := database.WithContext(r.Context()).Create(&user).Error; err != nil {
		var conflict int64
		database.WithContext(r.Context()).Model(&models.User{}).
			Where("lower(email) = ? OR username = ?", user.Email, user.Username).
			Count(&conflict)
		if conflict > 0 {
			writeDomainError(r.Context(), w, apperr.Conflict("A user with this email or username already exists"))
			return
		}
		applog.Error(r.Context(), "failed to create user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	applog.Info(r.Context(), "user registered", "userID", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"email":      user.Email,
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := database.WithContext(r.Context()).Order("id asc").Find(&users).Error; err != nil {
		applog.Error(r.Context(), "failed to list users", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load users")
		return
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		response, err := projectUser(r, &users[i])
		if err != nil {
			applog.Error(r.Context(), "failed to project user", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load users")
			return
		}
		responses = append(responses, response)
	}

	writeJSON(w, http.StatusOK, paginate(r, responses, parsePageParams(r)))
}

func showUser(w http.ResponseWriter, r *http.Request, userID uint) {
	var user models.User
	if err := database.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeDomainError(r.Context(), w, apperr.NotFound("User does not exist"))
			return
		}
		applog.Error(r.Context(), "failed to load user", "error", err, "id", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load user")
		return
	}

	response, err := projectUser(r, &user)
	if err != nil {
		applog.Error(r.Context(), "failed to project user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func currentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	showUser(w, r, userID)
}

func userAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	var user models.User
	if err := database.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		applog.Error(r.Context(), "failed to load user for avatar", "error", err, "id", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load user")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload setAvatarRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			applog.Debug(r.Context(), "invalid avatar payload", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if err := validate.Struct(payload); err != nil {
			writeDomainError(r.Context(), w, validationErrorFrom(err))
			return
		}
		if imageStore == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "image storage unavailable")
			return
		}

		ref, err := imageStore.Save("users", payload.Avatar)
		if err != nil {
			writeDomainError(r.Context(), w, apperr.Invalid("avatar", "%s", err.Error()))
			return
		}

		if user.Avatar != "" {
			if err := imageStore.Remove(user.Avatar); err != nil {
				applog.Warn(r.Context(), "failed to remove previous avatar", "error", err)
			}
		}
		if err := database.WithContext(r.Context()).Model(&user).Update("avatar", ref).Error; err != nil {
			applog.Error(r.Context(), "failed to store avatar", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to update avatar")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"avatar": ref})
	case http.MethodDelete:
		if user.Avatar != "" {
			if imageStore != nil {
				if err := imageStore.Remove(user.Avatar); err != nil {
					applog.Warn(r.Context(), "failed to remove avatar file", "error", err)
				}
			}
			if err := database.WithContext(r.Context()).Model(&user).Update("avatar", "").Error; err != nil {
				applog.Error(r.Context(), "failed to clear avatar", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to remove avatar")
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func subscribeUser(w http.ResponseWriter, r *http.Request, authorID uint) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := tracker.Subscribe(r.Context(), userID, authorID); err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		response, err := subscriptionEntry(r, authorID)
		if err != nil {
			applog.Error(r.Context(), "failed to build subscription response", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load author")
			return
		}
		writeJSON(w, http.StatusCreated, response)
	case http.MethodDelete:
		if err := tracker.Unsubscribe(r.Context(), userID, authorID); err != nil {
			writeDomainError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authorIDs, err := tracker.SubscribedAuthorIDs(r.Context(), userID)
	if err != nil {
		applog.Error(r.Context(), "failed to list subscriptions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load subscriptions")
		return
	}

	responses := make([]subscriptionResponse, 0, len(authorIDs))
	for _, authorID := range authorIDs {
		response, err := subscriptionEntry(r, authorID)
		if err != nil {
			applog.Error(r.Context(), "failed to build subscription entry", "error", err, "authorID", authorID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load subscriptions")
			return
		}
		responses = append(responses, response)
	}

	writeJSON(w, http.StatusOK, paginate(r, responses, parsePageParams(r)))
}

func subscriptionEntry(r *http.Request, authorID uint) (subscriptionResponse, error) {
	var author models.User
	if err := database.WithContext(r.Context()).First(&author, authorID).Error; err != nil {
		return subscriptionResponse{}, err
	}

	base, err := projectUser(r, &author)
	if err != nil {
		return subscriptionResponse{}, err
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("recipes_limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	shorts, count, err := recipeService.ShortListByAuthor(r.Context(), authorID, limit)
	if err != nil {
		return subscriptionResponse{}, err
	}

	return subscriptionResponse{
		userResponse: base,
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}
