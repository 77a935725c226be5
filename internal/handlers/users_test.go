package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"foodgram/models"
)

func signupBody(t *testing.T, overrides map[string]string) *bytes.Buffer {
	t.Helper()
	payload := map[string]string{
		"email":      "new@example.com",
		"username":   "newcook",
		"first_name": "New",
		"last_name":  "Cook",
		"password":   "long-enough-secret",
	}
	for key, value := range overrides {
		payload[key] = value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal signup payload: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestSignupCreatesUser(t *testing.T) {
	db, _ := withTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/", signupBody(t, nil))
	w := httptest.NewRecorder()
	UserResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["email"] != "new@example.com" || response["username"] != "newcook" {
		t.Fatalf("unexpected response: %v", response)
	}
	if _, exposed := response["password"]; exposed {
		t.Fatal("password must never appear in the response")
	}

	var user models.User
	if err := db.Where("email = ?", "new@example.com").First(&user).Error; err != nil {
		t.Fatalf("failed to load created user: %v", err)
	}
	if user.PasswordHash == "long-enough-secret" || user.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
}

func TestSignupValidation(t *testing.T) {
	_, _ = withTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/", signupBody(t, map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}))
	w := httptest.NewRecorder()
	UserResource(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	var fields map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &fields); err != nil {
		t.Fatalf("failed to decode field errors: %v", err)
	}
	if len(fields["email"]) == 0 || len(fields["password"]) == 0 {
		t.Fatalf("expected email and password failures, got %v", fields)
	}
}

func TestSignupDuplicate(t *testing.T) {
	db, _ := withTestApp(t)
	createTestUser(t, db, "new@example.com", "taken", "kitchen-secret")

	req := httptest.NewRequest(http.MethodPost, "/api/users/", signupBody(t, nil))
	w := httptest.NewRecorder()
	UserResource(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email should get 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCurrentUser(t *testing.T) {
	db, sm := withTestApp(t)
	user := createTestUser(t, db, "chef@example.com", "chef", "kitchen-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/", nil)
	w := httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me should get 401, got %d", w.Code)
	}

	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/api/users/me/", nil), user.ID)
	w = httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var response userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != user.ID || response.Username != "chef" || response.IsSubscribed {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestShowUserSubscriptionFlag(t *testing.T) {
	db, sm := withTestApp(t)
	viewer := createTestUser(t, db, "viewer@example.com", "viewer", "kitchen-secret")
	author := createTestUser(t, db, "author@example.com", "author", "kitchen-secret")

	if err := tracker.Subscribe(context.Background(), viewer.ID, author.ID); err != nil {
		t.Fatalf("subscribe returned error: %v", err)
	}

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), nil), viewer.ID)
	w := httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var response userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.IsSubscribed {
		t.Fatal("viewer subscription should surface in the profile")
	}

	// anonymous read of the same profile
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), nil)
	w = httptest.NewRecorder()
	UserResource(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.IsSubscribed {
		t.Fatal("anonymous profile read must not claim a subscription")
	}
}

func TestSubscribeEndpoint(t *testing.T) {
	db, sm := withTestApp(t)
	viewer := createTestUser(t, db, "viewer@example.com", "viewer", "kitchen-secret")
	author := createTestUser(t, db, "author@example.com", "author", "kitchen-secret")
	tags, ingredients := seedCatalog(t, db)
	seedRecipe(t, author.ID, "Authored", tags, ingredients)

	subscribe := func(method string, targetID uint) *httptest.ResponseRecorder {
		req := authenticateRequest(t, sm, httptest.NewRequest(method, fmt.Sprintf("/api/users/%d/subscribe/", targetID), nil), viewer.ID)
		w := httptest.NewRecorder()
		UserResource(w, req)
		return w
	}

	w := subscribe(http.MethodPost, author.ID)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var response subscriptionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != author.ID || !response.IsSubscribed {
		t.Fatalf("unexpected subscription response: %+v", response)
	}
	if response.RecipesCount != 1 || len(response.Recipes) != 1 {
		t.Fatalf("expected the author's recipe inline, got %+v", response)
	}

	if w = subscribe(http.MethodPost, author.ID); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate subscribe should get 400, got %d", w.Code)
	}
	if w = subscribe(http.MethodPost, viewer.ID); w.Code != http.StatusBadRequest {
		t.Fatalf("self-subscribe should get 400, got %d", w.Code)
	}
	if w = subscribe(http.MethodDelete, author.ID); w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 on unsubscribe, got %d", w.Code)
	}
	if w = subscribe(http.MethodDelete, author.ID); w.Code != http.StatusNotFound {
		t.Fatalf("second unsubscribe should get 404, got %d", w.Code)
	}
}

func TestListSubscriptionsHonorsRecipesLimit(t *testing.T) {
	db, sm := withTestApp(t)
	viewer := createTestUser(t, db, "viewer@example.com", "viewer", "kitchen-secret")
	author := createTestUser(t, db, "author@example.com", "author", "kitchen-secret")
	tags, ingredients := seedCatalog(t, db)
	for i := 0; i < 3; i++ {
		seedRecipe(t, author.ID, fmt.Sprintf("Dish %d", i), tags, ingredients)
	}

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", author.ID), nil), viewer.ID)
	w := httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("subscribe failed: %d", w.Code)
	}

	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/api/users/subscriptions/?recipes_limit=2", nil), viewer.ID)
	w = httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Count   int                    `json:"count"`
		Results []subscriptionResponse `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if envelope.Count != 1 || len(envelope.Results) != 1 {
		t.Fatalf("expected one subscription, got %+v", envelope)
	}
	entry := envelope.Results[0]
	if entry.RecipesCount != 3 {
		t.Fatalf("expected total count 3, got %d", entry.RecipesCount)
	}
	if len(entry.Recipes) != 2 {
		t.Fatalf("recipes_limit should cap the inline list, got %d", len(entry.Recipes))
	}
}

func TestUserAvatarLifecycle(t *testing.T) {
	db, sm := withTestApp(t)
	user := createTestUser(t, db, "chef@example.com", "chef", "kitchen-secret")

	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("avatar-bytes"))
	body, err := json.Marshal(map[string]string{"avatar": avatar})
	if err != nil {
		t.Fatalf("failed to marshal avatar payload: %v", err)
	}

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPut, "/api/users/me/avatar/", bytes.NewReader(body)), user.ID)
	w := httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.HasPrefix(response["avatar"], "/media/users/") {
		t.Fatalf("unexpected avatar reference %q", response["avatar"])
	}

	var stored models.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Avatar != response["avatar"] {
		t.Fatalf("avatar not persisted: %q vs %q", stored.Avatar, response["avatar"])
	}

	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodDelete, "/api/users/me/avatar/", nil), user.ID)
	w = httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Avatar != "" {
		t.Fatalf("avatar should be cleared, got %q", stored.Avatar)
	}
}

func TestListUsersPaginated(t *testing.T) {
	db, _ := withTestApp(t)
	for i := 0; i < 3; i++ {
		createTestUser(t, db, fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("user%d", i), "kitchen-secret")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/?limit=2", nil)
	w := httptest.NewRecorder()
	UserResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Count   int            `json:"count"`
		Next    *string        `json:"next"`
		Results []userResponse `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if envelope.Count != 3 || len(envelope.Results) != 2 || envelope.Next == nil {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}
