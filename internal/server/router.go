package server

import (
	"context"
	"net/http"

	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
)

func newRouter(mediaRoot string) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/auth/login", handlers.Login)
	mux.HandleFunc("/api/auth/logout", handlers.Logout)

	mux.HandleFunc("/api/users", handlers.UserResource)
	mux.HandleFunc("/api/users/", handlers.UserResource)
	mux.HandleFunc("/api/tags", handlers.TagResource)
	mux.HandleFunc("/api/tags/", handlers.TagResource)
	mux.HandleFunc("/api/ingredients", handlers.IngredientResource)
	mux.HandleFunc("/api/ingredients/", handlers.IngredientResource)
	mux.HandleFunc("/api/recipes", handlers.RecipeResource)
	mux.HandleFunc("/api/recipes/", handlers.RecipeResource)
	mux.HandleFunc("/s/", handlers.ShortLinkRedirect)

	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))

	applog.Debug(context.Background(), "routes registered",
		"api", "/api", "shortlinks", "/s/", "media", "/media/")
	return mux
}
