package routes

import (
	"fmt"
	"net/http"

	"blabber/app/controllers"
	"blabber/app/gateway"
	"blabber/app/metrics"
	"blabber/app/middleware"
	"blabber/app/services"
	"blabber/app/views"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Limits bounds the pages rendered by the application.
type Limits struct {
	MaxPosts    int
	MaxComments int
}

// SetupRoutes defines the application's routes on top of the storage
// gateway and returns a router.
func SetupRoutes(gw *gateway.Gateway, limits Limits, logger zerolog.Logger) (*mux.Router, error) {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Instrument)
	router.Use(middleware.Recoverer(logger))

	renderer, err := views.New(router)
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	postService := services.NewPostService(gw, limits.MaxPosts, limits.MaxComments, logger)
	commentService := services.NewCommentService(gw, postService, logger)

	postController := controllers.NewPostController(postService, renderer, logger)
	commentController := controllers.NewCommentController(commentService, renderer, logger)

	router.HandleFunc("/", postController.Index).Methods(http.MethodGet, http.MethodHead).Name(views.RouteIndex)
	router.HandleFunc("/post", postController.Create).Methods(http.MethodPost).Name(views.RouteSubmitPost)
	router.HandleFunc("/post/{post_id:[0-9]+}", postController.Show).Methods(http.MethodGet, http.MethodHead).Name(views.RouteShowPost)
	router.HandleFunc("/post/{post_id:[0-9]+}/comment", commentController.Create).Methods(http.MethodPost).Name(views.RouteSubmitComment)
	router.HandleFunc("/dump", postController.Dump).Methods(http.MethodGet).Name(views.RouteDump)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("metrics")

	return router, nil
}
