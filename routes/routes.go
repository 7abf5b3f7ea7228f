package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/playverse/playverse-backend/handlers"
	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/models"
)

// SetupRoutes собирает все маршруты приложения.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	profileHandler *handlers.ProfileHandler,
	engagementHandler *handlers.EngagementHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	gameHandler *handlers.GameHandler,
	videoHandler *handlers.VideoHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(jwtSecret)
	maybeAuthenticate := middleware.OptionalAuthenticator(jwtSecret)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.RegisterHandler)
		r.Post("/login", authHandler.LoginHandler)
		r.Get("/confirm", authHandler.ConfirmEmailHandler)
		r.Post("/forgot-password", authHandler.ForgotPasswordHandler)
		r.Post("/reset-password", authHandler.ResetPasswordHandler)
	})

	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", userHandler.GetByIDHandler)
		r.Get("/{userID}/videos", videoHandler.ListByOwnerHandler)
		r.With(maybeAuthenticate).Get("/{userID}/posts", postHandler.ListByOwnerHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.GetMeHandler)
			r.Patch("/me", userHandler.UpdateHandler)
			r.Put("/me/avatar", userHandler.UploadAvatarHandler)
			r.Put("/me/cover", userHandler.UploadCoverHandler)
			r.Delete("/{userID}", userHandler.DeleteHandler)
		})
	})

	router.Route("/profiles", func(r chi.Router) {
		r.With(maybeAuthenticate).Get("/{userID}", profileHandler.GetProfileHandler)
		r.Get("/{userID}/stats", profileHandler.GetStatsHandler)
		r.Get("/{userID}/followers", profileHandler.ListFollowersHandler)
		r.Get("/{userID}/following", profileHandler.ListFollowingHandler)
	})

	router.With(authenticate).Post("/channels/{userID}/follow", engagementHandler.ToggleFollowHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Put("/{tournamentID}/result", tournamentHandler.RecordResultHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.CreateHandler)
			r.Post("/{teamID}/members", teamHandler.AddMemberHandler)
			r.Delete("/{teamID}", teamHandler.DeleteHandler)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.ListHandler)
		r.Get("/{gameID}", gameHandler.GetByIDHandler)

		// Каталог игр ведут только администраторы
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/", gameHandler.CreateHandler)
			r.Delete("/{gameID}", gameHandler.DeleteHandler)
		})
	})

	router.Route("/videos", func(r chi.Router) {
		r.Get("/", videoHandler.ListHandler)
		r.With(maybeAuthenticate).Get("/{videoID}", videoHandler.GetDetailsHandler)
		r.With(maybeAuthenticate).Get("/{videoID}/comments", commentHandler.ListByVideoHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/liked", engagementHandler.ListLikedVideosHandler)
			r.Post("/", videoHandler.PublishHandler)
			r.Put("/{videoID}", videoHandler.UpdateHandler)
			r.Post("/{videoID}/publish", videoHandler.TogglePublishedHandler)
			r.Post("/{videoID}/like", engagementHandler.ToggleVideoLikeHandler)
			r.Post("/{videoID}/comments", commentHandler.CreateHandler)
			r.Delete("/{videoID}", videoHandler.DeleteHandler)
		})
	})

	router.Route("/posts", func(r chi.Router) {
		r.With(maybeAuthenticate).Get("/", postHandler.ListAllHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", postHandler.CreateHandler)
			r.Put("/{postID}", postHandler.UpdateHandler)
			r.Post("/{postID}/like", engagementHandler.TogglePostLikeHandler)
			r.Delete("/{postID}", postHandler.DeleteHandler)
		})
	})

	router.Route("/comments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{commentID}/like", engagementHandler.ToggleCommentLikeHandler)
			r.Delete("/{commentID}", commentHandler.DeleteHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
}
