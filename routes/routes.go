package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/riftarena/arena-system/handlers"
	"github.com/riftarena/arena-system/middleware"
	"github.com/riftarena/arena-system/models"
)

// SetupRoutes mounts every handler on the router. Read endpoints are
// public; mutations require a bearer token, and moderator/admin surfaces
// are additionally role-gated.
func SetupRoutes(
	router *chi.Mux,
	parser middleware.TokenParser,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	gameHandler *handlers.GameHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	storeHandler *handlers.StoreHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(parser)
	moderatorOnly := middleware.Authorize(models.RoleModerator, models.RoleAdmin)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Post("/auth/register", authHandler.RegisterHandler)
	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", userHandler.MeHandler)
		r.Get("/me/transactions", userHandler.TransactionsHandler)
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.ListHandler)
		r.Get("/{gameID}", gameHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{gameID}/join", gameHandler.JoinHandler)
			r.Post("/{gameID}/cancel", gameHandler.CancelHandler)

			r.Group(func(r chi.Router) {
				r.Use(moderatorOnly)
				r.Post("/", gameHandler.CreateHandler)
				r.Post("/{gameID}/verify", gameHandler.VerifyHandler)
			})
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/registrations", tournamentHandler.ListRegistrationsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/register", tournamentHandler.RegisterHandler)

			r.Group(func(r chi.Router) {
				r.Use(moderatorOnly)
				r.Post("/", tournamentHandler.CreateHandler)
				r.Post("/{tournamentID}/close", tournamentHandler.CloseRegistrationHandler)
				r.Post("/{tournamentID}/bracket", tournamentHandler.GenerateBracketHandler)
				r.Post("/{tournamentID}/rounds/{round}/advance", tournamentHandler.AdvanceRoundHandler)
			})
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/evidence", matchHandler.SubmitEvidenceHandler)

			r.With(moderatorOnly).Post("/{matchID}/verify", matchHandler.VerifyHandler)
		})
	})

	router.Route("/store", func(r chi.Router) {
		r.Get("/items", storeHandler.ListItemsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/items/{itemID}/redeem", storeHandler.RedeemHandler)

			r.With(adminOnly).Post("/items", storeHandler.CreateItemHandler)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)

		r.Group(func(r chi.Router) {
			r.Use(moderatorOnly)
			r.Get("/games", adminHandler.ListGamesHandler)
			r.Post("/games/{gameID}/settle", adminHandler.ForceSettleHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/users", adminHandler.ListUsersHandler)
			r.Patch("/users/{userID}/role", adminHandler.PromoteUserHandler)
			r.Post("/users/{userID}/balance", adminHandler.AdjustBalanceHandler)
			r.Delete("/users/{userID}", adminHandler.DeleteUserHandler)
			r.Delete("/games/{gameID}", adminHandler.DeleteGameHandler)
			r.Get("/redemptions", adminHandler.ListRedemptionsHandler)
		})
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/lobby", webSocketHandler.ServeLobby)
		r.Get("/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
		r.With(authenticate).Get("/users/me", webSocketHandler.ServeWallet)
	})
}
