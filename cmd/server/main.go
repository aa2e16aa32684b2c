package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"palabritas/internal/config"
	"palabritas/internal/handlers"
	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/security"
	"palabritas/internal/service"
	"palabritas/internal/store"
	"palabritas/internal/tutor"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize document store
	st, err := store.NewFirestore(ctx, cfg.GoogleCloudProject, cfg.FirestoreCredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer st.Close()

	// Initialize repositories
	assignmentRepo := repository.NewAssignmentRepository(st)
	studentRepo := repository.NewStudentRepository(st)
	wordRepo := repository.NewWordRepository(st)
	userRepo := repository.NewUserRepository(st)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)
	authService := service.NewAuthService(userRepo, studentRepo, tokens, cfg.SessionDuration)
	assignmentService := service.NewAssignmentService(assignmentRepo, studentRepo, wordRepo, userRepo, emailService, cfg.GuardFailOpen)
	studentService := service.NewStudentService(studentRepo, assignmentRepo, emailService)
	wordService := service.NewWordService(wordRepo)

	var tutorClient *tutor.Client
	if cfg.TutorBaseURL != "" {
		tutorClient, err = tutor.NewClient(cfg.TutorBaseURL, cfg.TutorAPIKey, cfg.TutorModel)
		if err != nil {
			log.Fatalf("Failed to initialize tutor client: %v", err)
		}
	} else {
		log.Println("TUTOR_BASE_URL not set, AI tutor disabled")
	}
	tutorService := tutor.NewService(tutorClient)

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	// Initialize handlers
	rateLimiter := security.NewRateLimiter(20, time.Minute)
	mw := handlers.NewMiddleware(authService, rateLimiter)

	authHandler := handlers.NewAuthHandler(authService, googleOAuth, googleUserInfoURL)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, assignmentRepo)
	studentHandler := handlers.NewStudentHandler(studentService)
	wordHandler := handlers.NewWordHandler(wordService)
	chatHandler := handlers.NewChatHandler(tutorService, wordService)

	requireAdult := mw.RequireRole(models.RoleTeacher, models.RoleTutor, models.RoleAdmin)

	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/student", mw.RateLimit(authHandler.StudentLogin))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/google", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/auth/google/callback", authHandler.OAuthCallback)

	// Assignment routes
	mux.HandleFunc("POST /api/assignments", requireAdult(assignmentHandler.Create))
	mux.HandleFunc("POST /api/assignments/{id}/complete", mw.RequireStudent(assignmentHandler.Complete))
	mux.HandleFunc("GET /api/assignments", mw.RequireAuth(assignmentHandler.List))
	mux.HandleFunc("GET /api/assignments/stream", mw.RequireAuth(assignmentHandler.Stream))

	// Student routes
	mux.HandleFunc("POST /api/students", requireAdult(studentHandler.Create))
	mux.HandleFunc("PUT /api/students/{id}", requireAdult(studentHandler.Update))
	mux.HandleFunc("GET /api/students", mw.RequireAuth(studentHandler.List))
	mux.HandleFunc("GET /api/students/{id}/dictionary", mw.RequireAuth(studentHandler.Dictionary))

	// Word routes
	mux.HandleFunc("POST /api/words", requireAdult(wordHandler.Create))
	mux.HandleFunc("GET /api/words", mw.RequireAuth(wordHandler.List))
	mux.HandleFunc("GET /api/words/{id}", mw.RequireAuth(wordHandler.Get))
	mux.HandleFunc("GET /api/words/{id}/students/stream", requireAdult(assignmentHandler.StudentsForWord))

	// Tutor routes
	mux.HandleFunc("POST /api/chat", mw.RequireStudent(chatHandler.Ask))
	mux.HandleFunc("POST /api/recognize/check", mw.RequireStudent(chatHandler.CheckRecognition))

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoints hold the connection open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
