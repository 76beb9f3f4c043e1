package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrportal/auth"
	"hrportal/blob"
	"hrportal/config"
	"hrportal/database"
	"hrportal/directory"
	"hrportal/handlers"
	"hrportal/leave"
	"hrportal/middleware"
	"hrportal/realtime"
	"hrportal/session"
	"hrportal/store"

	supa "github.com/supabase-community/supabase-go"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	defer hub.Close()

	// Mutations echo into the hub only when no database feed does it
	var publisher realtime.Publisher
	if cfg.RealtimeSource == config.RealtimeLocal {
		publisher = hub
	}

	var db *gorm.DB
	if cfg.NeedsDatabase() {
		var err error
		db, err = database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, !cfg.IsProduction())
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
	}

	var supabase *supa.Client
	if cfg.UsesSupabase() {
		var err error
		supabase, err = config.NewSupabaseClient(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize supabase: %v", err)
		}
	}

	var backend store.Store
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		backend = store.NewSupabaseStore(supabase, publisher)
	default:
		backend = store.NewGormStore(db, publisher)
	}
	client := store.NewClient(backend)

	var authenticator auth.Authenticator
	var registrar directory.Registrar
	switch cfg.AuthBackend {
	case config.BackendSupabase:
		gotrue := auth.NewSupabaseAuthenticator(supabase)
		authenticator = gotrue
		registrar = gotrue
	default:
		accounts := auth.NewAccounts(db, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration))
		authenticator = accounts
		registrar = accounts
		// the admin employee row has to live where the store reads it
		if cfg.StoreBackend == config.BackendGorm {
			if err := database.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				log.Fatalf("Failed to seed admin: %v", err)
			}
		}
	}

	var blobs blob.Store
	switch cfg.BlobBackend {
	case config.BackendSupabase:
		blobs = blob.NewSupabase(supabase, cfg.DocumentsBucket)
	default:
		disk, err := blob.NewDisk(cfg.BlobDir)
		if err != nil {
			log.Fatalf("Failed to initialize blob storage: %v", err)
		}
		blobs = disk
	}

	if cfg.RealtimeSource == config.RealtimeListen {
		listener, err := realtime.NewPGListener(cfg.DatabaseURL, hub)
		if err != nil {
			log.Fatalf("Failed to listen for changes: %v", err)
		}
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Change listener stopped: %v", err)
			}
		}()
	}

	// Initialize handlers
	linker := session.NewLinker(client)
	handler := handlers.New(cfg, authenticator, linker,
		directory.NewService(client, blobs, registrar),
		leave.NewService(client),
		hub,
	)
	router := handler.Routes(middleware.Authenticate(authenticator, linker))

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// ends open event streams
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s (store=%s auth=%s blobs=%s realtime=%s)",
		cfg.ServerPort, cfg.StoreBackend, cfg.AuthBackend, cfg.BlobBackend, cfg.RealtimeSource)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
