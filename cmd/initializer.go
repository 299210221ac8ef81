package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"soukBack/internal/cache"
	"soukBack/internal/catalog"
	"soukBack/internal/config"
	"soukBack/internal/handlers"
	"soukBack/internal/notify"
	"soukBack/internal/repositories"
	"soukBack/internal/services"
	"soukBack/internal/storage"
	"soukBack/utils"
)

type application struct {
	log      services.Logger
	db       *sql.DB
	notifier *services.Notifier

	authService   *services.AuthService
	sellerService *services.SellerService

	authHandler     *handlers.AuthHandler
	listingHandler  *handlers.ListingHandler
	sellerHandler   *handlers.SellerHandler
	categoryHandler *handlers.CategoryHandler

	// uploadsDir is set when images are stored on the local disk.
	uploadsDir string
}

// newApplication opens every backing service named in cfg and wires the
// handlers. The returned cleanup closes them.
func newApplication(ctx context.Context, cfg config.Config, log services.Logger) (*application, func(), error) {
	db, dialect, err := repositories.OpenDB(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, func() {}, err
	}
	closers := []func(){func() { db.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if err := repositories.Migrate(ctx, db, dialect); err != nil {
		cleanup()
		return nil, func() {}, err
	}

	store, uploadsDir, err := openStorage(cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var snapshots services.SnapshotCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		closers = append(closers, func() { rdb.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Errorf("redis %s unreachable, snapshot fallback degraded: %v", cfg.Redis.Addr, err)
		}
		cancel()
		snapshots = cache.NewListingSnapshot(rdb, cfg.Redis.SnapshotTTL)
	}

	var pusher notify.Pusher = notify.Noop{}
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := notify.NewFCM(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		pusher = fcm
	}

	tokens, err := utils.NewManager(cfg.Auth.SigningKey, cfg.Auth.AccessTTL)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	tree := catalog.Default()
	listingRepo := &repositories.ListingRepository{DB: db, Dialect: dialect, Tree: tree}
	sellerRepo := &repositories.SellerRepository{DB: db, Dialect: dialect}
	userRepo := &repositories.UserRepository{DB: db, Dialect: dialect}
	notifier := services.NewNotifier()

	authService := &services.AuthService{
		Users:      userRepo,
		Sellers:    sellerRepo,
		Tokens:     tokens,
		Notifier:   notifier,
		Pusher:     pusher,
		Log:        log,
		RefreshTTL: cfg.Auth.RefreshTTL,
	}
	sellerService := &services.SellerService{Sellers: sellerRepo, Storage: store, Notifier: notifier, Log: log}
	listingService := &services.ListingService{
		Listings:      listingRepo,
		Sellers:       sellerRepo,
		Storage:       store,
		Cache:         snapshots,
		Pusher:        pusher,
		Tree:          tree,
		Log:           log,
		UploadWorkers: cfg.Storage.UploadWorkers,
	}

	return &application{
		log:             log,
		db:              db,
		notifier:        notifier,
		authService:     authService,
		sellerService:   sellerService,
		authHandler:     &handlers.AuthHandler{Service: authService, Sellers: sellerService, Log: log},
		listingHandler:  &handlers.ListingHandler{Service: listingService, Log: log},
		sellerHandler:   &handlers.SellerHandler{Service: sellerService, Listings: listingService, Log: log},
		categoryHandler: &handlers.CategoryHandler{Tree: tree},
		uploadsDir:      uploadsDir,
	}, cleanup, nil
}

func openStorage(cfg config.Config) (storage.Storage, string, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:   cfg.Storage.Endpoint,
			Region:     cfg.Storage.Region,
			AccessKey:  cfg.Storage.AccessKey,
			SecretKey:  cfg.Storage.SecretKey,
			PublicBase: cfg.Storage.PublicBaseURL,
		})
		return s, "", err
	case "local":
		return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL), cfg.Storage.LocalDir, nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
