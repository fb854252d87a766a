package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/templui/lanchat/internal/accountstore"
	"github.com/templui/lanchat/internal/config"
	"github.com/templui/lanchat/internal/db"
	"github.com/templui/lanchat/internal/ratelimit"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/service"
	"github.com/templui/lanchat/internal/storage"
)

// App holds the server-side components built from config.
type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Store            *accountstore.Store
	EmailService     *service.EmailService
	TranslateService *service.TranslateService
	DirectoryService *service.DirectoryService
	FileService      *service.FileService // nil when no bucket is configured
	APILimiter       *ratelimit.Limiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Open(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.Migrate(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	accountRepository := repository.NewAccountRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	fileRepository := repository.NewFileRepository(database)

	store := accountstore.NewWithRepositories(accountRepository, profileRepository, accountstore.Config{
		JWTSecret:       cfg.JWTSecret,
		JWTExpiry:       cfg.JWTExpiry,
		SignInRateLimit: cfg.SignInRateLimit,
		SignInWindow:    cfg.SignInRateWindow,
	})

	// Storage
	var fileService *service.FileService
	if cfg.StorageEnabled() {
		fileStorage, err := storage.New(ctx, cfg)
		if err != nil {
			store.Close()
			database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		fileService = service.NewFileService(fileRepository, fileStorage)
	}

	return &App{
		Cfg:              cfg,
		DB:               database,
		Store:            store,
		EmailService:     service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppName, cfg.IsDevelopment()),
		TranslateService: service.NewTranslateService(cfg.TranslateURL, cfg.TranslateTimeout),
		DirectoryService: service.NewDirectoryService(store),
		FileService:      fileService,
		APILimiter:       ratelimit.New(cfg.APIRateLimit, cfg.APIRateWindow),
	}, nil
}

func (a *App) Close() error {
	a.APILimiter.Close()
	a.Store.Close()
	return db.Close(a.DB)
}
