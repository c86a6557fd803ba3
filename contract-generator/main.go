package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Admin-EWorld/contracts/internal/assembler"
	"github.com/Admin-EWorld/contracts/internal/clauses"
	"github.com/Admin-EWorld/contracts/internal/currency"
	"github.com/Admin-EWorld/contracts/internal/intake"
	"github.com/Admin-EWorld/contracts/internal/jobs"
	"github.com/Admin-EWorld/contracts/internal/platform/database"
	"github.com/Admin-EWorld/contracts/internal/platform/env"
	"github.com/Admin-EWorld/contracts/internal/platform/httpserver"
	"github.com/Admin-EWorld/contracts/internal/platform/logging"
	platformstore "github.com/Admin-EWorld/contracts/internal/platform/objectstore"
	"github.com/Admin-EWorld/contracts/internal/render"
	"github.com/Admin-EWorld/contracts/internal/render/docx"
	"github.com/Admin-EWorld/contracts/internal/render/pdf"
	"github.com/Admin-EWorld/contracts/internal/repo/sqlstore"
	"github.com/Admin-EWorld/contracts/internal/service/contracts"
	store "github.com/Admin-EWorld/contracts/internal/storage/objectstore"
	"github.com/joho/godotenv"
)

const serviceName = "contract-generator"

type appConfig struct {
	ClauseDir    string
	CatalogPath  string
	CurrencyFile string
	TemplatePath string
	PresignTTL   time.Duration
}

func appConfigFromEnv() (appConfig, error) {
	presignTTL, err := env.Duration("CONTRACTS_PRESIGN_TTL", 10*time.Minute)
	if err != nil {
		return appConfig{}, err
	}
	cfg := appConfig{
		ClauseDir:    strings.TrimSpace(env.String("CONTRACTS_CLAUSE_DIR", "clauses")),
		CatalogPath:  strings.TrimSpace(env.String("CONTRACTS_SERVICE_CATALOG", "")),
		CurrencyFile: strings.TrimSpace(env.String("CONTRACTS_CURRENCY_FILE", "")),
		TemplatePath: strings.TrimSpace(env.String("CONTRACTS_TEMPLATE_PATH", "templates/master_contract.docx")),
		PresignTTL:   presignTTL,
	}
	if cfg.ClauseDir == "" {
		return appConfig{}, errors.New("CONTRACTS_CLAUSE_DIR is required")
	}
	if cfg.TemplatePath == "" {
		return appConfig{}, errors.New("CONTRACTS_TEMPLATE_PATH is required")
	}
	return cfg, nil
}

func main() {
	dotenvErr := godotenv.Load()

	level, levelOK := logging.ParseLevel(env.String("CONTRACTS_LOG_LEVEL", "info"))
	logger := logging.New(os.Stdout, serviceName, level)
	if !levelOK {
		logger.Warn("unknown log level, using info", "value", env.String("CONTRACTS_LOG_LEVEL", ""))
	}
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		logger.Warn("could not load .env", "error", dotenvErr)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpCfg, err := httpserver.ConfigFromEnv(serviceName)
	if err != nil {
		logger.Error("invalid http config", "error", err)
		os.Exit(2)
	}
	appCfg, err := appConfigFromEnv()
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	svcCfg, err := contracts.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid contract service config", "error", err)
		os.Exit(2)
	}
	location, err := intake.LocationFromEnv()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(2)
	}

	catalog := clauses.DefaultCatalog()
	if appCfg.CatalogPath != "" {
		catalog, err = clauses.LoadCatalog(appCfg.CatalogPath)
		if err != nil {
			logger.Error("service catalog unavailable", "path", appCfg.CatalogPath, "error", err)
			os.Exit(2)
		}
	}
	library, err := clauses.LoadAll(appCfg.ClauseDir, catalog.Keys())
	if err != nil {
		logger.Error("clause library unavailable", "dir", appCfg.ClauseDir, "error", err)
		os.Exit(2)
	}

	currencies := currency.DefaultTable()
	if appCfg.CurrencyFile != "" {
		currencies, err = currency.LoadFile(appCfg.CurrencyFile)
		if err != nil {
			logger.Error("currency table unavailable", "path", appCfg.CurrencyFile, "error", err)
			os.Exit(2)
		}
	}

	asm, err := assembler.New(currencies, library)
	if err != nil {
		logger.Error("assembler init failed", "error", err)
		os.Exit(2)
	}
	docxRenderer, err := docx.New(appCfg.TemplatePath)
	if err != nil {
		logger.Error("docx renderer init failed", "error", err)
		os.Exit(2)
	}
	if _, err := os.Stat(appCfg.TemplatePath); err != nil {
		// Not fatal: PDF generation keeps working and DOCX failures are reported per request.
		logger.Warn("docx template unavailable", "path", appCfg.TemplatePath, "error", err)
	}
	engine, err := render.NewEngine(docxRenderer, pdf.New())
	if err != nil {
		logger.Error("render engine init failed", "error", err)
		os.Exit(2)
	}

	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "driver", dbCfg.Driver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	applied, err := database.Migrate(db, dbCfg.Driver)
	if err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	if applied {
		logger.Info("database migrated", "driver", dbCfg.Driver)
	}

	blobCfg, err := platformstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid blob store config", "error", err)
		os.Exit(2)
	}
	var (
		blobs     store.Store
		presigner documentPresigner
	)
	switch blobCfg.Backend {
	case platformstore.BackendMinIO:
		minioStore, err := store.NewMinioStore(blobCfg)
		if err != nil {
			logger.Error("minio init failed", "error", err)
			os.Exit(2)
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = minioStore.EnsureBucket(bucketCtx)
		cancel()
		if err != nil {
			logger.Error("minio bucket unavailable", "bucket", blobCfg.Bucket, "error", err)
			os.Exit(1)
		}
		blobs, presigner = minioStore, minioStore
	default:
		fsStore, err := store.NewFSStore(blobCfg.Dir)
		if err != nil {
			logger.Error("blob directory unavailable", "dir", blobCfg.Dir, "error", err)
			os.Exit(1)
		}
		blobs = fsStore
	}

	svc, err := contracts.NewService(
		asm,
		engine,
		sqlstore.NewContractStore(db),
		sqlstore.NewDocumentStore(db),
		blobs,
		sqlstore.NewAuditStore(db),
		svcCfg,
	)
	if err != nil {
		logger.Error("contract service init failed", "error", err)
		os.Exit(2)
	}

	if svcCfg.Retention > 0 {
		retentionCfg, err := jobs.RetentionConfigFromEnv()
		if err != nil {
			logger.Error("invalid retention config", "error", err)
			os.Exit(2)
		}
		retention, err := jobs.NewRetention(svc, logger, retentionCfg)
		if err != nil {
			logger.Error("retention job init failed", "error", err)
			os.Exit(2)
		}
		go retention.Run(ctx)
	} else {
		logger.Info("document retention disabled")
	}

	api := &contractsAPI{
		logger:     logger,
		service:    svc,
		intake:     intake.NewParser(location),
		currencies: currencies,
		catalog:    catalog,
		presigner:  presigner,
		presignTTL: appCfg.PresignTTL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			serviceName,
			httpserver.ReadinessCheck{
				Name: "database",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "blob_store",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
					defer cancel()
					return blobs.Check(checkCtx)
				},
			},
		),
	)
	api.register(mux)

	handler := httpserver.Wrap(logger, serviceName, httpCfg.Limiter(), mux)
	if err := httpserver.Run(ctx, logger, httpCfg, handler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
