package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/internal/infrastructure/cache"
	"github.com/jhoicas/stock-api/internal/infrastructure/mail"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-api/internal/interfaces/http"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
	"github.com/jhoicas/stock-api/pkg/tracing"
)

const (
	swaggerFile     = "./docs/swagger.json"
	shutdownTimeout = 10 * time.Second
)

// storage repositorios y TxRunner del driver elegido.
type storage struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	reports   repository.StockReportRepository
	users     repository.UserRepository
	txRunner  stock.TxRunner
	db        httpRouter.Pinger
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.App.Name, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar tracing")
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	// Redis opcional: revocación de tokens y caché del resumen.
	var (
		summaryCache stock.SummaryCache
		revoker      auth.TokenRevoker
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		summaryCache = cache.NewSummaryCache(rdb, cfg.Redis.SummaryCacheTTL)
		revoker = cache.NewRevokedTokenStore(rdb)
	} else {
		log.Warn().Msg("REDIS_URL vacío: logout sin revocación y resumen sin caché")
	}

	ledger := stock.NewLedgerUseCase(st.txRunner, summaryCache)
	reporting := stock.NewReportingUseCase(st.products, st.movements, st.reports, summaryCache)
	productUC := usecase.NewProductUseCase(st.products, st.txRunner, ledger, summaryCache)
	userUC := usecase.NewUserUseCase(st.users)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:          cfg.JWT.Secret,
		ExpMinutes:      cfg.JWT.Expiration,
		Issuer:          cfg.JWT.Issuer,
		ResetExpMinutes: cfg.JWT.ResetExpiration,
	}, revoker, mail.NewMailer(cfg.SMTP))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.Tracing())
	app.Use(httpRouter.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + httpRouter.HeaderIdempotencyKey,
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		UserUC:      userUC,
		ProductUC:   productUC,
		Ledger:      ledger,
		Reporting:   reporting,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
		DB:          st.db,

		LoginAttemptsPerMinute: cfg.HTTP.LoginPerMinute,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		errCh <- app.Listen(cfg.HTTP.Addr())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("señal recibida, cerrando servidor")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("servidor HTTP detenido")
		}
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("cierre del servidor HTTP")
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error().Err(err).Msg("cierre de tracing")
	}
	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.App.StorageDriver == "memory" {
		store := memory.NewStore()
		logger.Ctx(ctx).Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		return &storage{
			products:  store.Products(),
			movements: store.Movements(),
			reports:   store.Reports(),
			users:     store.Users(),
			txRunner:  store,
			db:        store,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		reports:   postgres.NewStockReportRepository(pool),
		users:     postgres.NewUserRepository(pool),
		txRunner:  postgres.NewTxRunner(pool, cfg.DB.LockTimeout, cfg.DB.StatementTimeout),
		db:        pool,
		close:     pool.Close,
	}, nil
}
