// seed prepara una base PostgreSQL: crea (o promueve) el usuario ADMIN y opcionalmente
// carga un catálogo inicial desde CSV. Cada producto importado registra su movimiento INITIAL.
//
// Uso:
//
//	go run ./cmd/seed admin <email> <password> [nombre]
//	go run ./cmd/seed catalog <archivo.csv> [latin1]
//
// El CSV lleva encabezado: name,price,stock,min_stock,category. Con "latin1" el archivo
// se lee como ISO-8859-1 (exportaciones de hojas de cálculo antiguas).
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: seed admin <email> <password> [nombre] | seed catalog <archivo.csv> [latin1]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	switch os.Args[1] {
	case "admin":
		if len(os.Args) < 4 {
			log.Fatal().Msg("faltan email y password")
		}
		name := "Administrador"
		if len(os.Args) > 4 {
			name = os.Args[4]
		}
		id, err := seedAdmin(ctx, postgres.NewUserRepository(pool), os.Args[2], os.Args[3], name)
		if err != nil {
			log.Fatal().Err(err).Msg("crear admin")
		}
		log.Info().Int64("user_id", id).Msg("usuario ADMIN listo")
	case "catalog":
		f, err := os.Open(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("abrir CSV")
		}
		defer f.Close()
		var r io.Reader = f
		if len(os.Args) > 3 && strings.EqualFold(os.Args[3], "latin1") {
			r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
		}
		products := postgres.NewProductRepository(pool)
		txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeout, cfg.DB.StatementTimeout)
		uc := usecase.NewProductUseCase(products, txRunner, stock.NewLedgerUseCase(txRunner, nil), nil)
		created, skipped, err := importCatalog(ctx, uc, r)
		if err != nil {
			log.Fatal().Err(err).Msg("importar catálogo")
		}
		log.Info().Int("creados", created).Int("omitidos", skipped).Msg("catálogo importado")
	default:
		log.Fatal().Str("comando", os.Args[1]).Msg("comando desconocido")
	}
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// seedAdmin crea el usuario ADMIN; si el email ya existe lo promueve y le asigna la contraseña.
func seedAdmin(ctx context.Context, users userStore, email, password, name string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return 0, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if err := users.UpdateRole(ctx, existing.ID, entity.RoleAdmin); err != nil {
			return 0, err
		}
		return existing.ID, users.UpdatePassword(ctx, existing.ID, string(hash))
	}
	u := &entity.User{Name: name, Email: email, PasswordHash: string(hash), Role: entity.RoleAdmin}
	if err := users.Create(ctx, u); err != nil {
		return 0, err
	}
	return u.ID, nil
}

type productCreator interface {
	Create(ctx context.Context, actor usecase.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error)
}

// importCatalog crea un producto por fila. Los nombres ya existentes se omiten.
func importCatalog(ctx context.Context, uc productCreator, r io.Reader) (created, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("leer encabezado: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := col[required]; !ok {
			return 0, 0, fmt.Errorf("falta la columna %q", required)
		}
	}
	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return created, skipped, nil
		}
		line++
		if err != nil {
			return created, skipped, fmt.Errorf("línea %d: %w", line, err)
		}
		in, err := parseRow(field, rec)
		if err != nil {
			return created, skipped, fmt.Errorf("línea %d: %w", line, err)
		}
		if _, err := uc.Create(ctx, usecase.Actor{Role: entity.RoleAdmin}, in); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("línea %d: %w", line, err)
		}
		created++
	}
}

func parseRow(field func([]string, string) string, rec []string) (dto.CreateProductRequest, error) {
	price, err := decimal.NewFromString(field(rec, "price"))
	if err != nil {
		return dto.CreateProductRequest{}, fmt.Errorf("precio inválido: %w", err)
	}
	in := dto.CreateProductRequest{
		Name:     field(rec, "name"),
		Price:    price,
		Category: field(rec, "category"),
	}
	if s := field(rec, "stock"); s != "" {
		if in.Stock, err = strconv.ParseInt(s, 10, 64); err != nil {
			return in, fmt.Errorf("stock inválido: %w", err)
		}
	}
	if s := field(rec, "min_stock"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return in, fmt.Errorf("min_stock inválido: %w", err)
		}
		in.MinStock = &n
	}
	return in, nil
}
