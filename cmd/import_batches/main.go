// import_batches carga lotes desde un CSV exportado por el sistema de compras.
// Cada fila crea el lote con su movimiento INBOUND a través del motor, así que
// el libro de movimientos queda completo. Si el stock (producto, ubicación) no
// existe se registra.
//
// Uso: go run ./cmd/import_batches [-latin1] [-sep ';'] lotes.csv
//
// Columnas: product_id, location_id, batch_number, quantity, production_date,
// expiration_date, supplier, cost. Fechas en formato AAAA-MM-DD; vacías se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/lock"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

const importUser = "import_batches"

var columns = []string{"product_id", "location_id", "batch_number", "quantity", "production_date", "expiration_date", "supplier", "cost"}

type row struct {
	line       int
	productID  string
	locationID string
	input      inventory.CreateBatchInput
}

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	sep := flag.String("sep", ",", "separador de columnas")
	flag.Parse()
	if flag.NArg() != 1 || len(*sep) != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_batches [-latin1] [-sep ';'] lotes.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var input io.Reader = f
	if *latin1 {
		input = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	rows, err := readRows(input, rune((*sep)[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("crear esquema")
	}

	// El lock de fila de PostgreSQL serializa contra la API en ejecución.
	engine := inventory.NewAllocationEngine(
		postgres.NewTxRunner(pool, cfg.Engine.LockTimeout),
		lock.NewMemoryLocker(),
		inventory.WithLogger(log),
		inventory.WithLockTimeout(cfg.Engine.LockTimeout),
	)

	created, failed := 0, 0
	stocks := make(map[string]string)
	for _, r := range rows {
		stockID, err := resolveStock(ctx, engine, stocks, r)
		if err == nil {
			r.input.StockID = stockID
			_, err = engine.CreateBatch(ctx, r.input)
		}
		if err != nil {
			failed++
			log.Error().Err(err).Int("line", r.line).Str("batch_number", r.input.BatchNumber).Msg("fila rechazada")
			continue
		}
		created++
	}
	log.Info().Int("created", created).Int("failed", failed).Msg("importación terminada")
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveStock busca el stock (producto, ubicación) y lo registra si no existe.
func resolveStock(ctx context.Context, engine *inventory.AllocationEngine, cache map[string]string, r row) (string, error) {
	key := r.productID + "|" + r.locationID
	if id, ok := cache[key]; ok {
		return id, nil
	}
	list, err := engine.ListStocks(ctx, repository.StockFilter{ProductID: r.productID, LocationID: r.locationID})
	if err != nil {
		return "", err
	}
	if len(list) > 0 {
		cache[key] = list[0].ID
		return list[0].ID, nil
	}
	stock, err := engine.RegisterStock(ctx, inventory.RegisterStockInput{
		ProductID:  r.productID,
		LocationID: r.locationID,
		CreatedBy:  importUser,
	})
	if err != nil {
		// Otro proceso lo registró entre la consulta y el alta.
		if errors.Is(err, domain.ErrConflict) && domain.RefOf(err).StockID != "" {
			cache[key] = domain.RefOf(err).StockID
			return cache[key], nil
		}
		return "", err
	}
	cache[key] = stock.ID
	return stock.ID, nil
}

func readRows(in io.Reader, sep rune) ([]row, error) {
	r := csv.NewReader(in)
	r.Comma = sep
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range []string{"product_id", "location_id", "quantity"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q (esperadas: %s)", c, strings.Join(columns, ", "))
		}
	}
	get := func(rec []string, col string) string {
		if i, ok := idx[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var rows []row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		out := row{line: line, productID: get(rec, "product_id"), locationID: get(rec, "location_id")}
		out.input = inventory.CreateBatchInput{
			BatchNumber: get(rec, "batch_number"),
			Supplier:    get(rec, "supplier"),
			CreatedBy:   importUser,
		}
		if out.input.Quantity, err = decimal.NewFromString(get(rec, "quantity")); err != nil {
			return nil, fmt.Errorf("línea %d: quantity: %w", line, err)
		}
		if c := get(rec, "cost"); c != "" {
			if out.input.Cost, err = decimal.NewFromString(c); err != nil {
				return nil, fmt.Errorf("línea %d: cost: %w", line, err)
			}
		}
		if out.input.ProductionDate, err = parseDate(get(rec, "production_date")); err != nil {
			return nil, fmt.Errorf("línea %d: production_date: %w", line, err)
		}
		if out.input.ExpirationDate, err = parseDate(get(rec, "expiration_date")); err != nil {
			return nil, fmt.Errorf("línea %d: expiration_date: %w", line, err)
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
