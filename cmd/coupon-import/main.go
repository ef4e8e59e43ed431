// Command coupon-import bulk-loads single-use campaign codes from gzipped
// code lists (one code per line) into the coupons table. Marketing drops can
// run to millions of codes, so files are read concurrently, duplicates are
// filtered with a bloom filter, and rows are inserted in batches.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
	"github.com/learnspace/checkout-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 1_000
	progressEvery = 100_000
	minCodeLen    = 6
	maxCodeLen    = 24
)

func main() {
	var (
		dataDir       string
		databaseURL   string
		description   string
		discountType  string
		discountValue string
		usageLimit    int
		validDays     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&description, "description", "Campaign promo code", "description applied to imported coupons")
	flag.StringVar(&discountType, "discount-type", "percentage", "discount type: percentage or fixed")
	flag.StringVar(&discountValue, "discount-value", "10", "discount value for imported coupons")
	flag.IntVar(&usageLimit, "usage-limit", 1, "usage limit per code (campaign codes are single-use)")
	flag.IntVar(&validDays, "valid-days", 90, "days until imported codes expire")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	dt := coupon.DiscountType(discountType)
	if dt != coupon.DiscountPercentage && dt != coupon.DiscountFixed {
		slog.Error("discount type must be percentage or fixed", "got", discountType)
		os.Exit(1)
	}
	value, err := decimal.NewFromString(discountValue)
	if err != nil || !value.IsPositive() {
		slog.Error("discount value must be a positive decimal", "got", discountValue)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tpl := template{
		description: description,
		dtype:       dt,
		value:       value,
		usageLimit:  usageLimit,
		validUntil:  time.Now().AddDate(0, 0, validDays),
	}

	if err := run(ctx, dataDir, databaseURL, tpl); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

// template carries the discount rule stamped onto every imported code.
type template struct {
	description string
	dtype       coupon.DiscountType
	value       decimal.Decimal
	usageLimit  int
	validUntil  time.Time
}

func run(ctx context.Context, dataDir, databaseURL string, tpl template) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	codes := make(chan string, batchSize)

	g, ctx := errgroup.WithContext(ctx)

	// Readers: one goroutine per file, channel closed when all finish.
	readers, readerCtx := errgroup.WithContext(ctx)
	for _, file := range files {
		readers.Go(func() error {
			return readCodes(readerCtx, file, codes)
		})
	}
	g.Go(func() error {
		defer close(codes)
		return readers.Wait()
	})

	g.Go(func() error {
		return insertCodes(ctx, pool, codes, tpl)
	})

	return g.Wait()
}

// readCodes streams normalized codes from one gzipped file into the channel.
// Lines outside the expected length bounds are dropped.
func readCodes(ctx context.Context, file string, out chan<- string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrapf(err, "open %s", file)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip %s", file)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		code := coupon.NormalizeCode(scanner.Text())
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		select {
		case out <- code:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Wrapf(scanner.Err(), "scan %s", file)
}

// insertCodes dedupes incoming codes with a bloom filter and writes them in
// batches. The filter is approximate; the ON CONFLICT clause is the exact
// backstop for both filter false negatives and re-runs.
func insertCodes(ctx context.Context, pool *pgxpool.Pool, codes <-chan string, tpl template) error {
	const insertSQL = `INSERT INTO coupons (id, code, description, discount_type, discount_value,
		usage_limit, used_count, valid_until, applies_to_all_courses, allowed_course_ids, can_stack, active)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, 0, $6, TRUE, '{}', FALSE, TRUE)
		ON CONFLICT (code) DO NOTHING`

	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	batch := &pgx.Batch{}
	var total, dupes int

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		br := pool.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		batch = &pgx.Batch{}
		return nil
	}

	for code := range codes {
		if seen.TestOrAddString(code) {
			dupes++
			continue
		}

		batch.Queue(insertSQL,
			code, tpl.description, string(tpl.dtype), tpl.value,
			tpl.usageLimit, tpl.validUntil,
		)
		total++

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if total%progressEvery == 0 {
			slog.Info("importing", "inserted", total, "duplicates", dupes)
		}
	}

	if err := flush(); err != nil {
		return err
	}
	slog.Info("import complete", "inserted", total, "duplicates", dupes)
	return nil
}
