// Command seed-db populates a development database with courses, demo
// coupons, and API keys for the admin and checkout flows.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
	"github.com/learnspace/checkout-api/internal/repository"
)

type courseJSON struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Instructor string          `json:"instructor"`
	Thumbnail  string          `json:"thumbnail"`
}

func main() {
	var (
		databaseURL  string
		coursesFile  string
		adminKey     string
		checkoutKey  string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&coursesFile, "courses-file", "db/seed/courses.json", "path to courses JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or CHECKOUT_SEED_ADMIN_KEY env)")
	flag.StringVar(&checkoutKey, "checkout-key", "", "checkout API key to seed (or CHECKOUT_SEED_CHECKOUT_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("CHECKOUT_SEED_ADMIN_KEY")
	}
	if checkoutKey == "" {
		checkoutKey = os.Getenv("CHECKOUT_SEED_CHECKOUT_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, coursesFile, adminKey, checkoutKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed complete")
}

func run(ctx context.Context, databaseURL, coursesFile, adminKey, checkoutKey, pepper string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCourses(ctx, pool, coursesFile); err != nil {
		return errors.Wrap(err, "seed courses")
	}
	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if adminKey != "" {
		if err := seedAPIKey(ctx, pool, pepper, adminKey, "admin", []string{"admin"}); err != nil {
			return errors.Wrap(err, "seed admin key")
		}
	}
	if checkoutKey != "" {
		if err := seedAPIKey(ctx, pool, pepper, checkoutKey, "payments", []string{"checkout"}); err != nil {
			return errors.Wrap(err, "seed checkout key")
		}
	}
	return nil
}

func seedCourses(ctx context.Context, pool *pgxpool.Pool, coursesFile string) error {
	data, err := os.ReadFile(coursesFile)
	if err != nil {
		return errors.Wrap(err, "read courses file")
	}

	var courses []courseJSON
	if err := json.Unmarshal(data, &courses); err != nil {
		return errors.Wrap(err, "parse courses file")
	}

	const upsertSQL = `INSERT INTO courses (id, title, category, price, instructor, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, category = EXCLUDED.category,
			price = EXCLUDED.price, instructor = EXCLUDED.instructor,
			thumbnail = EXCLUDED.thumbnail`

	for _, c := range courses {
		if _, err := pool.Exec(ctx, upsertSQL,
			c.ID, c.Title, c.Category, c.Price, c.Instructor, c.Thumbnail,
		); err != nil {
			return errors.Wrapf(err, "upsert course %s", c.ID)
		}
	}
	slog.Info("seeded courses", "count", len(courses))
	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	d := decimal.RequireFromString
	dp := func(v string) *decimal.Decimal {
		dec := d(v)
		return &dec
	}
	limit := 500
	yearOut := time.Now().AddDate(1, 0, 0)

	demo := []coupon.Coupon{
		{
			Code:                "SAVE20",
			Description:         "20% off, up to $15",
			DiscountType:        coupon.DiscountPercentage,
			DiscountValue:       d("20"),
			MaxDiscount:         dp("15"),
			AppliesToAllCourses: true,
			CanStack:            false,
			Active:              true,
		},
		{
			Code:                "FLAT10",
			Description:         "$10 off any course",
			DiscountType:        coupon.DiscountFixed,
			DiscountValue:       d("10"),
			AppliesToAllCourses: true,
			CanStack:            true,
			Active:              true,
		},
		{
			Code:                "WELCOME25",
			Description:         "25% off for new students, min $20",
			DiscountType:        coupon.DiscountPercentage,
			DiscountValue:       d("25"),
			MinAmount:           dp("20"),
			UsageLimit:          &limit,
			ValidUntil:          &yearOut,
			AppliesToAllCourses: true,
			CanStack:            false,
			Active:              true,
		},
		{
			Code:                "GOPHER15",
			Description:         "15% off selected Go courses",
			DiscountType:        coupon.DiscountPercentage,
			DiscountValue:       d("15"),
			AppliesToAllCourses: false,
			AllowedCourses:      coupon.NewCourseSet([]string{"go-101", "go-201"}),
			CanStack:            true,
			Active:              true,
		},
	}

	for i := range demo {
		demo[i].ID = uuid.New().String()
		if err := repo.Create(ctx, &demo[i]); err != nil {
			// Re-runs hit the unique code constraint; keep going.
			slog.Warn("skipping coupon", "code", demo[i].Code, "error", err)
			continue
		}
		slog.Info("seeded coupon", "code", demo[i].Code)
	}
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, pepper, key, name string, scopes []string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	const upsertSQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, scopes = EXCLUDED.scopes`

	if _, err := pool.Exec(ctx, upsertSQL, uuid.New().String(), hash, name, scopes); err != nil {
		return errors.Wrapf(err, "upsert api key %s", name)
	}
	slog.Info("seeded api key", "name", name)
	return nil
}
