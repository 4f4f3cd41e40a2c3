// Command cartwatch wires the storefront sync layer against an API base URL
// and logs every published cache state: wishlist membership size and the cart
// badge count. With -demo it runs against an in-process fake storefront and
// walks through a short toggle/add/checkout script.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kangmaup/storesync/api"
	"github.com/kangmaup/storesync/domain"
	"github.com/kangmaup/storesync/internal/apitest"
	"github.com/kangmaup/storesync/pkg/config"
	"github.com/kangmaup/storesync/pkg/httpclient"
	"github.com/kangmaup/storesync/pkg/logger"
	"github.com/kangmaup/storesync/session"
	"github.com/kangmaup/storesync/store"
)

// Config holds cartwatch configuration, loaded from environment variables.
type Config struct {
	BaseURL         string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
	BreakerEnabled  bool          `env:"CIRCUIT_BREAKER_ENABLED" envDefault:"true"`
	UserID          string        `env:"USER_ID" envDefault:"cartwatch"`
}

func main() {
	demo := flag.Bool("demo", false, "run against an in-process fake storefront")
	flag.Parse()

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("cartwatch", cfg.LogLevel)

	baseURL := cfg.BaseURL
	var fake *apitest.Server
	if *demo {
		fake = apitest.New()
		defer fake.Close()
		seedDemo(fake)
		baseURL = fake.URL()
		log.Info("running against in-process fake storefront", slog.String("base_url", baseURL))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess := session.New(log)

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.HTTPTimeout
	plain := httpclient.New(httpCfg)

	var doer api.Doer = plain
	if cfg.BreakerEnabled {
		doer = httpclient.NewCircuitBreakerClient(plain, httpclient.DefaultCircuitBreakerConfig("storefront-api"), log)
	}

	client := api.New(api.Config{
		Doer:           doer,
		BaseURL:        baseURL,
		Logger:         log,
		OnUnauthorized: sess.Invalidate,
	})

	wishlist := store.NewWishlist(client, log)
	cart := store.NewCart(client, sess, log)
	mutator := store.NewMutator(client, cart, log)

	// Clear-on-logout lifecycle.
	sess.OnInvalidate(wishlist.Reset)
	sess.OnInvalidate(cart.Reset)

	// The fake storefront has no login flow; a real deployment authenticates
	// before the first fetch.
	sess.Authenticate(cfg.UserID)

	watchStores(ctx, log, wishlist, cart)

	wishlist.Fetch(ctx)
	cart.Fetch(ctx)

	if *demo {
		runDemoScript(ctx, log, wishlist, mutator)
	}

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("cartwatch stopped")
			return
		case <-ticker.C:
			wishlist.Fetch(ctx)
			cart.Fetch(ctx)
		}
	}
}

// watchStores attaches observers to both caches and logs every published
// state until ctx is done.
func watchStores(ctx context.Context, log *slog.Logger, wishlist *store.Wishlist, cart *store.Cart) {
	wishCh, cancelWish := wishlist.Subscribe()
	cartCh, cancelCart := cart.Subscribe()

	go func() {
		defer cancelWish()
		defer cancelCart()
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-wishCh:
				if !ok {
					return
				}
				log.Info("wishlist state",
					slog.Int("members", st.Count()),
					slog.Bool("loading", st.Loading),
				)
			case st, ok := <-cartCh:
				if !ok {
					return
				}
				log.Info("cart state",
					slog.Int("badge", st.DistinctCount),
					slog.Bool("loading", st.Loading),
				)
			}
		}
	}()
}

func seedDemo(fake *apitest.Server) {
	fake.SeedProduct(domain.ProductSummary{
		ID: "11111111-1111-1111-1111-111111111111", Name: "Kopi Gayo 250g",
		Slug: "kopi-gayo-250g", Price: 55000, Stock: 12,
	})
	fake.SeedProduct(domain.ProductSummary{
		ID: "22222222-2222-2222-2222-222222222222", Name: "Teh Melati 100g",
		Slug: "teh-melati-100g", Price: 18000, Stock: 30,
	})
}

// runDemoScript exercises the optimistic toggle, pessimistic cart edits and
// checkout against the fake storefront.
func runDemoScript(ctx context.Context, log *slog.Logger, wishlist *store.Wishlist, mutator *store.Mutator) {
	const kopi = "11111111-1111-1111-1111-111111111111"
	const teh = "22222222-2222-2222-2222-222222222222"

	if err := wishlist.Toggle(ctx, kopi); err != nil {
		log.Warn("demo: toggle failed", slog.String("error", err.Error()))
	}
	if err := mutator.AddToCart(ctx, kopi, 2); err != nil {
		log.Warn("demo: add to cart failed", slog.String("error", err.Error()))
	}
	if err := mutator.AddToCart(ctx, teh, 1); err != nil {
		log.Warn("demo: add to cart failed", slog.String("error", err.Error()))
	}
	if err := mutator.Checkout(ctx); err != nil {
		log.Warn("demo: checkout failed", slog.String("error", err.Error()))
	}
}
