package main

import (
	"context"
	"net/http"
	"time"
	"wtbmonitor-backend/lib/configutil"
	configlibsql "wtbmonitor-backend/lib/configutil/libsql"
	"wtbmonitor-backend/lib/scrapers/storefront"
	"wtbmonitor-backend/lib/scrapers/wtbmarket"
	"wtbmonitor-backend/lib/telemetry"
	"wtbmonitor-backend/lib/util/serviceutil"
	"wtbmonitor-backend/services/comparison"
	"wtbmonitor-backend/services/httpapi"
	"wtbmonitor-backend/services/ingest"
	ingestdb "wtbmonitor-backend/services/ingest/db"
	"wtbmonitor-backend/services/scrape"
)

type Config struct {
	Port           int                 `json:"port"`
	Database       configlibsql.Struct `json:"database"`
	RequestDelayMs int                 `json:"request_delay_ms"`
	Stores         []wtbmarket.Store   `json:"stores"`
	Storefront     storefront.Config   `json:"storefront"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8400
	}
	if config.RequestDelayMs == 0 {
		config.RequestDelayMs = 1000
	}

	db, err := config.Database.OpenDB(ingestdb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "wtbmonitor")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())

	delay := time.Duration(config.RequestDelayMs) * time.Millisecond
	store := ingest.NewStore(db)
	cache := comparison.NewCache(comparison.NewService(store))
	runner := scrape.NewRunner(store, scrape.NewStatus(), scrape.NewConsole(), cache)

	api := httpapi.NewService(httpapi.Options{
		Store:  store,
		Cache:  cache,
		Runner: runner,
		WtbSource: scrape.MarketplaceSource{
			Client: wtbmarket.NewClient(wtbmarket.ClientOptions{RequestDelay: delay}),
			Stores: config.Stores,
		},
		InventorySource: scrape.StorefrontSource{
			Client: storefront.NewClient(storefront.ClientOptions{RequestDelay: delay}),
			Config: config.Storefront,
		},
	})

	mux := http.NewServeMux()
	api.Register(mux)
	go serviceutil.StartHttpServer(config.Port, mux)

	<-ctx.Done()
}
