package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tarkovlens/scanner/config"
	httpDelivery "github.com/tarkovlens/scanner/internal/delivery/http"
	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/cache"
	"github.com/tarkovlens/scanner/internal/infrastructure/capture"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
	"github.com/tarkovlens/scanner/internal/infrastructure/input"
	"github.com/tarkovlens/scanner/internal/infrastructure/market"
	"github.com/tarkovlens/scanner/internal/infrastructure/ocr"
	"github.com/tarkovlens/scanner/internal/infrastructure/template"
	"github.com/tarkovlens/scanner/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting TarkovLens Scanner v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Catalog is required; everything else degrades gracefully.
	store, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load item catalog: %v", err)
	}

	// Initialize infrastructure dependencies. Each capability probes itself
	// at startup; a failed probe disables its endpoints instead of aborting.
	memoryCache := cache.NewMemoryCache()
	screen := capture.NewScreen(cfg.Capture.DebugDir)

	textEngine := ocr.NewEngine(ocr.Config{
		Language:  cfg.OCR.Language,
		Whitelist: cfg.OCR.Whitelist,
		Upscale:   cfg.OCR.Upscale,
		Invert:    cfg.OCR.Invert,
		TessData:  cfg.OCR.TessData,
	})
	defer textEngine.Close()

	templateEngine := template.NewMatcher(template.Config{
		Dir:                 cfg.Template.Dir,
		Scales:              cfg.Template.Scales,
		EarlyExitConfidence: cfg.Template.EarlyExitConfidence,
		MaxScreenDimension:  cfg.Template.MaxScreenDimension,
	})

	// A typed nil must not reach the resolver's interface field.
	var feed domain.PriceFeed
	if cfg.Price.SheetURL != "" {
		feed = market.NewSheetFeed(cfg.Price.SheetURL, cfg.Price.SheetTTL)
	} else {
		log.Printf("WARNING: no price sheet configured, falling back to API and catalog prices")
	}
	api := market.NewAPIClient(cfg.Price.APIURL, cfg.Price.APITimeout, memoryCache, cfg.Price.APITTL)
	listener := input.NewListener()

	// Initialize usecase layer
	matcher := usecase.NewMatcher(store, cfg.Match.Debug)
	prices := usecase.NewPriceResolver(memoryCache, feed, api, store, cfg.Price.SnapshotTTL)
	scans := usecase.NewScanService(screen, textEngine, templateEngine, matcher, prices, store, cfg)
	hover := usecase.NewHoverScanner(listener, scans, cfg.Hover)
	scroll := usecase.NewScrollMonitor(listener)

	log.Printf("Capabilities: ocr=%v templates=%v input=%v catalog=%d items",
		textEngine.Available(), templateEngine.Available(), listener.Available(), store.Len())

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(scans, hover, scroll, prices, textEngine, templateEngine, listener, store)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
