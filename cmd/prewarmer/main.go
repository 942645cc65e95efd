package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsadapter "github.com/olaizola/maplabel/internal/adapters/nats"
	"github.com/olaizola/maplabel/internal/adapters/tilesource"
	"github.com/olaizola/maplabel/internal/adapters/valkey"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/pkg/config"
	"github.com/olaizola/maplabel/internal/pkg/logging"
)

// The prewarmer listens for box-created events and pulls the tiles one
// ring around the new box's grid through the cached tile source, so the
// next nearby labeling request hits valkey instead of the tile server.
func main() {
	cfg, err := config.Load("maplabel-prewarmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	tiles := tilesource.New(
		cfg.Tiles.Template,
		cfg.Tiles.SubdomainList(),
		cfg.Tiles.TileSize,
		time.Duration(cfg.Tiles.FetchTimeout)*time.Second,
		slog.Default(),
		tilesource.WithCache(cache, cfg.Tiles.CacheTTL),
	)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "tile-prewarmer")
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeBoxEvents(ctx, func(ctx context.Context, ev *domain.BoxEvent) error {
		if ev.Action != "created" || ev.Box == nil {
			return nil
		}
		warmRing(ctx, tiles, ev.Box, cfg.Tiles.Workers)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe box events: %v", err)
	}

	slog.Info("tile prewarmer started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("prewarmer stopped")
}

// warmRing fetches the one-tile border around the box's grid. The grid's
// own tiles are already cached from rendering the composite.
func warmRing(ctx context.Context, tiles *tilesource.HTTPSource, box *domain.Box, workers int) {
	if workers <= 0 {
		workers = 4
	}
	max := (1 << box.Zoom) - 1

	var ring []domain.TileCoordinate
	for x := box.Grid.MinX - 1; x <= box.Grid.MaxX+1; x++ {
		for y := box.Grid.MinY - 1; y <= box.Grid.MaxY+1; y++ {
			inGrid := x >= box.Grid.MinX && x <= box.Grid.MaxX &&
				y >= box.Grid.MinY && y <= box.Grid.MaxY
			if inGrid || x < 0 || y < 0 || x > max || y > max {
				continue
			}
			ring = append(ring, domain.TileCoordinate{X: x, Y: y, Z: box.Zoom})
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for _, tc := range ring {
		wg.Add(1)
		sem <- struct{}{}
		go func(tc domain.TileCoordinate) {
			defer wg.Done()
			defer func() { <-sem }()
			tiles.Tile(ctx, tc)
		}(tc)
	}
	wg.Wait()

	slog.Debug("ring warmed", "boxID", box.ID, "tiles", len(ring), "zoom", box.Zoom)
}
