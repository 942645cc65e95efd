// Package tilesource fetches XYZ raster tiles over HTTP.
package tilesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/olaizola/maplabel/internal/core/composite"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
	"github.com/olaizola/maplabel/internal/pkg/metrics"
)

// HTTPSource fetches tiles from a templated XYZ endpoint. It satisfies the
// never-fails contract of ports.TileSource: any transport, status, decode or
// dimension problem yields a solid placeholder raster instead of an error,
// so a composite always has something at every grid position.
type HTTPSource struct {
	template   string
	subdomains []string
	tileSize   int
	timeout    time.Duration
	client     *http.Client
	cache      ports.CacheService
	cacheTTL   int
	log        *slog.Logger
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithCache enables read-through caching of encoded tile bytes. Placeholders
// are never cached.
func WithCache(cache ports.CacheService, ttlSeconds int) Option {
	return func(s *HTTPSource) {
		s.cache = cache
		s.cacheTTL = ttlSeconds
	}
}

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) Option {
	return func(s *HTTPSource) { s.client = client }
}

// New creates an HTTPSource. template uses {z}, {x}, {y} and optionally {s}
// placeholders; subdomains holds the candidate values for {s}.
func New(template string, subdomains []string, tileSize int, timeout time.Duration, log *slog.Logger, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		template:   template,
		subdomains: subdomains,
		tileSize:   tileSize,
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tile fetches and decodes one tile, substituting a placeholder on any
// failure.
func (s *HTTPSource) Tile(ctx context.Context, tc domain.TileCoordinate) image.Image {
	start := time.Now()
	defer func() {
		metrics.TileFetchDuration.Observe(time.Since(start).Seconds())
	}()

	key := cacheKey(tc)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("tile").Inc()
			if img, err := decodeTile(data); err == nil && s.rightSize(img) {
				metrics.TilesFetched.WithLabelValues("ok").Inc()
				return img
			}
			// Corrupt cache entry; fall through to a fresh fetch.
			_ = s.cache.Delete(ctx, key)
		} else {
			metrics.CacheMisses.WithLabelValues("tile").Inc()
		}
	}

	data, err := s.fetch(ctx, tc)
	if err != nil {
		s.log.Warn("tile fetch failed, using placeholder",
			"z", tc.Z, "x", tc.X, "y", tc.Y, "error", err)
		return s.placeholder()
	}

	img, err := decodeTile(data)
	if err != nil {
		s.log.Warn("tile decode failed, using placeholder",
			"z", tc.Z, "x", tc.X, "y", tc.Y, "error", err)
		return s.placeholder()
	}
	if !s.rightSize(img) {
		s.log.Warn("tile has unexpected dimensions, using placeholder",
			"z", tc.Z, "x", tc.X, "y", tc.Y,
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		return s.placeholder()
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}

	metrics.TilesFetched.WithLabelValues("ok").Inc()
	return img
}

func (s *HTTPSource) fetch(ctx context.Context, tc domain.TileCoordinate) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(tc), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "maplabel/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile server returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tile body: %w", err)
	}
	return data, nil
}

// url expands the XYZ template. The subdomain pick is random: it only
// spreads load across mirrors, the tile content is identical.
func (s *HTTPSource) url(tc domain.TileCoordinate) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(tc.Z),
		"{x}", strconv.Itoa(tc.X),
		"{y}", strconv.Itoa(tc.Y),
		"{s}", s.pickSubdomain(),
	)
	return r.Replace(s.template)
}

func (s *HTTPSource) pickSubdomain() string {
	if len(s.subdomains) == 0 {
		return ""
	}
	return s.subdomains[rand.Intn(len(s.subdomains))]
}

func (s *HTTPSource) rightSize(img image.Image) bool {
	return img.Bounds().Dx() == s.tileSize && img.Bounds().Dy() == s.tileSize
}

func (s *HTTPSource) placeholder() image.Image {
	metrics.TilesFetched.WithLabelValues("placeholder").Inc()
	return imaging.New(s.tileSize, s.tileSize, composite.PlaceholderColor)
}

// decodeTile handles the formats tile servers actually serve: PNG, JPEG and
// WebP.
func decodeTile(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}
	return nil, fmt.Errorf("decode tile: %w", err)
}

func cacheKey(tc domain.TileCoordinate) string {
	return fmt.Sprintf("tile:%d:%d:%d", tc.Z, tc.X, tc.Y)
}
