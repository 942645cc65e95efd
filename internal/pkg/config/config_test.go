package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("maplabel-api")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Tiles.TileSize != 256 {
		t.Errorf("tiles.tile_size = %d, want 256", cfg.Tiles.TileSize)
	}
	if cfg.Tiles.MaxPerRequest != 64 {
		t.Errorf("tiles.max_per_request = %d, want 64", cfg.Tiles.MaxPerRequest)
	}
	if !strings.Contains(cfg.Tiles.Template, "{z}") {
		t.Errorf("tiles.template missing {z}: %s", cfg.Tiles.Template)
	}
	if cfg.Telemetry.ServiceName != "maplabel-api" {
		t.Errorf("telemetry.service_name = %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MAPLABEL_SERVER_PORT", "9191")
	t.Setenv("MAPLABEL_TILES_WORKERS", "4")

	cfg, err := Load("maplabel-api")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("server.port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Tiles.Workers != 4 {
		t.Errorf("tiles.workers = %d, want 4", cfg.Tiles.Workers)
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Setenv("MAPLABEL_TILES_JPEG_QUALITY", "150")

	_, err := Load("maplabel-api")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "jpeg_quality") {
		t.Errorf("error does not name the bad field: %v", err)
	}
}

func TestSubdomainList(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a,b,c", 3},
		{"a, b , ", 2},
	}
	for _, tc := range cases {
		got := TilesConfig{Subdomains: tc.in}.SubdomainList()
		if len(got) != tc.want {
			t.Errorf("SubdomainList(%q) = %v, want %d entries", tc.in, got, tc.want)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "maplabel", Password: "secret",
		DBName: "maplabel", SSLMode: "disable",
	}
	want := "postgres://maplabel:secret@db:5432/maplabel?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}
}
