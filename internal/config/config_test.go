package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/store"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Canvas != grid.DefaultCanvas() {
		t.Errorf("Canvas = %+v", cfg.Canvas)
	}
	if cfg.Addr() != ":5001" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[canvas]
width = 13.333
cols = 6

[layout]
debug = true
sub_cols = 3

[server]
port = 8080
read_timeout = "5s"

[store]
backend = "file"
ttl = "1h"
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Canvas.Width != 13.333 || cfg.Canvas.Cols != 6 {
		t.Errorf("Canvas = %+v", cfg.Canvas)
	}
	if cfg.Canvas.Height != grid.DefaultHeight {
		t.Error("unset canvas fields should keep their defaults")
	}
	if cfg.Server.Port != 8080 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.TTL != time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}

	opts := cfg.LayoutOptions()
	if !opts.Debug || opts.SubCols != 3 || opts.Canvas.Cols != 6 {
		t.Errorf("LayoutOptions() = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"syntax", "[canvas", errors.ErrCodeInvalidInput},
		{"unknown cache", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", errors.ErrCodeInvalidInput},
		{"bad port", "[server]\nport = 70000", errors.ErrCodeInvalidInput},
		{"bad canvas", "[canvas]\nwidth = 1.0\ngap_x = 0.5", errors.ErrCodeInvalidCanvas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                 "9000",
		"UPLOAD_FOLDER":        "/srv/uploads",
		"SLIDEGRID_ENV":        "production",
		"SLIDEGRID_REDIS_ADDR": "redis:6379",
		"SLIDEGRID_MONGO_URI":  "mongodb://db:27017",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.UploadFolder != "/srv/uploads" || !cfg.IsProduction() {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Errorf("Store = %+v", cfg.Store)
	}

	env = map[string]string{"PORT": "http"}
	cfg = Default()
	if err := cfg.applyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad PORT error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PORT", "")
	t.Setenv("SLIDEGRID_REDIS_ADDR", "")
	t.Setenv("SLIDEGRID_MONGO_URI", "")

	// Missing default file is fine.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without file error = %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Port = %d", cfg.Server.Port)
	}

	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, AppName, FileName)
	if err := os.WriteFile(path, []byte("[server]\nport = 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil || cfg.Server.Port != 7000 {
		t.Errorf("Load() = %d, %v", cfg.Server.Port, err)
	}

	t.Setenv("PORT", "7100")
	cfg, err = Load(path)
	if err != nil || cfg.Server.Port != 7100 {
		t.Errorf("env should override file: %d, %v", cfg.Server.Port, err)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file error = %v", err)
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	c, err := CacheConfig{Backend: BackendFile, Dir: t.TempDir()}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("file backend = %T", c)
	}
	if c, _ := (CacheConfig{Backend: BackendNone}).OpenCache(ctx); c == nil {
		t.Error("none backend should return a null cache")
	}

	s, err := StoreConfig{Backend: BackendFile, Dir: t.TempDir()}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*store.FileStore); !ok {
		t.Errorf("file store = %T", s)
	}
	if s, _ := (StoreConfig{Backend: BackendNone}).OpenStore(ctx); s != nil {
		t.Error("none store should be nil")
	}
}

func TestKeyerPrefix(t *testing.T) {
	plain := CacheConfig{}.Keyer().ImageKey("a.png")
	scoped := CacheConfig{Prefix: "tenant"}.Keyer().ImageKey("a.png")
	if plain == scoped {
		t.Error("prefix should change keys")
	}
}
