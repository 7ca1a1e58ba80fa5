// Package config loads slidegrid settings from a TOML file and the
// environment.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. The TOML file (slidegrid.toml in the user config dir, or --config)
//  3. Environment variables (PORT, UPLOAD_FOLDER, SLIDEGRID_ENV,
//     SLIDEGRID_REDIS_ADDR, SLIDEGRID_MONGO_URI)
//
// A minimal file:
//
//	[canvas]
//	width = 13.333
//	height = 7.5
//	rows = 4
//	cols = 6
//
//	[server]
//	port = 5001
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// AppName names the config and cache directories.
	AppName = "slidegrid"

	// FileName is the config file looked up in the config directory.
	FileName = "slidegrid.toml"

	DefaultPort         = 5001
	DefaultUploadFolder = "uploads"
	DefaultEnv          = "development"
	DefaultMaxBody      = 8 << 20
)

// Backend names for [CacheConfig] and [StoreConfig].
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// =============================================================================
// Config
// =============================================================================

// Config is the complete slidegrid configuration.
type Config struct {
	Canvas grid.Canvas  `toml:"canvas"`
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
}

// LayoutConfig holds the placement tunables that are not part of the canvas.
type LayoutConfig struct {
	CoverRows     int     `toml:"cover_rows"`
	CoverCols     int     `toml:"cover_cols"`
	SubRows       int     `toml:"sub_rows"`
	SubCols       int     `toml:"sub_cols"`
	SubGap        float64 `toml:"sub_gap"`
	LabelBand     float64 `toml:"label_band"`
	Debug         bool    `toml:"debug"`
	PrefetchLimit int     `toml:"prefetch_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int           `toml:"port"`
	UploadFolder string        `toml:"upload_folder"`
	Env          string        `toml:"env"`
	CORSOrigin   string        `toml:"cors_origin"`
	MaxBody      int64         `toml:"max_body"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	// AllowRemote lets payloads reference http(s) images.
	AllowRemote bool `toml:"allow_remote"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// StoreConfig selects the generation history backend.
type StoreConfig struct {
	Backend    string        `toml:"backend"`
	Dir        string        `toml:"dir"`
	MongoURI   string        `toml:"mongo_uri"`
	Database   string        `toml:"database"`
	Collection string        `toml:"collection"`
	TTL        time.Duration `toml:"ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Canvas: grid.DefaultCanvas(),
		Layout: LayoutConfig{
			CoverRows:     layout.DefaultCoverRows,
			CoverCols:     layout.DefaultCoverCols,
			SubRows:       layout.DefaultSubRows,
			SubCols:       layout.DefaultSubCols,
			SubGap:        layout.DefaultSubGap,
			LabelBand:     layout.DefaultLabelBand,
			PrefetchLimit: layout.DefaultPrefetchLimit,
		},
		Server: ServerConfig{
			Port:         DefaultPort,
			UploadFolder: DefaultUploadFolder,
			Env:          DefaultEnv,
			CORSOrigin:   "*",
			MaxBody:      DefaultMaxBody,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		Cache: CacheConfig{Backend: BackendFile},
		Store: StoreConfig{Backend: BackendMemory, TTL: store.DefaultTTL},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads path over the defaults and applies environment overrides. An
// empty path uses [DefaultPath] and tolerates a missing file; an explicit path
// must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			default:
				return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults without consulting the
// environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	return cfg, cfg.Validate()
}

// DefaultPath returns the config file location under the user config dir
// (XDG_CONFIG_HOME or ~/.config).
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Dir returns the slidegrid config directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the default file cache directory (XDG_CACHE_HOME or
// ~/.cache).
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "PORT %q is not a number", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("UPLOAD_FOLDER"); ok && v != "" {
		c.Server.UploadFolder = v
	}
	if v, ok := lookup("SLIDEGRID_ENV"); ok && v != "" {
		c.Server.Env = v
	}
	if v, ok := lookup("SLIDEGRID_REDIS_ADDR"); ok && v != "" {
		c.Cache.Backend = BackendRedis
		c.Cache.RedisAddr = v
	}
	if v, ok := lookup("SLIDEGRID_MONGO_URI"); ok && v != "" {
		c.Store.Backend = BackendMongo
		c.Store.MongoURI = v
	}
	return nil
}

// =============================================================================
// Validation and Conversion
// =============================================================================

// Validate checks backend names and the canvas geometry.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendMemory, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendNone, BackendMemory, BackendFile:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidInput, "port %d out of range", c.Server.Port)
	}
	return c.LayoutOptions().Validate()
}

// IsProduction reports whether the server runs in production mode, which
// hides internal error details.
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LayoutOptions converts the layout settings into engine options.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Canvas:    c.Canvas,
		CoverRows: c.Layout.CoverRows,
		CoverCols: c.Layout.CoverCols,
		SubRows:   c.Layout.SubRows,
		SubCols:   c.Layout.SubCols,
		SubGap:    c.Layout.SubGap,
		LabelBand: c.Layout.LabelBand,
		Debug:     c.Layout.Debug,
	}.WithDefaults()
}

// Addr returns the listen address for the server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// OpenCache builds the configured cache.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendMemory:
		return cache.NewMemoryCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	default:
		dir := c.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

// Keyer returns the cache keyer, scoped by Prefix when set.
func (c CacheConfig) Keyer() cache.Keyer {
	k := cache.NewDefaultKeyer()
	if c.Prefix != "" {
		return cache.NewScopedKeyer(k, c.Prefix)
	}
	return k
}

// OpenStore builds the configured generation store. The none backend yields
// a nil store.
func (s StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	switch s.Backend {
	case BackendNone:
		return nil, nil
	case BackendFile:
		return store.NewFileStore(s.Dir)
	case BackendMongo:
		return store.NewMongoStore(ctx, s.MongoURI, s.Database, s.Collection)
	default:
		return store.NewMemoryStore(), nil
	}
}
