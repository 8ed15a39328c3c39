package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mourao666/cassandra-sim/dht"
	"gopkg.in/yaml.v3"
)

// MaxFileSize is the largest configuration file Load accepts.
const MaxFileSize = 1 << 20

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the configuration file.
type Config struct {
	Bank      BankConfig      `json:"bank" yaml:"bank"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Cluster   ClusterConfig   `json:"cluster" yaml:"cluster"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	BlobStore BlobStoreConfig `json:"blob_store" yaml:"blob_store"`
	Ownership OwnershipConfig `json:"ownership" yaml:"ownership"`
}

// BankConfig describes the hyperplane bank. When Normals is set it is used
// as is; otherwise a bank is generated from Bits, Dimension and Seed.
type BankConfig struct {
	Name        string      `json:"name" yaml:"name" validate:"required,excludesall=/\\"`
	Dimension   int         `json:"dimension" yaml:"dimension" validate:"gte=1,lte=65536"`
	Bits        int         `json:"bits" yaml:"bits" validate:"gte=1,lte=4096"`
	Seed        uint64      `json:"seed" yaml:"seed"`
	Normals     [][]float64 `json:"normals,omitempty" yaml:"normals,omitempty"`
	Codec       string      `json:"codec" yaml:"codec" validate:"oneof=json go-json"`
	Compression string      `json:"compression" yaml:"compression" validate:"oneof=none zstd lz4"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// StorageConfig configures the badger row store.
type StorageConfig struct {
	Path           string        `json:"path" yaml:"path"`
	InMemory       bool          `json:"in_memory" yaml:"in_memory"`
	SyncWrites     bool          `json:"sync_writes" yaml:"sync_writes"`
	KeysPerSplit   int           `json:"keys_per_split" yaml:"keys_per_split" validate:"gte=1"`
	GCInterval     time.Duration `json:"gc_interval" yaml:"gc_interval" validate:"gte=0"`
	GCDiscardRatio float64       `json:"gc_discard_ratio" yaml:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// ClusterConfig configures gossip membership. Token is the local token as a
// bit literal; an empty Token asks the ring for a suggestion on join.
type ClusterConfig struct {
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	Name          string   `json:"name" yaml:"name"`
	BindAddr      string   `json:"bind_addr" yaml:"bind_addr" validate:"omitempty,ip"`
	BindPort      int      `json:"bind_port" yaml:"bind_port" validate:"gte=0,lte=65535"`
	AdvertiseAddr string   `json:"advertise_addr" yaml:"advertise_addr" validate:"omitempty,ip"`
	AdvertisePort int      `json:"advertise_port" yaml:"advertise_port" validate:"gte=0,lte=65535"`
	Seeds         []string `json:"seeds" yaml:"seeds" validate:"dive,hostname_port"`
	Token         string   `json:"token" yaml:"token" validate:"omitempty,bitstring"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `json:"addr" yaml:"addr" validate:"required,hostname_port"`
	CORSOrigins     []string      `json:"cors_origins" yaml:"cors_origins"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// BlobStoreConfig selects where banks and ring snapshots are kept.
// CommitTable names a DynamoDB table publishing CURRENT; it needs kind s3.
type BlobStoreConfig struct {
	Kind         string `json:"kind" yaml:"kind" validate:"oneof=memory local s3 minio"`
	Root         string `json:"root" yaml:"root"`
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix" yaml:"prefix"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
	AccessKey    string `json:"access_key" yaml:"access_key"`
	SecretKey    string `json:"secret_key" yaml:"secret_key"`
	Secure       bool   `json:"secure" yaml:"secure"`
	CommitTable  string `json:"commit_table" yaml:"commit_table"`
	CacheEntries int    `json:"cache_entries" yaml:"cache_entries" validate:"gte=0"`
}

// OwnershipConfig bounds DescribeOwnership. RateLimit 0 disables limiting.
type OwnershipConfig struct {
	Concurrency int     `json:"concurrency" yaml:"concurrency" validate:"gte=1,lte=1024"`
	RateLimit   float64 `json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst       int     `json:"burst" yaml:"burst" validate:"gte=0"`
}

// Default returns a configuration for a single in-memory node.
func Default() Config {
	return Config{
		Bank: BankConfig{
			Name:        "bank-default",
			Dimension:   6,
			Bits:        64,
			Seed:        42,
			Codec:       "json",
			Compression: "zstd",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			InMemory:       true,
			SyncWrites:     true,
			KeysPerSplit:   128,
			GCInterval:     5 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Cluster: ClusterConfig{
			BindAddr: "0.0.0.0",
			BindPort: 7946,
		},
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		BlobStore: BlobStoreConfig{
			Kind: "memory",
		},
		Ownership: OwnershipConfig{
			Concurrency: 8,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(data) > MaxFileSize {
		return Config{}, fmt.Errorf("config %s exceeds %d bytes", path, MaxFileSize)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = describe(fe)
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if n := len(c.Bank.Normals); n > 0 {
		if n != c.Bank.Bits {
			return fmt.Errorf("%w: bank.normals has %d rows, bank.bits is %d", ErrInvalidConfig, n, c.Bank.Bits)
		}
		for i, row := range c.Bank.Normals {
			if len(row) != c.Bank.Dimension {
				return fmt.Errorf("%w: bank.normals[%d] has %d components, bank.dimension is %d",
					ErrInvalidConfig, i, len(row), c.Bank.Dimension)
			}
		}
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required unless storage.in_memory is set", ErrInvalidConfig)
	}

	switch c.BlobStore.Kind {
	case "local":
		if c.BlobStore.Root == "" {
			return fmt.Errorf("%w: blob_store.root is required for kind local", ErrInvalidConfig)
		}
	case "s3", "minio":
		if c.BlobStore.Bucket == "" {
			return fmt.Errorf("%w: blob_store.bucket is required for kind %s", ErrInvalidConfig, c.BlobStore.Kind)
		}
	}
	if c.BlobStore.Kind == "minio" && c.BlobStore.Endpoint == "" {
		return fmt.Errorf("%w: blob_store.endpoint is required for kind minio", ErrInvalidConfig)
	}
	if c.BlobStore.CommitTable != "" && c.BlobStore.Kind != "s3" {
		return fmt.Errorf("%w: blob_store.commit_table requires kind s3", ErrInvalidConfig)
	}

	if c.Ownership.RateLimit > 0 && c.Ownership.Burst < 1 {
		return fmt.Errorf("%w: ownership.burst must be at least 1 when rate_limit is set", ErrInvalidConfig)
	}
	return nil
}

// SlogLevel returns the configured level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Logger builds a logger writing to w with the configured format and level.
func (l LogConfig) Logger(w io.Writer) *dht.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return dht.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return dht.NewLogger(slog.NewTextHandler(w, opts))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bitstring", func(fl validator.FieldLevel) bool {
		return strings.Trim(fl.Field().String(), "01") == ""
	})
	return v
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "bitstring":
		return field + " must contain only 0 and 1"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value())
}
