package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const ConfigPathEnv = "SCREENSYNC_CONFIG"

const (
	DocStoreDynamoDb = "dynamodb"
	DocStoreMongo    = "mongo"
	DocStoreMemory   = "memory"

	BlobStoreS3     = "s3"
	BlobStoreMemory = "memory"

	ListCacheMemory = "memory"
	ListCacheRedis  = "redis"
)

type Config struct {
	Env       string `toml:"env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Http    HttpConfig    `toml:"http"`
	Aws     AwsConfig     `toml:"aws"`
	Store   StoreConfig   `toml:"store"`
	Blobs   BlobConfig    `toml:"blobs"`
	Cache   CacheConfig   `toml:"cache"`
	Events  EventsConfig  `toml:"events"`
	Tracing TracingConfig `toml:"tracing"`
}

type HttpConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// MaxFormMemoryMb bounds the in-memory part of a multipart upload.
	MaxFormMemoryMb int64 `toml:"max_form_memory_mb"`
	// MaxBodyMb bounds the whole submission request body.
	MaxBodyMb int64 `toml:"max_body_mb"`
}

type AwsConfig struct {
	Region string `toml:"region"`
	// Endpoint points every AWS client at an emulator such as LocalStack.
	Endpoint string `toml:"endpoint"`
}

type StoreConfig struct {
	Backend         string `toml:"backend"` // dynamodb, mongo or memory
	DynamoTable     string `toml:"dynamo_table"`
	MongoUri        string `toml:"mongo_uri"`
	MongoUriSecret  string `toml:"mongo_uri_secret"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	// EnsureSchema creates the DynamoDB table when missing. Meant for
	// local emulators; production tables are provisioned outside.
	EnsureSchema bool `toml:"ensure_schema"`
}

type BlobConfig struct {
	Backend       string `toml:"backend"` // s3 or memory
	S3Bucket      string `toml:"s3_bucket"`
	S3Endpoint    string `toml:"s3_endpoint"`
	// PublicBaseUrl prefixes screenshot urls. For the memory backend it
	// defaults to this server's /blobs route.
	PublicBaseUrl string `toml:"public_base_url"`
}

type CacheConfig struct {
	Backend  string   `toml:"backend"` // memory or redis
	Ttl      Duration `toml:"ttl"`
	RedisUrl string   `toml:"redis_url"`
}

type EventsConfig struct {
	// SqsQueueUrl enables "submission created" events when set.
	SqsQueueUrl string `toml:"sqs_queue_url"`
}

type TracingConfig struct {
	// OtlpEndpoint enables tracing when set, e.g. localhost:4317.
	OtlpEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Duration reads "5s"-style strings from TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Defaults() Config {
	return Config{
		Env:       "dev",
		LogLevel:  "info",
		LogFormat: "text",
		Http: HttpConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			MaxFormMemoryMb: 32,
			MaxBodyMb:       64,
		},
		Aws: AwsConfig{Region: "eu-central-1"},
		Store: StoreConfig{
			Backend:         DocStoreMemory,
			DynamoTable:     "screensync_submissions",
			MongoDatabase:   "screensync",
			MongoCollection: "submissions",
		},
		Blobs: BlobConfig{Backend: BlobStoreMemory},
		Cache: CacheConfig{
			Backend: ListCacheMemory,
			Ttl:     Duration(5 * time.Second),
		},
		Tracing: TracingConfig{ServiceName: "screensync"},
	}
}

// Load reads .env if present, then the TOML file named by
// SCREENSYNC_CONFIG, then environment variables. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"APP_ENV":               &cfg.Env,
		"LOG_LEVEL":             &cfg.LogLevel,
		"LOG_FORMAT":            &cfg.LogFormat,
		"HTTP_ADDR":             &cfg.Http.Addr,
		"AWS_REGION":            &cfg.Aws.Region,
		"AWS_ENDPOINT_URL":      &cfg.Aws.Endpoint,
		"DOC_STORE":             &cfg.Store.Backend,
		"DDB_SUBM_TABLE":        &cfg.Store.DynamoTable,
		"MONGO_URI":             &cfg.Store.MongoUri,
		"MONGO_URI_SECRET_NAME": &cfg.Store.MongoUriSecret,
		"MONGO_DATABASE":        &cfg.Store.MongoDatabase,
		"MONGO_COLLECTION":      &cfg.Store.MongoCollection,
		"BLOB_STORE":            &cfg.Blobs.Backend,
		"S3_BUCKET":             &cfg.Blobs.S3Bucket,
		"S3_ENDPOINT":           &cfg.Blobs.S3Endpoint,
		"BLOB_PUBLIC_BASE_URL":  &cfg.Blobs.PublicBaseUrl,
		"LIST_CACHE":            &cfg.Cache.Backend,
		"REDIS_URL":             &cfg.Cache.RedisUrl,
		"SUBM_EVENTS_QUEUE_URL": &cfg.Events.SqsQueueUrl,
		"OTLP_ENDPOINT":         &cfg.Tracing.OtlpEndpoint,
		"OTEL_SERVICE_NAME":     &cfg.Tracing.ServiceName,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.Http.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("ENSURE_SCHEMA"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid ENSURE_SCHEMA %q: %w", v, err)
		}
		cfg.Store.EnsureSchema = b
	}
	if v, ok := os.LookupEnv("MAX_FORM_MEMORY_MB"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_FORM_MEMORY_MB %q: %w", v, err)
		}
		cfg.Http.MaxFormMemoryMb = n
	}
	if v, ok := os.LookupEnv("MAX_BODY_MB"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_BODY_MB %q: %w", v, err)
		}
		cfg.Http.MaxBodyMb = n
	}
	if v, ok := os.LookupEnv("LIST_CACHE_TTL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid LIST_CACHE_TTL %q: %w", v, err)
		}
		cfg.Cache.Ttl = Duration(d)
	}
	return nil
}

// MemBlobBaseUrl is the url prefix of blobs served by this server.
func (cfg Config) MemBlobBaseUrl() string {
	if cfg.Blobs.PublicBaseUrl != "" {
		return cfg.Blobs.PublicBaseUrl
	}
	host := cfg.Http.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/blobs"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (cfg Config) Validate() error {
	var errs []error
	switch cfg.Store.Backend {
	case DocStoreDynamoDb:
		if cfg.Store.DynamoTable == "" {
			errs = append(errs, errors.New("dynamodb store needs a table name"))
		}
	case DocStoreMongo:
		if cfg.Store.MongoUri == "" && cfg.Store.MongoUriSecret == "" {
			errs = append(errs, errors.New("mongo store needs a uri or a uri secret name"))
		}
	case DocStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown document store %q", cfg.Store.Backend))
	}

	switch cfg.Blobs.Backend {
	case BlobStoreS3:
		if cfg.Blobs.S3Bucket == "" {
			errs = append(errs, errors.New("s3 blob store needs a bucket"))
		}
	case BlobStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown blob store %q", cfg.Blobs.Backend))
	}

	switch cfg.Cache.Backend {
	case ListCacheRedis:
		if cfg.Cache.RedisUrl == "" {
			errs = append(errs, errors.New("redis list cache needs a redis url"))
		}
	case ListCacheMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown list cache %q", cfg.Cache.Backend))
	}
	if cfg.Cache.Ttl <= 0 {
		errs = append(errs, errors.New("list cache ttl must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
