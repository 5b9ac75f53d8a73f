package config

import (
	"fmt" // Error wrapping and DSN formatting

	"github.com/caarlos0/env/v11" // Typed environment parsing
	"github.com/joho/godotenv"    // For loading .env files
)

// Supported persistence backends
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Supported slip storage backends
const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

// Config holds the application configuration
type Config struct {
	AppPort    string `env:"APP_PORT" envDefault:"3000"`     // Application port
	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`   // mysql, postgres or mongo
	DBDSN      string `env:"DB_DSN"`                         // Full SQL DSN, overrides the parts below
	DBUser     string `env:"DB_USER"`                        // Database user
	DBPassword string `env:"DB_PASSWORD"`                    // Database password
	DBHost     string `env:"DB_HOST" envDefault:"localhost"` // Database host
	DBPort     string `env:"DB_PORT"`                        // Database port
	DBName     string `env:"DB_NAME" envDefault:"topup"`     // Database name
	MongoURI   string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB    string `env:"MONGO_DB" envDefault:"topup"`
	RedisAddr  string `env:"REDIS_ADDR"`                 // Redis server address, empty disables caching
	RedisPass  string `env:"REDIS_PASS"`                 // Redis password
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`    // Redis database number
	Storage    string `env:"STORAGE" envDefault:"local"` // local or cloudinary
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"public/uploads"`
	TempDir    string `env:"TEMP_DIR" envDefault:"temp"`
	CloudName  string `env:"CLOUD_NAME"`
	CloudKey   string `env:"CLOUD_API_KEY"`
	CloudSec   string `env:"CLOUD_API_SECRET"`
	CloudDir   string `env:"CLOUD_FOLDER" envDefault:"slips"`
	IsProd     bool   `env:"IS_PROD" envDefault:"false"`  // Is production environment
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"` // logrus level name
}

// LoadConfig loads configuration from .env (if present) and the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.Storage {
	case StorageLocal:
	case StorageCloudinary:
		if c.CloudName == "" || c.CloudKey == "" || c.CloudSec == "" {
			return fmt.Errorf("cloudinary storage needs CLOUD_NAME, CLOUD_API_KEY and CLOUD_API_SECRET")
		}
	default:
		return fmt.Errorf("unsupported STORAGE %q", c.Storage)
	}
	return nil
}

// SQLDSN returns the DSN for the gorm dialect selected by DBDriver
func (c *Config) SQLDSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == DriverPostgres {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port)
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	// Data Source Name for MySQL, parseTime is required for time.Time columns
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.AppPort
}
