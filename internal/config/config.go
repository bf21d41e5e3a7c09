package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PGDSN        string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	HTTPAddr     string
	ClinicTZ     string
	SnapshotTTL  time.Duration
	OTLPEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	snapshotTTL, _ := time.ParseDuration(os.Getenv("SNAPSHOT_TTL"))
	if snapshotTTL == 0 {
		snapshotTTL = 5 * time.Second
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	tz := os.Getenv("CLINIC_TZ")
	if tz == "" {
		tz = "Asia/Jakarta"
	}

	return &Config{
		PGDSN:        os.Getenv("PG_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		HTTPAddr:     httpAddr,
		ClinicTZ:     tz,
		SnapshotTTL:  snapshotTTL,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

// Location resolves the clinic timezone, falling back to the server's
// local zone when the name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTZ)
	if err != nil {
		return time.Local
	}
	return loc
}
