package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           int
	ImageDirectory string
	LogDirectory   string
	LogLevel       string
	DatabasePath   string
	CamerasPort    int   // UDP port the depth camera pushes JPEG packets to
	MaxUploadSize  int64 // bytes
	AllowedOrigin  string

	AMQPURL      string // empty disables broker publishing
	AMQPExchange string

	OTELEnabled  bool
	OTELEndpoint string
	OTELInsecure bool

	// Capture client settings.
	ServiceURL         string
	StreamURL          string
	DownloadDirectory  string
	DefaultFrameWidth  int
	DefaultFrameHeight int
	CaptureTimeout     int // seconds
}

// field: default value
var defaults = map[string]interface{}{
	"port":                    3001,
	"image_dir":               filepath.Join(".", "Data_image"),
	"log_dir":                 filepath.Join(".", "logs"),
	"log_level":               "INFO",
	"db_path":                 filepath.Join(".", "data", "captures.db"),
	"cameras_port":            9000,
	"max_upload_mb":           32,
	"allowed_origin":          "*",
	"amqp_url":                "",
	"amqp_exchange":           "depth_captures",
	"otel_enabled":            false,
	"otel_endpoint":           "",
	"otel_insecure":           true,
	"service_url":             "http://localhost:3001",
	"stream_url":              "http://localhost:3001/capture/streaming",
	"download_dir":            filepath.Join(".", "downloads"),
	"default_frame_width":     840,
	"default_frame_height":    640,
	"capture_timeout_seconds": 10,
}

// Load reads configuration from an optional .env file, an optional config file
// named by CONFIG_FILE, and the environment. Environment variables win.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	}

	return &Config{
		Port:               v.GetInt("port"),
		ImageDirectory:     v.GetString("image_dir"),
		LogDirectory:       v.GetString("log_dir"),
		LogLevel:           strings.ToUpper(v.GetString("log_level")),
		DatabasePath:       v.GetString("db_path"),
		CamerasPort:        v.GetInt("cameras_port"),
		MaxUploadSize:      v.GetInt64("max_upload_mb") << 20,
		AllowedOrigin:      v.GetString("allowed_origin"),
		AMQPURL:            v.GetString("amqp_url"),
		AMQPExchange:       v.GetString("amqp_exchange"),
		OTELEnabled:        v.GetBool("otel_enabled"),
		OTELEndpoint:       v.GetString("otel_endpoint"),
		OTELInsecure:       v.GetBool("otel_insecure"),
		ServiceURL:         strings.TrimRight(v.GetString("service_url"), "/"),
		StreamURL:          v.GetString("stream_url"),
		DownloadDirectory:  v.GetString("download_dir"),
		DefaultFrameWidth:  v.GetInt("default_frame_width"),
		DefaultFrameHeight: v.GetInt("default_frame_height"),
		CaptureTimeout:     v.GetInt("capture_timeout_seconds"),
	}, nil
}
