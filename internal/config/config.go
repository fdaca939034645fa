package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/Mazurkevichkv/k-means/internal/core"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	KMeans  KMeans  `mapstructure:"kmeans"`
	Scene   Scene   `mapstructure:"scene"`
	Render  Render  `mapstructure:"render"`
	Server  Server  `mapstructure:"server"`
	Export  Export  `mapstructure:"export"`
	Logging Logging `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// KMeans holds the clustering and animation settings
type KMeans struct {
	Clusters    int     `mapstructure:"clusters"`
	Elements    int     `mapstructure:"elements"`
	Iterations  int     `mapstructure:"iterations"`
	Auto        bool    `mapstructure:"auto"`
	Speed       float64 `mapstructure:"speed"`
	Epsilon     float64 `mapstructure:"epsilon"`
	EmptyPolicy string  `mapstructure:"empty_policy"`
	Seed        int64   `mapstructure:"seed"`
	StartDelay  string  `mapstructure:"start_delay"`
}

// Scene holds the size of the box points are spawned in
type Scene struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	Depth  float64 `mapstructure:"depth"`
}

// Render holds display settings shared by the terminal and browser views
type Render struct {
	FPS            int     `mapstructure:"fps"`
	FOV            float64 `mapstructure:"fov"`
	CameraDistance float64 `mapstructure:"camera_distance"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ControlToken string        `mapstructure:"control_token"` // Required as a bearer token on POST routes when set
}

// Export holds headless export configuration
type Export struct {
	Output    string `mapstructure:"output"`
	MaxFrames int    `mapstructure:"max_frames"`
}

// Logging holds logging configuration
type Logging struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".kmeans")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	// Enable automatic environment variable reading, e.g. KMEANS_CLUSTERS
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset drops the cached configuration and all viper state.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)

	// K-means defaults
	viper.SetDefault("kmeans.clusters", 10)
	viper.SetDefault("kmeans.elements", 500)
	viper.SetDefault("kmeans.iterations", 30)
	viper.SetDefault("kmeans.auto", false)
	viper.SetDefault("kmeans.speed", 5.0)
	viper.SetDefault("kmeans.epsilon", 10.0)
	viper.SetDefault("kmeans.empty_policy", string(clustering.EmptyKeep))
	viper.SetDefault("kmeans.seed", 0)
	viper.SetDefault("kmeans.start_delay", "1s")

	// Scene defaults
	viper.SetDefault("scene.width", 1200.0)
	viper.SetDefault("scene.height", 800.0)
	viper.SetDefault("scene.depth", 1000.0)

	// Render defaults
	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.fov", 45.0)
	viper.SetDefault("render.camera_distance", 0.0)

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("server.control_token", "")

	// Export defaults
	viper.SetDefault("export.output", "kmeans.html")
	viper.SetDefault("export.max_frames", 100000)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stderr")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"KMEANS_DEBUG",
	})

	bindEnvKeys("server.port", []string{
		"KMEANS_PORT",
		"PORT",
	})

	bindEnvKeys("server.control_token", []string{
		"KMEANS_CONTROL_TOKEN",
	})

	bindEnvKeys("logging.level", []string{
		"KMEANS_LOG_LEVEL",
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Export.Output != "" {
		config.Export.Output = expandPath(config.Export.Output)
	}
	if config.Logging.FilePath != "" {
		config.Logging.FilePath = expandPath(config.Logging.FilePath)
	}

	if config.Render.CameraDistance <= 0 {
		config.Render.CameraDistance = config.Scene.Depth
	}

	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	if config.KMeans.StartDelay != "" {
		if _, err := time.ParseDuration(config.KMeans.StartDelay); err != nil {
			return fmt.Errorf("invalid duration for kmeans.start_delay: %s", config.KMeans.StartDelay)
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures the configuration can build a scene
func validateConfig(config *Config) error {
	var errors []string

	if config.KMeans.Clusters < 1 {
		errors = append(errors, fmt.Sprintf("kmeans.clusters must be at least 1, got %d", config.KMeans.Clusters))
	}
	if config.KMeans.Elements < 1 {
		errors = append(errors, fmt.Sprintf("kmeans.elements must be at least 1, got %d", config.KMeans.Elements))
	}
	if config.KMeans.Iterations < 0 {
		errors = append(errors, fmt.Sprintf("kmeans.iterations must not be negative, got %d", config.KMeans.Iterations))
	}
	if config.KMeans.Speed <= 0 {
		errors = append(errors, fmt.Sprintf("kmeans.speed must be positive, got %g", config.KMeans.Speed))
	}
	if config.KMeans.Epsilon <= 0 {
		errors = append(errors, fmt.Sprintf("kmeans.epsilon must be positive, got %g", config.KMeans.Epsilon))
	}
	if _, err := clustering.ParseEmptyPolicy(config.KMeans.EmptyPolicy); err != nil {
		errors = append(errors, err.Error())
	}

	if config.Scene.Width <= 0 || config.Scene.Height <= 0 || config.Scene.Depth <= 0 {
		errors = append(errors, "scene width, height and depth must be positive")
	}

	if config.Render.FPS < 1 || config.Render.FPS > 240 {
		errors = append(errors, fmt.Sprintf("render.fps must be between 1 and 240, got %d", config.Render.FPS))
	}
	if config.Render.FOV <= 0 || config.Render.FOV >= 180 {
		errors = append(errors, fmt.Sprintf("render.fov must be between 0 and 180 degrees, got %g", config.Render.FOV))
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("server.port out of range: %d", config.Server.Port))
	}

	if config.Export.MaxFrames < 1 {
		errors = append(errors, "export.max_frames must be at least 1")
	}

	if _, err := logger.ParseLevel(config.Logging.Level); err != nil {
		errors = append(errors, err.Error())
	}
	if config.Logging.Output == "file" && config.Logging.FilePath == "" {
		errors = append(errors, "logging.file_path is required when logging.output is file")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	if config.KMeans.Clusters > config.KMeans.Elements {
		logger.Warn("More clusters than elements, some clusters will stay empty",
			"clusters", config.KMeans.Clusters, "elements", config.KMeans.Elements)
	}

	return nil
}

// StartDelayFrames converts the start delay into frames at the configured FPS.
// An empty delay disables the automatic first step.
func (c *Config) StartDelayFrames() int {
	if c.KMeans.StartDelay == "" {
		return -1
	}
	d, err := time.ParseDuration(c.KMeans.StartDelay)
	if err != nil || d < 0 {
		return -1
	}
	return int(d.Seconds() * float64(c.Render.FPS))
}

// FrameInterval is the wall-clock time between two frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Render.FPS)
}

// SessionOptions builds the options of a clustering session.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Clusters:    c.KMeans.Clusters,
		Elements:    c.KMeans.Elements,
		Iterations:  c.KMeans.Iterations,
		Auto:        c.KMeans.Auto,
		Speed:       c.KMeans.Speed,
		Epsilon:     c.KMeans.Epsilon,
		Bounds:      core.Bounds{Width: c.Scene.Width, Height: c.Scene.Height, Depth: c.Scene.Depth},
		EmptyPolicy: clustering.EmptyPolicy(c.KMeans.EmptyPolicy),
		Seed:        c.KMeans.Seed,
		StartDelay:  c.StartDelayFrames(),
	}
}

// LoggerOptions builds the logger options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:    c.Logging.Level,
		Format:   c.Logging.Format,
		Output:   c.Logging.Output,
		FilePath: c.Logging.FilePath,
	}
}
