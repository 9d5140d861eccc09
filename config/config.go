package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort       string `yaml:"server.port"`
	PublishRateLimit int    `yaml:"server.publish_rate_limit"` // publish requests per minute per client

	// Render configuration
	FFmpegPath       string        `yaml:"render.ffmpeg_path"`
	RenderWorkDir    string        `yaml:"render.work_dir"`
	RenderWidth      int           `yaml:"render.width"`
	RenderHeight     int           `yaml:"render.height"`
	RenderFPS        int           `yaml:"render.fps"`
	FontFile         string        `yaml:"render.font_file"`
	AudioDir         string        `yaml:"render.audio_dir"` // background audio paths resolve inside this directory; empty disables them
	RenderTimeout    time.Duration `yaml:"-"`
	RenderTimeoutStr string        `yaml:"render.timeout"`

	// Publish configuration
	PublishEndpoint   string        `yaml:"publish.endpoint"`
	MaxVideoBytes     int64         `yaml:"publish.max_video_bytes"`
	DefaultPrivacy    string        `yaml:"publish.default_privacy"`
	PublishTimeout    time.Duration `yaml:"-"`
	PublishTimeoutStr string        `yaml:"publish.timeout"`

	// YouTube upload configuration
	YouTubeCategoryID        string `yaml:"youtube.category_id"`
	YouTubeDefaultLanguage   string `yaml:"youtube.default_language"`
	YouTubeMadeForKids       bool   `yaml:"youtube.made_for_kids"`
	YouTubeNotifySubscribers bool   `yaml:"youtube.notify_subscribers"`

	// Database configuration
	DatabaseURL string `yaml:"database.url"`

	// Artifact retention
	ArtifactTTL       time.Duration `yaml:"-"`
	ArtifactTTLStr    string        `yaml:"retention.artifact_ttl"`
	RetentionSchedule string        `yaml:"retention.schedule"`

	// Performance tuning
	HTTPClientTimeout    time.Duration `yaml:"-"`
	HTTPClientTimeoutStr string        `yaml:"performance.http_client_timeout"`
	MaxIdleConns         int           `yaml:"performance.max_idle_conns"`
	MaxConnsPerHost      int           `yaml:"performance.max_conns_per_host"`

	// Logging configuration
	LogDirectory  string `yaml:"logging.dir"`
	LogOutputFile string `yaml:"logging.output_file"`
	LogErrorFile  string `yaml:"logging.error_file"`
	LogLevel      string `yaml:"logging.level"`
}

type serverSection struct {
	Port             string `yaml:"port"`
	PublishRateLimit int    `yaml:"publish_rate_limit"`
}

type renderSection struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	WorkDir    string `yaml:"work_dir"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FPS        int    `yaml:"fps"`
	FontFile   string `yaml:"font_file"`
	AudioDir   string `yaml:"audio_dir"`
	Timeout    string `yaml:"timeout"`
}

type publishSection struct {
	Endpoint       string `yaml:"endpoint"`
	MaxVideoBytes  int64  `yaml:"max_video_bytes"`
	DefaultPrivacy string `yaml:"default_privacy"`
	Timeout        string `yaml:"timeout"`
}

type youtubeSection struct {
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
}

type databaseSection struct {
	URL string `yaml:"url"`
}

type retentionSection struct {
	ArtifactTTL string `yaml:"artifact_ttl"`
	Schedule    string `yaml:"schedule"`
}

type performanceSection struct {
	HTTPClientTimeout string `yaml:"http_client_timeout"`
	MaxIdleConns      int    `yaml:"max_idle_conns"`
	MaxConnsPerHost   int    `yaml:"max_conns_per_host"`
}

type loggingSection struct {
	Directory  string `yaml:"dir"`
	OutputFile string `yaml:"output_file"`
	ErrorFile  string `yaml:"error_file"`
	Level      string `yaml:"level"`
}

// configFile represents the YAML structure
type configFile struct {
	Server      serverSection      `yaml:"server"`
	Render      renderSection      `yaml:"render"`
	Publish     publishSection     `yaml:"publish"`
	YouTube     youtubeSection     `yaml:"youtube"`
	Database    databaseSection    `yaml:"database"`
	Retention   retentionSection   `yaml:"retention"`
	Performance performanceSection `yaml:"performance"`
	Logging     loggingSection     `yaml:"logging"`
}

// Manager handles configuration loading and saving
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	if configPath == "" {
		configPath = "config.yaml"
	}
	return &Manager{
		configPath: configPath,
	}
}

// Load reads configuration from YAML file
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		// If file doesn't exist, create default config
		if os.IsNotExist(err) {
			return m.createDefaultConfig()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	m.config = cfg
	return cfg, nil
}

// Parse decodes YAML configuration and fills every unset field with its default.
func Parse(data []byte) (*Config, error) {
	var cfgFile configFile
	if err := yaml.Unmarshal(data, &cfgFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := &Config{
		ServerPort:               cfgFile.Server.Port,
		PublishRateLimit:         cfgFile.Server.PublishRateLimit,
		FFmpegPath:               cfgFile.Render.FFmpegPath,
		RenderWorkDir:            cfgFile.Render.WorkDir,
		RenderWidth:              cfgFile.Render.Width,
		RenderHeight:             cfgFile.Render.Height,
		RenderFPS:                cfgFile.Render.FPS,
		FontFile:                 cfgFile.Render.FontFile,
		AudioDir:                 cfgFile.Render.AudioDir,
		RenderTimeoutStr:         cfgFile.Render.Timeout,
		PublishEndpoint:          cfgFile.Publish.Endpoint,
		MaxVideoBytes:            cfgFile.Publish.MaxVideoBytes,
		DefaultPrivacy:           cfgFile.Publish.DefaultPrivacy,
		PublishTimeoutStr:        cfgFile.Publish.Timeout,
		YouTubeCategoryID:        cfgFile.YouTube.CategoryID,
		YouTubeDefaultLanguage:   cfgFile.YouTube.DefaultLanguage,
		YouTubeMadeForKids:       cfgFile.YouTube.MadeForKids,
		YouTubeNotifySubscribers: cfgFile.YouTube.NotifySubscribers,
		DatabaseURL:              cfgFile.Database.URL,
		ArtifactTTLStr:           cfgFile.Retention.ArtifactTTL,
		RetentionSchedule:        cfgFile.Retention.Schedule,
		HTTPClientTimeoutStr:     cfgFile.Performance.HTTPClientTimeout,
		MaxIdleConns:             cfgFile.Performance.MaxIdleConns,
		MaxConnsPerHost:          cfgFile.Performance.MaxConnsPerHost,
		LogDirectory:             cfgFile.Logging.Directory,
		LogOutputFile:            cfgFile.Logging.OutputFile,
		LogErrorFile:             cfgFile.Logging.ErrorFile,
		LogLevel:                 cfgFile.Logging.Level,
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = defaultServerPort
	}
	if cfg.PublishRateLimit <= 0 {
		cfg.PublishRateLimit = defaultPublishRateLimit
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = defaultFFmpegPath
	}
	if cfg.RenderWorkDir == "" {
		cfg.RenderWorkDir = defaultRenderWorkDir
	}
	if cfg.RenderWidth <= 0 {
		cfg.RenderWidth = DefaultWidth
	}
	if cfg.RenderHeight <= 0 {
		cfg.RenderHeight = DefaultHeight
	}
	if cfg.RenderFPS <= 0 {
		cfg.RenderFPS = DefaultFPS
	}
	if cfg.PublishEndpoint == "" {
		cfg.PublishEndpoint = defaultPublishEndpoint
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = MaxVideoBytes
	}
	if cfg.DefaultPrivacy == "" {
		cfg.DefaultPrivacy = DefaultPrivacy
	}
	if cfg.YouTubeCategoryID == "" {
		cfg.YouTubeCategoryID = defaultCategoryID
	}
	if cfg.YouTubeDefaultLanguage == "" {
		cfg.YouTubeDefaultLanguage = defaultLanguage
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = defaultRetentionSchedule
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if cfg.LogDirectory == "" {
		cfg.LogDirectory = defaultLogDirectory
	}
	if cfg.LogOutputFile == "" {
		cfg.LogOutputFile = defaultLogOutputFile
	}
	if cfg.LogErrorFile == "" {
		cfg.LogErrorFile = defaultLogErrorFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	cfg.RenderTimeout = parseDuration(cfg.RenderTimeoutStr, cfg.RenderTimeout, defaultRenderTimeout)
	cfg.PublishTimeout = parseDuration(cfg.PublishTimeoutStr, cfg.PublishTimeout, defaultPublishTimeout)
	cfg.ArtifactTTL = parseDuration(cfg.ArtifactTTLStr, cfg.ArtifactTTL, defaultArtifactTTL)
	cfg.HTTPClientTimeout = parseDuration(cfg.HTTPClientTimeoutStr, cfg.HTTPClientTimeout, defaultHTTPClientTimeout)
}

// parseDuration prefers the configured string, then an already-set value, then the fallback.
func parseDuration(raw string, current, fallback time.Duration) time.Duration {
	if raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
		return fallback
	}
	if current > 0 {
		return current
	}
	return fallback
}

// Save writes configuration to YAML file
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveUnlocked(cfg)
}

// saveUnlocked persists config assuming caller already holds the write lock.
func (m *Manager) saveUnlocked(cfg *Config) error {
	cfgFile := configFile{
		Server: serverSection{
			Port:             cfg.ServerPort,
			PublishRateLimit: cfg.PublishRateLimit,
		},
		Render: renderSection{
			FFmpegPath: cfg.FFmpegPath,
			WorkDir:    cfg.RenderWorkDir,
			Width:      cfg.RenderWidth,
			Height:     cfg.RenderHeight,
			FPS:        cfg.RenderFPS,
			FontFile:   cfg.FontFile,
			AudioDir:   cfg.AudioDir,
			Timeout:    cfg.RenderTimeout.String(),
		},
		Publish: publishSection{
			Endpoint:       cfg.PublishEndpoint,
			MaxVideoBytes:  cfg.MaxVideoBytes,
			DefaultPrivacy: cfg.DefaultPrivacy,
			Timeout:        cfg.PublishTimeout.String(),
		},
		YouTube: youtubeSection{
			CategoryID:        cfg.YouTubeCategoryID,
			DefaultLanguage:   cfg.YouTubeDefaultLanguage,
			MadeForKids:       cfg.YouTubeMadeForKids,
			NotifySubscribers: cfg.YouTubeNotifySubscribers,
		},
		Database: databaseSection{
			URL: cfg.DatabaseURL,
		},
		Retention: retentionSection{
			ArtifactTTL: cfg.ArtifactTTL.String(),
			Schedule:    cfg.RetentionSchedule,
		},
		Performance: performanceSection{
			HTTPClientTimeout: cfg.HTTPClientTimeout.String(),
			MaxIdleConns:      cfg.MaxIdleConns,
			MaxConnsPerHost:   cfg.MaxConnsPerHost,
		},
		Logging: loggingSection{
			Directory:  cfg.LogDirectory,
			OutputFile: cfg.LogOutputFile,
			ErrorFile:  cfg.LogErrorFile,
			Level:      cfg.LogLevel,
		},
	}

	data, err := yaml.Marshal(&cfgFile)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.config = cfg
	return nil
}

// Get returns the current configuration (thread-safe)
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Reload reloads configuration from file
func (m *Manager) Reload() (*Config, error) {
	return m.Load()
}

// createDefaultConfig creates a default configuration file
func (m *Manager) createDefaultConfig() (*Config, error) {
	cfg := Default()

	if err := m.saveUnlocked(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Global config manager instance
var globalManager *Manager

// Load loads configuration from the given path, or from config.yaml / config/config.yaml when empty.
func Load(path string) (*Config, error) {
	globalManager = NewManager(resolvePath(path))
	return globalManager.Load()
}

// GetManager returns the global config manager
func GetManager() *Manager {
	if globalManager == nil {
		globalManager = NewManager(resolvePath(""))
	}
	return globalManager
}

func resolvePath(path string) string {
	if path != "" {
		return path
	}
	// Check if config/config.yaml exists, if so use it as default
	if _, err := os.Stat("config/config.yaml"); err == nil {
		return "config/config.yaml"
	}
	return "config.yaml"
}
