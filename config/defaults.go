package config

import "time"

// Scene composition defaults. These are fixed for the lifetime of the process.
const (
	// DefaultTopic seeds scenes when the supplied topic is blank.
	DefaultTopic = "AI Slide Narration"

	// MinSceneDuration and MaxSceneDuration bound a scene's duration in seconds (inclusive).
	MinSceneDuration = 4
	MaxSceneDuration = 20

	// DefaultSceneDuration is the duration given to every seeded scene.
	DefaultSceneDuration = 6

	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30

	// MaxVideoBytes caps the decoded artifact accepted by the publish endpoint.
	MaxVideoBytes int64 = 256 << 20

	DefaultPrivacy = "private"
)

// Palette is the set of background gradients a seeded scene picks from.
var Palette = [][2]string{
	{"#0f2027", "#2c5364"},
	{"#ff512f", "#dd2476"},
	{"#1d2b64", "#f8cdda"},
	{"#00b09b", "#96c93d"},
	{"#8e2de2", "#4a00e0"},
	{"#f7971e", "#ffd200"},
	{"#373b44", "#4286f4"},
	{"#11998e", "#38ef7d"},
}

// NarrativeRoles is the fixed scene sequence produced by seeding.
var NarrativeRoles = []string{
	"Hook",
	"Overview",
	"Asset Generation",
	"Assembly",
	"Deployment",
	"Call-to-Action",
}

const (
	defaultServerPort        = "8080"
	defaultPublishRateLimit  = 10
	defaultFFmpegPath        = "ffmpeg"
	defaultRenderWorkDir     = "./renders"
	defaultRenderTimeout     = 10 * time.Minute
	defaultPublishEndpoint   = "http://localhost:8080/api/publish"
	defaultPublishTimeout    = 15 * time.Minute
	defaultCategoryID        = "28"
	defaultLanguage          = "en"
	defaultDatabaseURL       = "sqlite3:./data.db"
	defaultArtifactTTL       = 24 * time.Hour
	defaultRetentionSchedule = "0 */30 * * * *"
	defaultHTTPClientTimeout = 60 * time.Second
	defaultMaxIdleConns      = 100
	defaultMaxConnsPerHost   = 20
	defaultLogDirectory      = "./logs"
	defaultLogOutputFile     = "app.log"
	defaultLogErrorFile      = "app.error.log"
	defaultLogLevel          = "info"
)
