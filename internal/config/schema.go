package config

// Config holds wandr configuration.
// Stored at: ~/.wandr/config.yaml
type Config struct {
	LogLevel   string    `mapstructure:"log_level" yaml:"log_level"`     // debug|info|warn|error
	LogFormat  string    `mapstructure:"log_format" yaml:"log_format"`   // text|json
	OutputDir  string    `mapstructure:"output_dir" yaml:"output_dir"`   // Where run result JSON lands ("" = home results dir)
	Server     ServerCfg `mapstructure:"server" yaml:"server"`
	Fetch      FetchCfg  `mapstructure:"fetch" yaml:"fetch"`
	Frames     FramesCfg `mapstructure:"frames" yaml:"frames"`
	OpenAI     OpenAICfg `mapstructure:"openai" yaml:"openai"`
	Vision     VisionCfg `mapstructure:"vision" yaml:"vision"`
	Places     PlacesCfg `mapstructure:"places" yaml:"places"`
	Notion     NotionCfg `mapstructure:"notion" yaml:"notion"`
	Batch      BatchCfg  `mapstructure:"batch" yaml:"batch"`
	Categories []string  `mapstructure:"categories" yaml:"categories"` // Expected place categories passed to the analyzer
}

// ServerCfg configures the HTTP front door.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// FetchCfg configures the media downloader's external tools.
type FetchCfg struct {
	YtdlpPath      string `mapstructure:"ytdlp_path" yaml:"ytdlp_path"`
	FfmpegPath     string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FfprobePath    string `mapstructure:"ffprobe_path" yaml:"ffprobe_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// FramesCfg configures video frame sampling.
type FramesCfg struct {
	IntervalSeconds float64 `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	MaxFrames       int     `mapstructure:"max_frames" yaml:"max_frames"`
}

// OpenAICfg configures transcription and analysis models.
type OpenAICfg struct {
	APIKey          string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	TranscribeModel string `mapstructure:"transcribe_model" yaml:"transcribe_model"`
	AnalyzeModel    string `mapstructure:"analyze_model" yaml:"analyze_model"`
}

// VisionCfg configures the image text reader.
type VisionCfg struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
}

// PlacesCfg configures the geographic lookup.
type PlacesCfg struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
}

// NotionCfg configures the destination collection and work queue.
type NotionCfg struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	PlacesDBID string `mapstructure:"places_db_id" yaml:"places_db_id"`
	SourceDBID string `mapstructure:"source_db_id" yaml:"source_db_id"`
}

// BatchCfg configures queue processing.
type BatchCfg struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		OutputDir: "",
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Fetch: FetchCfg{
			YtdlpPath:      "yt-dlp",
			FfmpegPath:     "ffmpeg",
			FfprobePath:    "ffprobe",
			TimeoutSeconds: 180,
		},
		Frames: FramesCfg{
			IntervalSeconds: 3.0,
			MaxFrames:       8,
		},
		OpenAI: OpenAICfg{
			APIKey:          "${OPENAI_API_KEY}",
			TranscribeModel: "whisper-1",
			AnalyzeModel:    "gpt-4o-mini",
		},
		Vision: VisionCfg{
			APIKey: "${VISION_API_KEY}",
		},
		Places: PlacesCfg{
			APIKey: "${GOOGLE_MAPS_API_KEY}",
		},
		Notion: NotionCfg{
			APIKey: "${NOTION_API_KEY}",
		},
		Batch: BatchCfg{
			Workers: 1,
		},
	}
}

// Addr joins host and port into a listen address.
func (s ServerCfg) Addr() string {
	return s.Host + ":" + s.Port
}

// PublishConfigured reports whether runs can publish to the
// destination collection.
func (c *Config) PublishConfigured() bool {
	return c.Notion.APIKey != "" && c.Notion.PlacesDBID != ""
}

// QueueConfigured reports whether batch runs have a source queue.
func (c *Config) QueueConfigured() bool {
	return c.Notion.APIKey != "" && c.Notion.SourceDBID != ""
}
