package config

// Config holds the full runtime configuration for katalog.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Gemini  GeminiConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type CatalogConfig struct {
	BaseURL  string
	MaxStock int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8600,
		},
		Catalog: CatalogConfig{
			BaseURL:  "https://fakestoreapi.com",
			MaxStock: 5,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/katalog/config.json, applying KATALOG_* environment
// variable overrides on top. Missing values fall back to compiled defaults.
//
// The Gemini API key is env-only (KATALOG_GEMINI_API_KEY); the server
// starts without it, but the chat endpoint reports upstream failures
// until it is set.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
