package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagValidation = flag.Bool("validation", false, "Enable Vulkan validation layers")
	flagDataPath   = flag.String("data-path", "", "Per-object data path: uniform or push")
)

// ParseFlags parses command-line flags. Call it first thing in main.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the -config flag value.
func ConfigPath() string {
	return *flagConfig
}

func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagValidation {
		cfg.Render.Validation = true
	}
	if *flagDataPath != "" {
		cfg.Render.DataPath = *flagDataPath
	}
}
