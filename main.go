package main

import (
	"os"
	"runtime"

	"github.com/WowVeryLogin/vulkan_scene/src/app"
	"github.com/WowVeryLogin/vulkan_scene/src/config"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"go.uber.org/zap"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		logger.Error("Fatal", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	config.ParseFlags()
	if err := logger.Init("info", ""); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run()
}
