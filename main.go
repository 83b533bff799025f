package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/patcharaph/AI-Privacy-Guard/engine"
	"github.com/patcharaph/AI-Privacy-Guard/logger"
	"github.com/patcharaph/AI-Privacy-Guard/monitor"
	"github.com/patcharaph/AI-Privacy-Guard/pipeline"
	"github.com/patcharaph/AI-Privacy-Guard/server"
)

type configStruct struct {
	HTTPPort        int             `yaml:"httpPort"`
	MonitorPort     int             `yaml:"monitorPort"`
	Version         string          `yaml:"version"`
	MaxBatchSize    int             `yaml:"maxBatchSize"`
	RateLimitPerDay int             `yaml:"rateLimitPerDay"`
	Development     bool            `yaml:"development"`
	Engine          engine.Config   `yaml:"engine"`
	Pipeline        pipeline.Config `yaml:"pipeline"`
}

func loadConfig(path string) (configStruct, error) {
	config := configStruct{
		HTTPPort:        8000,
		MonitorPort:     9100,
		Version:         "0.1.0-beta",
		MaxBatchSize:    10,
		RateLimitPerDay: 5,
		Engine:          engine.DefaultConfig(),
		Pipeline:        pipeline.DefaultConfig(),
	}
	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return config, err
	}
	return config, nil
}

func main() {
	config, err := loadConfig("config.yaml")
	if err != nil {
		fmt.Println("Failed to load config file, using defaults:", err)
	}

	if config.Development {
		err = logger.InitDevelopment()
	} else {
		err = logger.InitProduction()
	}
	if err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return
	}
	defer logger.Sync()

	fmt.Println(strings.Repeat("#", 64))
	fmt.Println(" HTTP    Port:", config.HTTPPort)
	fmt.Println(" Monitor Port:", config.MonitorPort)
	fmt.Println(" Face model:", orDefault(config.Engine.Models.FaceModel, "(none)"))
	fmt.Println(" Face cascade:", orDefault(config.Engine.Models.FaceCascade, "(none)"))
	fmt.Println(" Plate model:", orDefault(config.Engine.Models.PlateModel, "(none)"))
	fmt.Println(" Plate cascade:", orDefault(config.Engine.Models.PlateCascade, "(none)"))
	fmt.Println(strings.Repeat("#", 64))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.StartMon(config.MonitorPort, ctx)

	eng := engine.New(config.Engine)
	defer eng.Close()
	orch := pipeline.New(config.Pipeline, eng)

	srv := server.New(server.Config{
		Port:            config.HTTPPort,
		Version:         config.Version,
		MaxBatchSize:    config.MaxBatchSize,
		RateLimitPerDay: config.RateLimitPerDay,
	}, eng, orch)

	if err := srv.Run(); err != nil {
		logger.Log().Error("HTTP server exited: " + err.Error())
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
