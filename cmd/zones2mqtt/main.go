package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zones2mqtt/internal/cache"
	"zones2mqtt/internal/config"
	"zones2mqtt/internal/hass"
	"zones2mqtt/internal/homeassistant"
	"zones2mqtt/internal/log"
	"zones2mqtt/internal/mqtt"
	"zones2mqtt/internal/util"
	"zones2mqtt/internal/vacuum"
)

func main() {
	configFile := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	logger := log.NewLogger(cfg.Log)

	// Create Home Assistant API client
	haClient := hass.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, logger)

	// Resolve the segment clean platform from cache if available
	platform := cfg.Vacuum.Platform
	if platform == "" && cfg.Cache {
		cacheData, err := cache.Load()
		if err != nil {
			logger.Warning("Failed to load cache: %v", err)
		} else if cacheData != nil && cacheData.Platform != "" {
			platform = cacheData.Platform
			logger.Info("Loaded platform %s from cache", platform)
		}
	}

	// Create coordinator
	coordinator := vacuum.NewCoordinator(vacuum.Config{
		EntityID:     cfg.Vacuum.EntityID,
		EntityPrefix: cfg.Vacuum.EntityPrefix,
		Platform:     platform,
		StartDelay:   time.Duration(cfg.Vacuum.StartDelay * float64(time.Second)),
		TestMode:     cfg.Vacuum.TestMode,
	}, haClient, logger)

	// Create zones
	zones := make([]*vacuum.Zone, 0, len(cfg.Zones))
	for _, zc := range cfg.Zones {
		mode, ok := vacuum.ParseCleaningMode(zc.CleaningMode)
		if !ok {
			logger.Warning("Zone %s: unknown cleaning_mode %q, using %s", zc.ID, zc.CleaningMode, mode)
		}
		name := zc.Name
		if name == "" {
			name = zc.ID
		}
		zones = append(zones, vacuum.NewZone(util.Slugify(zc.ID), name, zc.Room, mode, coordinator, logger))
	}

	// Create MQTT client
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, zones, logger)
	for _, zone := range zones {
		zone.SetPublisher(mqttClient)
	}

	// Create pending indicator
	pending := vacuum.NewPendingSensor(coordinator, mqttClient)
	pending.Attach()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Connect to MQTT broker
	if err := mqttClient.Connect(); err != nil {
		logger.Error("Failed to connect to MQTT broker: %v", err)
		os.Exit(1)
	}

	// Publish Home Assistant discovery if enabled
	if cfg.HomeAssistant.Discovery {
		ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, zones, cfg.Vacuum.EntityID, logger)
		ha.Start()
	}

	logger.Info("zones2mqtt running with %d zone(s) for %s", len(zones), cfg.Vacuum.EntityID)

	// Wait for termination signal
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	pending.Detach()
	mqttClient.Close()

	// Save resolved platform for the next start
	if cfg.Cache {
		if resolved := coordinator.ResolvedPlatform(); resolved != "" {
			if err := cache.Save(&cache.Data{Platform: resolved}); err != nil {
				logger.Warning("Failed to save cache: %v", err)
			}
		}
	}
}
