package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Vacuum        VacuumConfig        `yaml:"vacuum"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Zones         []ZoneConfig        `yaml:"zones"`
	Log           string              `yaml:"log"`
	Cache         bool                `yaml:"cache"`
}

type VacuumConfig struct {
	EntityID     string  `yaml:"entity_id"`
	EntityPrefix string  `yaml:"entity_prefix"`
	Platform     string  `yaml:"platform"`
	StartDelay   float64 `yaml:"start_delay"`
	TestMode     bool    `yaml:"test_mode"`
}

type MQTTConfig struct {
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	Username  string `yaml:"username"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
}

type ZoneConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Room         RoomList `yaml:"room"`
	CleaningMode string   `yaml:"cleaning_mode"`
}

// RoomList accepts either a single room id or a list of room ids in YAML.
type RoomList []int

func (r *RoomList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single int
	if err := unmarshal(&single); err == nil {
		*r = RoomList{single}
		return nil
	}

	var list []int
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("room must be a room id or a list of room ids: %v", err)
	}
	*r = RoomList(list)
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Set default values
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "zones2mqtt"
	}
	if config.MQTT.Host == "" {
		config.MQTT.Host = "localhost"
	}
	if config.MQTT.Port == 0 {
		config.MQTT.Port = 1883
	}
	if config.MQTT.Keepalive == 0 {
		config.MQTT.Keepalive = 60
	}
	if config.MQTT.Prefix == "" {
		config.MQTT.Prefix = "zones2mqtt"
	}
	if config.HomeAssistant.Prefix == "" {
		config.HomeAssistant.Prefix = "homeassistant"
	}
	if config.HomeAssistant.URL == "" {
		config.HomeAssistant.URL = "http://localhost:8123"
	}
	if config.Log == "" {
		config.Log = "info"
	}
	if config.Vacuum.EntityPrefix == "" {
		config.Vacuum.EntityPrefix = strings.TrimPrefix(config.Vacuum.EntityID, "vacuum.")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Vacuum.EntityID == "" {
		return fmt.Errorf("vacuum.entity_id is required")
	}
	if c.Vacuum.StartDelay < 0 {
		return fmt.Errorf("vacuum.start_delay must not be negative")
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}

	seen := make(map[string]bool)
	for i, zone := range c.Zones {
		if zone.ID == "" {
			return fmt.Errorf("zone %d: id is required", i)
		}
		if seen[zone.ID] {
			return fmt.Errorf("zone %s: duplicate id", zone.ID)
		}
		seen[zone.ID] = true
		if len(zone.Room) == 0 {
			return fmt.Errorf("zone %s: room is required", zone.ID)
		}
	}

	return nil
}
