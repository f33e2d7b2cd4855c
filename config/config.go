package config

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath       string `json:"selfpath"`
	Port           string `json:"port"`
	Blocksize      int    `json:"blocksize"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	TickMillis     int    `json:"tickms"`
	StartingLength int    `json:"startinglength"`
	StartX         int    `json:"startx"`
	StartY         int    `json:"starty"`
	FoodName       string `json:"foodname"`
	Seed           int64  `json:"seed"` // 0 means seed from the clock
}

var (
	instance *AppConfig
	once     sync.Once
)

func defaults() *AppConfig {
	return &AppConfig{
		SelfPath:       "127.0.0.1:38870", // Default value
		Port:           "38870",           // Default value
		Blocksize:      20,
		Width:          40,
		Height:         30,
		TickMillis:     150,
		StartingLength: 7,
		StartX:         11,
		StartY:         2,
		FoodName:       "food",
	}
}

// LoadConfig initializes and returns the instance of AppConfig.
// Variables from an optional .env file and the environment override the
// file: SNAKE_PORT and SNAKE_SELFPATH.
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		instance = load(filePath)
	})
	return instance
}

func load(filePath string) *AppConfig {
	cfg := defaults()
	// Load the config file if it exists, otherwise create one
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			glog.Warningf("could not write default config %s: %v", filePath, err)
		}
	} else if err := loadConfig(filePath, cfg); err != nil {
		glog.Fatalf("reading config %s: %v", filePath, err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		glog.Warningf("reading .env: %v", err)
	}
	if v := os.Getenv("SNAKE_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SNAKE_SELFPATH"); v != "" {
		cfg.SelfPath = v
	}
	return cfg
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

func current() *AppConfig {
	if instance == nil {
		return defaults()
	}
	return instance
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := current()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "width":
		return cfg.Width
	case "height":
		return cfg.Height
	case "tickms":
		return cfg.TickMillis
	case "startinglength":
		return cfg.StartingLength
	case "startx":
		return cfg.StartX
	case "starty":
		return cfg.StartY
	case "foodname":
		return cfg.FoodName
	case "seed":
		return cfg.Seed
	default:
		return ""
	}
}
