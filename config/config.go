package config

import (
	logger "github.com/Bparsons0904/goLogger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`

	SchedulerEnabled           bool `mapstructure:"SCHEDULER_ENABLED"`
	SweepIntervalMinutes       int  `mapstructure:"SWEEP_INTERVAL_MINUTES"`
	SweepConcurrency           int  `mapstructure:"SWEEP_CONCURRENCY"`
	ConfigCacheTTLMinutes      int  `mapstructure:"CONFIG_CACHE_TTL_MINUTES"`
	EarlyArrivalThresholdHours int  `mapstructure:"EARLY_ARRIVAL_THRESHOLD_HOURS"`
	LockTimeoutSeconds         int  `mapstructure:"LOCK_TIMEOUT_SECONDS"`
}

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
		"CORS_ALLOW_ORIGINS", "JWT_SECRET",
		"SCHEDULER_ENABLED", "SWEEP_INTERVAL_MINUTES", "SWEEP_CONCURRENCY",
		"CONFIG_CACHE_TTL_MINUTES", "EARLY_ARRIVAL_THRESHOLD_HOURS", "LOCK_TIMEOUT_SECONDS",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	err := validateConfig(config, log)
	if err != nil {
		return Config{}, err
	}
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func setDefaults() {
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 15)
	viper.SetDefault("SWEEP_CONCURRENCY", 8)
	viper.SetDefault("CONFIG_CACHE_TTL_MINUTES", 10)
	viper.SetDefault("EARLY_ARRIVAL_THRESHOLD_HOURS", 4)
	viper.SetDefault("LOCK_TIMEOUT_SECONDS", 10)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.SweepIntervalMinutes <= 0 {
		return log.Error(
			"Fatal error: invalid sweep interval",
			"minutes", config.SweepIntervalMinutes,
		)
	}

	if config.SweepConcurrency <= 0 {
		return log.Error(
			"Fatal error: invalid sweep concurrency",
			"workers", config.SweepConcurrency,
		)
	}

	ConfigInstance = config
	return nil
}
