// Package config loads the typed Config struct this service runs from, a
// single env-binding loader shared by every command.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Host string
	Port string

	JWTSecret string

	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	ValhallaHost string
	ValhallaPort string

	LKHServiceURL string

	KakaoAPIKey string
	SeoulAPIKey string

	TrafficUpdateInterval time.Duration

	DistrictMapPath string
	ServiceLinkCSVPath string
}

// Load binds every environment variable this service recognizes, applying
// defaults through one shared loader.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		// Missing .env is not fatal; the process may run with real env vars set.
	}

	v := viper.New()
	v.AutomaticEnv()

	setDefault(v, "APP_ENV", "production")
	setDefault(v, "HOST", "0.0.0.0")
	setDefault(v, "PORT", "8080")
	setDefault(v, "JWT_SECRET", "")
	setDefault(v, "MYSQL_HOST", "localhost")
	setDefault(v, "MYSQL_PORT", "3306")
	setDefault(v, "MYSQL_USER", "root")
	setDefault(v, "MYSQL_PASSWORD", "")
	setDefault(v, "MYSQL_DATABASE", "dispatch")
	setDefault(v, "REDIS_HOST", "localhost")
	setDefault(v, "REDIS_PORT", "6379")
	setDefault(v, "REDIS_PASSWORD", "")
	setDefault(v, "VALHALLA_HOST", "localhost")
	setDefault(v, "VALHALLA_PORT", "8002")
	setDefault(v, "LKH_SERVICE_URL", "http://localhost:8003")
	setDefault(v, "KAKAO_API_KEY", "")
	setDefault(v, "SEOUL_API_KEY", "")
	setDefault(v, "TRAFFIC_UPDATE_INTERVAL", "300")
	setDefault(v, "DISTRICT_MAP_PATH", "config/district_map.yaml")
	setDefault(v, "SERVICE_LINK_CSV_PATH", "config/service_links.csv")

	intervalSecs, err := strconv.Atoi(v.GetString("TRAFFIC_UPDATE_INTERVAL"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRAFFIC_UPDATE_INTERVAL: %w", err)
	}

	return Config{
		Env:                   v.GetString("APP_ENV"),
		Host:                  v.GetString("HOST"),
		Port:                  v.GetString("PORT"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		MySQLHost:             v.GetString("MYSQL_HOST"),
		MySQLPort:             v.GetString("MYSQL_PORT"),
		MySQLUser:             v.GetString("MYSQL_USER"),
		MySQLPassword:         v.GetString("MYSQL_PASSWORD"),
		MySQLDatabase:         v.GetString("MYSQL_DATABASE"),
		RedisHost:             v.GetString("REDIS_HOST"),
		RedisPort:             v.GetString("REDIS_PORT"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		ValhallaHost:          v.GetString("VALHALLA_HOST"),
		ValhallaPort:          v.GetString("VALHALLA_PORT"),
		LKHServiceURL:         v.GetString("LKH_SERVICE_URL"),
		KakaoAPIKey:           v.GetString("KAKAO_API_KEY"),
		SeoulAPIKey:           v.GetString("SEOUL_API_KEY"),
		TrafficUpdateInterval: time.Duration(intervalSecs) * time.Second,
		DistrictMapPath:       v.GetString("DISTRICT_MAP_PATH"),
		ServiceLinkCSVPath:    v.GetString("SERVICE_LINK_CSV_PATH"),
	}, nil
}

func setDefault(v *viper.Viper, key, value string) {
	v.SetDefault(key, value)
	// viper.AutomaticEnv only binds keys it already knows about via
	// SetDefault/BindEnv; this makes every recognized env var observable.
	_ = v.BindEnv(key)
}
