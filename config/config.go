// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"` // Go duration, e.g. "24h"
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type DispatchConfig struct {
	// BatchSize caps how many ready orders one auto-assign request pulls.
	BatchSize int `mapstructure:"batchSize"`
}

type SeedConfig struct {
	// DemoData loads a demo store with orders and riders on startup. Meant
	// for local development only.
	DemoData bool `mapstructure:"demoData"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// LoadConfig reads config.yaml from the given path and overlays environment
// variables. A missing file is fine; env vars alone can carry a deployment.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("dispatch.batchSize", "DISPATCH_BATCH_SIZE")
	viper.BindEnv("seed.demoData", "SEED_DEMO_DATA")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.dbName", "darkstore_dispatch")
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("dispatch.batchSize", 20)

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
