package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds the tuning knobs of the progression engine.
type GameConfig struct {
	AutosaveInterval    time.Duration `mapstructure:"autosave_interval"`
	OfflineCapHours     float64       `mapstructure:"offline_cap_hours"`
	OfflineCoinsPerHour float64       `mapstructure:"offline_coins_per_hour"`
	MarketCycle         time.Duration `mapstructure:"market_cycle"`
	MarketSlots         int           `mapstructure:"market_slots"`
	GardenGrowthPerHour float64       `mapstructure:"garden_growth_per_hour"`
	GardenMaxGrowth     float64       `mapstructure:"garden_max_growth"`
	WaterPricePerHour   int64         `mapstructure:"water_price_per_hour"`
}

// DefaultGame returns the tuning used when no config file overrides it.
func DefaultGame() GameConfig {
	return GameConfig{
		AutosaveInterval:    30 * time.Second,
		OfflineCapHours:     24,
		OfflineCoinsPerHour: 60,
		MarketCycle:         4 * time.Hour,
		MarketSlots:         3,
		GardenGrowthPerHour: 4,
		GardenMaxGrowth:     100,
		WaterPricePerHour:   50,
	}
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("game.autosave_interval", "30s")
	viper.SetDefault("game.offline_cap_hours", 24)
	viper.SetDefault("game.offline_coins_per_hour", 60)
	viper.SetDefault("game.market_cycle", "4h")
	viper.SetDefault("game.market_slots", 3)
	viper.SetDefault("game.garden_growth_per_hour", 4)
	viper.SetDefault("game.garden_max_growth", 100)
	viper.SetDefault("game.water_price_per_hour", 50)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
