package tributary

import (
	"github.com/spf13/viper"
)

func loadConfig() {
	viper.SetConfigName("tributaryrc")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.tributary")

	setupDefaults()

	viper.ReadInConfig()

	viper.SetEnvPrefix("tributary")
	viper.AutomaticEnv()
}

func setupDefaults() {
	defaultSettings := map[string]interface{}{
		"catalog_location": ".",
		"event_location":   ".",
		"output_location":  "./output",
		"max_concurrency":  8, // Maximum number of concurrently written partition files
		"verbose":          false,
	}
	for key, value := range defaultSettings {
		viper.SetDefault(key, value)
	}

	aliases := map[string]string{
		"verbose":         "v",
		"output_location": "o",
	}
	for key, alias := range aliases {
		viper.RegisterAlias(alias, key)
	}
}
