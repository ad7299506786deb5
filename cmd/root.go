package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "resume-screener"
	envPrefix = "RESUME_SCREENER"
)

type Config struct {
	Oracle *OracleConfig `mapstructure:"oracle"`
	Server *ServerConfig `mapstructure:"server"`
}

type OracleConfig struct {
	Provider     string   `mapstructure:"provider"`
	Model        string   `mapstructure:"model"`
	Temperature  *float32 `mapstructure:"temperature"`
	MaxLogLength int      `mapstructure:"max-log-length"`
	APIKeyEnv    string   `mapstructure:"api-key-env"`
	APIKeyFile   string   `mapstructure:"api-key-file"`
	BaseURL      string   `mapstructure:"base-url"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int64  `mapstructure:"max-upload-mb"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener ranks resumes against a job description with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "oracle provider: groq or gemini")
	rootCmd.PersistentFlags().String("model", "", "oracle model name (provider default when empty)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("oracle.provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("oracle.model", rootCmd.PersistentFlags().Lookup("model"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("oracle.provider", providerGroq)
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.max-log-length", 200)
	v.SetDefault("oracle.api-key-env", "")
	v.SetDefault("oracle.api-key-file", "")
	v.SetDefault("oracle.base-url", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max-upload-mb", 20)
}

func initConfig() {
	// A missing .env is fine: the credential may already be exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	// No default exists for the temperature, so its env var must be bound explicitly.
	viper.BindEnv("oracle.temperature")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicitly requested config must parse.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
