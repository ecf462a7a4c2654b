package store

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/diary/pkg/api"
)

// Config is the resolved configuration of the diary.
type Config interface {
	// BasePath is the directory holding the credential store.
	BasePath() string
	APIURL() string
	WeekStart() string
	Lang() string
	HTTPTimeout() time.Duration
}

// Config keys. Each can be set in .diary.yaml or as DIARY_<KEY>.
const (
	KeyPath        = "path"
	KeyAPIURL      = "api_url"
	KeyWeekStart   = "week_start"
	KeyLang        = "lang"
	KeyHTTPTimeout = "http_timeout"
	KeyVerbose     = "verbose"
)

func LoadConfig() (Config, error) {
	viper.SetDefault(KeyPath, "~/.diary.db")
	viper.SetDefault(KeyAPIURL, api.DefaultBaseURL)
	viper.SetDefault(KeyWeekStart, "sunday")
	viper.SetDefault(KeyLang, "ko")
	viper.SetDefault(KeyHTTPTimeout, time.Duration(0))
	viper.SetConfigName(".diary") // .yaml is implicit
	viper.SetEnvPrefix("DIARY")
	viper.AutomaticEnv()

	if override := os.Getenv("DIARY_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}

	viper.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(viper.GetString(KeyPath))
	if err != nil {
		return nil, fmt.Errorf("store: expand %s: %w", KeyPath, err)
	}

	return &fileConfig{
		Path:     path,
		URL:      viper.GetString(KeyAPIURL),
		Week:     viper.GetString(KeyWeekStart),
		Language: viper.GetString(KeyLang),
		Timeout:  viper.GetDuration(KeyHTTPTimeout),
	}, nil
}

type fileConfig struct {
	Path     string        `json:"path"`
	URL      string        `json:"api_url"`
	Week     string        `json:"week_start"`
	Language string        `json:"lang"`
	Timeout  time.Duration `json:"http_timeout"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) APIURL() string {
	return f.URL
}

func (f *fileConfig) WeekStart() string {
	return f.Week
}

func (f *fileConfig) Lang() string {
	return f.Language
}

func (f *fileConfig) HTTPTimeout() time.Duration {
	return f.Timeout
}
