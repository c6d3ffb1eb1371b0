package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	confFile  = "config.yaml"
	envPrefix = "cosette"
)

type config struct {
	Address string `yaml:"bind" envconfig:"BIND"`
	URLRoot string `yaml:"url_root" envconfig:"URL_ROOT"`

	Redis struct {
		Host string `yaml:"host"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	LastFMAPIKey  string `yaml:"lastfm_api_key" envconfig:"LASTFM_API_KEY"`
	YouTubeAPIKey string `yaml:"youtube_api_key" envconfig:"YOUTUBE_API_KEY"`

	// Tags are the genre names known up front. Queries matching one of them
	// are searched as a tag instead of an artist.
	Tags []string `yaml:"tags" envconfig:"TAGS"`

	InspectQueue int `yaml:"inspect_queue" envconfig:"INSPECT_QUEUE"`
}

func defaultConfig() config {
	var conf config
	conf.Address = ":8080"
	conf.URLRoot = "/"
	conf.InspectQueue = 64
	return conf
}

func (conf *config) Validate() (errs []error) {
	if conf.Address == "" {
		errs = append(errs, fmt.Errorf("config: `bind` is required"))
	}
	if conf.LastFMAPIKey == "" {
		errs = append(errs, fmt.Errorf("config: `lastfm_api_key` is required"))
	}
	if conf.YouTubeAPIKey == "" {
		errs = append(errs, fmt.Errorf("config: `youtube_api_key` is required"))
	}
	if conf.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("config: `redis.db` must not be negative"))
	}
	if conf.InspectQueue <= 0 {
		errs = append(errs, fmt.Errorf("config: `inspect_queue` must be positive"))
	}
	return
}

// LoadConfig reads the configuration file, if any, and applies overrides
// from the environment and a .env file in the working directory.
func LoadConfig(filename string) (*config, error) {
	conf := defaultConfig()

	fd, err := os.Open(filename)
	if err == nil {
		defer fd.Close()
		d := yaml.NewDecoder(fd)
		d.KnownFields(true)
		if err := d.Decode(&conf); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}
	if err := envconfig.Process(envPrefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
