package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	StatusURL      string   `yaml:"statusUrl"`
	GlobalMetaURL  string   `yaml:"globalMetaUrl"`
	ThreddsURL     string   `yaml:"threddsUrl"`
	Variables      []string `yaml:"variables"`
	OxygenRequired bool     `yaml:"oxygenRequired"`
	CacheFile      string   `yaml:"cacheFile"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
