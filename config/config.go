package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ObjectStorage struct {
	Endpoint  string `yaml:"Endpoint"`
	AccessKey string `yaml:"AccessKey"`
	SecretKey string `yaml:"SecretKey"`
	Bucket    string `yaml:"Bucket"`
	Region    string `yaml:"Region"`
}

type Auth struct {
	SessionTTL time.Duration `yaml:"SessionTTL"`
	// BootstrapPassword is assigned to the seeded default admins on a fresh
	// instance. Rotate it before any non-test deployment.
	BootstrapPassword string   `yaml:"BootstrapPassword"`
	DefaultAdmins     []string `yaml:"DefaultAdmins"`
}

type SMTP struct {
	Addr string `yaml:"Addr"`
	From string `yaml:"From"`
}

type Config struct {
	Listen        string        `yaml:"Listen"`
	DataDir       string        `yaml:"DataDir"`
	LogFile       string        `yaml:"LogFile"`
	ObjectStorage ObjectStorage `yaml:"ObjectStorage"`
	Auth          Auth          `yaml:"Auth"`
	SMTP          SMTP          `yaml:"SMTP"`
}

func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}

	if conf.Listen == "" {
		conf.Listen = ":8080"
	}
	if conf.DataDir == "" {
		conf.DataDir = "./data"
	}
	if conf.Auth.SessionTTL == 0 {
		conf.Auth.SessionTTL = 30 * 24 * time.Hour
	}

	return &conf, nil
}
