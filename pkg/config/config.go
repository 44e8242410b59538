package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/talent-lab/sourcedash/pkg/logutils"
)

// StorageMode selects the project store backend. It is resolved once at
// startup from the config file, never flipped at runtime.
type StorageMode string

const (
	StoragePostgres StorageMode = "postgres"
	StorageFile     StorageMode = "file"
)

type Config struct {
	Host       string `yaml:"host"`       // The domain name of the server.
	ServerAddr string `yaml:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		AccessTokenSecret      string `yaml:"accessTokenSecret"`
		RefreshTokenSecret     string `yaml:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `yaml:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `yaml:"refreshTokenExpiryHour"`
		// Bootstrap admin used by the file storage mode, where no user table
		// exists. Ignored when storage.mode is postgres.
		Bootstrap struct {
			Email    string `yaml:"email"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
		} `yaml:"bootstrap"`
	} `yaml:"auth"`

	Storage struct {
		Mode StorageMode `yaml:"mode"`
		File struct {
			Path string `yaml:"path"` // JSON document location for file mode.
		} `yaml:"file"`
	} `yaml:"storage"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		DBName   string `yaml:"dbname"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		TimeZone string `yaml:"timeZone"`
	} `yaml:"postgres"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with SOURCEDASH_DEBUG_CONFIG_PATH; in production the file is
// mounted at /etc/config/config.yaml.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("SOURCEDASH_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("SOURCEDASH_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	logutils.Log.Info("config path: ", configPath)

	if err := readConfig(configPath, config); err != nil {
		logutils.Log.Error("init config: ", err)
		panic(err)
	}
	applyDefaults(config)
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func applyDefaults(c *Config) {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8088"
	}
	if c.Storage.Mode == "" {
		c.Storage.Mode = StoragePostgres
	}
	if c.Storage.File.Path == "" {
		c.Storage.File.Path = "./sourcing_dashboard_data.json"
	}
	if c.Auth.AccessTokenExpiryHour == 0 {
		c.Auth.AccessTokenExpiryHour = 2
	}
	if c.Auth.RefreshTokenExpiryHour == 0 {
		c.Auth.RefreshTokenExpiryHour = 168
	}
}
