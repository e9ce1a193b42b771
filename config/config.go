package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when GORG_CONF is not set.
const DefaultFile = "/etc/gorg/gorg.yaml"

const envFile = "GORG_CONF"

type Mount struct {
	Prefix string `yaml:"prefix" validate:"required,startswith=/"`
	Dir    string `yaml:"dir" validate:"required"`
}

type Cache struct {
	Dir string `yaml:"dir"`
	TTL time.Duration `yaml:"ttl" validate:"min=0"`
	// Size is the maximum size of the cache in megabytes.
	Size         int64         `yaml:"size" validate:"min=0"`
	ZipLevel     int           `yaml:"zipLevel" validate:"min=0,max=9"`
	Tree         bool          `yaml:"tree"`
	WashInterval time.Duration `yaml:"washInterval" validate:"min=0"`
}

func (c Cache) Enabled() bool {
	return c.Dir != ""
}

func (c Cache) MaxBytes() int64 {
	return c.Size << 20
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	Output string `yaml:"output" validate:"required"`
}

type Config struct {
	Root          string   `yaml:"root" validate:"required"`
	Listen        string   `yaml:"listen" validate:"required,ip|hostname"`
	Port          int      `yaml:"port" validate:"min=1,max=65535"`
	HeadXSL       int      `yaml:"headXSL" validate:"min=1"`
	DefaultXSL    string   `yaml:"defaultXSL"`
	Passthru      bool     `yaml:"passthru"`
	AcceptCookies bool     `yaml:"acceptCookies"`
	LinkParam     string   `yaml:"linkParam"`
	HTTPHost      []string `yaml:"httpHost"`
	Mounts        []Mount  `yaml:"mounts" validate:"dive"`
	Cache         Cache    `yaml:"cache"`
	Log           Log      `yaml:"log"`
}

// Default returns the configuration used for the keys missing from the
// configuration file.
func Default() Config {
	return Config{
		Listen:    "127.0.0.1",
		Port:      8000,
		HeadXSL:   12,
		Passthru:  true,
		LinkParam: "link",
		Cache: Cache{
			Size:     40,
			ZipLevel: 2,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen, c.Port)
}

// File gives the configuration file to read.
func File() string {
	if file := os.Getenv(envFile); file != "" {
		return file
	}
	return DefaultFile
}

func Load(file string) (*Config, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cfg, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Decode reads a configuration, fills the missing keys with their default
// value and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return err
	}
	c.Root = root
	if c.Cache.Enabled() {
		if c.Cache.Dir, err = filepath.Abs(c.Cache.Dir); err != nil {
			return err
		}
	}
	return nil
}

var validate = validator.New()
