// Package config reads the language server configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/op/go-logging"
	"github.com/spf13/afero"
	"github.com/tminor/lspansible/docs"
	"github.com/tminor/lspansible/format"
	"gitlab.com/tozd/go/errors"
)

var log = logging.MustGetLogger("ansible-lsp.config")

const (
	TransportStdio = "stdio"
	TransportTCP   = "tcp"

	DefaultLookupTimeoutMS = 2000
)

type Config struct {
	Verbosity int    `toml:"verbosity" validate:"min=-4,max=5"`
	Log       string `toml:"log"`
	Server    Server `toml:"server"`
	Docs      Docs   `toml:"docs"`
}

type Server struct {
	Transport string `toml:"transport" validate:"oneof=stdio tcp"`
	Address   string `toml:"address" validate:"required_if=Transport tcp"`
}

type Docs struct {
	// Builtin is the ansible package directory, e.g.
	// /usr/lib/python3/dist-packages/ansible.
	Builtin string `toml:"builtin"`
	// Collections are ansible_collections directories.
	Collections     []string `toml:"collections"`
	CacheSize       int      `toml:"cache_size" validate:"gt=0"`
	LookupTimeoutMS int      `toml:"lookup_timeout_ms" validate:"gte=0"`
	ReferenceURL    string   `toml:"reference_url" validate:"omitempty,url"`
	Watch           bool     `toml:"watch"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Transport: TransportStdio,
		},
		Docs: Docs{
			CacheSize:       docs.DefaultCacheSize,
			LookupTimeoutMS: DefaultLookupTimeoutMS,
			ReferenceURL:    format.DefaultReferenceURL,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path yields the
// defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	content, err := afero.ReadFile(fs, ExpandHome(path))
	if err != nil {
		return nil, errors.Errorf("reading configuration: %w", err)
	}

	metadata, err := toml.Decode(string(content), config)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", path, err)
	}
	for _, key := range metadata.Undecoded() {
		log.Warningf("%s: unknown key %s", path, key.String())
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values and expands ~ in paths.
func (self *Config) Validate() error {
	if err := validator.New().Struct(self); err != nil {
		return errors.Errorf("invalid configuration: %w", err)
	}

	self.Log = ExpandHome(self.Log)
	self.Docs.Builtin = ExpandHome(self.Docs.Builtin)
	for index, collection := range self.Docs.Collections {
		self.Docs.Collections[index] = ExpandHome(collection)
	}
	return nil
}

func (self *Config) LookupTimeout() time.Duration {
	return time.Duration(self.Docs.LookupTimeoutMS) * time.Millisecond
}

func (self *Config) LibraryOptions() docs.Options {
	return docs.Options{
		Builtin:       self.Docs.Builtin,
		Collections:   self.Docs.Collections,
		CacheSize:     self.Docs.CacheSize,
		LookupTimeout: self.LookupTimeout(),
	}
}

func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
