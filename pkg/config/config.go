// Package config reads the YAML run configuration and knows where every
// result of a run lives on disk.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Exit codes for the programs
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

// Environment variables that override the file
const (
	EnvResultsDir = "SUGARCLUST_RESULTS_DIR"
	EnvDataDir    = "SUGARCLUST_DATA_DIR"
	EnvLogLevel   = "SUGARCLUST_LOG_LEVEL"
)

// RunFormat is how run directories are named when no run is given.
const RunFormat = "2006-01-02T15-04-05"

type Refine struct {
	MinResidues int `yaml:"min_residues" validate:"gte=1"`
	MaxResidues int `yaml:"max_residues" validate:"gtefield=MinResidues"`
}

// Config is one run configuration.
type Config struct {
	DataDir     string   `yaml:"data_dir" validate:"required"`
	ResultsDir  string   `yaml:"results_dir" validate:"required"`
	ImagesDir   string   `yaml:"images_dir" validate:"required"`
	Run         string   `yaml:"run"`
	DataRun     string   `yaml:"data_run"`
	ReuseLatest bool     `yaml:"reuse_latest"`
	Refine      Refine   `yaml:"refine"`
	LigandSites []string `yaml:"ligand_sites" validate:"dive,url"`
	LogLevel    string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	Listen      string   `yaml:"listen" validate:"required"`
	Origins     []string `yaml:"origins"` // for CORS, the web front end
}

// Default has everything except the three directories.
func Default() *Config {
	return &Config{
		ReuseLatest: true,
		Refine:      Refine{MinResidues: 5, MaxResidues: 10},
		LogLevel:    "info",
		Listen:      ":8081",
		Origins:     []string{"http://localhost:3000"},
	}
}

var validate = validator.New()

// Validate checks the struct tags and reports every broken field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMsg(e))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

func fieldMsg(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s has %q, which is not a url", field, e.Value())
	default:
		return field + " is invalid"
	}
}

// overlay applies the environment variables.
func (c *Config) overlay(getenv func(string) string) {
	if s := getenv(EnvResultsDir); s != "" {
		c.ResultsDir = s
	}
	if s := getenv(EnvDataDir); s != "" {
		c.DataDir = s
	}
	if s := getenv(EnvLogLevel); s != "" {
		c.LogLevel = strings.ToLower(s)
	}
}

// Decode reads YAML on top of the defaults, applies the environment and
// validates. Unknown keys are an error.
func Decode(r io.Reader, getenv func(string) string) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if getenv != nil {
		c.overlay(getenv)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a configuration file. An empty name means defaults plus
// environment, which is only useful if the environment names the
// directories.
func Load(fname string) (*Config, error) {
	if fname == "" {
		return Decode(strings.NewReader(""), os.Getenv)
	}
	fp, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer fp.Close()
	c, err := Decode(fp, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return c, nil
}
