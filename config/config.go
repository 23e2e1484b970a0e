package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// LensPolicy maps one lens identifier to the DefaultScale value written for it.
type LensPolicy struct {
	Name  string `yaml:"name"`
	Scale string `yaml:"scale"`
}

// Config holds every knob of a run. The zero value is not usable; start from Default().
type Config struct {
	ExiftoolPath      string       `yaml:"exiftool"`
	InputDir          string       `yaml:"input"`
	OutputDir         string       `yaml:"output"`
	Extension         string       `yaml:"extension"`
	Suffix            string       `yaml:"suffix"`
	LensTag           string       `yaml:"lens_tag"`
	LensLabel         string       `yaml:"lens_label"`
	TimestampedOutput bool         `yaml:"timestamped_output"`
	PressEnter        bool         `yaml:"press_enter"`
	WidenPermissions  bool         `yaml:"widen_permissions"`
	Reader            string       `yaml:"reader"`
	NativeFallback    bool         `yaml:"native_fallback"`
	Lenses            []LensPolicy `yaml:"lenses"`
}

// Default returns the configuration the tool runs with when no file is given.
func Default() Config {
	return Config{
		ExiftoolPath:      DefaultExiftoolPath,
		InputDir:          DefaultInputDir,
		OutputDir:         DefaultOutputDir,
		Extension:         DefaultExtension,
		Suffix:            DefaultSuffix,
		LensTag:           DefaultLensTag,
		LensLabel:         DefaultLensLabel,
		TimestampedOutput: true,
		PressEnter:        true,
		WidenPermissions:  true,
		Reader:            ReaderExec,
		Lenses: []LensPolicy{
			{Name: DefaultAnamorphicLens, Scale: DefaultScale},
		},
	}
}

// Load reads a YAML file on top of Default(). An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that would make a run meaningless.
func (c Config) Validate() error {
	switch {
	case c.ExiftoolPath == "":
		return errors.New("exiftool path is empty")
	case c.InputDir == "":
		return errors.New("input directory is empty")
	case c.OutputDir == "":
		return errors.New("output directory is empty")
	case !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2:
		return fmt.Errorf("extension %q must start with a dot", c.Extension)
	case c.LensTag == "":
		return errors.New("lens tag is empty")
	case c.LensLabel == "":
		return errors.New("lens label is empty")
	}

	if c.Reader != ReaderExec && c.Reader != ReaderStayOpen {
		return fmt.Errorf("unknown reader %q (want %s or %s)", c.Reader, ReaderExec, ReaderStayOpen)
	}

	for i, lens := range c.Lenses {
		if lens.Name == "" {
			return fmt.Errorf("lens %d has no name", i)
		}
		if err := ValidateScale(lens.Scale); err != nil {
			return fmt.Errorf("lens %q: %w", lens.Name, err)
		}
	}
	return nil
}

// ValidateScale checks a DefaultScale value: two positive numbers separated by a space.
func ValidateScale(scale string) error {
	parts := strings.Fields(scale)
	if len(parts) != 2 {
		return fmt.Errorf("scale %q must be \"<horizontal> <vertical>\"", scale)
	}
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("scale %q: %q is not a positive number", scale, p)
		}
	}
	return nil
}
