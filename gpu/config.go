// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/render/base/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config has the settings of a [Context] and the renderers that use it.
type Config struct {

	// MultiSample is the number of samples for multisampling of
	// the window surface; 1 is off.
	MultiSample int `yaml:"multi_sample"`

	// ProgramCacheSize is the maximum number of programs kept in the
	// [ProgramCache], least recently used ones being evicted. 0 is unbounded.
	ProgramCacheSize int `yaml:"program_cache_size"`

	// ShadowMapSize is the default size in pixels of light shadow maps.
	ShadowMapSize int `yaml:"shadow_map_size"`

	// MaxLights is the maximum number of lights used in one frame.
	// Lights past this are ignored with a warning. 0 is unlimited.
	MaxLights int `yaml:"max_lights"`

	// FrustumCulling skips objects whose bounding box is outside the
	// camera frustum.
	FrustumCulling bool `yaml:"frustum_culling"`

	// Debug sets [Debug] for extra logging.
	Debug bool `yaml:"debug"`

	// ClearColor is the R,G,B,A color that frames are cleared to.
	ClearColor [4]float32 `yaml:"clear_color"`
}

// Defaults sets the default configuration.
func (cf *Config) Defaults() {
	cf.MultiSample = 4
	cf.ProgramCacheSize = 0
	cf.ShadowMapSize = 1024
	cf.MaxLights = 16
	cf.FrustumCulling = true
	cf.ClearColor = [4]float32{0, 0, 0, 1}
}

// NewConfig returns a new Config with defaults set.
func NewConfig() *Config {
	cf := &Config{}
	cf.Defaults()
	return cf
}

// LoadConfig returns the defaults overridden by the given file,
// which is TOML, or YAML if it has a .yaml or .yml extension.
func LoadConfig(filename string) (*Config, error) {
	cf := NewConfig()
	b, err := os.ReadFile(filename)
	if err != nil {
		return cf, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cf)
	default:
		err = toml.Unmarshal(b, cf)
	}
	if err != nil {
		return cf, fmt.Errorf("gpu: reading config %q: %w", filename, err)
	}
	return cf, cf.Validate()
}

// Save saves the config to the given file in TOML format.
func (cf *Config) Save(filename string) error {
	b, err := toml.Marshal(cf)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0666)
}

// Validate checks that the settings are in range.
func (cf *Config) Validate() error {
	var errs []error
	if cf.MultiSample < 1 {
		errs = append(errs, fmt.Errorf("gpu: MultiSample must be >= 1, not %d", cf.MultiSample))
	}
	if cf.ProgramCacheSize < 0 {
		errs = append(errs, fmt.Errorf("gpu: ProgramCacheSize must be >= 0, not %d", cf.ProgramCacheSize))
	}
	if cf.ShadowMapSize < 1 {
		errs = append(errs, fmt.Errorf("gpu: ShadowMapSize must be >= 1, not %d", cf.ShadowMapSize))
	}
	if cf.MaxLights < 0 {
		errs = append(errs, fmt.Errorf("gpu: MaxLights must be >= 0, not %d", cf.MaxLights))
	}
	return errors.Join(errs...)
}
