// Package config loads a Search's tunables from a YAML document, following
// the codebase's existing OuterConfig/TrainingConfig double-hop pattern:
// Viper decodes the file into a generic envelope, which is re-marshaled
// through yaml.v3 into the strict target struct.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"lsearch"
)

// HyperParameter is a named strategy tunable (temperature, tabu tenure,
// epsilon, ...), read generically so SearchConfig doesn't need a field per
// strategy.
type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// outerConfig is Viper's landing envelope: "kind" identifies the document,
// "def" holds the strictly-typed body decoded in a second pass.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// SearchConfig is the on-disk/serializable projection of a Search's
// configuration setters.
type SearchConfig struct {
	Name                     string           `mapstructure:"name"`
	StopCriterionCheckPeriod string           `mapstructure:"stopCriterionCheckPeriod"`
	MinDeltaTime             string           `mapstructure:"minDeltaTime"`
	EvaluatedMoveCache       string           `mapstructure:"evaluatedMoveCache"`
	HyperParams              []HyperParameter `mapstructure:"hyperParams"`
}

// GetHyperParamOrDefault returns the named hyperparameter's value, or
// defaultVal if it isn't present in the document.
func (cfg *SearchConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// LoadYAML reads a SearchConfig from path.
func LoadYAML(path string) (*SearchConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	cfg := &SearchConfig{}
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply applies cfg's base Search tunables (stop-criterion check period,
// minimum step spacing). Requires search to be IDLE, same as the individual
// setters it calls.
func Apply(search *lsearch.Search, cfg *SearchConfig) error {
	if cfg.StopCriterionCheckPeriod != "" {
		dt, err := time.ParseDuration(cfg.StopCriterionCheckPeriod)
		if err != nil {
			return fmt.Errorf("config: stopCriterionCheckPeriod: %w", err)
		}
		if err := search.SetStopCriterionCheckPeriod(dt); err != nil {
			return err
		}
	}
	if cfg.MinDeltaTime != "" {
		dt, err := time.ParseDuration(cfg.MinDeltaTime)
		if err != nil {
			return fmt.Errorf("config: minDeltaTime: %w", err)
		}
		if err := search.SetMinDeltaTime(dt); err != nil {
			return err
		}
	}
	return nil
}

// cacheSetter is satisfied by *lsearch.NeighbourhoodSearch and anything
// embedding it (strategies, the tempering coordinator's replicas).
type cacheSetter interface {
	SetEvaluatedMoveCache(lsearch.EvaluatedMoveCache) error
}

// ApplyEvaluatedMoveCache maps cfg.EvaluatedMoveCache ("single", "unbounded",
// "none"; default "single") onto ns's cache policy.
func ApplyEvaluatedMoveCache(ns cacheSetter, cfg *SearchConfig) error {
	switch cfg.EvaluatedMoveCache {
	case "", "single":
		return ns.SetEvaluatedMoveCache(lsearch.NewSingleEntryCache())
	case "unbounded":
		return ns.SetEvaluatedMoveCache(lsearch.NewUnboundedCache())
	case "none":
		return ns.SetEvaluatedMoveCache(lsearch.NewNoCache())
	default:
		return fmt.Errorf("config: unknown evaluatedMoveCache policy %q", cfg.EvaluatedMoveCache)
	}
}
