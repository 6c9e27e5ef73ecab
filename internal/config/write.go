package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a vetcore.yaml file. It exists
// separately from Config because the file uses nested scoring keys and
// string durations, while Config carries a parsed time.Duration.
type document struct {
	StorePath   string          `yaml:"store_path"`
	LockTimeout string          `yaml:"lock_timeout"`
	Scoring     scoringDocument `yaml:"scoring"`
}

type scoringDocument struct {
	NameWeight    float64 `yaml:"name_weight"`
	SpeciesWeight float64 `yaml:"species_weight"`
	RouteWeight   float64 `yaml:"route_weight"`
	DoseWeight    float64 `yaml:"dose_weight"`
}

// WriteFile renders cfg as a vetcore.yaml document at path, failing if a
// file is already there. Load reads this same shape back in with viper,
// so this is the only place vetcore marshals YAML directly rather than
// through viper's getters.
func WriteFile(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return os.ErrExist
	}

	doc := document{
		StorePath:   cfg.StorePath,
		LockTimeout: cfg.LockTimeout.String(),
		Scoring: scoringDocument{
			NameWeight:    cfg.Weights.Name,
			SpeciesWeight: cfg.Weights.Species,
			RouteWeight:   cfg.Weights.Route,
			DoseWeight:    cfg.Weights.Dose,
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
