package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clinistack/vetcore"
	"github.com/clinistack/vetcore/internal/config"
)

// outputJSON writes v to stdout as indented JSON, mirroring the
// teacher's --json convention.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputJSONError writes err as a JSON error object to stderr and exits
// with code 1.
func outputJSONError(err error) {
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(map[string]string{
		"error": err.Error(),
		"kind":  string(vetcore.ErrorKind(err)),
	})
	os.Exit(1)
}

// fail prints err and exits 1, respecting the --json flag.
func fail(err error) {
	if jsonOutput {
		outputJSONError(err)
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// openCore loads vetcore.yaml (or the --config path), applies the --store
// override, and opens the resulting store.
func openCore() (*vetcore.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	return vetcore.Open(cfg.StorePath, cfg)
}
