// Package config loads the middle-end driver's ambient configuration: the
// integer-kind defaulting target, recursion-depth limits for
// monomorphisation, and SMT backend selection. Grounded on the teacher's
// internal/manifest decode discipline: an optional YAML file, decoded with
// strict unknown-field rejection so a typo in a config key fails loudly
// rather than silently keeping the default.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaVersion tags the config file format; Load rejects a file
// declaring an unsupported version.
const SchemaVersion = "ante.config/v1"

// SMTBackend names which SMT-LIB2 consumer the refinement bridge targets.
// The bridge always emits plain SMT-LIB2 text (internal/refine); no
// solver is ever run, and cmd/antec's smt subcommand only prints the
// selected backend as a note.
type SMTBackend string

const (
	BackendNone SMTBackend = "none" // emit SMT-LIB2 text only, run no solver
	BackendZ3   SMTBackend = "z3"
	BackendCVC5 SMTBackend = "cvc5"
)

// Defaulting records a width/signedness for spec.md §4.4's integer-kind
// defaulting. It is only validated on load: no pass reads it, and
// internal/mono lowers an unresolved integer literal to signed 32-bit
// whatever these fields say.
type Defaulting struct {
	IntWidth  int  `yaml:"int_width"`
	IntSigned bool `yaml:"int_signed"`
}

// Limits holds depth and definition-count budgets for monomorphisation.
// They are only validated on load: internal/mono does not read them and
// enforces no depth or count limit.
type Limits struct {
	MaxMonoDepth int `yaml:"max_mono_depth"`
	MaxMonoDefs  int `yaml:"max_mono_defs"`
}

// Config is the complete driver configuration; Defaults returns the
// built-in values used when no config file is given.
type Config struct {
	Schema     string     `yaml:"schema"`
	Defaulting Defaulting `yaml:"defaulting"`
	Limits     Limits     `yaml:"limits"`
	SMT        SMTBackend `yaml:"smt_backend"`
}

// Defaults returns the configuration cmd/antec uses when --config is not
// given: 32-bit signed integers, a generous but finite monomorphisation
// budget, and no SMT backend wired (text emission only).
func Defaults() *Config {
	return &Config{
		Schema: SchemaVersion,
		Defaulting: Defaulting{
			IntWidth:  32,
			IntSigned: true,
		},
		Limits: Limits{
			MaxMonoDepth: 256,
			MaxMonoDefs:  100_000,
		},
		SMT: BackendNone,
	}
}

// Load reads and strictly decodes a YAML config file, filling any field
// the file omits from Defaults() rather than zeroing it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Schema != "" && cfg.Schema != SchemaVersion {
		return nil, fmt.Errorf("config: unsupported schema %q (expected %q)", cfg.Schema, SchemaVersion)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a config whose values would make the pipeline
// misbehave rather than merely err: zero/negative limits, an
// unrecognised integer width, or an unknown SMT backend name.
func (c *Config) Validate() error {
	switch c.Defaulting.IntWidth {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("defaulting.int_width must be 8, 16, 32 or 64, got %d", c.Defaulting.IntWidth)
	}
	if c.Limits.MaxMonoDepth <= 0 {
		return fmt.Errorf("limits.max_mono_depth must be positive, got %d", c.Limits.MaxMonoDepth)
	}
	if c.Limits.MaxMonoDefs <= 0 {
		return fmt.Errorf("limits.max_mono_defs must be positive, got %d", c.Limits.MaxMonoDefs)
	}
	switch c.SMT {
	case BackendNone, BackendZ3, BackendCVC5:
	default:
		return fmt.Errorf("smt_backend %q is not one of none/z3/cvc5", c.SMT)
	}
	return nil
}
