package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tasnim.dev/datalake-indexer/internal/constants"
)

// Mandatory keys, in the order they are validated.
const (
	KeyBucketSource = "bucket_source"
	KeyBucketTarget = "bucket_target"
	KeyPrefixSource = "prefix_source"
	KeyPrefixTarget = "prefix_target"
	KeyItemName     = "item_name"
)

// Optional keys.
const (
	KeyRegion     = "region"
	KeyProfile    = "profile"
	KeyWorkers    = "workers"
	KeyLedgerPath = "ledger_path"
)

// Config is the fully resolved, immutable set of run parameters.
// It is passed by value to every component that needs it.
type Config struct {
	BucketSource string
	BucketTarget string
	PrefixSource string
	PrefixTarget string
	ItemName     string

	Region     string
	Profile    string
	Workers    int
	LedgerPath string
}

// SourcePrefix is the listing prefix for the run: prefix_source followed by item_name.
func (c Config) SourcePrefix() string {
	return c.PrefixSource + c.ItemName
}

func (c Config) String() string {
	return fmt.Sprintf("config: item_name: %s bucket_source: %s bucket_target: %s prefix_source: %s prefix_target: %s",
		c.ItemName, c.BucketSource, c.BucketTarget, c.PrefixSource, c.PrefixTarget)
}

// Values holds settings from a single source. A nil field is unset, which is
// different from a field explicitly set to the empty string.
type Values struct {
	BucketSource *string `yaml:"bucket_source"`
	BucketTarget *string `yaml:"bucket_target"`
	PrefixSource *string `yaml:"prefix_source"`
	PrefixTarget *string `yaml:"prefix_target"`
	ItemName     *string `yaml:"item_name"`

	Region     *string `yaml:"region"`
	Profile    *string `yaml:"profile"`
	Workers    *int    `yaml:"workers"`
	LedgerPath *string `yaml:"ledger_path"`
}

// DefaultPath returns ~/.config/datalake-indexer/config.yaml, or "" if the home
// directory cannot be determined.
func DefaultPath() string {
	return userPath("config.yaml")
}

// DefaultLedgerPath returns ~/.config/datalake-indexer/history.db, or "" if the
// home directory cannot be determined.
func DefaultLedgerPath() string {
	return userPath("history.db")
}

func userPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "datalake-indexer", name)
}

// Load reads a YAML config file. Returns zero-value Values if the file doesn't exist.
func Load(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Values{}, nil
		}
		return Values{}, err
	}

	var v Values
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Values{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

// FromEnv reads settings from environment variables named after the config keys.
// The lowercase name is checked first, then the uppercase one.
func FromEnv(lookup func(string) (string, bool)) (Values, error) {
	get := func(key string) *string {
		if s, ok := lookup(key); ok {
			return &s
		}
		if s, ok := lookup(strings.ToUpper(key)); ok {
			return &s
		}
		return nil
	}

	v := Values{
		BucketSource: get(KeyBucketSource),
		BucketTarget: get(KeyBucketTarget),
		PrefixSource: get(KeyPrefixSource),
		PrefixTarget: get(KeyPrefixTarget),
		ItemName:     get(KeyItemName),
		Region:       get(KeyRegion),
		Profile:      get(KeyProfile),
		LedgerPath:   get(KeyLedgerPath),
	}
	if s := get(KeyWorkers); s != nil && *s != "" {
		n, err := strconv.Atoi(*s)
		if err != nil {
			return Values{}, fmt.Errorf("invalid %s %q: %w", KeyWorkers, *s, err)
		}
		v.Workers = &n
	}
	return v, nil
}

// Merge applies overrides. Set fields in o take precedence over v.
func (v Values) Merge(o Values) Values {
	pick := func(base, over *string) *string {
		if over != nil {
			return over
		}
		return base
	}
	out := Values{
		BucketSource: pick(v.BucketSource, o.BucketSource),
		BucketTarget: pick(v.BucketTarget, o.BucketTarget),
		PrefixSource: pick(v.PrefixSource, o.PrefixSource),
		PrefixTarget: pick(v.PrefixTarget, o.PrefixTarget),
		ItemName:     pick(v.ItemName, o.ItemName),
		Region:       pick(v.Region, o.Region),
		Profile:      pick(v.Profile, o.Profile),
		LedgerPath:   pick(v.LedgerPath, o.LedgerPath),
		Workers:      v.Workers,
	}
	if o.Workers != nil {
		out.Workers = o.Workers
	}
	return out
}

// Ledger returns the configured ledger path, falling back to the default.
// An explicitly empty path disables the ledger.
func (v Values) Ledger() string {
	if v.LedgerPath != nil {
		return *v.LedgerPath
	}
	return DefaultLedgerPath()
}

// Resolve validates the mandatory keys and applies defaults to the optional ones.
func (v Values) Resolve() (Config, error) {
	required := []struct {
		key string
		val *string
	}{
		{KeyBucketSource, v.BucketSource},
		{KeyBucketTarget, v.BucketTarget},
		{KeyPrefixSource, v.PrefixSource},
		{KeyPrefixTarget, v.PrefixTarget},
		{KeyItemName, v.ItemName},
	}
	for _, r := range required {
		if r.val == nil {
			return Config{}, &ConfigMissingError{Key: r.key}
		}
	}
	// Buckets and the item name must also be non-empty; prefixes may be "".
	for _, r := range []struct {
		key string
		val *string
	}{
		{KeyBucketSource, v.BucketSource},
		{KeyBucketTarget, v.BucketTarget},
		{KeyItemName, v.ItemName},
	} {
		if *r.val == "" {
			return Config{}, &ConfigMissingError{Key: r.key}
		}
	}

	cfg := Config{
		BucketSource: *v.BucketSource,
		BucketTarget: *v.BucketTarget,
		PrefixSource: *v.PrefixSource,
		PrefixTarget: *v.PrefixTarget,
		ItemName:     *v.ItemName,
		Region:       constants.DefaultRegion,
		Workers:      constants.DefaultWorkers,
		LedgerPath:   v.Ledger(),
	}
	if v.Region != nil && *v.Region != "" {
		cfg.Region = *v.Region
	}
	if v.Profile != nil {
		cfg.Profile = *v.Profile
	}
	if v.Workers != nil {
		if *v.Workers < 1 {
			return Config{}, fmt.Errorf("invalid %s %d: must be at least 1", KeyWorkers, *v.Workers)
		}
		cfg.Workers = *v.Workers
	}
	return cfg, nil
}
