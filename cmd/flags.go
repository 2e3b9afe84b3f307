package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tasnim.dev/datalake-indexer/internal/config"
)

// configFlags are the settings every subcommand can override on the command line.
type configFlags struct {
	path     string
	noLedger bool
	logLevel string
}

func (f *configFlags) register(cmd *cobra.Command, withSource bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.path, "config", "c", config.DefaultPath(), "path to config file")
	fs.StringVarP(&f.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	fs.StringP("profile", "p", "", "AWS profile to use")
	fs.StringP("region", "r", "", "AWS region to use")
	fs.String("ledger-path", "", "path to the run history database")
	fs.BoolVar(&f.noLedger, "no-ledger", false, "do not record runs in the history database")

	if withSource {
		fs.String("bucket-source", "", "bucket to index")
		fs.String("bucket-target", "", "bucket receiving the index file")
		fs.String("prefix-source", "", "key prefix prepended to the item name when listing")
		fs.String("prefix-target", "", "key prefix prepended to the item name for the index file")
		fs.String("item-name", "", "item to index")
		fs.Int("workers", 0, "number of goroutines deriving file records")
	}
}

// values resolves settings from the config file, then the environment, then flags.
func (f *configFlags) values(cmd *cobra.Command) (config.Values, error) {
	fileVals, err := config.Load(f.path)
	if err != nil {
		return config.Values{}, fmt.Errorf("loading config: %w", err)
	}
	envVals, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return config.Values{}, fmt.Errorf("loading config: %w", err)
	}

	fs := cmd.Flags()
	str := func(name string) *string {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return nil
		}
		s, _ := fs.GetString(name)
		return &s
	}

	flagVals := config.Values{
		BucketSource: str("bucket-source"),
		BucketTarget: str("bucket-target"),
		PrefixSource: str("prefix-source"),
		PrefixTarget: str("prefix-target"),
		ItemName:     str("item-name"),
		Region:       str("region"),
		Profile:      str("profile"),
		LedgerPath:   str("ledger-path"),
	}
	if fs.Lookup("workers") != nil && fs.Changed("workers") {
		n, _ := fs.GetInt("workers")
		flagVals.Workers = &n
	}
	if f.noLedger {
		disabled := ""
		flagVals.LedgerPath = &disabled
	}

	return fileVals.Merge(envVals).Merge(flagVals), nil
}

func (f *configFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(f.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", f.logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
