package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	awsclient "tasnim.dev/datalake-indexer/internal/aws"
	awss3 "tasnim.dev/datalake-indexer/internal/aws/s3"
	"tasnim.dev/datalake-indexer/internal/config"
	"tasnim.dev/datalake-indexer/internal/index"
	"tasnim.dev/datalake-indexer/internal/indexer"
	"tasnim.dev/datalake-indexer/internal/ledger"
	"tasnim.dev/datalake-indexer/internal/theme"
	"tasnim.dev/datalake-indexer/internal/utils"
)

func NewRunCmd() *cobra.Command {
	var (
		flags   configFlags
		dryRun  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Index a source prefix and store the catalog as Parquet",
		Long: `Lists every object under <prefix_source><item_name> in bucket_source, derives
file metadata for each one, and writes the result to
<prefix_target><item_name>/id=<run id>-table=data_indexer.parquet in bucket_target.

Settings are read from the config file, then environment variables named after
the config keys (bucket_source, bucket_target, prefix_source, prefix_target,
item_name), then flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			vals, err := flags.values(cmd)
			if err != nil {
				return err
			}
			cfg, err := vals.Resolve()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			client, err := awsclient.NewServiceClient(ctx, cfg.Profile, cfg.Region,
				awss3.WithPageHook(func(page, keys int) {
					logger.Debug("listed page", "page", page, "keys", keys)
				}))
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}
			if account := awsclient.GetAccountID(ctx, client.Config); account != "" {
				logger.Info("resolved AWS identity", "account", account, "region", cfg.Region)
			}
			logger.Info(cfg.String())

			ix := indexer.New(client.S3, indexer.WithLogger(logger), indexer.WithDryRun(dryRun))
			res, runErr := ix.Run(ctx, cfg)

			recordRun(logger, cfg, res, runErr, dryRun)

			if runErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), theme.ErrorStyle.Render("✗ indexing failed"))
				return runErr
			}
			logger.Info("end processing", "elapsed", utils.Elapsed(res.Elapsed))
			fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(cfg, res))
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the index but do not upload it")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the run after this long (0 means no limit)")

	return cmd
}

// recordRun writes the outcome to the ledger. Ledger failures are logged, never returned.
func recordRun(logger *slog.Logger, cfg config.Config, res indexer.Result, runErr error, dryRun bool) {
	if cfg.LedgerPath == "" {
		return
	}

	// The run context may already be cancelled; the ledger write gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, err := ledger.Open(ctx, cfg.LedgerPath)
	if err != nil {
		logger.Warn("run history unavailable", "path", cfg.LedgerPath, "error", err)
		return
	}
	defer l.Close()

	entry := ledger.Entry{
		RunID:        res.RunID,
		ItemName:     cfg.ItemName,
		SourceBucket: cfg.BucketSource,
		SourcePrefix: cfg.SourcePrefix(),
		TargetBucket: cfg.BucketTarget,
		TargetKey:    res.Key,
		Rows:         res.Rows,
		Bytes:        int64(res.Bytes),
		StartedAt:    res.StartedAt,
		Elapsed:      res.Elapsed,
		Status:       ledger.StatusSuccess,
	}
	switch {
	case runErr != nil:
		entry.Status = ledger.StatusFailed
		entry.Error = runErr.Error()
	case dryRun:
		entry.Status = ledger.StatusDryRun
	}

	if err := l.Record(ctx, entry); err != nil {
		logger.Warn("recording run failed", "error", err)
	}
}

func renderRunSummary(cfg config.Config, res indexer.Result) string {
	status := ledger.StatusSuccess
	if !res.Written {
		status = ledger.StatusDryRun
	}

	db := utils.NewDetailBuilder(10, theme.SectionStyle)
	db.WriteString(theme.TitleStyle.Render("datalake-indexer") + "  " + theme.RenderStatus(status) + "\n")
	db.Section("Source")
	db.Row("Bucket", cfg.BucketSource)
	db.Row("Prefix", cfg.SourcePrefix())
	db.Rowf("Objects", "%d", res.Objects)
	db.Section("Output")
	db.Row("Run", res.RunID)
	db.Row("Location", index.ObjectURL(res.Bucket, res.Key))
	db.Rowf("Rows", "%d", res.Rows)
	db.Row("Size", utils.Bytes(int64(res.Bytes)))
	db.Row("Elapsed", utils.Elapsed(res.Elapsed))
	return theme.SummaryBoxStyle.Render(db.String())
}
