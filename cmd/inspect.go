package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	awsclient "tasnim.dev/datalake-indexer/internal/aws"
	"tasnim.dev/datalake-indexer/internal/constants"
	"tasnim.dev/datalake-indexer/internal/table"
	"tasnim.dev/datalake-indexer/internal/theme"
	"tasnim.dev/datalake-indexer/internal/utils"
)

func NewInspectCmd() *cobra.Command {
	var (
		flags configFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.parquet | s3://bucket/key>",
		Short: "Print the schema and first rows of an index file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			var data []byte
			if bucket, key, ok := parseObjectURL(target); ok {
				vals, err := flags.values(cmd)
				if err != nil {
					return err
				}
				region := ""
				if vals.Region != nil {
					region = *vals.Region
				}
				if region == "" {
					region = constants.DefaultRegion
				}
				profile := ""
				if vals.Profile != nil {
					profile = *vals.Profile
				}

				client, err := awsclient.NewServiceClient(cmd.Context(), profile, region)
				if err != nil {
					return fmt.Errorf("initializing AWS client: %w", err)
				}
				data, err = client.S3.GetObject(cmd.Context(), bucket, key)
				if err != nil {
					return err
				}
			} else {
				var err error
				data, err = os.ReadFile(target)
				if err != nil {
					return err
				}
			}

			res, err := table.Read(cmd.Context(), bytes.NewReader(data))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderInspect(target, int64(len(data)), res, limit))
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows to print")

	return cmd
}

// parseObjectURL splits "s3://bucket/key" into its parts.
func parseObjectURL(s string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(s, constants.URLScheme+"://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func renderInspect(target string, size int64, res *table.ReadResult, limit int) string {
	db := utils.NewDetailBuilder(12, theme.SectionStyle)
	db.WriteString(theme.TitleStyle.Render(target) + "\n")
	db.Section("File")
	db.Row("Size", utils.Bytes(size))
	db.Rowf("Rows", "%d", res.NumRows)
	db.Rowf("Row groups", "%d", res.NumRowGroups)
	db.Row("Created by", res.CreatedBy)

	db.Section("Schema")
	for _, f := range res.Schema.Fields() {
		nullable := ""
		if f.Nullable {
			nullable = theme.MutedStyle.Render(" (nullable)")
		}
		db.Row(f.Name, f.Type.String()+nullable)
	}

	if limit > 0 && len(res.Records) > 0 {
		db.Section("Rows")
		for i, r := range res.Records {
			if i == limit {
				db.WriteString(theme.MutedStyle.Render(fmt.Sprintf("  … %d more", len(res.Records)-limit)) + "\n")
				break
			}
			db.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				r.FileURL, utils.Int64OrDash(r.FileSize), utils.StringOrDash(r.DtFmt), theme.MutedStyle.Render(r.ID)))
		}
	}
	return db.String()
}
