package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mongoextract/internal/domain"
	"mongoextract/internal/service"
)

// exitEmpty is the exit code for a run that matched nothing.
const exitEmpty = 2

func newExportCmd(e *env, extra []service.Option) *cobra.Command {
	var (
		uri, database, collection string
		filterText, filterFile    string
		format, out               string
		timeout                   time.Duration
		maxRecords                int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one export and write the file",
		Example: `  mongo-extract export --uri mongodb://localhost:27017/ --database shop \
    --collection orders --filter '{"status":"ACTIVE"}' --format excel --out orders.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := e.cfg.Defaults
			flags := cmd.Flags()
			fallback(flags, "uri", &uri, d.URI)
			fallback(flags, "database", &database, d.Database)
			fallback(flags, "collection", &collection, d.Collection)
			fallback(flags, "format", &format, string(d.Format))
			switch {
			case flags.Changed("filter-file"):
				data, err := os.ReadFile(filterFile)
				if err != nil {
					return fmt.Errorf("read filter file: %w", err)
				}
				filterText = string(data)
			case !flags.Changed("filter"):
				filterText = d.Filter
			}
			if !flags.Changed("timeout") {
				timeout = e.cfg.Timeout.Std()
			}
			if !flags.Changed("max-records") {
				maxRecords = e.cfg.MaxRecords
			}
			if uri == "" || collection == "" {
				return errors.New("--uri and --collection are required")
			}

			opts := append([]service.Option{
				service.WithTimeout(timeout),
				service.WithMaxRecords(maxRecords),
			}, extra...)
			svc := service.NewExportService(e.logger, opts...)

			res := svc.Run(cmd.Context(), service.ExportRequest{
				URI:        uri,
				Database:   database,
				Collection: collection,
				Filter:     filterText,
				Format:     domain.ExportFormat(format),
			})

			switch res.Status {
			case domain.StatusFailed:
				return fmt.Errorf("%s: %s", res.Failure.Kind.Summary(), res.Failure.Message)
			case domain.StatusEmpty:
				return &exitError{code: exitEmpty, err: errors.New("no records found matching the criteria")}
			}

			path := out
			if path == "" {
				path = res.Artifact.Filename
			}
			if err := os.WriteFile(path, res.Artifact.Payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s (%d bytes)\n",
				res.RecordCount, path, len(res.Artifact.Payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Connection string (mongodb://, postgres://, mysql://, sqlite://)")
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database name")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection or table name")
	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "Filter document (JSON, Extended JSON tags allowed)")
	cmd.Flags().StringVar(&filterFile, "filter-file", "", "Read the filter document from a file")
	cmd.Flags().StringVar(&format, "format", string(domain.FormatCSV), "Export format (csv, excel)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default mongo_export.csv or mongo_export.xlsx)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Connection timeout (default from config, 5s)")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "Fail when the result exceeds this many records (0 disables)")
	cmd.MarkFlagsMutuallyExclusive("filter", "filter-file")

	return cmd
}

// fallback sets *v to def when the flag was not given and def is non-empty.
func fallback(flags *pflag.FlagSet, name string, v *string, def string) {
	if !flags.Changed(name) && def != "" {
		*v = def
	}
}
