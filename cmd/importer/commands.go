package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/protesto/internal/admin"
	"github.com/JonMunkholm/protesto/internal/config"
	"github.com/JonMunkholm/protesto/internal/core"
	db "github.com/JonMunkholm/protesto/internal/database"
	"github.com/JonMunkholm/protesto/internal/logging"
	"github.com/JonMunkholm/protesto/internal/store"
)

// errInvalidFile makes validate exit non-zero when any row has errors.
var errInvalidFile = errors.New("file has validation errors")

type globalOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

type fileOptions struct {
	file      string
	mediaType string
	asJSON    bool
}

type runOptions struct {
	fileOptions
	user        string
	dryRun      bool
	stopOnError bool
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:          "importer",
		Short:        "Import protest filing exports (CSV or SpreadsheetML XML)",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(opts.envFile); err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newValidateCmd(), newRunCmd(), newStatsCmd(), newResetCmd())
	return root
}

func addFileFlags(cmd *cobra.Command, opts *fileOptions) {
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Export file to read (required)")
	cmd.Flags().StringVar(&opts.mediaType, "type", "", "Media type (default: from the file extension)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("file")
}

func (o fileOptions) read() (name, mediaType string, data []byte, err error) {
	data, err = os.ReadFile(o.file)
	if err != nil {
		return "", "", nil, fmt.Errorf("read %s: %w", o.file, err)
	}
	mediaType = o.mediaType
	if mediaType == "" {
		mediaType = core.MediaTypeForFile(o.file)
	}
	return filepath.Base(o.file), mediaType, data, nil
}

func newValidateCmd() *cobra.Command {
	var opts fileOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Decode and validate a file without saving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, mediaType, data, err := opts.read()
			if err != nil {
				return err
			}

			svc := core.NewService(store.NewMemory(), store.NewMemory(), core.ServiceConfig{}, nil)
			report, records, err := svc.Validate(mediaType, data)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				if err := writeJSON(out, map[string]any{"fileName": name, "records": len(records), "report": report}); err != nil {
					return err
				}
			} else {
				printReport(out, name, len(records), report)
			}
			if !report.IsValid {
				return errInvalidFile
			}
			return nil
		},
	}
	addFileFlags(cmd, &opts)
	return cmd
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import a file and record the audit log",
		Long: `Import a file and record the audit log.

Without --dry-run the file is written to the database named by DATABASE_URL.
With --dry-run an in-memory store is used and nothing is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, mediaType, data, err := opts.read()
			if err != nil {
				return err
			}

			svcCfg := core.ServiceConfig{StopOnProcessingError: opts.stopOnError}
			var (
				uow   core.UnitOfWork
				audit core.AuditStore
			)
			if opts.dryRun {
				mem := store.NewMemory()
				uow, audit = mem, mem
			} else {
				cfg, pool, err := connect(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()

				pg := store.NewPostgres(pool)
				uow, audit = pg, pg
				svcCfg.Timeout = cfg.Import.Timeout
				svcCfg.StopOnProcessingError = svcCfg.StopOnProcessingError || cfg.Import.StopOnProcessingError
			}

			svc := core.NewService(uow, audit, svcCfg, nil)
			result, importErr := svc.Import(ctx, core.ImportRequest{
				FileName:  name,
				MediaType: mediaType,
				Data:      data,
				UserID:    opts.user,
			})
			if result == nil {
				return userError(importErr)
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				printLog(out, result.Log, opts.dryRun)
			}
			if importErr != nil {
				return userError(importErr)
			}
			return nil
		},
	}
	addFileFlags(cmd, &opts.fileOptions)
	cmd.Flags().StringVar(&opts.user, "user", "", "Owner user id recorded in the audit log")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Use an in-memory store; nothing is saved")
	cmd.Flags().BoolVar(&opts.stopOnError, "stop-on-error", false, "Abort at the first record that fails to persist")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print row counts for every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			counts, err := (&admin.Admin{DB: db.New(pool)}).Stats(ctx)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, counts)
			}
			for _, c := range counts {
				fmt.Fprintf(out, "%-18s %d\n", c.Table, c.Rows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newResetCmd() *cobra.Command {
	var (
		confirm   bool
		keepAudit bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all imported filings (and the import audit log)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes every imported row; pass --yes to confirm")
			}

			ctx := cmd.Context()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			a := &admin.Admin{DB: db.New(pool)}
			if keepAudit {
				err = a.ResetFilings(ctx)
			} else {
				err = a.ResetAll(ctx)
			}
			if err != nil {
				return userError(err)
			}

			logging.FromContext(ctx).Warn("database reset", "keep_audit", keepAudit)
			fmt.Fprintln(cmd.OutOrStdout(), "database reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")
	cmd.Flags().BoolVar(&keepAudit, "keep-audit", false, "Keep the import audit log")
	return cmd
}

// connect opens a small pool on DATABASE_URL and applies the schema when
// DB_AUTO_MIGRATE is set.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := store.OpenPool(ctx, store.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: 2,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := store.NewPostgres(pool).Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return cfg, pool, nil
}

// userError keeps err for errors.Is while showing the mapped message.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, name string, records int, report core.ValidationReport) {
	fmt.Fprintf(w, "%s: %d records, %d with errors\n", name, records, report.RowsWithErrors)
	for _, e := range report.Errors {
		fmt.Fprintf(w, "  row %d  %-20s %q: %s\n", e.Row, e.Field, e.Value, e.Message)
	}
}

func printLog(w io.Writer, log *core.ImportAuditLog, dryRun bool) {
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "import %s%s\n", log.ID, mode)
	fmt.Fprintf(w, "  file:      %s (%s, %d bytes)\n", log.FileName, log.MimeType, log.SizeBytes)
	fmt.Fprintf(w, "  status:    %s\n", log.Status)
	fmt.Fprintf(w, "  records:   %d total, %d processed, %d with errors\n",
		log.TotalRecords, log.ProcessedRecords, log.ErrorRecords)
	fmt.Fprintf(w, "  duration:  %s\n", log.Duration)
	for _, d := range log.ErrorDetail {
		if d.Field != "" {
			fmt.Fprintf(w, "  row %d  %s  %s: %s\n", d.Row, d.Kind, d.Field, d.Message)
		} else {
			fmt.Fprintf(w, "  row %d  %s  %s\n", d.Row, d.Kind, d.Message)
		}
	}
}
