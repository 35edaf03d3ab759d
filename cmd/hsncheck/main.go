// Command hsncheck validates HSN/SAC codes from the command line.
//
//	hsncheck --reference hsn.xlsx validate 0101 010121
//	hsncheck --reference hsn.csv bulk invoice_codes.csv
//	hsncheck --reference s3://tax/hsn.csv export codes.xlsx -o results.csv
//	hsncheck --reference hsn.csv repl
//
// The reference location falls back to REFERENCE_LOCATION, read from the
// environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/ingest"
	"github.com/JonMunkholm/hsncheck/internal/logging"
)

// errInvalidCodes makes the process exit non-zero when any code failed,
// after the results have been printed.
var errInvalidCodes = errors.New("one or more codes are invalid")

// options holds the persistent flags.
type options struct {
	reference    string
	mapping      string
	sheet        string
	format       string
	strictLength bool
	jsonOutput   bool
	logLevel     string
}

func main() {
	// .env is optional for the CLI.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidCodes) {
			fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		}
		os.Exit(1)
	}
}

// userMessage renders err for the terminal. Errors without a specific code
// keep their technical text, which says more than the generic ERR000 message.
func userMessage(err error) string {
	if !core.IsUserFacing(err) {
		return err.Error()
	}
	return core.FormatUserError(err)
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "hsncheck",
		Short: "Validate HSN/SAC codes against master data",
		Long: `hsncheck validates HSN/SAC codes against a master list loaded from
a CSV, TSV or XLSX file, an http(s) URL, an s3:// object, or a
postgres:// or sqlite:// table.

Each code is checked for format (digits only), length (against the
lengths present in the master data), existence, and parent codes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), o.logLevel, "text")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.reference, "reference", "r", os.Getenv("REFERENCE_LOCATION"), "Reference data location (file, URL, s3://, postgres://, sqlite://)")
	flags.StringVarP(&o.mapping, "mapping", "m", os.Getenv("REFERENCE_MAPPING_FILE"), "YAML column mapping override")
	flags.StringVar(&o.sheet, "sheet", os.Getenv("REFERENCE_SHEET"), "XLSX sheet to read (default: first)")
	flags.StringVar(&o.format, "format", os.Getenv("REFERENCE_FORMAT"), "Force reference format: csv, tsv or xlsx")
	flags.BoolVar(&o.strictLength, "strict-length", false, "Treat unknown code lengths as format errors")
	flags.BoolVar(&o.jsonOutput, "json", false, "Print results as JSON")
	flags.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(o),
		newBulkCmd(o),
		newExtractCmd(o),
		newExportCmd(o),
		newLengthsCmd(o),
		newChildrenCmd(o),
		newReplCmd(o),
	)
	return root
}

// loadService loads the reference data and returns a ready Service. The
// returned close function releases database connections.
func (o *options) loadService(ctx context.Context) (*core.Service, func(), error) {
	if o.reference == "" {
		return nil, nil, errors.New("no reference data: pass --reference or set REFERENCE_LOCATION")
	}

	format, err := ingest.ParseFormat(o.format)
	if err != nil {
		return nil, nil, err
	}

	var override *ingest.MappingOverride
	if o.mapping != "" {
		if override, err = ingest.LoadMappingOverride(o.mapping); err != nil {
			return nil, nil, err
		}
	}
	sheet := o.sheet
	if sheet == "" && override != nil {
		sheet = override.Sheet
	}

	src, err := ingest.ParseLocation(o.reference, ingest.SourceConfig{
		Parse:    ingest.ParseOptions{Format: format, Sheet: sheet},
		MaxBytes: ingest.DefaultMaxBytes,
	})
	if err != nil {
		return nil, nil, err
	}
	closeSrc := func() { _ = ingest.CloseSource(src) }

	policy := core.LengthAdvisory
	if o.strictLength {
		policy = core.LengthStrict
	}

	service := core.NewService(ingest.Loader(src, ingest.Options{Override: override}), core.ServiceConfig{
		LengthPolicy:      policy,
		MaxConcurrentBulk: 1,
	})
	if err := service.Reload(ctx); err != nil {
		closeSrc()
		return nil, nil, err
	}
	return service, closeSrc, nil
}

// withService runs fn with a loaded Service.
func (o *options) withService(cmd *cobra.Command, fn func(*core.Service, io.Writer) error) error {
	service, closeFn, err := o.loadService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(service, cmd.OutOrStdout())
}
