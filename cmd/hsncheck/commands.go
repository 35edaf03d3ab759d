package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/hsncheck/internal/application"
	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/export"
	"github.com/JonMunkholm/hsncheck/internal/extract"
	"github.com/JonMunkholm/hsncheck/internal/ingest"
)

func newValidateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate CODE...",
		Short: "Validate one or more codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				results, err := svc.ValidateMany(cmd.Context(), args)
				if err != nil {
					return err
				}
				return o.printResults(out, results)
			})
		},
	}
}

func newBulkCmd(o *options) *cobra.Command {
	var dedupe bool

	cmd := &cobra.Command{
		Use:   "bulk FILE",
		Short: "Validate every code in a CSV, TSV or XLSX file (- reads a list from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := readCodesFile(cmd, args[0])
			if err != nil {
				return err
			}
			if dedupe {
				codes = extract.Dedupe(codes)
			}

			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				report, err := svc.ValidateBulk(cmd.Context(), codes)
				if err != nil {
					return err
				}
				if o.jsonOutput {
					return export.WriteJSON(out, report)
				}
				for _, r := range report.Results {
					fmt.Fprintln(out, application.RenderResult(r))
				}
				fmt.Fprintf(out, "\n%d codes: %d valid, %d invalid\n", report.Total, report.Valid, report.Invalid)
				if report.Invalid > 0 {
					return errInvalidCodes
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Validate each distinct code once")
	return cmd
}

func newExtractCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [TEXT...]",
		Short: "Find codes in free text and validate them (reads stdin without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			codes := extract.Dedupe(extract.Codes(text))
			if len(codes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No codes found")
				return nil
			}

			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				results, err := svc.ValidateMany(cmd.Context(), codes)
				if err != nil {
					return err
				}
				return o.printResults(out, results)
			})
		},
	}
}

func newExportCmd(o *options) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Validate the codes in FILE and write the results as CSV, JSON or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			codes, err := readCodesFile(cmd, args[0])
			if err != nil {
				return err
			}

			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				report, err := svc.ValidateBulk(cmd.Context(), codes)
				if err != nil {
					return err
				}

				if output == "-" {
					return export.Write(out, f, report)
				}
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := export.Write(file, f, report); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d results (%d valid, %d invalid) to %s\n",
					report.Total, report.Valid, report.Invalid, output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "hsn_validation_results.csv", "Output file (- for stdout)")
	cmd.Flags().StringVar(&format, "as", "", "Output format: csv, json or xlsx (default: from the output extension)")
	return cmd
}

func newLengthsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lengths",
		Short: "Show the code lengths present in the reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				st := svc.Status()
				if o.jsonOutput {
					return json.NewEncoder(out).Encode(st)
				}
				parts := make([]string, len(st.ValidLengths))
				for i, n := range st.ValidLengths {
					parts[i] = fmt.Sprint(n)
				}
				fmt.Fprintf(out, "%d codes from %s\nKnown lengths: %s\n", st.Codes, st.Source, strings.Join(parts, ", "))
				return nil
			})
		},
	}
}

func newChildrenCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "children PREFIX",
		Short: "List the codes one level below PREFIX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := strings.TrimSpace(args[0])
			if !core.IsDigits(prefix) {
				return fmt.Errorf("invalid request: prefix %q must contain only digits", prefix)
			}
			return o.withService(cmd, func(svc *core.Service, out io.Writer) error {
				eng, err := svc.Engine()
				if err != nil {
					return err
				}
				children := eng.Table().Children(prefix)
				if o.jsonOutput {
					if children == nil {
						children = []core.ReferenceEntry{}
					}
					return json.NewEncoder(out).Encode(children)
				}
				for _, c := range children {
					fmt.Fprintf(out, "%s  %s\n", c.Code, c.Description)
				}
				return nil
			})
		},
	}
}

func newReplCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive validation prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withService(cmd, func(svc *core.Service, _ io.Writer) error {
				return application.Run(svc)
			})
		},
	}
}

// printResults writes results as JSON or styled lines and reports whether
// any failed.
func (o *options) printResults(out io.Writer, results []core.ValidationResult) error {
	if o.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintln(out, application.RenderResult(r))
		}
	}

	for _, r := range results {
		if !r.IsValid {
			return errInvalidCodes
		}
	}
	return nil
}

// readCodesFile reads the codes to validate from a data file, or a pasted
// list on stdin when path is "-".
func readCodesFile(cmd *cobra.Command, path string) ([]string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return extract.ParseList(string(data)), nil
	}

	ds, err := (&ingest.FileSource{Path: path}).Fetch(cmd.Context())
	if err != nil {
		return nil, err
	}
	codes, _, err := ingest.CodesFromDataset(ds, ingest.Options{})
	return codes, err
}
