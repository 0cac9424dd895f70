// =============================================================================
// YPBank Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts a transaction
// history from one format to another.
//
// COMMAND USAGE:
//   ypbank convert -i FILE [--input-format F] [-o FILE|-|auto] [--output-format F]
//   ypbank convert --input-dir DIR [--pattern GLOB] --output-format F [--jobs N]
//
// FLAGS:
//   --input, -i     : Input file, or "-" for standard input
//   --output, -o    : Output file, "-" for standard output (default), or
//                     "auto" to generate a name in --output-dir
//   --input-dir     : Convert every matching file of a directory (batch mode)
//   --pattern       : Glob selecting files in --input-dir
//   --output-dir    : Directory for batch and auto-named outputs
//   --name-format   : Template for generated output file names
//   --jobs          : Maximum concurrent conversions in batch mode
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/ypbank-converter/internal/converter"
	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/pkg/utils"
	"github.com/spf13/cobra"
)

// autoOutput asks for a generated output file name.
const autoOutput = "auto"

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var convertOpts struct {
	input        string
	inputFormat  string
	output       string
	outputFormat string
	inputDir     string
	pattern      string
}

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a transaction history to another format",
	Long: `The convert command decodes a transaction history and encodes it again in
another format. Values are never changed.

Formats are taken from the format flags, otherwise from the file extensions,
otherwise from the configured defaults.

On error:
  - Nothing is written to standard output
  - No output file is created, and an existing one is left untouched

With --input-dir every matching file is converted concurrently into
--output-dir. Errors in one file do not affect the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if convertOpts.inputDir != "" {
			return runBatch(cmd)
		}
		return runConvert(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringVarP(&convertOpts.input, "input", "i", "", `Input file, or "-" for standard input`)
	flags.StringVar(&convertOpts.inputFormat, "input-format", "", "Input format (default: from the file extension)")
	flags.StringVarP(&convertOpts.output, "output", "o", utils.Stdio, `Output file, "-" for standard output, or "auto"`)
	flags.StringVar(&convertOpts.outputFormat, "output-format", "", "Output format (default: from the file extension, then configuration)")
	flags.StringVar(&convertOpts.inputDir, "input-dir", "", "Convert every matching file in this directory")
	flags.StringVar(&convertOpts.pattern, "pattern", "", `Glob selecting files in --input-dir (e.g. "*.csv")`)

	// Bound to configuration keys; read through cfg.
	flags.String("output-dir", "./output", "Directory for batch and auto-named outputs")
	flags.String("name-format", "{original}_{timestamp}_{uuid}{ext}", "Template for generated output file names")
	flags.Int("jobs", 4, "Maximum concurrent conversions in batch mode")

	convertCmd.MarkFlagsMutuallyExclusive("input", "input-dir")
	convertCmd.MarkFlagsOneRequired("input", "input-dir")
}

// =============================================================================
// SINGLE FILE
// =============================================================================

func runConvert(cmd *cobra.Command) error {
	from, err := resolveCodec(convertOpts.inputFormat, convertOpts.input, cfg.DefaultInputFormat)
	if err != nil {
		return err
	}

	output := convertOpts.output
	outputHint := output
	if output == autoOutput {
		outputHint = ""
	}
	to, err := resolveCodec(convertOpts.outputFormat, outputHint, cfg.DefaultOutputFormat)
	if err != nil {
		return err
	}

	if output == autoOutput {
		output = filepath.Join(cfg.OutputDir, outputName(convertOpts.input, to))
	}

	result := converter.New(converter.Options{
		Input:  convertOpts.input,
		From:   from,
		Output: output,
		To:     to,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Logger: logger,
	}).Run(cmd.Context())

	return classify(result.Err)
}

// outputName generates the output file name for input.
func outputName(input string, to formats.Codec) string {
	original := "stdin"
	if input != utils.Stdio {
		original = utils.TrimExt(input)
	}
	ext := ""
	if exts := to.Extensions(); len(exts) > 0 {
		ext = exts[0]
	}
	return utils.GenerateOutputFileName(cfg.OutputNameFormat, map[string]string{
		"original": original,
		"format":   to.Name(),
		"ext":      ext,
	})
}

// =============================================================================
// BATCH
// =============================================================================

func runBatch(cmd *cobra.Command) error {
	start := time.Now()
	out := cmd.OutOrStdout()

	var from formats.Codec
	if convertOpts.inputFormat != "" {
		c, err := resolveCodec(convertOpts.inputFormat, "", "")
		if err != nil {
			return err
		}
		from = c
	}
	to, err := resolveCodec(convertOpts.outputFormat, "", cfg.DefaultOutputFormat)
	if err != nil {
		return err
	}

	results, err := converter.RunBatch(cmd.Context(), converter.BatchOptions{
		InputDir:   convertOpts.inputDir,
		Pattern:    convertOpts.pattern,
		From:       from,
		To:         to,
		OutputDir:  cfg.OutputDir,
		NameFormat: cfg.OutputNameFormat,
		Jobs:       cfg.MaxConcurrency,
		Logger:     logger,
	})
	if err != nil {
		return ioError(err)
	}

	// =========================================================================
	// SUMMARY
	// =========================================================================

	var firstErr error
	var succeeded, records int
	for _, r := range results {
		if r.Success {
			succeeded++
			records += r.Stats.Records
			fmt.Fprintf(out, "  ✓ %s -> %s (%d records)\n", filepath.Base(r.Input), r.Output, r.Stats.Records)
			continue
		}
		fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(r.Input), r.Err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", filepath.Base(r.Input), r.Err)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total files:     %d\n", len(results))
	fmt.Fprintf(out, "Successful:      %d\n", succeeded)
	fmt.Fprintf(out, "Errors:          %d\n", len(results)-succeeded)
	fmt.Fprintf(out, "Records:         %d\n", records)
	fmt.Fprintf(out, "Time elapsed:    %s\n", time.Since(start).Round(time.Millisecond))

	if errors.Is(firstErr, converter.ErrUnknownFormat) {
		return usageError(firstErr)
	}
	return classify(firstErr)
}
