// =============================================================================
// YPBank Converter - Compare Command
// =============================================================================
//
// This file defines the 'compare' command, which reports the first position
// at which two transaction histories differ. The two files may be in
// different formats.
//
// COMMAND USAGE:
//   ypbank compare --file1 A [--format1 F] --file2 B [--format2 F] [--fail-on-diff]
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/ypbank-converter/internal/comparator"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
	"github.com/ginjaninja78/ypbank-converter/pkg/utils"
	"github.com/spf13/cobra"
)

var compareOpts struct {
	file1, format1 string
	file2, format2 string
	failOnDiff     bool
}

// compareCmd represents the 'compare' command.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two transaction histories",
	Long: `The compare command decodes two transaction histories and walks them
record by record. It reports the first position where they differ, showing
both records (or <no record> past the end of the shorter history), or
confirms that they are identical.

The exit code is 0 in both cases unless --fail-on-diff is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if compareOpts.file1 == utils.Stdio && compareOpts.file2 == utils.Stdio {
			return usageError(errors.New("only one of --file1 and --file2 can read standard input"))
		}
		lhs, err := readHistory(cmd, compareOpts.file1, compareOpts.format1)
		if err != nil {
			return err
		}
		rhs, err := readHistory(cmd, compareOpts.file2, compareOpts.format2)
		if err != nil {
			return err
		}

		result := comparator.Compare(lhs, rhs)
		logger.Info("comparison complete",
			"equivalent", result.Equivalent,
			"lhs_records", result.LeftLen,
			"rhs_records", result.RightLen,
		)

		if err := result.WriteReport(cmd.OutOrStdout()); err != nil {
			return ioError(err)
		}
		if !result.Equivalent && compareOpts.failOnDiff {
			return errDiffer
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	flags := compareCmd.Flags()
	flags.StringVar(&compareOpts.file1, "file1", "", "First history (LHS)")
	flags.StringVar(&compareOpts.format1, "format1", "", "Format of --file1 (default: from the file extension)")
	flags.StringVar(&compareOpts.file2, "file2", "", "Second history (RHS)")
	flags.StringVar(&compareOpts.format2, "format2", "", "Format of --file2 (default: from the file extension)")
	flags.BoolVar(&compareOpts.failOnDiff, "fail-on-diff", false, "Exit with code 5 when the histories differ")

	compareCmd.MarkFlagRequired("file1")
	compareCmd.MarkFlagRequired("file2")
}

// readHistory decodes the whole file at path. Stdio reads the command's
// standard input.
func readHistory(cmd *cobra.Command, path, format string) ([]types.Transaction, error) {
	codec, err := resolveCodec(format, path, cfg.DefaultInputFormat)
	if err != nil {
		return nil, err
	}

	in, err := utils.OpenInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, ioError(err)
	}
	defer in.Close()

	txs, err := codec.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("decoded history", "path", path, "format", codec.Name(), "records", len(txs))
	return txs, nil
}
