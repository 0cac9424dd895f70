// =============================================================================
// YPBank Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks data properties
// the formats do not enforce (unique ids, ordered timestamps, counterparties)
// and prints a summary of the history.
//
// COMMAND USAGE:
//   ypbank validate -i FILE [--input-format F] [--strict] [--warnings-as-errors]
//
// =============================================================================

package cmd

import (
	"github.com/ginjaninja78/ypbank-converter/internal/validation"
	"github.com/spf13/cobra"
)

var validateOpts struct {
	input            string
	inputFormat      string
	strict           bool
	warningsAsErrors bool
}

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a transaction history and summarize it",
	Long: `The validate command decodes a transaction history, reports records that
break the configured data rules, and prints counts and totals per type.

Rule severities come from the validation block of the configuration. With
--strict the command exits with code 6 when an error-severity issue is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		txs, err := readHistory(cmd, validateOpts.input, validateOpts.inputFormat)
		if err != nil {
			return err
		}

		v := cfg.Validation
		result := validation.Validate(txs, validation.Options{
			RequireUniqueIDs:            v.RequireUniqueIDs,
			RequireMonotonicTimestamps:  v.RequireMonotonicTimestamps,
			EnforceCounterpartySentinel: v.EnforceCounterpartySentinel,
			TreatWarningsAsErrors:       validateOpts.warningsAsErrors,
			CurrencyExponent:            v.CurrencyExponent,
		})
		logger.Info("validation complete",
			"records", result.TransactionsValidated,
			"errors", result.ErrorCount,
			"warnings", result.WarningCount,
		)

		if err := result.WriteReport(cmd.OutOrStdout(), v.CurrencyExponent); err != nil {
			return ioError(err)
		}
		if validateOpts.strict && !result.IsValid {
			return errInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	flags := validateCmd.Flags()
	flags.StringVarP(&validateOpts.input, "input", "i", "", `Input file, or "-" for standard input`)
	flags.StringVar(&validateOpts.inputFormat, "input-format", "", "Input format (default: from the file extension)")
	flags.BoolVar(&validateOpts.strict, "strict", false, "Exit with code 6 when an error-severity issue is found")
	flags.BoolVar(&validateOpts.warningsAsErrors, "warnings-as-errors", false, "Report every issue as an error")

	// Bound to configuration keys; read through cfg.
	flags.Bool("require-unique-ids", false, "Report duplicate TX_IDs as errors")
	flags.Bool("require-monotonic-timestamps", false, "Report decreasing timestamps as errors")
	flags.Bool("enforce-counterparty-sentinel", true, "Check user 0 on deposits, withdrawals and transfers")
	flags.Int("currency-exponent", 2, "Decimal places between minor and major currency units")

	validateCmd.MarkFlagRequired("input")
}
