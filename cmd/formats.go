// =============================================================================
// YPBank Converter - Formats Command
// =============================================================================
//
// This file defines the 'formats' command and the codec selection shared by
// the other commands.
//
// CODEC SELECTION:
//   1. An explicit --*-format flag
//   2. The file extension
//   3. The configured default (default_input_format / default_output_format)
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	_ "github.com/ginjaninja78/ypbank-converter/internal/bincodec"
	_ "github.com/ginjaninja78/ypbank-converter/internal/csvcodec"
	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	_ "github.com/ginjaninja78/ypbank-converter/internal/textcodec"
	"github.com/ginjaninja78/ypbank-converter/internal/xlsxcodec"
	_ "github.com/ginjaninja78/ypbank-converter/internal/xmlcodec"
	"github.com/ginjaninja78/ypbank-converter/pkg/utils"
	"github.com/spf13/cobra"
)

// formatsCmd represents the 'formats' command.
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FORMAT\tEXTENSIONS")
		for _, c := range formats.All() {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name(), strings.Join(c.Extensions(), " "))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

// resolveCodec picks the codec for path. fallback is the configured default
// used when neither name nor the extension decide.
func resolveCodec(name, path, fallback string) (formats.Codec, error) {
	var (
		c   formats.Codec
		err error
	)
	switch {
	case name != "":
		c, err = formats.Lookup(name)
	case path != "" && path != utils.Stdio && formats.Detect(path) != nil:
		c = formats.Detect(path)
	case fallback != "":
		c, err = formats.Lookup(fallback)
	default:
		err = fmt.Errorf("cannot detect the format of %q; use a format flag (known: %s)",
			path, strings.Join(formats.Names(), ", "))
	}
	if err != nil {
		return nil, usageError(err)
	}
	return configure(c), nil
}

// configure applies configuration to codecs that have settings.
func configure(c formats.Codec) formats.Codec {
	if c != nil && c.Name() == xlsxcodec.Name {
		return xlsxcodec.New(cfg.XLSXSheet)
	}
	return c
}
