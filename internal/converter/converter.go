// =============================================================================
// YPBank Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It moves a transaction
// sequence from one format to another without changing any value.
//
// CONVERSION PIPELINE:
//   1. Open the input (a file or standard input)
//   2. Decode the whole input with the source codec
//   3. Encode the sequence with the target codec into the output
//   4. Commit the output (stdout, or an atomically replaced file)
//
// RULES:
//   - Nothing is written before the input has been fully decoded.
//   - A failed conversion leaves no partial output file behind and never
//     replaces an existing one.
//   - Streams are closed on every exit path.
//
// CONCURRENCY:
//   A Converter handles one file. RunBatch runs one Converter per input file
//   in its own goroutine, bounded by the configured concurrency.
//
// =============================================================================

package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/pkg/utils"
)

// =============================================================================
// STREAM CONVERSION
// =============================================================================

// Convert decodes all of r with from and encodes the result to w with to.
//
// RETURNS:
//   - The number of records converted.
//   - The decode error (*types.DecodeError) or encode error
//     (*types.EncodeError). Nothing is written to w if decoding fails.
func Convert(r io.Reader, from formats.Codec, w io.Writer, to formats.Codec) (int, error) {
	txs, err := from.Decode(r)
	if err != nil {
		return 0, err
	}
	if err := to.Encode(w, txs); err != nil {
		return 0, err
	}
	return len(txs), nil
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single input.
type Result struct {
	// Input is the input path ("-" for standard input).
	Input string

	// Output is the output path ("-" for standard output).
	// This is empty if conversion failed.
	Output string

	// Success indicates whether the conversion was successful.
	Success bool

	// Err contains the error if conversion failed.
	Err error

	// Stats contains conversion statistics.
	Stats Stats
}

// Stats contains statistics about a conversion.
type Stats struct {
	// Records is the number of transactions converted.
	Records int

	// BytesWritten is the size of the encoded output.
	BytesWritten int64

	// Duration is the time taken by the conversion.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	// Input is the path to read, or "-" for standard input.
	Input string

	// From decodes the input.
	From formats.Codec

	// Output is the path to write. Empty or "-" selects Stdout.
	Output string

	// To encodes the output.
	To formats.Codec

	// Stdin and Stdout replace the process streams when set.
	Stdin  io.Reader
	Stdout io.Writer

	// Logger receives progress messages. Nil means slog.Default().
	Logger *slog.Logger
}

// Converter handles the conversion of a single input.
type Converter struct {
	opts   Options
	logger *slog.Logger
}

// New creates a new Converter instance.
func New(opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Input == "" {
		opts.Input = utils.Stdio
	}
	if opts.Output == "" {
		opts.Output = utils.Stdio
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Converter{
		opts: opts,
		logger: logger.With(
			slog.String("input", opts.Input),
			slog.String("from", opts.From.Name()),
			slog.String("to", opts.To.Name()),
		),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the conversion.
//
// PROCESSING STEPS:
//   1. Open the input
//   2. Decode it completely
//   3. Encode into the output
//   4. Commit or abort the output
func (c *Converter) Run(ctx context.Context) Result {
	start := time.Now()
	result := Result{Input: c.opts.Input}

	finish := func(err error) Result {
		result.Stats.Duration = time.Since(start)
		if err != nil {
			result.Err = err
			c.logger.Error("conversion failed", slog.Any("error", err))
			return result
		}
		result.Success = true
		c.logger.Info("conversion complete",
			slog.String("output", result.Output),
			slog.Int("records", result.Stats.Records),
			slog.Int64("bytes", result.Stats.BytesWritten),
			slog.Duration("duration", result.Stats.Duration),
		)
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// =========================================================================
	// STEP 1-2: OPEN AND DECODE INPUT
	// =========================================================================

	c.logger.Debug("decoding input")

	in, err := c.openInput()
	if err != nil {
		return finish(err)
	}
	txs, err := c.opts.From.Decode(in)
	in.Close()
	if err != nil {
		return finish(err)
	}

	c.logger.Debug("decoded input", slog.Int("records", len(txs)))

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// =========================================================================
	// STEP 3-4: ENCODE AND COMMIT OUTPUT
	// =========================================================================

	if c.opts.Output == utils.Stdio {
		// Buffer so that an encode failure writes nothing.
		var buf bytes.Buffer
		if err := c.opts.To.Encode(&buf, txs); err != nil {
			return finish(err)
		}
		n, err := buf.WriteTo(c.opts.Stdout)
		result.Stats.BytesWritten = n
		if err != nil {
			return finish(fmt.Errorf("failed to write output: %w", err))
		}
	} else {
		out, err := utils.CreateAtomic(c.opts.Output)
		if err != nil {
			return finish(err)
		}
		defer out.Abort()

		cw := &utils.CountingWriter{W: out}
		if err := c.opts.To.Encode(cw, txs); err != nil {
			return finish(err)
		}
		if err := out.Commit(); err != nil {
			return finish(err)
		}
		result.Stats.BytesWritten = cw.N
		c.logger.Debug("output committed", slog.String("path", out.Path()), slog.Int64("bytes", cw.N))
	}

	result.Output = c.opts.Output
	result.Stats.Records = len(txs)
	return finish(nil)
}

func (c *Converter) openInput() (io.ReadCloser, error) {
	return utils.OpenInput(c.opts.Input, c.opts.Stdin)
}
