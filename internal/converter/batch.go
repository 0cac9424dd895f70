// =============================================================================
// YPBank Converter - Batch Conversion
// =============================================================================
//
// RunBatch converts every matching file of a directory into an output
// directory.
//
// PROCESSING PIPELINE:
//   1. Discover input files in the input directory
//   2. Resolve each file's source format (explicit, or by extension)
//   3. For each file (concurrently, at most Jobs at a time):
//      a. Generate the output file name
//      b. Run a Converter
//   4. Collect the results in input order
//
// Errors in one file do not affect the processing of others.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/pkg/utils"
)

// ErrUnknownFormat is reported for a file whose format cannot be detected.
var ErrUnknownFormat = errors.New("unknown input format")

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// InputDir is scanned (not recursively) for input files.
	InputDir string

	// Pattern is a glob matched against file names. Empty matches all.
	Pattern string

	// From decodes every input. Nil detects the format per file from its
	// extension; files with no recognizable extension fail.
	From formats.Codec

	// To encodes every output.
	To formats.Codec

	// OutputDir receives the outputs.
	OutputDir string

	// NameFormat is the output file name template
	// (see utils.GenerateOutputFileName). {original}, {format} and {ext}
	// are filled in per file.
	NameFormat string

	// Jobs is the maximum number of concurrent conversions. Values below 1
	// mean 1.
	Jobs int

	// Logger receives progress messages. Nil means slog.Default().
	Logger *slog.Logger
}

// RunBatch converts the files of opts.InputDir.
//
// RETURNS:
//   - One Result per input file, in sorted input order.
//   - An error only if the input directory cannot be scanned.
func RunBatch(ctx context.Context, opts BatchOptions) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputs, err := utils.DiscoverInputFiles(opts.InputDir, opts.Pattern)
	if err != nil {
		return nil, err
	}
	logger.Info("discovered input files", slog.String("dir", opts.InputDir), slog.Int("count", len(inputs)))

	if len(inputs) == 0 {
		return []Result{}, nil
	}
	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	// =========================================================================
	// STEP 2-3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file; the semaphore bounds how many convert at once.
	// Results are collected over a buffered channel.

	type indexed struct {
		i int
		r Result
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, jobs)
	results := make(chan indexed, len(inputs))

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- indexed{i, Result{Input: input, Err: ctx.Err()}}
				return
			}

			results <- indexed{i, convertOne(ctx, input, opts, logger)}
		}(i, input)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	out := make([]Result, len(inputs))
	for r := range results {
		out[r.i] = r.r
	}
	return out, nil
}

func convertOne(ctx context.Context, input string, opts BatchOptions, logger *slog.Logger) Result {
	from := opts.From
	if from == nil {
		from = formats.Detect(input)
		if from == nil {
			return Result{
				Input: input,
				Err:   fmt.Errorf("%w: cannot detect the format of %s from its extension", ErrUnknownFormat, filepath.Base(input)),
			}
		}
	}

	ext := ""
	if exts := opts.To.Extensions(); len(exts) > 0 {
		ext = exts[0]
	}
	name := utils.GenerateOutputFileName(opts.NameFormat, map[string]string{
		"original": utils.TrimExt(input),
		"format":   opts.To.Name(),
		"ext":      ext,
	})

	return New(Options{
		Input:  input,
		From:   from,
		Output: filepath.Join(opts.OutputDir, name),
		To:     opts.To,
		Logger: logger,
	}).Run(ctx)
}
