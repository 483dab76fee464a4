package fsio

import (
	"context"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/oggstream"
	"github.com/skystar-p/zoog/rewriter"
)

// FileResult is one path's outcome from ProcessAll, carrying either the
// final SubmitResult or the error that aborted that file.
type FileResult[S any] struct {
	Path   string
	Result rewriter.SubmitResult[S]
	Err    error
}

// TransformFactory builds the per-file transform ProcessAll hands to a
// fresh rewriter.Rewriter, e.g. a volume.Rewrite closing over that file's
// own measured loudness, or a comment.Rewrite closing over shared CLI
// flags. Called once per path, from that path's own goroutine.
type TransformFactory[S any] func(path string) (rewriter.HeaderRewrite[S], error)

// ProcessAll drives every path in paths through its own Rewriter, bounded
// to runtime.NumCPU() concurrent files (grounded on the teacher's OpenMany).
// Per spec, only one file commits at a time: a single mutex serializes the
// rename/discard phase across the whole pool, while decoding and rewriting
// proceed fully in parallel. Interrupt is polled between packets and again
// immediately before that file's commit so a cooperative cancellation can
// still land mid-run without corrupting a file that was about to be
// replaced.
func ProcessAll[S any](ctx context.Context, paths []string, interrupt zoog.InterruptChecker, dryRun bool, logger zerolog.Logger, newTransform TransformFactory[S]) ([]FileResult[S], error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var commitMu sync.Mutex
	results := make([]FileResult[S], len(paths))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result, err := processOne(path, interrupt, dryRun, logger, newTransform, &commitMu)
			results[i] = FileResult[S]{Path: path, Result: result, Err: err}
			if err != nil {
				logger.Error().Str("path", path).Err(err).Msg("failed to process file")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func processOne[S any](path string, interrupt zoog.InterruptChecker, dryRun bool, logger zerolog.Logger, newTransform TransformFactory[S], commitMu *sync.Mutex) (rewriter.SubmitResult[S], error) {
	var zero rewriter.SubmitResult[S]

	in, err := os.Open(path)
	if err != nil {
		return zero, zoog.WrapError(zoog.FileOpen, path, err)
	}
	defer in.Close()

	transform, err := newTransform(path)
	if err != nil {
		return zero, err
	}

	var committer *Committer
	var sink oggstream.Sink
	if dryRun {
		dry := &StdoutSink{Path: path, Logger: logger}
		defer dry.Finish()
		sink = dry
	} else {
		committer, err = NewCommitter(path)
		if err != nil {
			return zero, err
		}
		sink = oggstream.NewWriter(committer)
	}

	source := oggstream.NewReader(in)
	rw := rewriter.New(sink, transform)

	// headerResult holds the Submit result from the packet that resolved the
	// header phase (HeadersChanged or HeadersUnchanged). Every later packet
	// is an audio packet forwarded from the Forwarding state, whose Submit
	// result is always Good, so headerResult -- not the last Submit result --
	// is what the commit decision and the returned FileResult must use.
	var headerResult rewriter.SubmitResult[S]
	for {
		if interrupt != nil && interrupt.Interrupted() {
			if committer != nil {
				_ = committer.Discard()
			}
			return zero, zoog.NewError(zoog.Interrupted, path)
		}

		pkt, err := source.Next()
		if err != nil {
			if committer != nil {
				_ = committer.Discard()
			}
			return zero, err
		}
		if pkt == nil {
			break
		}

		result, err := rw.Submit(pkt)
		if err != nil {
			if committer != nil {
				_ = committer.Discard()
			}
			return zero, err
		}
		if result.Kind == rewriter.HeadersChanged || result.Kind == rewriter.HeadersUnchanged {
			headerResult = result
		}
	}

	if committer == nil {
		return headerResult, nil
	}

	if interrupt != nil && interrupt.Interrupted() {
		_ = committer.Discard()
		return zero, zoog.NewError(zoog.Interrupted, path)
	}

	commitMu.Lock()
	defer commitMu.Unlock()

	if headerResult.Kind == rewriter.HeadersChanged {
		if err := committer.Commit(); err != nil {
			return zero, err
		}
	} else {
		if err := committer.Discard(); err != nil {
			return zero, err
		}
	}

	return headerResult, nil
}
