// Command zoocomment lists, appends to, or replaces the Vorbis-style
// comment header of an Ogg Opus file.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/comment"
	"github.com/skystar-p/zoog/escaping"
	"github.com/skystar-p/zoog/fsio"
	"github.com/skystar-p/zoog/oggstream"
	"github.com/skystar-p/zoog/opus"
	"github.com/skystar-p/zoog/rewriter"
)

func main() {
	app := &cli.App{
		Name:      "zoocomment",
		Usage:     "list or edit the comments in an Ogg Opus file",
		ArgsUsage: "INPUT_FILE [OUTPUT_FILE]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "list comments in the file"},
			&cli.BoolFlag{Name: "append", Aliases: []string{"a"}, Usage: "append comments to the file"},
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "replace all comments in the file"},
			&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "a NAME=VALUE comment to append"},
			&cli.StringSliceFlag{Name: "rm", Aliases: []string{"d"}, Usage: "a NAME or NAME=VALUE pattern to delete (append mode only)"},
			&cli.BoolFlag{Name: "escapes", Aliases: []string{"e"}, Usage: "use \\n, \\r, \\0 and \\\\ escapes for tag values"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Aborted due to error:", err)
		os.Exit(1)
	}
}

type operationMode int

const (
	modeList operationMode = iota
	modeAppend
	modeWrite
)

func run(c *cli.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if c.Args().Len() < 1 {
		return cli.Exit("an input file is required", 1)
	}
	inputPath := c.Args().Get(0)
	outputPath := inputPath
	if c.Args().Len() >= 2 {
		outputPath = c.Args().Get(1)
	}

	mode, err := resolveMode(c.Bool("append"), c.Bool("write"))
	if err != nil {
		return err
	}

	escape := c.Bool("escapes")
	appendEntries, err := parseTagArgs(c.StringSlice("tag"), escape)
	if err != nil {
		return err
	}
	deletePatterns, err := parseDeletePatterns(c.StringSlice("rm"), escape)
	if err != nil {
		return err
	}

	var action comment.CommentRewriterAction
	switch mode {
	case modeList:
		action = comment.NoChange()
	case modeAppend:
		action = comment.Modify(deletePatterns.Retain, appendEntries)
	case modeWrite:
		action = comment.Replace(appendEntries)
	}

	transform := &comment.Rewrite{Action: action}

	result, err := rewriteOne(inputPath, outputPath, mode, transform, logger)
	if err != nil {
		return fmt.Errorf("failure during processing of %s: %w", inputPath, err)
	}

	switch result.Kind {
	case rewriter.Good:
		fmt.Printf("File %s appeared to be oddly truncated. Doing nothing.\n", inputPath)
	case rewriter.HeadersUnchanged:
		if mode == modeList {
			printComments(result.Summary, escape)
		}
	case rewriter.HeadersChanged:
	}
	return nil
}

func resolveMode(appendMode, write bool) (operationMode, error) {
	switch {
	case !appendMode && !write:
		return modeList, nil
	case appendMode && !write:
		return modeAppend, nil
	case !appendMode && write:
		return modeWrite, nil
	default:
		return 0, fmt.Errorf("invalid combination of --append and --write")
	}
}

func parseTagArgs(args []string, escape bool) ([]opus.CommentEntry, error) {
	entries := make([]opus.CommentEntry, 0, len(args))
	for _, arg := range args {
		key, value, err := comment.ParseTagArg(arg)
		if err != nil {
			return nil, err
		}
		if escape {
			decoded, err := escaping.Unescape([]byte(value))
			if err != nil {
				return nil, err
			}
			value = string(decoded)
		}
		entries = append(entries, opus.CommentEntry{Key: key, Value: value})
	}
	return entries, nil
}

func parseDeletePatterns(args []string, escape bool) (comment.Patterns, error) {
	patterns := make(comment.Patterns, 0, len(args))
	for _, arg := range args {
		pat, err := comment.ParseRemovePattern(arg)
		if err != nil {
			return nil, err
		}
		if escape && pat.HasValue {
			decoded, err := escaping.Unescape([]byte(pat.Value))
			if err != nil {
				return nil, err
			}
			pat.Value = string(decoded)
		}
		patterns = append(patterns, pat)
	}
	return patterns, nil
}

// rewriteOne drives a single input file through the rewriter state machine.
// List mode never writes: it runs against a StdoutSink so the only effect
// is computing the before/after comparison the printout below depends on.
// Append/write mode commits atomically when output equals input, and
// otherwise writes straight to the (possibly new) output path.
func rewriteOne(inputPath, outputPath string, mode operationMode, transform rewriter.HeaderRewrite[*opus.DiscreteCommentList], logger zerolog.Logger) (rewriter.SubmitResult[*opus.DiscreteCommentList], error) {
	var zero rewriter.SubmitResult[*opus.DiscreteCommentList]

	in, err := os.Open(inputPath)
	if err != nil {
		return zero, zoog.WrapError(zoog.FileOpen, inputPath, err)
	}
	defer in.Close()

	var sink oggstream.Sink
	var committer *fsio.Committer
	var plainOut *os.File

	switch {
	case mode == modeList:
		dry := &fsio.StdoutSink{Path: inputPath, Logger: logger}
		sink = dry
	case outputPath == inputPath:
		committer, err = fsio.NewCommitter(inputPath)
		if err != nil {
			return zero, err
		}
		sink = oggstream.NewWriter(committer)
	default:
		plainOut, err = os.Create(outputPath)
		if err != nil {
			return zero, zoog.WrapError(zoog.FileOpen, outputPath, err)
		}
		sink = oggstream.NewWriter(plainOut)
	}

	source := oggstream.NewReader(in)
	rw := rewriter.New(sink, transform)

	// headerResult captures the Submit result from the packet that resolved
	// the header phase (HeadersChanged or HeadersUnchanged); every packet
	// after that is audio forwarded from the Forwarding state and always
	// reports Good, so it must not overwrite the commit decision below.
	var headerResult rewriter.SubmitResult[*opus.DiscreteCommentList]
	for {
		pkt, err := source.Next()
		if err != nil {
			abort(committer, plainOut)
			return zero, err
		}
		if pkt == nil {
			break
		}
		result, err := rw.Submit(pkt)
		if err != nil {
			abort(committer, plainOut)
			return zero, err
		}
		if result.Kind == rewriter.HeadersChanged || result.Kind == rewriter.HeadersUnchanged {
			headerResult = result
		}
	}

	if plainOut != nil {
		if err := plainOut.Sync(); err != nil {
			return zero, zoog.WrapError(zoog.WriteError, outputPath, err)
		}
		if err := plainOut.Close(); err != nil {
			return zero, zoog.WrapError(zoog.WriteError, outputPath, err)
		}
		return headerResult, nil
	}

	if committer == nil {
		return headerResult, nil
	}

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

func abort(committer *fsio.Committer, plainOut *os.File) {
	if committer != nil {
		_ = committer.Discard()
	}
	if plainOut != nil {
		_ = plainOut.Close()
	}
}

func printComments(list *opus.DiscreteCommentList, escape bool) {
	if list == nil {
		return
	}
	for _, entry := range list.Iter() {
		value := entry.Value
		if escape {
			value = string(escaping.Escape([]byte(value)))
		}
		fmt.Printf("%s=%s\n", entry.Key, value)
	}
}
