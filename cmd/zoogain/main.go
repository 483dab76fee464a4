// Command zoogain normalizes the playback loudness of one or more Ogg
// Opus files in place, setting the stream's output gain and
// R128_TRACK_GAIN/R128_ALBUM_GAIN comment tags from a BS.1770 loudness
// measurement pass.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/fsio"
	"github.com/skystar-p/zoog/oggstream"
	"github.com/skystar-p/zoog/rewriter"
	"github.com/skystar-p/zoog/volume"
)

func main() {
	app := &cli.App{
		Name:      "zoogain",
		Usage:     "normalize the playback loudness of Ogg Opus files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "album",
				Usage: "treat every input file as one album, normalizing to a shared gain",
			},
			&cli.StringFlag{
				Name:  "preset",
				Value: "rg",
				Usage: "target loudness: rg (ReplayGain, -18 LUFS), r128 (EBU R128, -23 LUFS), original (0 dB), or no-change",
			},
			&cli.StringFlag{
				Name:  "output-gain-mode",
				Value: "auto",
				Usage: "auto (per-album in --album mode, per-track otherwise) or track",
			},
			&cli.BoolFlag{
				Name:  "display-only",
				Usage: "compute what would change and log it without modifying any file",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "remove the R128 tags, leaving the output gain unchanged",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Aborted due to error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one input file is required", 1)
	}

	album := c.Bool("album")
	clearing := c.Bool("clear")
	displayOnly := c.Bool("display-only")

	target := volume.NoChangeTarget()
	if !clearing {
		var err error
		target, err = parsePreset(c.String("preset"))
		if err != nil {
			return err
		}
	} else {
		album = false
	}

	mode, err := parseOutputGainMode(c.String("output-gain-mode"), album)
	if err != nil {
		return err
	}

	trackVolumes, albumVolume, err := measureVolumes(paths, logger)
	if err != nil {
		return err
	}

	var albumVolumePtr *zoog.Decibels
	if album {
		albumVolumePtr = &albumVolume
	}

	results, err := fsio.ProcessAll[volume.OpusGains](c.Context, paths, nil, displayOnly, logger,
		func(path string) (rewriter.HeaderRewrite[volume.OpusGains], error) {
			trackVol := trackVolumes[path]
			return &volume.Rewrite{
				Target:      target,
				Mode:        mode,
				TrackVolume: &trackVol,
				AlbumVolume: albumVolumePtr,
			}, nil
		})
	if err != nil {
		return fmt.Errorf("processing aborted: %w", err)
	}

	numProcessed := 0
	numUnchanged := 0
	for _, r := range results {
		numProcessed++
		if r.Err != nil {
			logger.Error().Str("path", r.Path).Err(r.Err).Msg("failed to process file")
			continue
		}
		switch r.Result.Kind {
		case rewriter.HeadersUnchanged:
			numUnchanged++
			fmt.Printf("%s: already at target loudness, no change made.\n", r.Path)
		case rewriter.HeadersChanged:
			fmt.Printf("%s: output gain %s -> %s.\n", r.Path, r.Result.From.Output.ToDecibels(), r.Result.To.Output.ToDecibels())
		default:
			fmt.Printf("%s: file appeared to be truncated before any header was found.\n", r.Path)
		}
	}

	fmt.Println("Processing complete.")
	fmt.Printf("Total files processed: %d\n", numProcessed)
	fmt.Printf("Files already normalized: %d\n", numUnchanged)
	return nil
}

func parsePreset(preset string) (volume.VolumeTarget, error) {
	switch preset {
	case "rg":
		return volume.LUFSTarget(zoog.ReplayGainLUFS), nil
	case "r128":
		return volume.LUFSTarget(zoog.R128LUFS), nil
	case "original":
		return volume.ZeroGainTarget(), nil
	case "no-change":
		return volume.NoChangeTarget(), nil
	default:
		return volume.VolumeTarget{}, fmt.Errorf("unrecognized preset %q: want rg, r128, original, or no-change", preset)
	}
}

func parseOutputGainMode(setting string, album bool) (volume.OutputGainMode, error) {
	switch setting {
	case "auto":
		if album {
			return volume.ModeAlbum, nil
		}
		return volume.ModeTrack, nil
	case "track":
		return volume.ModeTrack, nil
	default:
		return 0, fmt.Errorf("unrecognized output-gain-mode %q: want auto or track", setting)
	}
}

// measureVolumes runs a single BS.1770 analysis pass over every input file
// in order, mirroring opusgain's compute_album_volume: one Analyzer
// accumulates windows across every track, so its MeanLUFS is already the
// gated mean over the union of windows the album target needs, while each
// file's own LastTrackLUFS right after its FileComplete is that file's
// track-mode target.
func measureVolumes(paths []string, logger zerolog.Logger) (map[string]zoog.Decibels, zoog.Decibels, error) {
	analyzer := volume.NewAnalyzer()
	trackVolumes := make(map[string]zoog.Decibels, len(paths))

	for _, path := range paths {
		logger.Info().Str("path", path).Msg("computing loudness")
		if err := analyzeFile(analyzer, path); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		lufs, ok := analyzer.LastTrackLUFS()
		if !ok {
			return nil, 0, fmt.Errorf("%s: no track loudness recorded", path)
		}
		trackVolumes[path] = zoog.Decibels(lufs)
		logger.Info().Str("path", path).Float64("lufs", lufs).Msg("measured loudness (ignoring output gain)")
	}

	return trackVolumes, zoog.Decibels(analyzer.MeanLUFS()), nil
}

func analyzeFile(analyzer *volume.Analyzer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return zoog.WrapError(zoog.FileOpen, path, err)
	}
	defer f.Close()

	source := oggstream.NewReader(f)
	for {
		pkt, err := source.Next()
		if err != nil {
			return err
		}
		if pkt == nil {
			break
		}
		if err := analyzer.Submit(pkt.Data); err != nil {
			return err
		}
	}
	analyzer.FileComplete()
	return nil
}
