package fsio

import (
	"github.com/rs/zerolog"

	"github.com/skystar-p/zoog/oggstream"
)

// StdoutSink is a oggstream.Sink for zoogain's --display-only mode and
// zoocomment's list mode: it never touches disk, only logs what would have
// been written.
type StdoutSink struct {
	Path   string
	Logger zerolog.Logger

	packets int
}

// WritePacket reports the packet it was handed without writing anything.
func (s *StdoutSink) WritePacket(data []byte, serial uint32, end oggstream.EndInfo, absgp uint64) error {
	s.packets++
	s.Logger.Debug().
		Str("path", s.Path).
		Int("packet", s.packets).
		Uint32("serial", serial).
		Uint64("absgp", absgp).
		Msg("would write packet")
	return nil
}

// Finish logs a one-line summary once the dry run completes.
func (s *StdoutSink) Finish() {
	s.Logger.Info().Str("path", s.Path).Int("packets", s.packets).Msg("dry run complete, no changes written")
}
