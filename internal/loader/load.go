package loader

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"time"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Sink consumes segments. *markov.Index implements it.
type Sink interface {
	AddSegment(text string) bool
}

// Report summarizes one load.
type Report struct {
	// Segments is the number of segments read.
	Segments int `json:"segments"`
	// Learned is the number of segments that produced at least one tuple.
	Learned  int           `json:"learned"`
	Duration time.Duration `json:"duration"`
}

const progressInterval = 10000

// MaxSegmentSize is the largest segment fed to a sink. Longer runs without
// a terminator are split into several segments.
const MaxSegmentSize = 4 * 1024 * 1024

// Load reads r to the end and feeds every segment to sink. ctx is checked
// between segments; a cancelled load leaves every segment fed so far in place.
func Load(ctx context.Context, r io.Reader, format Format, sink Sink) (Report, error) {
	start := time.Now()
	var rep Report

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxSegmentSize)
	scanner.Split(format.SplitFunc())

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(start)
			return rep, err
		}

		rep.Segments++
		if sink.AddSegment(scanner.Text()) {
			rep.Learned++
		}

		if rep.Segments%progressInterval == 0 {
			slog.Info("load_progress",
				slog.Int("segments", rep.Segments),
				slog.Int("learned", rep.Learned),
				slog.String("format", format.String()))
		}
	}
	rep.Duration = time.Since(start)

	if err := scanner.Err(); err != nil {
		return rep, shaperrors.IOError("failed to read source", err)
	}

	slog.Debug("load_complete",
		slog.Int("segments", rep.Segments),
		slog.Int("learned", rep.Learned),
		slog.Duration("duration", rep.Duration))

	return rep, nil
}
