package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"storyreel/internal/scenario"
)

// WriteSRT writes lines as numbered SubRip cues.
func WriteSRT(w io.Writer, lines []scenario.CaptionLine) error {
	bw := bufio.NewWriter(w)
	for i, line := range lines {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(line.Start), srtTimestamp(line.End), line.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	s := (total / 1000) % 60
	m := (total / 60000) % 60
	h := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
