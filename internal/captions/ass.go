package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"storyreel/internal/scenario"
)

// Style controls ASS rendering.
type Style struct {
	Font      string
	FontSize  int
	Width     int
	Height    int
	MarginV   int
	TextColor string // RRGGBB
	Highlight string // RRGGBB, background of the spoken word
}

// DefaultStyle matches a 1080x1920 portrait frame.
func DefaultStyle() Style {
	return Style{
		Font:      "DejaVu Sans",
		FontSize:  70,
		Width:     1080,
		Height:    1920,
		MarginV:   480,
		TextColor: "FFFFFF",
		Highlight: "0000FF",
	}
}

// WriteASS writes lines as Advanced SubStation events. Each line is shown for
// its whole span; one event is emitted per word so the word being spoken is
// drawn on the highlight colour while the rest of the line stays plain.
func WriteASS(w io.Writer, lines []scenario.CaptionLine, style Style) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 0\nScaledBorderAndShadow: yes\n\n", style.Width, style.Height)
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Caption,%s,%d,%s,%s,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,3,4,0,2,108,108,%d,1\n\n",
		style.Font, style.FontSize, assColor(style.TextColor), assColor(style.TextColor), style.MarginV)
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, line := range lines {
		for i, word := range line.Words {
			start := word.Start
			if i == 0 {
				start = line.Start
			}
			end := line.End
			if i+1 < len(line.Words) {
				end = line.Words[i+1].Start
			}
			if end <= start {
				continue
			}
			fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Caption,,0,0,0,,%s\n", assTimestamp(start), assTimestamp(end), highlightText(line.Words, i, style))
		}
	}
	return bw.Flush()
}

func highlightText(words []scenario.Word, active int, style Style) string {
	parts := make([]string, len(words))
	for i, w := range words {
		text := escapeASS(w.Word)
		if i == active {
			text = fmt.Sprintf("{\\3c%s\\bord8}%s{\\r}", assColor(style.Highlight), text)
		}
		parts[i] = text
	}
	return strings.Join(parts, " ")
}

var assEscaper = strings.NewReplacer("{", "(", "}", ")", "\n", " ", "\\", "/")

func escapeASS(s string) string {
	return assEscaper.Replace(s)
}

// assColor converts RRGGBB to the ASS &HBBGGRR& form.
func assColor(rgb string) string {
	rgb = strings.TrimPrefix(strings.TrimSpace(rgb), "#")
	if len(rgb) != 6 {
		return "&H00FFFFFF&"
	}
	rgb = strings.ToUpper(rgb)
	return "&H00" + rgb[4:6] + rgb[2:4] + rgb[0:2] + "&"
}

func assTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 100))
	cs := total % 100
	s := (total / 100) % 60
	m := (total / 6000) % 60
	h := total / 360000
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
