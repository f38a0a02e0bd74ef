package captions

import (
	"bytes"
	"strings"
	"testing"

	"storyreel/internal/scenario"
)

func sampleLines() []scenario.CaptionLine {
	return []scenario.CaptionLine{
		scenario.NewCaptionLine([]scenario.Word{{Word: "Кофе", Start: 0, End: 0.5}, {Word: "везде.", Start: 0.6, End: 1.25}}),
		scenario.NewCaptionLine([]scenario.Word{{Word: "{Да}", Start: 3661.5, End: 3662}}),
	}
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSRT(&buf, sampleLines()); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,250\nКофе везде.\n\n2\n01:01:01,500 --> 01:01:02,000\n{Да}\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected SRT:\n%s", buf.String())
	}
}

func TestWriteASSHighlightsEachWord(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteASS(&buf, sampleLines(), DefaultStyle()); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "PlayResX: 1080") || !strings.Contains(out, "PlayResY: 1920") {
		t.Fatalf("missing play resolution:\n%s", out)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:00.00,0:00:00.60,Caption,,0,0,0,,{\\3c&H00FF0000&\\bord8}Кофе{\\r} везде.") {
		t.Fatalf("first word event missing:\n%s", out)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:00.60,0:00:01.25,Caption,,0,0,0,,Кофе {\\3c&H00FF0000&\\bord8}везде.{\\r}") {
		t.Fatalf("second word event missing:\n%s", out)
	}
	if !strings.Contains(out, "1:01:01.50,1:01:02.00") {
		t.Fatalf("hour timestamp missing:\n%s", out)
	}
	if strings.Contains(out, "{Да}") {
		t.Fatalf("braces must be escaped:\n%s", out)
	}
	if got := strings.Count(out, "Dialogue:"); got != 3 {
		t.Fatalf("dialogue events = %d, want 3", got)
	}
}

func TestAssColor(t *testing.T) {
	if got := assColor("#112233"); got != "&H00332211&" {
		t.Fatalf("assColor = %q", got)
	}
	if got := assColor("bad"); got != "&H00FFFFFF&" {
		t.Fatalf("assColor fallback = %q", got)
	}
}
