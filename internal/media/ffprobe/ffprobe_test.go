package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1080, Height: 1920},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if w, h, ok := result.VideoSize(); !ok || w != 1080 || h != 1920 {
		t.Fatalf("VideoSize = %d x %d, %v", w, h, ok)
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "4.2"}, {Duration: "N/A"}, {Duration: "5.5"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 5.5 {
		t.Fatalf("DurationSeconds = %v", result.DurationSeconds())
	}
	if !math.IsNaN(Result{Format: Format{Duration: "bad"}}.DurationSeconds()) {
		t.Fatal("expected NaN for unparsable duration")
	}
}

func TestProberDuration(t *testing.T) {
	var gotArgs []string
	p := NewProber("").WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Errorf("binary = %s", name)
		}
		gotArgs = args
		return []byte(`{"streams":[{"codec_type":"audio","duration":"31.2"}],"format":{"duration":"31.25"}}`), nil
	})
	d, err := p.Duration(context.Background(), "voice.mp3")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 31.25 {
		t.Fatalf("duration = %v", d)
	}
	if gotArgs[len(gotArgs)-1] != "voice.mp3" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestProberErrors(t *testing.T) {
	failing := NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("No such file"), errors.New("exit status 1")
	})
	if _, err := failing.Duration(context.Background(), "missing.mp4"); err == nil {
		t.Fatal("expected error")
	}
	empty := NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"format":{}}`), nil
	})
	if _, err := empty.Duration(context.Background(), "x.mp4"); err == nil {
		t.Fatal("expected error for missing duration")
	}
	if _, err := empty.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
