package whisperx

import "fmt"

// buildExtractArgs returns ffmpeg arguments converting the first audio
// stream of source to mono 16 kHz PCM WAV.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:a:%d", 0),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
