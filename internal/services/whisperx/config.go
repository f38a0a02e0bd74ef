package whisperx

// Config captures runtime settings for WhisperX transcription.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3-turbo").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// Language is the ISO 639-1 narration language; empty lets WhisperX detect it.
	Language string
	// WorkDir receives the extracted WAV and WhisperX output files.
	WorkDir string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "large-v3-turbo"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	OutputFormat      = "json"
	SegmentResolution = "sentence"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
