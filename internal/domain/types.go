package domain

// JobStatus tracks each pipeline stage for a single video processing job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusClearing   JobStatus = "clearing"
	JobStatusLoading    JobStatus = "loading"
	JobStatusRendering  JobStatus = "rendering"
	JobStatusMerging    JobStatus = "merging"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	VideoPath  string    `json:"videoPath,omitempty"`
	TrackIndex int       `json:"trackIndex"`
	OutputPath string    `json:"outputPath,omitempty"`
}

// Track is one REAPER track as reported by the bridge extension.
type Track struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

// VideoCodecCopy selects stream-copy for the video stream during remux.
const VideoCodecCopy = "copy"

// RenderSettings configures the remux stage of one pipeline run.
type RenderSettings struct {
	VideoCodec   string `json:"videoCodec" toml:"video_codec"`
	VideoBitrate string `json:"videoBitrate" toml:"video_bitrate"`
	AudioCodec   string `json:"audioCodec" toml:"audio_codec"`
	AudioBitrate string `json:"audioBitrate" toml:"audio_bitrate"`
	SampleRate   int    `json:"sampleRate" toml:"sample_rate"`
}

// DefaultRenderSettings returns stream-copy video with 320k AAC audio at 48 kHz.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		VideoCodec:   VideoCodecCopy,
		VideoBitrate: "0",
		AudioCodec:   "aac",
		AudioBitrate: "320k",
		SampleRate:   48000,
	}
}

// ProgressEvent is a coarse pipeline progress notification for the UI.
type ProgressEvent struct {
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// ExtensionStatus reports whether the REAPER bridge extension is installed.
type ExtensionStatus struct {
	Installed        bool   `json:"installed" yaml:"installed"`
	Path             string `json:"path,omitempty" yaml:"path,omitempty"`
	BundledAvailable bool   `json:"bundledAvailable" yaml:"bundled_available"`
	BundledPath      string `json:"bundledPath,omitempty" yaml:"bundled_path,omitempty"`
}
