package bridge

import "reaper-video-fx/internal/domain"

// Kind names a bridge command.
type Kind string

const (
	KindPing        Kind = "PING"
	KindGetTracks   Kind = "GET_TRACKS"
	KindClearTrack  Kind = "CLEAR_TRACK"
	KindLoadAudio   Kind = "LOAD_AUDIO"
	KindRenderTrack Kind = "RENDER_TRACK"
)

// Command is the JSON document written to command.json.
type Command struct {
	Kind Kind `json:"command"`
	// TrackIndex is a pointer so that track 0 is still serialized.
	TrackIndex *int   `json:"trackIndex,omitempty"`
	AudioPath  string `json:"audioPath,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
}

// PingCommand builds a liveness check.
func PingCommand() Command {
	return Command{Kind: KindPing}
}

// GetTracksCommand asks for the project's track list.
func GetTracksCommand() Command {
	return Command{Kind: KindGetTracks}
}

// ClearTrackCommand asks REAPER to remove all items from a track.
func ClearTrackCommand(trackIndex int) Command {
	return Command{Kind: KindClearTrack, TrackIndex: &trackIndex}
}

// LoadAudioCommand asks REAPER to insert audioPath on a track.
func LoadAudioCommand(trackIndex int, audioPath string) Command {
	return Command{Kind: KindLoadAudio, TrackIndex: &trackIndex, AudioPath: audioPath}
}

// RenderTrackCommand asks REAPER to render a track through its FX to outputPath.
func RenderTrackCommand(trackIndex int, outputPath string) Command {
	return Command{Kind: KindRenderTrack, TrackIndex: &trackIndex, OutputPath: outputPath}
}

// Response is the JSON document read from response.json.
type Response struct {
	Success    bool           `json:"success"`
	Message    *string        `json:"message,omitempty"`
	Tracks     []domain.Track `json:"tracks,omitempty"`
	OutputPath *string        `json:"outputPath,omitempty"`
}

// MessageOr returns the response message, or fallback when absent or blank.
func (r Response) MessageOr(fallback string) string {
	if r.Message == nil || *r.Message == "" {
		return fallback
	}
	return *r.Message
}
