package media

import (
	"strconv"

	"reaper-video-fx/internal/domain"
)

// buildExtractArgs returns ffmpeg flags for stereo FLAC extraction at sampleRate.
func buildExtractArgs(videoPath, outputPath string, sampleRate int) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "flac",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "2",
		outputPath,
	}
}

// buildMergeArgs returns ffmpeg flags that pair the first video stream of
// videoPath with the first audio stream of audioPath.
func buildMergeArgs(videoPath, audioPath, outputPath string, settings domain.RenderSettings) []string {
	args := []string{"-y", "-i", videoPath, "-i", audioPath}

	if settings.VideoCodec == domain.VideoCodecCopy {
		args = append(args, "-c:v", domain.VideoCodecCopy)
	} else {
		args = append(args, "-c:v", settings.VideoCodec)
		if settings.VideoBitrate != "" && settings.VideoBitrate != "0" {
			args = append(args, "-b:v", settings.VideoBitrate)
		}
	}

	return append(args,
		"-c:a", settings.AudioCodec,
		"-b:a", settings.AudioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outputPath,
	)
}
