package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"reaper-video-fx/internal/domain"
)

// Prompter asks the user for input (allows mocking in tests).
type Prompter interface {
	SelectTrack(tracks []domain.Track) (int, error)
}

// SurveyPrompter implements Prompter using the survey library.
type SurveyPrompter struct{}

// SelectTrack shows the project's tracks and returns the chosen track index.
func (p *SurveyPrompter) SelectTrack(tracks []domain.Track) (int, error) {
	if len(tracks) == 0 {
		return 0, fmt.Errorf("the REAPER project has no tracks")
	}

	options := make([]string, len(tracks))
	for i, track := range tracks {
		options[i] = trackLabel(track)
	}

	var choice int
	prompt := &survey.Select{
		Message: "Process through which track?",
		Options: options,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return 0, err
	}
	return tracks[choice].Index, nil
}

// trackLabel formats a track the way REAPER numbers it in the mixer.
func trackLabel(track domain.Track) string {
	return fmt.Sprintf("%d: %s", track.Index+1, track.Name)
}
