// Package player wraps playerctl as the playback clock.
package player

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Playerctl shells out to playerctl for position, status and seeking.
type Playerctl struct{}

func New() *Playerctl {
	return &Playerctl{}
}

// GetCurrentSong returns the raw "artist - title" string the active player
// reports. The string is whatever the player publishes, often with video
// suffixes and other noise; the lyrics provider cleans it up.
func (p *Playerctl) GetCurrentSong() (string, error) {
	cmd := exec.Command("playerctl", "metadata", "--format", `{{artist}} - {{title}}`)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// GetTrackLength returns the track duration in seconds, or 0 if unknown.
func (p *Playerctl) GetTrackLength() int {
	out, err := exec.Command("playerctl", "metadata", "mpris:length").Output()
	if err != nil {
		return 0
	}
	micros, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}
	return int(micros / 1_000_000)
}

// CurrentTime returns the playback position in seconds. Errors collapse to
// 0 so a dead player reads as a stopped clock.
func (p *Playerctl) CurrentTime() float64 {
	out, err := exec.Command("playerctl", "position").Output()
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return seconds
}

func (p *Playerctl) IsPlaying() bool {
	out, err := exec.Command("playerctl", "status").Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "Playing"
}

// SeekTo moves the player to an absolute position in seconds.
func (p *Playerctl) SeekTo(seconds float64) error {
	cmd := exec.Command("playerctl", "position", fmt.Sprintf("%f", seconds))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playerctl seek failed: %w", err)
	}
	return nil
}
