package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is a target tier for media format selection
type Quality string

const (
	Quality1080 Quality = "1080"
	Quality720  Quality = "720"
	Quality480  Quality = "480"
	QualityBest Quality = "best"
	// QualityAudio selects an audio-only stream and an audio upload
	QualityAudio Quality = "audio"
)

// MaxQualityHeight bounds numeric tiers accepted by ParseQuality
const MaxQualityHeight = 4320

// Qualities returns the tiers offered to users, in prompt order
func Qualities() []Quality {
	return []Quality{Quality1080, Quality720, Quality480, QualityBest, QualityAudio}
}

// ParseQuality validates a tier value. Besides the named tiers any positive
// height up to MaxQualityHeight is accepted.
func ParseQuality(value string) (Quality, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch Quality(value) {
	case QualityBest, QualityAudio:
		return Quality(value), nil
	}
	height, err := strconv.Atoi(value)
	if err != nil || height <= 0 || height > MaxQualityHeight {
		return "", fmt.Errorf("unknown quality tier: %q", value)
	}
	return Quality(strconv.Itoa(height)), nil
}

// String returns the string representation of Quality
func (q Quality) String() string {
	return string(q)
}

// IsAudio reports whether the tier selects an audio-only download
func (q Quality) IsAudio() bool {
	return q == QualityAudio
}

// Height returns the numeric height of the tier, or 0 for best/audio
func (q Quality) Height() int {
	height, err := strconv.Atoi(string(q))
	if err != nil {
		return 0
	}
	return height
}

// Label returns the button caption for the tier
func (q Quality) Label() string {
	switch q {
	case QualityBest:
		return "Best Available"
	case QualityAudio:
		return "Audio Only"
	}
	return string(q) + "p"
}
