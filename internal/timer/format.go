package timer

import (
	"fmt"

	"github.com/lautarok/yourstack/internal/model"
)

// Urgency thresholds, in seconds.
const (
	WarningThreshold  = 300
	CriticalThreshold = 60
)

// Format renders seconds as zero-padded mm:ss. Negative input renders as 00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// LevelFor classifies the remaining time for display.
func LevelFor(seconds int) model.TimeLevel {
	switch {
	case seconds <= CriticalThreshold:
		return model.TimeCritical
	case seconds <= WarningThreshold:
		return model.TimeWarning
	default:
		return model.TimeNormal
	}
}
