// Package player holds the audio player settings rendered into the page.
package player

import (
	"fmt"
	"math"
)

// Track is the song the page plays.
type Track struct {
	Src    string `json:"src"`
	Title  string `json:"title"`
	Volume int    `json:"volume"` // 0-100, initial slider position
}

// Gain converts the slider position to the 0..1 range an audio element uses.
func (t Track) Gain() float64 {
	return float64(ClampVolume(t.Volume)) / 100
}

// ClampVolume bounds v to the slider range.
func ClampVolume(v int) int {
	return min(max(v, 0), 100)
}

// FormatTime renders seconds as m:ss. Negative and non-finite values render
// as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
