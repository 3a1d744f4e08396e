// Package scout maps a rater's cumulative scout points onto the tier table.
package scout

import (
	"math"

	"github.com/okian/stagerank/internal/domain/model"
)

// DefaultLevelName is reported while no tier table is available.
const DefaultLevelName = "New Scout"

const fullProgress = 100.0

// Status is the resolved tier for a scout point total.
type Status struct {
	LevelName          string  `json:"levelName"`
	LevelIndex         int     `json:"levelIndex"`
	NextLevelName      string  `json:"nextLevelName,omitempty"`
	CurrentLevelSP     int     `json:"currentLevelSP"` // points earned inside the current level
	PointsForNextLevel int     `json:"pointsForNextLevel"`
	ProgressPercent    float64 `json:"progressPercent"`
	PointsToNext       int     `json:"pointsToNext"`
}

// Resolve finds the highest level whose MinSP is <= totalSP, scanning from
// the end so a later row wins a shared threshold. Totals below the lowest
// threshold (including negative ones) clamp to the first level. The levels
// slice is never modified.
func Resolve(totalSP int, levels []model.ScoutLevel) Status {
	if len(levels) == 0 {
		return Status{LevelName: DefaultLevelName, LevelIndex: -1}
	}

	idx := 0
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].MinSP <= totalSP {
			idx = i
			break
		}
	}
	current := levels[idx]
	st := Status{
		LevelName:      current.Name,
		LevelIndex:     idx,
		CurrentLevelSP: max(0, totalSP-current.MinSP),
	}

	if idx+1 >= len(levels) {
		st.ProgressPercent = fullProgress
		return st
	}
	next := levels[idx+1]
	st.NextLevelName = next.Name
	st.PointsForNextLevel = next.MinSP - current.MinSP
	if st.PointsForNextLevel <= 0 {
		// Unsorted table; nothing left to earn towards.
		st.PointsForNextLevel = 0
		st.ProgressPercent = fullProgress
		return st
	}
	st.ProgressPercent = math.Min(fullProgress, fullProgress*float64(st.CurrentLevelSP)/float64(st.PointsForNextLevel))
	st.PointsToNext = max(0, st.PointsForNextLevel-st.CurrentLevelSP)
	return st
}
