package scheduling

import "github.com/vaxbook/booking-api/internal/model"

// The midday break is excluded from every generated grid. A candidate
// that would cross into it is moved to the end of the break instead of
// being emitted partially.
const (
	BreakStart = model.MinuteOfDay(12 * 60)
	BreakEnd   = model.MinuteOfDay(13 * 60)
)

// Candidate is a generated slot boundary pair, half-open [Start, End).
type Candidate struct {
	Start model.MinuteOfDay
	End   model.MinuteOfDay
}

// GenerateGrid walks forward from start in durationMin increments and
// returns the ordered candidate slots that fit entirely within
// [start, end] without touching the midday break. Inconsistent inputs
// (end <= start, durationMin <= 0) yield an empty grid rather than an
// error; callers surface that as zero availability.
func GenerateGrid(start, end model.MinuteOfDay, durationMin int) []Candidate {
	if durationMin <= 0 || end <= start {
		return nil
	}

	step := model.MinuteOfDay(durationMin)
	var grid []Candidate
	for cur := start; cur+step <= end; {
		if cur < BreakEnd && BreakStart < cur+step {
			cur = BreakEnd
			continue
		}
		grid = append(grid, Candidate{Start: cur, End: cur + step})
		cur += step
	}
	return grid
}
