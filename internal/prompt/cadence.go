package prompt

import (
	"fmt"
	"math"
)

// Cadence bounds, in days from the first message.
const (
	FirstDay    = 0
	BreakupDay  = 14
	spreadFloor = 2
	spreadCeil  = 13

	baselineLength = 5
	// MaxCadenceLength is the longest sequence whose intermediates fit strictly inside (2,13).
	MaxCadenceLength = spreadCeil - spreadFloor + 1
)

var baselineCadence = []int{0, 2, 5, 9, 14}

// Cadence returns the day offsets for a sequence of n messages.
func Cadence(n int) ([]int, error) {
	switch {
	case n < 1 || n > MaxCadenceLength:
		return nil, fmt.Errorf("cadence length must be between 1 and %d, got %d", MaxCadenceLength, n)
	case n == 1:
		return []int{FirstDay}, nil
	case n <= baselineLength:
		out := make([]int, 0, n)
		out = append(out, baselineCadence[:n-1]...)
		return append(out, BreakupDay), nil
	}

	// Keep day 0 and day 14, spread the rest evenly inside (2,13).
	inner := n - 2
	step := float64(spreadCeil-spreadFloor) / float64(inner+1)
	out := make([]int, 0, n)
	out = append(out, FirstDay)
	for i := 1; i <= inner; i++ {
		out = append(out, spreadFloor+int(math.Round(step*float64(i))))
	}
	return append(out, BreakupDay), nil
}
