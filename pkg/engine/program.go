package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// LoadProgram reads and parses a program file.
func LoadProgram(path string) (intcode.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewPermanentError("failed to open program", err).
			WithCode(ErrCodeNotFound).
			WithDetail("path", path)
	}
	defer f.Close()

	program, err := intcode.ReadProgram(f)
	if err != nil {
		return nil, NewPermanentError("failed to parse program", err).
			WithCode(ErrCodeValidation).
			WithDetail("path", path)
	}
	return program, nil
}

// PhaseRange returns the phases lo..hi inclusive.
func PhaseRange(lo, hi int64) []int64 {
	if hi < lo {
		return nil
	}
	phases := make([]int64, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		phases = append(phases, p)
	}
	return phases
}

// MaxPhases bounds a phase search. Nine settings already mean 9! = 362880
// network runs.
const MaxPhases = 9

// DefaultPhases returns the conventional phase set for a network mode:
// 0..4 for series and 5..9 for feedback.
func DefaultPhases(mode NetworkMode) []int64 {
	if mode == NetworkFeedback {
		return PhaseRange(5, 9)
	}
	return PhaseRange(0, 4)
}

// ParsePhases parses a comma-separated list of phase settings.
// Duplicates are rejected.
func ParsePhases(s string) ([]int64, error) {
	fields := strings.Split(s, ",")
	phases := make([]int64, 0, len(fields))
	seen := make(map[int64]bool, len(fields))

	for i, field := range fields {
		field = strings.TrimSpace(field)
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, NewPermanentError(fmt.Sprintf("invalid phase %q at position %d", field, i), err).
				WithCode(ErrCodeValidation)
		}
		if seen[v] {
			return nil, NewPermanentError(fmt.Sprintf("duplicate phase %d", v), nil).
				WithCode(ErrCodeValidation)
		}
		seen[v] = true
		phases = append(phases, v)
	}
	return phases, nil
}
