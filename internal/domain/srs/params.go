package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// DefaultIntervals maps a mastery level to the number of days until the next
// review. Levels beyond the last entry use the last entry.
var DefaultIntervals = []int{0, 1, 3, 7, 14, 30, 90, 180}

// DefaultBatchSize caps the number of cards in a due-review queue.
const DefaultBatchSize = 20

// Parameter errors
var (
	ErrEmptyIntervals      = errors.New("interval table cannot be empty")
	ErrInvalidInterval     = errors.New("intervals must be non-negative and non-decreasing")
	ErrInvalidBatchSize    = errors.New("batch size must be at least 1")
	ErrInvalidMasteryLevel = errors.New("mastery level must be at least 1")
)

// Params defines the configurable parameters of the scheduler and selector.
type Params struct {
	// Intervals is the fixed level -> days lookup table.
	Intervals []int

	// MasteryLevel is the level at which a card counts as mastered.
	MasteryLevel int

	// BatchSize caps the due-review queue.
	BatchSize int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Intervals    []int
	MasteryLevel int
	BatchSize    int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	intervals := make([]int, len(DefaultIntervals))
	copy(intervals, DefaultIntervals)
	return &Params{
		Intervals:    intervals,
		MasteryLevel: domain.MasteryLevel,
		BatchSize:    DefaultBatchSize,
	}
}

// NewParams creates Params from cfg, falling back to defaults for zero values.
func NewParams(cfg ParamsConfig) (*Params, error) {
	p := NewDefaultParams()
	if cfg.Intervals != nil {
		p.Intervals = make([]int, len(cfg.Intervals))
		copy(p.Intervals, cfg.Intervals)
	}
	if cfg.MasteryLevel != 0 {
		p.MasteryLevel = cfg.MasteryLevel
	}
	if cfg.BatchSize != 0 {
		p.BatchSize = cfg.BatchSize
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the parameters for internal consistency.
func (p *Params) Validate() error {
	if len(p.Intervals) == 0 {
		return ErrEmptyIntervals
	}
	prev := 0
	for i, days := range p.Intervals {
		if days < prev {
			return fmt.Errorf("%w: level %d has %d days", ErrInvalidInterval, i, days)
		}
		prev = days
	}
	if p.MasteryLevel < 1 {
		return ErrInvalidMasteryLevel
	}
	if p.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	return nil
}

// MaxLevelIndex is the highest level with its own table entry.
func (p *Params) MaxLevelIndex() int {
	return len(p.Intervals) - 1
}

// IntervalDays looks up the interval for level, clamping to the table bounds.
func (p *Params) IntervalDays(level int) int {
	if level < 0 {
		level = 0
	}
	if level > p.MaxLevelIndex() {
		level = p.MaxLevelIndex()
	}
	return p.Intervals[level]
}
