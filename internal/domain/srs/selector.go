package srs

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// Mode is a queue ordering policy.
type Mode int

// Supported queue modes.
const (
	// ModeDueReview selects unmastered cards, least recently reviewed first, capped to the batch size.
	ModeDueReview Mode = iota
	// ModeDeckPriority orders new cards, then due cards, then the rest.
	ModeDeckPriority
	// ModeRandom shuffles the whole pool.
	ModeRandom
	// ModeNeverReviewed shuffles the cards that were never answered.
	ModeNeverReviewed
)

// ErrUnknownMode is returned for a mode outside the supported set.
var ErrUnknownMode = errors.New("unknown study mode")

var modeNames = map[Mode]string{
	ModeDueReview:     "due",
	ModeDeckPriority:  "deck",
	ModeRandom:        "random",
	ModeNeverReviewed: "new",
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// IsValid reports whether m is a supported mode.
func (m Mode) IsValid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts a wire name into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Selector builds ordered study queues from a card pool.
// It is safe for concurrent use.
type Selector struct {
	params *Params

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector. A nil rng uses a randomly seeded source;
// tests pass a seeded one for reproducible shuffles.
func NewSelector(params *Params, rng *rand.Rand) *Selector {
	if params == nil {
		params = NewDefaultParams()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{params: params, rng: rng}
}

// SelectQueue returns the ordered queue for mode. The returned cards are
// copies; the pool is never modified. An empty result is valid and means
// there is nothing to study.
func (s *Selector) SelectQueue(cards []*domain.Card, mode Mode, now time.Time) ([]*domain.Card, error) {
	pool := snapshot(cards)

	switch mode {
	case ModeDueReview:
		return s.dueReview(pool), nil
	case ModeDeckPriority:
		return deckPriority(pool, now), nil
	case ModeRandom:
		s.shuffle(pool)
		return pool, nil
	case ModeNeverReviewed:
		fresh := filter(pool, func(c *domain.Card) bool { return c.IsNeverReviewed() })
		s.shuffle(fresh)
		return fresh, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

func (s *Selector) dueReview(pool []*domain.Card) []*domain.Card {
	eligible := filter(pool, func(c *domain.Card) bool { return c.Level < s.params.MasteryLevel })

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].LastReviewed, eligible[j].LastReviewed
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	if len(eligible) > s.params.BatchSize {
		eligible = eligible[:s.params.BatchSize]
	}
	return eligible
}

func deckPriority(pool []*domain.Card, now time.Time) []*domain.Card {
	var unscheduled, due, later []*domain.Card
	for _, c := range pool {
		switch {
		case c.NextReviewDate == nil:
			unscheduled = append(unscheduled, c)
		case c.IsDue(now):
			due = append(due, c)
		default:
			later = append(later, c)
		}
	}

	byNextReview := func(group []*domain.Card) {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].NextReviewDate.Before(*group[j].NextReviewDate)
		})
	}
	byNextReview(due)
	byNextReview(later)

	out := make([]*domain.Card, 0, len(pool))
	out = append(out, unscheduled...)
	out = append(out, due...)
	out = append(out, later...)
	return out
}

func (s *Selector) shuffle(cards []*domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func snapshot(cards []*domain.Card) []*domain.Card {
	out := make([]*domain.Card, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

func filter(cards []*domain.Card, keep func(*domain.Card) bool) []*domain.Card {
	out := make([]*domain.Card, 0, len(cards))
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
