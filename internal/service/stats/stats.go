// Package stats aggregates study history into the figures shown on the
// statistics screen. Aggregate is pure: identical inputs yield identical
// output.
package stats

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// RecentSessionLimit is the number of sessions listed in View.RecentSessions.
const RecentSessionLimit = 5

// Input is everything Aggregate looks at.
type Input struct {
	Cards    []*domain.Card
	Sessions []*domain.StudySession
	Decks    []*domain.Deck

	// Now anchors the current streak.
	Now time.Time

	// Location defines calendar days for streaks. Nil means UTC.
	Location *time.Location
}

// SessionStats summarizes one completed session.
type SessionStats struct {
	TotalCards               int     `json:"total_cards"`
	CorrectCards             int     `json:"correct_cards"`
	Accuracy                 float64 `json:"accuracy"`
	TotalTimeMillis          int64   `json:"total_time_ms"`
	AverageTimePerCardMillis int64   `json:"average_time_per_card_ms"`
}

// SessionSummary is a completed session as listed in View.RecentSessions.
type SessionSummary struct {
	ID            uuid.UUID `json:"id"`
	DeckID        uuid.UUID `json:"deck_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	CardsReviewed int       `json:"cards_reviewed"`
	CorrectCards  int       `json:"correct_cards"`
	Accuracy      float64   `json:"accuracy"`
	DurationMs    int64     `json:"duration_ms"`
}

// Streak counts consecutive study days.
type Streak struct {
	Current   int `json:"current"`
	Best      int `json:"best"`
	TotalDays int `json:"total_days"`
}

// DeckStats is the per-deck breakdown, recomputed from the card pool.
type DeckStats struct {
	DeckID        uuid.UUID  `json:"deck_id"`
	Name          string     `json:"name"`
	TotalCards    int        `json:"total_cards"`
	MasteredCards int        `json:"mastered_cards"`
	LearningCards int        `json:"learning_cards"`
	LastStudied   *time.Time `json:"last_studied,omitempty"`
}

// View is the aggregated statistics.
type View struct {
	TotalCards    int `json:"total_cards"`
	MasteredCards int `json:"mastered_cards"`
	LearningCards int `json:"learning_cards"`

	// TotalSessions and TotalReviews count completed sessions only.
	TotalSessions       int     `json:"total_sessions"`
	TotalReviews        int     `json:"total_reviews"`
	TotalAccuracy       float64 `json:"total_accuracy"`
	TotalStudyTimeMilli int64   `json:"total_study_time_ms"`

	RecentSessions []SessionSummary `json:"recent_sessions"`
	Streak         Streak           `json:"streak"`
	Decks          []DeckStats      `json:"decks"`

	// Skipped counts records ignored because they were nil or invalid.
	Skipped int `json:"skipped"`
}

// ForSession computes the summary of a session that answered totalCards cards.
func ForSession(s *domain.StudySession, totalCards int) SessionStats {
	out := SessionStats{
		TotalCards:      totalCards,
		CorrectCards:    s.CorrectCount(),
		TotalTimeMillis: s.Duration().Milliseconds(),
	}
	if totalCards > 0 {
		out.Accuracy = percent(out.CorrectCards, totalCards)
		out.AverageTimePerCardMillis = out.TotalTimeMillis / int64(totalCards)
	}
	return out
}

// Aggregate computes the statistics view.
func Aggregate(in Input) View {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	var view View

	cards := make([]*domain.Card, 0, len(in.Cards))
	for _, c := range in.Cards {
		if c == nil || c.Validate() != nil {
			view.Skipped++
			continue
		}
		cards = append(cards, c)
		view.TotalCards++
		switch {
		case c.IsMastered():
			view.MasteredCards++
		case c.IsLearning():
			view.LearningCards++
		}
	}

	completed := make([]*domain.StudySession, 0, len(in.Sessions))
	for _, s := range in.Sessions {
		if s == nil || s.Validate() != nil {
			view.Skipped++
			continue
		}
		if s.IsCompleted() {
			completed = append(completed, s)
		}
	}

	correct := 0
	for _, s := range completed {
		view.TotalReviews += len(s.CardsReviewed)
		correct += s.CorrectCount()
		view.TotalStudyTimeMilli += s.Duration().Milliseconds()
	}
	view.TotalSessions = len(completed)
	if view.TotalReviews > 0 {
		view.TotalAccuracy = percent(correct, view.TotalReviews)
	}

	view.RecentSessions = recentSessions(completed)
	view.Streak = streak(completed, in.Now, loc)

	view.Decks = make([]DeckStats, 0, len(in.Decks))
	for _, d := range in.Decks {
		if d == nil || d.Validate() != nil {
			view.Skipped++
			continue
		}
		counts := domain.CountCards(d.ID, cards)
		view.Decks = append(view.Decks, DeckStats{
			DeckID:        d.ID,
			Name:          d.Name,
			TotalCards:    counts.Total,
			MasteredCards: counts.Mastered,
			LearningCards: counts.Learning,
			LastStudied:   d.LastStudied,
		})
	}

	return view
}

func recentSessions(completed []*domain.StudySession) []SessionSummary {
	sorted := make([]*domain.StudySession, len(completed))
	copy(sorted, completed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.After(sorted[j].StartTime)
	})
	if len(sorted) > RecentSessionLimit {
		sorted = sorted[:RecentSessionLimit]
	}

	out := make([]SessionSummary, 0, len(sorted))
	for _, s := range sorted {
		summary := SessionSummary{
			ID:            s.ID,
			DeckID:        s.DeckID,
			StartTime:     s.StartTime,
			EndTime:       *s.EndTime,
			CardsReviewed: len(s.CardsReviewed),
			CorrectCards:  s.CorrectCount(),
			DurationMs:    s.Duration().Milliseconds(),
		}
		if summary.CardsReviewed > 0 {
			summary.Accuracy = percent(summary.CorrectCards, summary.CardsReviewed)
		}
		out = append(out, summary)
	}
	return out
}

// streak counts runs of adjacent calendar days in loc on which a completed
// session started. The current run only counts if it reaches today or
// yesterday.
func streak(completed []*domain.StudySession, now time.Time, loc *time.Location) Streak {
	seen := make(map[time.Time]struct{}, len(completed))
	days := make([]time.Time, 0, len(completed))
	for _, s := range completed {
		d := calendarDay(s.StartTime, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return Streak{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	today := calendarDay(now, loc)
	last := days[len(days)-1]
	current := 0
	if last.Equal(today) || last.Equal(today.AddDate(0, 0, -1)) {
		current = run
	}

	return Streak{Current: current, Best: best, TotalDays: len(days)}
}

// calendarDay returns t's date in loc as midnight UTC, so days compare with
// Equal and step with AddDate regardless of DST.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func percent(part, whole int) float64 {
	return float64(part) / float64(whole) * 100
}
