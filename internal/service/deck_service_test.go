package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/events"
	"github.com/phrazzld/scry-flashcards/internal/platform/memory"
	"github.com/phrazzld/scry-flashcards/internal/service"
	"github.com/phrazzld/scry-flashcards/internal/store"
	"github.com/phrazzld/scry-flashcards/internal/store/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDeckService(t *testing.T) (service.DeckService, *kvstore.Store) {
	t.Helper()
	storage, err := kvstore.New(memory.NewKV(), kvstore.Config{}, quietLogger())
	require.NoError(t, err)
	svc, err := service.NewDeckService(storage, quietLogger())
	require.NoError(t, err)
	return svc, storage
}

func TestNewDeckService_NilStorage(t *testing.T) {
	_, err := service.NewDeckService(nil, nil)
	assert.ErrorIs(t, err, service.ErrNilDependency)
}

func TestDeckService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDeckService(t)

	deck, err := svc.CreateDeck(ctx, service.DeckInput{Name: "  Biology ", Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "Biology", deck.Name)

	_, err = svc.CreateDeck(ctx, service.DeckInput{Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.UpdateDeck(ctx, deck.ID, service.DeckInput{Name: "Cells", Description: "unit 1"})
	require.NoError(t, err)
	assert.Equal(t, "Cells", updated.Name)
	assert.Empty(t, updated.Color)

	_, err = svc.UpdateDeck(ctx, deck.ID, service.DeckInput{Name: "x", Color: "blue"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cells", got.Name, "rejected update leaves the stored deck unchanged")

	_, err = svc.UpdateDeck(ctx, uuid.New(), service.DeckInput{Name: "x"})
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeckService_CardsKeepCountersInSync(t *testing.T) {
	ctx := context.Background()
	svc, storage := newDeckService(t)

	deck, err := svc.CreateDeck(ctx, service.DeckInput{Name: "Verbs"})
	require.NoError(t, err)

	card, err := svc.AddCard(ctx, deck.ID, service.CardInput{Front: "ser", Back: "to be"})
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, deck.ID, service.CardInput{Front: "estar", Back: "to be"})
	require.NoError(t, err)

	got, err := svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCards)

	// A scheduler write outside the service is picked up by recompute.
	card.Level = domain.MasteryLevel
	require.NoError(t, storage.SaveCard(ctx, card))
	got, err = svc.RecomputeDeckStats(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeckCounts{Total: 2, Mastered: 1}, got.Counts())

	edited, err := svc.UpdateCard(ctx, card.ID, service.CardInput{Front: "ser", Back: "to be (permanent)"})
	require.NoError(t, err)
	assert.Equal(t, domain.MasteryLevel, edited.Level, "content edits keep scheduling state")

	_, err = svc.UpdateCard(ctx, card.ID, service.CardInput{Front: "", Back: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.DeleteCard(ctx, card.ID))
	got, err = svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeckCounts{Total: 1}, got.Counts())

	cards, err := svc.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	_, err = svc.AddCard(ctx, uuid.New(), service.CardInput{Front: "a", Back: "b"})
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
	_, err = svc.ListCards(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeckService_ListDecksRecomputes(t *testing.T) {
	ctx := context.Background()
	svc, storage := newDeckService(t)

	deck, err := svc.CreateDeck(ctx, service.DeckInput{Name: "Stale"})
	require.NoError(t, err)
	card, err := domain.NewCard(deck.ID, "q", "a", nil)
	require.NoError(t, err)
	card.Level = 2
	require.NoError(t, storage.SaveCard(ctx, card))

	decks, err := svc.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, domain.DeckCounts{Total: 1, Learning: 1}, decks[0].Counts())

	stored, err := storage.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalCards, "recomputed counters are persisted")
}

func TestDeckService_DeleteDeckCascades(t *testing.T) {
	ctx := context.Background()
	svc, storage := newDeckService(t)

	keep, err := svc.CreateDeck(ctx, service.DeckInput{Name: "Keep"})
	require.NoError(t, err)
	drop, err := svc.CreateDeck(ctx, service.DeckInput{Name: "Drop"})
	require.NoError(t, err)

	_, err = svc.AddCard(ctx, keep.ID, service.CardInput{Front: "k", Back: "k"})
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, drop.ID, service.CardInput{Front: "d1", Back: "d"})
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, drop.ID, service.CardInput{Front: "d2", Back: "d"})
	require.NoError(t, err)

	session, err := domain.NewStudySession(drop.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, storage.SaveSession(ctx, session))

	require.NoError(t, svc.DeleteDeck(ctx, drop.ID))

	_, err = svc.GetDeck(ctx, drop.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	cards, err := storage.GetAllCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, keep.ID, cards[0].DeckID)

	sessions, err := storage.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "study history survives deck deletion")

	assert.ErrorIs(t, svc.DeleteDeck(ctx, drop.ID), store.ErrDeckNotFound)
}

func TestDeckService_ResetStats(t *testing.T) {
	ctx := context.Background()
	svc, storage := newDeckService(t)

	deck, err := svc.CreateDeck(ctx, service.DeckInput{Name: "D"})
	require.NoError(t, err)
	session, err := domain.NewStudySession(deck.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, storage.SaveSession(ctx, session))

	require.NoError(t, svc.ResetStats(ctx))
	sessions, err := storage.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	decks, err := svc.ListDecks(ctx)
	require.NoError(t, err)
	assert.Len(t, decks, 1)
}

func TestSubscribeDeckEvents(t *testing.T) {
	ctx := context.Background()
	svc, storage := newDeckService(t)
	emitter := events.NewInMemoryEventEmitter(quietLogger())
	service.SubscribeDeckEvents(emitter, svc)

	deck, err := svc.CreateDeck(ctx, service.DeckInput{Name: "Evented"})
	require.NoError(t, err)
	card, err := svc.AddCard(ctx, deck.ID, service.CardInput{Front: "f", Back: "b"})
	require.NoError(t, err)

	end := time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)
	completed, err := events.NewEvent(events.TypeSessionCompleted, events.SessionCompleted{
		SessionID: uuid.New(),
		DeckID:    deck.ID,
		EndTime:   end,
	})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(ctx, completed))

	got, err := svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastStudied)
	assert.True(t, end.Equal(*got.LastStudied))

	card.Level = 1
	require.NoError(t, storage.SaveCard(ctx, card))
	reviewed, err := events.NewEvent(events.TypeCardReviewed, events.CardReviewed{
		CardID: card.ID,
		DeckID: deck.ID,
		Result: string(domain.ResultCorrect),
	})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(ctx, reviewed))

	got, err = svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LearningCards)

	missing, err := events.NewEvent(events.TypeSessionCompleted, events.SessionCompleted{DeckID: uuid.New(), EndTime: end})
	require.NoError(t, err)
	err = emitter.EmitEvent(ctx, missing)
	assert.True(t, errors.Is(err, store.ErrDeckNotFound))
}
