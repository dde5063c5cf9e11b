package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAll(t *testing.T, f *fixture, emails ...string) {
	t.Helper()
	for i, e := range emails {
		_, err := f.registration.Register(context.Background(), e, int64(100+i))
		require.NoError(t, err)
	}
}

func TestDrawWinnerRejectsNonAdminBeforeReadingStore(t *testing.T) {
	f := newFixture(0)
	registerAll(t, f, "a@x.com")
	before := f.store.calls.Load()

	w, err := f.draw.DrawWinner(context.Background(), 42)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, before, f.store.calls.Load())
}

func TestDrawWinnerEmptyRoster(t *testing.T) {
	f := newFixture(0)
	_, err := f.draw.DrawWinner(context.Background(), testAdminID)
	assert.ErrorIs(t, err, ErrNoParticipants)
}

func TestDrawWinnerReturnsRosterMember(t *testing.T) {
	f := newFixture(0)
	registerAll(t, f, "a@x.com", "b@x.com")

	w, err := f.draw.DrawWinner(context.Background(), testAdminID)
	require.NoError(t, err)
	assert.Contains(t, []string{"001", "002"}, w.Number)
	require.NotNil(t, w.ChatID)
	if w.Number == "001" {
		assert.Equal(t, int64(100), *w.ChatID)
	} else {
		assert.Equal(t, int64(101), *w.ChatID)
	}
	assert.Contains(t, f.publisher.types(), EventWinnerDrawn)
}

func TestDrawWinnerUsesPickedIndex(t *testing.T) {
	f := newFixture(0)
	registerAll(t, f, "a@x.com", "b@x.com", "c@x.com")
	f.draw.intn = func(n int) int {
		assert.Equal(t, 3, n)
		return 2
	}

	w, err := f.draw.DrawWinner(context.Background(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, "003", w.Number)
	assert.Equal(t, "c@x.com", w.Email)
}

func TestDrawWinnerIsUniform(t *testing.T) {
	f := newFixture(0)
	const n = 4
	for i := range n {
		registerAll(t, f, fmt.Sprintf("u%d@x.com", i))
	}

	const trials = 40000
	wins := map[string]int{}
	for range trials {
		w, err := f.draw.DrawWinner(context.Background(), testAdminID)
		require.NoError(t, err)
		wins[w.Number]++
	}

	require.Len(t, wins, n)
	for number, count := range wins {
		assert.InDelta(t, 1.0/n, float64(count)/trials, 0.02, "number %s", number)
	}
}

func TestDrawWinnerStorageFailure(t *testing.T) {
	f := newFixture(0)
	f.store.fail["list"] = errStoreDown

	_, err := f.draw.DrawWinner(context.Background(), testAdminID)
	assert.True(t, IsStorageError(err))
}
