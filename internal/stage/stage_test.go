package stage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-bot/internal/storage"
	"recipe-bot/internal/storage/memory"
)

func TestCurrentWithoutStage(t *testing.T) {
	tracker := NewTracker(memory.NewRepository[storage.Stage]())

	state, err := tracker.Current(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, State{User: 100, Action: ActionNone, Awaiting: AwaitingNone}, state)
	assert.False(t, state.Expects(AwaitingProductName))
}

func TestSetTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRepository[storage.Stage]()
	tracker := NewTracker(store)

	require.NoError(t, tracker.Set(ctx, 1, ActionRecipe))
	require.NoError(t, tracker.Set(ctx, 1, ActionRecipe))

	rows, err := store.Read(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "recipe", rows[0].Name)
}

func TestConcurrentSetForNewUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRepository[storage.Stage]()
	tracker := NewTracker(store)

	var wg sync.WaitGroup
	for _, action := range []Action{ActionStart, ActionProductList, ActionProductCreate, ActionRecipe} {
		wg.Add(1)
		go func(a Action) {
			defer wg.Done()
			assert.NoError(t, tracker.Set(ctx, 2, a))
		}(action)
	}
	wg.Wait()

	rows, err := store.Read(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSetDerivesAwaiting(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(memory.NewRepository[storage.Stage]())

	require.NoError(t, tracker.Set(ctx, 3, ActionProductCreate))
	state, err := tracker.Current(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionProductCreate, state.Action)
	assert.True(t, state.Expects(AwaitingProductName))

	require.NoError(t, tracker.Set(ctx, 3, ActionProductDelete))
	state, err = tracker.Current(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionProductDelete, state.Action)
	assert.True(t, state.Expects(AwaitingNone))
}

type failingStore struct{ err error }

func (f failingStore) Read(context.Context, int64) ([]storage.Stage, error) { return nil, f.err }
func (f failingStore) Upsert(context.Context, storage.Fields) error      { return f.err }

func TestTrackerPropagatesStorageErrors(t *testing.T) {
	boom := &storage.Error{Op: "Read", Table: "stage", Err: errors.New("down")}
	tracker := NewTracker(failingStore{err: boom})

	_, err := tracker.Current(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	err = tracker.Set(context.Background(), 1, ActionStart)
	assert.ErrorIs(t, err, boom)
}
