// Package stage tracks what each user did last and which free-text input the
// bot expects from them next.
package stage

import (
	"context"
	"fmt"

	"recipe-bot/internal/storage"
)

// Action is the last thing a user did. New commands and buttons add new values.
type Action string

const (
	ActionNone            Action = "none"
	ActionStart           Action = "start"
	ActionProductList     Action = "product_list"
	ActionProductCreate   Action = "product_create"
	ActionRecipe          Action = "recipe"
	ActionBookmarkList    Action = "bookmark_list"
	ActionProductDelete   Action = "product_delete"
	ActionBookmarkCreate  Action = "bookmark_create"
	ActionBookmarksDelete Action = "bookmarks_delete"
	ActionExport          Action = "export"
)

// Awaiting is the kind of free-text input the user is expected to send.
type Awaiting string

const (
	AwaitingNone        Awaiting = "none"
	AwaitingProductName Awaiting = "product_name"
)

// AwaitingFor maps an action onto the input it asks the user for.
func AwaitingFor(a Action) Awaiting {
	switch a {
	case ActionProductCreate:
		return AwaitingProductName
	default:
		return AwaitingNone
	}
}

type State struct {
	User     int64
	Action   Action
	Awaiting Awaiting
}

func (s State) Expects(a Awaiting) bool {
	return s.Awaiting == a
}

type Store interface {
	Read(ctx context.Context, user int64) ([]storage.Stage, error)
	Upsert(ctx context.Context, fields storage.Fields) error
}

type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Current returns the user's state. A user without a stored row is in the none state.
func (t *Tracker) Current(ctx context.Context, user int64) (State, error) {
	const operation = "stage.Current"

	rows, err := t.store.Read(ctx, user)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", operation, err)
	}
	if len(rows) == 0 {
		return State{User: user, Action: ActionNone, Awaiting: AwaitingNone}, nil
	}

	row := rows[0]
	awaiting := Awaiting(row.Awaiting)
	if awaiting != AwaitingProductName {
		awaiting = AwaitingNone
	}
	return State{User: user, Action: Action(row.Name), Awaiting: awaiting}, nil
}

// Set records action as the user's last action in a single upsert.
func (t *Tracker) Set(ctx context.Context, user int64, action Action) error {
	const operation = "stage.Set"

	err := t.store.Upsert(ctx, storage.Fields{
		"user_id":  user,
		"name":     string(action),
		"awaiting": string(AwaitingFor(action)),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}
