package bot

import (
	"fmt"
	"strconv"
	"strings"

	"recipe-bot/internal/stage"
)

// callbackData is a parsed button payload: an action and, for deletes, a row id.
type callbackData struct {
	action stage.Action
	id     int64
	hasID  bool
}

func (c callbackData) String() string {
	if c.hasID {
		return fmt.Sprintf("%s %d", c.action, c.id)
	}
	return string(c.action)
}

// Actions that may be carried by a button, and whether they take an id.
var callbackActions = map[stage.Action]bool{
	stage.ActionProductCreate:   false,
	stage.ActionProductDelete:   true,
	stage.ActionBookmarkCreate:  false,
	stage.ActionBookmarksDelete: true,
}

func newCallback(action stage.Action) string {
	return callbackData{action: action}.String()
}

func newCallbackWithID(action stage.Action, id int64) string {
	return callbackData{action: action, id: id, hasID: true}.String()
}

func parseCallback(data string) (callbackData, error) {
	parts := strings.Fields(data)
	if len(parts) == 0 || len(parts) > 2 {
		return callbackData{}, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
	}

	action := stage.Action(parts[0])
	needsID, known := callbackActions[action]
	if !known {
		return callbackData{}, fmt.Errorf("%w: unknown action %q", ErrMalformedCallback, parts[0])
	}

	if !needsID {
		if len(parts) != 1 {
			return callbackData{}, fmt.Errorf("%w: %s takes no id", ErrMalformedCallback, action)
		}
		return callbackData{action: action}, nil
	}

	if len(parts) != 2 {
		return callbackData{}, fmt.Errorf("%w: %s requires an id", ErrMalformedCallback, action)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return callbackData{}, fmt.Errorf("%w: invalid id %q", ErrMalformedCallback, parts[1])
	}
	return callbackData{action: action, id: id, hasID: true}, nil
}
