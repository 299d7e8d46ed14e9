// Package builtin holds the Go handlers shipped with the executor.
package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/sdk"
)

// NotesCollection is the collection the notes handler works on.
const NotesCollection = "notes"

// Register adds every builtin handler to set.
func Register(set *functions.HandlerSet) error {
	for name, h := range map[string]sdk.Handler{
		"echo":  Echo,
		"notes": Notes,
		"fail":  Fail,
	} {
		if err := set.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

// Echo greets input.name.
func Echo(_ context.Context, input map[string]any, _ *sdk.Context) (any, error) {
	name, _ := input["name"].(string)
	return map[string]any{"message": "Hello, " + name}, nil
}

// Notes manages documents in the notes collection. input.action selects
// list, get, create or delete.
func Notes(ctx context.Context, input map[string]any, fc *sdk.Context) (any, error) {
	notes := fc.DB.Collection(NotesCollection)
	action, _ := input["action"].(string)
	fc.Log.Info("Handling notes request", map[string]any{"action": action})

	switch action {
	case "list":
		opts := &sdk.FindOptions{Sort: "-created_at"}
		if fc.Auth != nil {
			opts.Filter = map[string]any{"owner": fc.Auth.ID}
		}
		if limit, ok := input["limit"].(float64); ok {
			opts.Limit = int(limit)
		}
		docs, err := notes.Find(ctx, opts)
		if err != nil {
			return nil, err
		}
		fc.Log.Debug("Listed notes", map[string]any{"count": len(docs)})
		return map[string]any{"notes": docs}, nil

	case "get":
		id, err := requireID(input)
		if err != nil {
			return nil, err
		}
		doc, err := notes.FindOne(ctx, id)
		if errors.Is(err, sdk.ErrNotFound) {
			fc.Log.Warn("Note not found", map[string]any{"id": id})
			return nil, sdk.NewError("NOT_FOUND", fmt.Sprintf("Note '%s' not found", id), map[string]any{"id": id})
		}
		if err != nil {
			return nil, err
		}
		return doc, nil

	case "create":
		if fc.Auth == nil {
			return nil, sdk.NewError("UNAUTHORIZED", "Creating notes requires an authenticated caller", nil)
		}
		data := map[string]any{
			"title": input["title"],
			"body":  input["body"],
			"owner": fc.Auth.ID,
		}
		doc, err := notes.Create(ctx, data)
		if err != nil {
			fc.Log.Error("Failed to create note", map[string]any{"error": err.Error()})
			return nil, err
		}
		fc.Log.Info("Note created", map[string]any{"id": doc["id"]})
		return doc, nil

	case "delete":
		id, err := requireID(input)
		if err != nil {
			return nil, err
		}
		if _, err := notes.Delete(ctx, id); err != nil {
			return nil, err
		}
		fc.Log.Info("Note deleted", map[string]any{"id": id})
		return map[string]any{"deleted": id}, nil

	default:
		return nil, sdk.NewError("INVALID_ACTION", fmt.Sprintf("Unknown action '%s'", action),
			map[string]any{"allowed": []string{"list", "get", "create", "delete"}})
	}
}

// Fail always fails after writing one log entry.
func Fail(_ context.Context, input map[string]any, fc *sdk.Context) (any, error) {
	fc.Log.Info("Failing on purpose", input)
	code, _ := input["code"].(string)
	if code == "" {
		code = "INTENTIONAL_FAILURE"
	}
	return nil, sdk.NewError(code, "This function always fails", map[string]any{"input": input})
}

func requireID(input map[string]any) (string, error) {
	id, _ := input["id"].(string)
	if id == "" {
		return "", sdk.NewError(sdk.CodeValidation, "Field 'id' is required", map[string]any{"field": "id"})
	}
	return id, nil
}
