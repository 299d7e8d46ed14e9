package builtin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/sdk"
)

func exampleService(t *testing.T) *functions.Service {
	t.Helper()

	set := functions.NewHandlerSet()
	require.NoError(t, Register(set))

	svc, err := functions.NewService(functions.ServiceConfig{
		Root:     filepath.Join("..", "..", "examples", "functions"),
		Handlers: set,
	})
	require.NoError(t, err)
	return svc
}

func TestExampleFunctions_Load(t *testing.T) {
	svc := exampleService(t)

	names, err := svc.List()
	require.NoError(t, err)
	require.Equal(t, []string{"echo", "fail", "greet", "notes"}, names)

	for _, name := range names {
		_, err := svc.Registry().Resolve(name)
		require.NoError(t, err, "resolving %s", name)
	}
}

func TestExampleFunctions_Greet(t *testing.T) {
	svc := exampleService(t)

	resp, err := svc.Invoke(context.Background(), &functions.FunctionRequest{
		RequestID: "g1",
		Function:  "greet",
		Input:     map[string]any{"name": "Ann"},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, map[string]any{"message": "Hello, Ann"}, resp.Output)

	resp, err = svc.Invoke(context.Background(), &functions.FunctionRequest{
		RequestID: "g2",
		Function:  "greet",
		Input:     map[string]any{"name": "Ann"},
		Context: &functions.FunctionContext{
			Auth: &sdk.AuthContext{ID: "u1", Email: "ann@example.com"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"message": "Hello, ann@example.com"}, resp.Output)
}

func TestExampleFunctions_EchoValidation(t *testing.T) {
	svc := exampleService(t)

	resp, err := svc.Invoke(context.Background(), &functions.FunctionRequest{
		RequestID: "e1",
		Function:  "echo",
		Input:     map[string]any{"name": ""},
	})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
