package functions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	svc, err := NewService(ServiceConfig{Root: root, Handlers: testHandlers(t)})
	require.NoError(t, err)
	return svc, root
}

func TestService_Invoke(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "echo/function.yaml", "handler: echo\n")

	resp, err := svc.Invoke(context.Background(), &FunctionRequest{
		RequestID: "r1",
		Function:  "echo",
		Input:     map[string]any{"name": "Ann"},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "r1", resp.RequestID)
	require.Equal(t, map[string]any{"message": "Hello, Ann"}, resp.Output)
}

func TestService_InvalidRequest(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "echo.yaml", "handler: echo\n")

	tests := []struct {
		name   string
		req    *FunctionRequest
		wantID string
	}{
		{"nil", nil, UnknownRequestID},
		{"missing function", &FunctionRequest{RequestID: "r1", Input: map[string]any{}}, "r1"},
		{"missing request id", &FunctionRequest{Function: "echo", Input: map[string]any{}}, UnknownRequestID},
		{"missing input", &FunctionRequest{RequestID: "r2", Function: "echo"}, "r2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Invoke(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			require.False(t, resp.Success)
			require.Equal(t, tt.wantID, resp.RequestID)
			require.Equal(t, CodeInvalidRequest, resp.Error.Code)
			require.NotNil(t, resp.Logs)
		})
	}

	require.Equal(t, 0, svc.Registry().Len())
}

func TestService_NotFound(t *testing.T) {
	svc, _ := testService(t)

	resp, err := svc.Invoke(context.Background(), &FunctionRequest{
		RequestID: "r1",
		Function:  "ghost",
		Input:     map[string]any{},
	})

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	require.False(t, resp.Success)
	require.Equal(t, "r1", resp.RequestID)
	require.Equal(t, CodeFunctionNotFound, resp.Error.Code)
	require.Equal(t, "Function 'ghost' not found", resp.Error.Message)
	require.Empty(t, resp.Logs)
}

func TestService_LoadAndContractErrors(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "broken.yaml", "handler: [\n")
	writeFunction(t, root, "unbound.yaml", "description: nothing here\n")

	resp, err := svc.Invoke(context.Background(), &FunctionRequest{RequestID: "r", Function: "broken", Input: map[string]any{}})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, CodeLoadError, resp.Error.Code)

	resp, err = svc.Invoke(context.Background(), &FunctionRequest{RequestID: "r", Function: "unbound", Input: map[string]any{}})
	var ce *ContractError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, CodeContractError, resp.Error.Code)
}

func TestService_FunctionFailureIsNotAnError(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "greet.yaml", greetManifest)

	resp, err := svc.Invoke(context.Background(), &FunctionRequest{
		RequestID: "r",
		Function:  "greet",
		Input:     map[string]any{"name": "A"},
	})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestService_ClearCache(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "echo.yaml", "handler: echo\n")

	_, err := svc.Invoke(context.Background(), &FunctionRequest{RequestID: "r", Function: "echo", Input: map[string]any{"name": "x"}})
	require.NoError(t, err)
	require.Equal(t, 1, svc.Registry().Len())

	svc.ClearCache()
	require.Equal(t, 0, svc.Registry().Len())
}

func TestService_List(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "b.yaml", "handler: echo\n")
	writeFunction(t, root, "a/function.yaml", "handler: echo\n")

	names, err := svc.List()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestService_ConcurrentInvocations(t *testing.T) {
	svc, root := testService(t)
	writeFunction(t, root, "echo.yaml", "handler: echo\n")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Invoke(context.Background(), &FunctionRequest{
				RequestID: "r",
				Function:  "echo",
				Input:     map[string]any{"name": "Ann"},
			})
			require.NoError(t, err)
			require.True(t, resp.Success)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, svc.Registry().Len())
	require.True(t, svc.Registry().Cached("echo"))
}
