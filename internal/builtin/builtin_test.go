package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/sdk"
)

func TestRegister(t *testing.T) {
	set := functions.NewHandlerSet()
	require.NoError(t, Register(set))
	require.Equal(t, []string{"echo", "fail", "notes"}, set.Names())

	require.Error(t, Register(set))
}

func TestEcho(t *testing.T) {
	fc := sdk.NewContext(nil, nil, nil)
	out, err := Echo(context.Background(), map[string]any{"name": "Ann"}, fc)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"message": "Hello, Ann"}, out)
	require.Empty(t, fc.Logs())
}

func TestFail(t *testing.T) {
	fc := sdk.NewContext(nil, nil, nil)
	_, err := Fail(context.Background(), map[string]any{"code": "X"}, fc)

	var fe *sdk.FunctionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "X", fe.Code)
	require.Len(t, fc.Logs(), 1)
}

type notesAPI struct {
	t        *testing.T
	lastBody map[string]any
	lastURL  string
	status   int
	response string
}

func (a *notesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.lastURL = r.URL.String()
	a.lastBody = nil
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		require.NoError(a.t, json.Unmarshal(data, &a.lastBody))
	}
	w.WriteHeader(a.status)
	_, _ = w.Write([]byte(a.response))
}

func notesContext(t *testing.T, api *notesAPI, auth *sdk.AuthContext) *sdk.Context {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return sdk.NewContext(auth, nil, sdk.NewDB(srv.URL, "tok", srv.Client()))
}

func TestNotes_List(t *testing.T) {
	api := &notesAPI{t: t, status: http.StatusOK, response: `{"data":[{"id":"n1"}]}`}
	fc := notesContext(t, api, &sdk.AuthContext{ID: "u1"})

	out, err := Notes(context.Background(), map[string]any{"action": "list", "limit": 5.0}, fc)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"notes": []sdk.Document{{"id": "n1"}}}, out)
	require.Equal(t, "/internal/v1/db/query?collection=notes&filter=owner%3Aeq%3Au1&sort=-created_at&limit=5", api.lastURL)
	require.Len(t, fc.Logs(), 2)
}

func TestNotes_GetNotFound(t *testing.T) {
	api := &notesAPI{t: t, status: http.StatusOK, response: `{"data":[]}`}
	fc := notesContext(t, api, nil)

	_, err := Notes(context.Background(), map[string]any{"action": "get", "id": "zz"}, fc)
	var fe *sdk.FunctionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "NOT_FOUND", fe.Code)
}

func TestNotes_Create(t *testing.T) {
	api := &notesAPI{t: t, status: http.StatusOK, response: `{"id":"n2","title":"t"}`}
	fc := notesContext(t, api, &sdk.AuthContext{ID: "u1"})

	out, err := Notes(context.Background(), map[string]any{"action": "create", "title": "t", "body": "b"}, fc)
	require.NoError(t, err)
	require.Equal(t, "n2", out.(sdk.Document)["id"])
	require.Equal(t, "insert", api.lastBody["operation"])
	require.Equal(t, "notes", api.lastBody["collection"])
	require.Equal(t, map[string]any{"title": "t", "body": "b", "owner": "u1"}, api.lastBody["data"])
}

func TestNotes_CreateRequiresAuth(t *testing.T) {
	api := &notesAPI{t: t, status: http.StatusOK, response: `{}`}
	fc := notesContext(t, api, nil)

	_, err := Notes(context.Background(), map[string]any{"action": "create"}, fc)
	var fe *sdk.FunctionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "UNAUTHORIZED", fe.Code)
	require.Empty(t, api.lastURL)
}

func TestNotes_DeleteRemoteError(t *testing.T) {
	api := &notesAPI{t: t, status: http.StatusForbidden, response: `{"error":"forbidden","code":"FORBIDDEN"}`}
	fc := notesContext(t, api, nil)

	_, err := Notes(context.Background(), map[string]any{"action": "delete", "id": "n1"}, fc)
	var re *sdk.RemoteError
	require.True(t, errors.As(err, &re))
	require.Equal(t, http.StatusForbidden, re.Status)
	require.Equal(t, "delete", api.lastBody["operation"])
	require.Equal(t, "n1", api.lastBody["id"])
}

func TestNotes_UnknownAction(t *testing.T) {
	fc := sdk.NewContext(nil, nil, sdk.NewDB("", "", nil))
	_, err := Notes(context.Background(), map[string]any{"action": "archive"}, fc)

	var fe *sdk.FunctionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "INVALID_ACTION", fe.Code)
}
