package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Auth     string
	Body     map[string]any
}

func testInternalAPI(t *testing.T, status int, response string) (*DB, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Auth:     r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return NewDB(srv.URL+"/", "secret", srv.Client()), &requests
}

func TestCollection_FindBuildsQuery(t *testing.T) {
	db, requests := testInternalAPI(t, http.StatusOK, `{"data": [{"id": "1"}, {"id": "2"}]}`)

	docs, err := db.Collection("posts").Find(context.Background(), &FindOptions{
		Filter: map[string]any{"status": "published", "author": "u 1"},
		Sort:   "-created_at",
		Limit:  10,
		Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/internal/v1/db/query", req.Path)
	require.Equal(t, "Bearer secret", req.Auth)
	require.Equal(t,
		"collection=posts&filter=author%3Aeq%3Au+1&filter=status%3Aeq%3Apublished&sort=-created_at&limit=10&offset=20",
		req.RawQuery)
}

func TestCollection_FindOmitsUnsetOptions(t *testing.T) {
	db, requests := testInternalAPI(t, http.StatusOK, `{}`)

	docs, err := db.Collection("posts").Find(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)
	require.Equal(t, "collection=posts", (*requests)[0].RawQuery)
}

func TestCollection_FindOne(t *testing.T) {
	db, requests := testInternalAPI(t, http.StatusOK, `{"data": [{"id": "abc", "title": "x"}]}`)

	doc, err := db.Collection("posts").FindOne(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "x", doc["title"])
	require.Equal(t, "collection=posts&filter=id%3Aeq%3Aabc", (*requests)[0].RawQuery)
}

func TestCollection_FindOneNotFound(t *testing.T) {
	db, _ := testInternalAPI(t, http.StatusOK, `{"data": []}`)

	_, err := db.Collection("posts").FindOne(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_Mutations(t *testing.T) {
	db, requests := testInternalAPI(t, http.StatusOK, `{"id": "n1"}`)
	posts := db.Collection("posts")
	ctx := context.Background()

	doc, err := posts.Create(ctx, map[string]any{"title": "hi"})
	require.NoError(t, err)
	require.Equal(t, "n1", doc["id"])

	_, err = posts.Update(ctx, "n1", map[string]any{"title": "bye"})
	require.NoError(t, err)

	_, err = posts.Delete(ctx, "n1")
	require.NoError(t, err)

	require.Len(t, *requests, 3)
	for _, req := range *requests {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/internal/v1/db/exec", req.Path)
		require.Equal(t, "posts", req.Body["collection"])
	}

	require.Equal(t, map[string]any{
		"operation":  "insert",
		"collection": "posts",
		"data":       map[string]any{"title": "hi"},
	}, (*requests)[0].Body)
	require.Equal(t, "update", (*requests)[1].Body["operation"])
	require.Equal(t, "n1", (*requests)[1].Body["id"])
	require.Equal(t, map[string]any{
		"operation":  "delete",
		"collection": "posts",
		"id":         "n1",
	}, (*requests)[2].Body)
}

func TestDB_RemoteErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMsg  string
		wantCode string
	}{
		{"message field", `{"message": "bad filter"}`, "bad filter", ""},
		{"error field", `{"error": "Unauthorized", "code": "UNAUTHORIZED"}`, "Unauthorized", "UNAUTHORIZED"},
		{"not json", `oops`, "Request failed with status 403", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := testInternalAPI(t, http.StatusForbidden, tt.body)

			_, err := db.Collection("posts").Find(context.Background(), nil)

			var re *RemoteError
			require.True(t, errors.As(err, &re), "expected *RemoteError, got %T", err)
			require.Equal(t, http.StatusForbidden, re.Status)
			require.Equal(t, tt.wantMsg, re.Message)
			require.Equal(t, tt.wantCode, re.Code)
		})
	}
}

func TestDB_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	db := NewDB(url, "t", nil)
	_, err := db.Collection("posts").Create(context.Background(), map[string]any{})

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce), "expected *ConnectionError, got %T", err)
	require.Contains(t, ce.Error(), "Connection error: ")
}

func TestDB_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	db := NewDB(srv.URL, "t", NewHTTPClient(50*time.Millisecond))
	_, err := db.Collection("posts").Find(context.Background(), nil)

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce), "expected *ConnectionError, got %T", err)
	require.Equal(t, "Connection error: request timed out", ce.Error())
}

func TestDB_EmptyURLFailsOnlyOnRequest(t *testing.T) {
	db := NewDB("", "", nil)
	c := db.Collection("posts")
	require.Same(t, c, db.Collection("posts"))
	require.Equal(t, "posts", c.Name())

	_, err := c.Find(context.Background(), nil)
	var ce *ConnectionError
	require.True(t, errors.As(err, &ce), "expected *ConnectionError, got %T", err)
}
