package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffbot/internal/boards"
)

type downStore struct {
	*boards.InMemoryStore
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func (downStore) List(context.Context) ([]boards.ChannelPair, error) {
	return nil, errors.New("connection refused")
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewServer(":0", boards.NewInMemoryStore()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = serve(t, NewServer(":0", downStore{boards.NewInMemoryStore()}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestBoards(t *testing.T) {
	store := boards.NewInMemoryStore()
	s := NewServer(":0", store)

	rec := serve(t, s, "/api/v1/boards")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"boards":[],"count":0}`, rec.Body.String())

	require.NoError(t, store.Upsert(context.Background(), boards.ChannelPair{RequestsChannelID: "2", ArchiveChannelID: "20", ManagerRoleID: "200"}))
	require.NoError(t, store.Upsert(context.Background(), boards.ChannelPair{RequestsChannelID: "1", ArchiveChannelID: "10", ManagerRoleID: "100"}))

	rec = serve(t, s, "/api/v1/boards")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Boards []boards.ChannelPair `json:"boards"`
		Count  int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "1", body.Boards[0].RequestsChannelID)

	rec = serve(t, s, "/api/v1/boards/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requests_channel":"2","archive_channel":"20","manager_role":"200"}`, rec.Body.String())

	rec = serve(t, s, "/api/v1/boards/3")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBoards_StoreFailure(t *testing.T) {
	rec := serve(t, NewServer(":0", downStore{boards.NewInMemoryStore()}), "/api/v1/boards")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := NewServer("127.0.0.1:0", boards.NewInMemoryStore())
	assert.NoError(t, s.Shutdown(context.Background()))
}
