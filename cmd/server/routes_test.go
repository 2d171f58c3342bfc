package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vobludalib/tournament-server/internal/service"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestErrorStatusMapping(t *testing.T) {
	h := newRouter(service.NewTournamentService(nil))

	rec := doJSON(t, h, http.MethodGet, "/entrants/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/tournament/data/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Finishing a tournament that never started is a declined transition.
	rec = doJSON(t, h, http.MethodPost, "/tournament/finish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Duplicate ids are a malformed request.
	entrant := map[string]any{"type": "Individual", "id": 1, "tag": "Ace"}
	rec = doJSON(t, h, http.MethodPost, "/entrants/", entrant)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/entrants/", entrant)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/entrants/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A bad document on PUT leaves nothing half-loaded.
	rec = doJSON(t, h, http.MethodPut, "/tournament", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/entrants/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTournamentOverHTTP(t *testing.T) {
	h := newRouter(service.NewTournamentService(nil))

	for id, tag := range map[int]string{1: "Ace", 2: "Bolt"} {
		rec := doJSON(t, h, http.MethodPost, "/entrants/", map[string]any{
			"type": "Individual", "id": id, "tag": tag,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/sets/", map[string]any{
		"id": 1, "entrant1Id": 1, "entrant2Id": 2,
		"decider": map[string]any{"type": "BestOfDecider", "amountOfWinsRequired": 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/setup-complete", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/tournament/start", nil).Code)

	// Starting twice is declined, not fatal.
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPost, "/tournament/start", nil).Code)

	rec = doJSON(t, h, http.MethodGet, "/tournament/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "in_progress", status["status"])

	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/start", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPut, "/sets/1/games/1", map[string]any{"data": map[string]string{"map": "station"}}).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/games/1/start", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/games/1/winner", map[string]any{"entrantId": 2}).Code)

	rec = doJSON(t, h, http.MethodPost, "/sets/1/evaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result["changed"])

	rec = doJSON(t, h, http.MethodGet, "/sets/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var set struct {
		Status   string `json:"status"`
		WinnerID *int   `json:"winnerId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "finished", set.Status)
	require.NotNil(t, set.WinnerID)
	assert.Equal(t, 2, *set.WinnerID)

	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/tournament/finish", nil).Code)

	// The full document survives a GET/PUT cycle.
	rec = doJSON(t, h, http.MethodGet, "/tournament", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPut, "/tournament", doc).Code)
}

func TestRequestIDHeader(t *testing.T) {
	h := newRouter(service.NewTournamentService(nil))
	rec := doJSON(t, h, http.MethodGet, "/tournament", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGameRollbackOverHTTP(t *testing.T) {
	h := newRouter(service.NewTournamentService(nil))
	for id, tag := range map[int]string{1: "Ace", 2: "Bolt", 3: "Crux"} {
		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/entrants/", map[string]any{
			"type": "Individual", "id": id, "tag": tag,
		}).Code)
	}
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/sets/", map[string]any{
		"id": 1, "entrant1Id": 1, "entrant2Id": 2,
		"decider": map[string]any{"type": "BestOfDecider", "amountOfWinsRequired": 2},
	}).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/setup-complete", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/tournament/start", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/start", nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPut, "/sets/1/games/1", map[string]any{}).Code)

	// Rollback only applies to a game in progress.
	path := "/sets/1/games/1/rollback"
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPost, path, nil).Code)
	require.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, "/sets/1/games/1/start", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodPost, path, nil).Code)

	// A winner from outside the game is declined.
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPost, "/sets/1/games/1/winner", map[string]any{"entrantId": 3}).Code)

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPost, fmt.Sprintf("/sets/%d/games/1/start", 9), nil).Code)
}
