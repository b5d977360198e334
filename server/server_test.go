package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/automata/spec"
)

func writeSpec(t *testing.T, location, id, content string) {
	t.Helper()
	dir := filepath.Join(location, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.yml"), []byte(content), 0o644))
}

func testLocation(t *testing.T) string {
	t.Helper()
	location := t.TempDir()

	for _, id := range []string{"think", "finalize", "save_text"} {
		writeSpec(t, location, id, `
name: `+strings.ToUpper(id[:1])+id[1:]+`
description: A builtin function automaton.
rank: 1
runner: function
`)
	}

	writeSpec(t, location, "quiz_creator", `
name: Quiz Creator
description: Creates quizzes and saves them to a file.
rank: 2
runner: core
reasoning:
  planner:
    name: scripted
sub_automata:
  - think
  - save_text
  - finalize
extra_args:
  script:
    - automaton: think
      request: "Draft a quiz for: {{.Request}}"
    - automaton: save_text
      request: '{"file_name": "quiz.txt", "content": {{.LastResult | json}}}'
    - automaton: finalize
      request: "{{.LastResult}}"
`)
	return location
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testLocation(t), WithWorkspace(t.TempDir()))
	require.NoError(t, err)
	return srv
}

func TestListAutomata(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/automata")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var items []struct {
		ID     string `json:"id"`
		Rank   int    `json:"rank"`
		Runner string `json:"runner"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	require.Len(t, items, 4)

	byID := map[string]int{}
	for _, item := range items {
		byID[item.ID] = item.Rank
	}
	assert.Equal(t, 2, byID["quiz_creator"])
	assert.Equal(t, 1, byID["think"])
}

func TestGetAutomaton(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	t.Run("returns the spec", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/v1/automata/quiz_creator")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var sp spec.Spec
		require.NoError(t, json.NewDecoder(res.Body).Decode(&sp))
		assert.Equal(t, "Quiz Creator", sp.Name)
		assert.Equal(t, []string{"think", "save_text", "finalize"}, sp.SubAutomata)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/v1/automata/ghost")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestRunAutomaton(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("runs and returns the result", func(t *testing.T) {
		body := strings.NewReader(`{"request": "a history quiz", "requester": "tester"}`)
		res, err := http.Post(ts.URL+"/v1/automata/quiz_creator/run", "application/json", body)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var run struct {
			ID     string `json:"id"`
			Result string `json:"result"`
		}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&run))
		assert.Equal(t, "quiz_creator", run.ID)
		assert.Contains(t, run.Result, "quiz.txt")
	})

	t.Run("empty request is a 400", func(t *testing.T) {
		res, err := http.Post(ts.URL+"/v1/automata/quiz_creator/run", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("metrics record the run", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(data), `automata_runs_total{automaton="quiz_creator",status="ok"}`)
	})
}

func TestCORSHeaders(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/automata", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
