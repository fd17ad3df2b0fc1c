package hass

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zones2mqtt/internal/log"
)

func TestClientState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/states/vacuum.robot", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"entity_id":"vacuum.robot","state":"cleaning","attributes":{"cleaning_sequence":[1,2,3]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token123", log.Nop())
	state, err := client.State("vacuum.robot")
	require.NoError(t, err)

	assert.Equal(t, "cleaning", state.State)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, state.Attributes["cleaning_sequence"])
}

func TestClientStateNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", log.Nop())
	_, err := client.State("select.missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClientCall(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/services/vacuum/stop", r.URL.Path)
		payload, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(payload, &body))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", log.Nop())
	err := client.Call("vacuum", "stop", map[string]interface{}{"entity_id": "vacuum.robot"})
	require.NoError(t, err)
	assert.Equal(t, "vacuum.robot", body["entity_id"])
}

func TestClientCallServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", log.Nop())
	err := client.Call("vacuum", "start", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientPlatformProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/template", r.URL.Path)
		payload, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &body))
		tmpl, _ := body["template"].(string)
		if strings.Contains(tmpl, "roborock") {
			w.Write([]byte("True"))
			return
		}
		w.Write([]byte("False"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", log.Nop())
	platform, err := client.Platform("vacuum.robot")
	require.NoError(t, err)
	assert.Equal(t, "roborock", platform)
}

func TestClientPlatformUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("False"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", log.Nop())
	_, err := client.Platform("vacuum.robot")
	require.Error(t, err)
}
