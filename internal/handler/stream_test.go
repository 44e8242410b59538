package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talent-lab/sourcedash/dao/model"
)

func TestStreamPushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "dana@example.com", "secret123", model.RoleUser)
	env.seedProject(t, "Acme", "Dana")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/projects/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{
		"Authorization": []string{"Bearer " + token},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// initial frame carries the current snapshot
	var frame streamFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "projects", frame.Type)
	require.Len(t, frame.Projects, 1)
	assert.Equal(t, "Acme", frame.Projects[0].Company)

	// a mutation triggers a fresh frame
	env.seedProject(t, "Beta", "Lior")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Len(t, frame.Projects, 2)
}

func TestPushFrameNeverBlocks(t *testing.T) {
	frames := make(chan []model.Project, 1)
	newest := []model.Project{{Company: "Beta"}}

	// a stale frame sits in the slot and nobody is draining
	frames <- []model.Project{{Company: "Acme"}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pushFrame(frames, newest)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pushFrame blocked with an undrained channel")
	}

	got := <-frames
	require.Len(t, got, 1)
	assert.Equal(t, "Beta", got[0].Company)

	// racing pushes against a full slot must also return promptly and
	// leave the latest-or-near-latest frame behind, never deadlock
	frames <- newest
	done = make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			pushFrame(frames, newest)
		}
	}()
	go func() {
		for i := 0; i < 100; i++ {
			pushFrame(frames, newest)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent pushFrame calls did not finish")
	}
}

func TestStreamRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/projects/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
