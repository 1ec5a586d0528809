//go:build integration

package service

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upsolve/model"
	"upsolve/natsclient"
)

func TestWorkerOverNATS(t *testing.T) {
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}
	nc, err := natsclient.NewNatsClient(url)
	require.NoError(t, err)
	defer nc.Close()

	f := newFixture()
	f.svc.publisher = nc
	require.NoError(t, f.svc.RegisterUser(t.Context(), "u1", "tourist"))
	f.resolver.byHandle["tourist"] = []model.UpsolveCandidate{candidate("100", "D")}

	events := make(chan *nats.Msg, 1)
	sub, err := nc.Subscribe(natsclient.SubjectResolved, func(m *nats.Msg) { events <- m })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	w := NewWorker(f.svc, nc, nil)
	require.NoError(t, w.Start())
	defer w.Stop()

	req, _ := json.Marshal(ResolveRequest{UserID: "u1"})
	msg, err := nc.Request(natsclient.SubjectResolveRequest, req, 5*time.Second)
	require.NoError(t, err)

	var resp model.GenericResponse
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.True(t, resp.Success)

	select {
	case ev := <-events:
		assert.Contains(t, string(ev.Data), `"userId":"u1"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no resolved event")
	}

	req, _ = json.Marshal(ExtractRequest{QuestionID: "bad"})
	msg, err = nc.Request(natsclient.SubjectExtractRequest, req, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 400, resp.Status)
}
