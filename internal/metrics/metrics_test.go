package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHandler_ExposesRelayCollectors(t *testing.T) {
	t.Parallel()

	MessagesRelayed.WithLabelValues("vote").Inc()
	MessagesRejected.WithLabelValues("not_in_room").Inc()
	GamesFinished.WithLabelValues("crewmates").Inc()

	body := scrape(t)
	assert.Contains(t, body, `relay_messages_total{type="vote"}`)
	assert.Contains(t, body, `relay_messages_rejected_total{reason="not_in_room"}`)
	assert.Contains(t, body, `relay_games_finished_total{winner="crewmates"}`)
	assert.Contains(t, body, "relay_peers_connected")
	assert.Contains(t, body, "relay_rooms_open")
}
