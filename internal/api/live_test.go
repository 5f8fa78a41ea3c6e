package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rental-marketplace/internal/common/config"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/search"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingQuerier struct {
	calls atomic.Int32
}

func (q *countingQuerier) Search(ctx context.Context, text string, filters search.Filters) (*search.Response, error) {
	q.calls.Add(1)
	return fakeQuerier{}.Search(ctx, text, filters)
}

func TestLiveSearch_DebouncedOverWebsocket(t *testing.T) {
	cfg := &config.Config{}
	cfg.Search.DebounceMs = 50
	q := &countingQuerier{}

	srv := httptest.NewServer(NewRouter(Deps{
		Config: cfg,
		Logger: logger.NewTestLogger(t),
		Search: q,
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/search/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, text := range []string{"m", "mo", "mont", "mont kiara"} {
		require.NoError(t, conn.WriteJSON(liveInput{Text: text, Filters: search.Filters{Gender: "Female"}}))
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update search.Update
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "mont kiara", update.Text)
	assert.Equal(t, uint64(1), update.Seq)
	require.NotNil(t, update.Response)
	assert.Equal(t, "gender:Female", update.Response.Intent.FilterPredicate)
	assert.Equal(t, int32(1), q.calls.Load())
}
