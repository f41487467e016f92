package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/shardnet/shardsim/model"
)

// fakeSource stands in for the simulator's summary feed.
type fakeSource struct {
	feed event.Feed
}

func (f *fakeSource) SubscribeSummaries(ch chan<- *model.BlockSummary) event.Subscription {
	return f.feed.Subscribe(ch)
}

func summaryAt(height uint64) *model.BlockSummary {
	return &model.BlockSummary{
		Height: height,
		Shards: []model.ShardSummary{{
			Shard:              0,
			GasBurnt:           1000,
			IncomingCongestion: 0.25,
		}},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeSource) {
	t.Helper()
	source := new(fakeSource)
	srv, err := New(Config{}, source)
	require.NoError(t, err)
	return srv, source
}

func TestBlockByHeight(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cacheSummary(summaryAt(7))

	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/block/7")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var summary model.BlockSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&summary))
	require.Equal(t, uint64(7), summary.Height)
	require.Len(t, summary.Shards, 1)
	require.Equal(t, 0.25, summary.Shards[0].IncomingCongestion)
}

func TestBlockNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/block/12")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(ts.URL + "/block/twelve")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLatestBlock(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/latest")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	srv.cacheSummary(summaryAt(1))
	srv.cacheSummary(summaryAt(2))

	res, err = http.Get(ts.URL + "/latest")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var summary model.BlockSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&summary))
	require.Equal(t, uint64(2), summary.Height)
}

func TestCacheEviction(t *testing.T) {
	source := new(fakeSource)
	srv, err := New(Config{CacheSize: 16}, source)
	require.NoError(t, err)

	for height := uint64(1); height <= 64; height++ {
		srv.cacheSummary(summaryAt(height))
	}
	_, oldest := srv.cache.Get(uint64(1))
	latest, ok := srv.cache.Get(uint64(64))
	require.False(t, oldest, "height 1 should have been evicted")
	require.True(t, ok)
	require.Equal(t, uint64(64), latest.(*model.BlockSummary).Height)
}

// Start wires the subscription: summaries sent on the source feed become
// servable over real HTTP.
func TestServerFollowsFeed(t *testing.T) {
	source := new(fakeSource)
	srv, err := New(Config{Addr: "127.0.0.1:0"}, source)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	source.feed.Send(summaryAt(3))

	url := fmt.Sprintf("http://%s/block/3", srv.Addr())
	require.Eventually(t, func() bool {
		res, err := http.Get(url)
		if err != nil {
			return false
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketFeed(t *testing.T) {
	source := new(fakeSource)
	srv, err := New(Config{Addr: "127.0.0.1:0"}, source)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", srv.Addr()), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Keep sending until the client's subscription is live and one frame
	// arrives.
	got := make(chan uint64, 1)
	go func() {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var summary model.BlockSummary
		if err := conn.ReadJSON(&summary); err == nil {
			got <- summary.Height
		}
	}()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case height := <-got:
			require.Equal(t, uint64(9), height)
			return
		case <-deadline:
			t.Fatal("no summary frame received")
		case <-time.After(10 * time.Millisecond):
			source.feed.Send(summaryAt(9))
		}
	}
}
