// Package server exposes simulation output over HTTP: per-height block
// summaries from a bounded in-memory cache, the latest summary, and a
// websocket feed of summaries as blocks complete.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/shardnet/shardsim/model"
)

// Config holds the HTTP server parameters.
type Config struct {
	Addr      string `toml:",omitempty"`
	CacheSize int    `toml:",omitempty"`
}

// DefaultConfig is the default server configuration.
var DefaultConfig = Config{
	Addr:      "127.0.0.1:6526",
	CacheSize: 10_000,
}

// summarySource is the slice of the simulator the server consumes.
type summarySource interface {
	SubscribeSummaries(ch chan<- *model.BlockSummary) event.Subscription
}

// Server caches block summaries and serves them over HTTP. It holds no
// reference into the simulator beyond the subscription, so it can outlive
// the run and keep serving the cached blocks.
type Server struct {
	cfg     Config
	source  summarySource
	handler http.Handler

	cache    *lru.ARCCache // height → *model.BlockSummary
	latest   atomic.Value  // *model.BlockSummary
	events   event.Feed    // re-broadcast to websocket clients
	upgrader websocket.Upgrader

	httpSrv  *http.Server
	listener net.Listener
	sub      event.Subscription
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New creates a server over the given summary source.
func New(cfg Config, source summarySource) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig.Addr
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig.CacheSize
	}
	cache, err := lru.NewARC(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		source: source,
		cache:  cache,
		quit:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	router := httprouter.New()
	router.GET("/block/:height", s.blockByHeight)
	router.GET("/latest", s.latestBlock)
	router.GET("/ws", s.feedSocket)
	s.handler = cors.Default().Handler(router)
	return s, nil
}

// Start subscribes to the summary feed and begins serving.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	ch := make(chan *model.BlockSummary, 64)
	s.sub = s.source.SubscribeSummaries(ch)
	s.wg.Add(1)
	go s.loop(ch)

	s.httpSrv = &http.Server{Handler: s.handler}
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("summary server failed", "err", err)
		}
	}()
	log.Info("summary server started", "addr", listener.Addr())
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop unsubscribes and shuts the server down, waiting briefly for in-flight
// requests.
func (s *Server) Stop() error {
	close(s.quit)
	s.sub.Unsubscribe()
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) loop(ch chan *model.BlockSummary) {
	defer s.wg.Done()
	for {
		select {
		case summary := <-ch:
			s.cacheSummary(summary)
		case <-s.sub.Err():
			return
		case <-s.quit:
			return
		}
	}
}

func (s *Server) cacheSummary(summary *model.BlockSummary) {
	s.cache.Add(summary.Height, summary)
	s.latest.Store(summary)
	s.events.Send(summary)
}

func (s *Server) blockByHeight(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	height, err := strconv.ParseUint(ps.ByName("height"), 10, 64)
	if err != nil {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return
	}
	summary, ok := s.cache.Get(height)
	if !ok {
		http.Error(w, "block not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

func (s *Server) latestBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary := s.latest.Load()
	if summary == nil {
		http.Error(w, "no blocks yet", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

// feedSocket streams summaries to a websocket client until either side goes
// away.
func (s *Server) feedSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ch := make(chan *model.BlockSummary, 64)
	sub := s.events.Subscribe(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case summary := <-ch:
			if err := conn.WriteJSON(summary); err != nil {
				return
			}
		case <-sub.Err():
			return
		case <-s.quit:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("summary encode failed", "err", err)
	}
}
