// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/cloud"
	"github.com/SoftbearStudios/realmwalk/server/config"
	"github.com/SoftbearStudios/realmwalk/server/lod"
	"github.com/SoftbearStudios/realmwalk/server/stream"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

const (
	debugPeriod  = time.Second * 10
	statusPeriod = time.Second
	updatePeriod = time.Second / 10
)

type HubOptions struct {
	Config *config.Config
	// Cloud serves asset templates, nil means every asset is a placeholder.
	Cloud *cloud.Cloud
	// Speed the walker follows the path at, in meters per second.
	Speed float32
}

// Hub owns the streamer and broadcasts what it does to the observing clients.
type Hub struct {
	config   *config.Config
	cloud    *cloud.Cloud
	cache    *asset.Cache
	selector lod.Selector
	streamer atomic.Pointer[stream.Streamer] // swapped on realm change, read by HTTP
	realm    string
	walker   Walker
	clients  ClientList // implemented as double-linked list
	ticks    int

	statusJSON atomic.Value

	// funcBenches are benchmarks of core Hub functions.
	funcBenches []funcBench

	// Inbound channels
	inbound    chan SignedInbound
	register   chan Client
	unregister chan Client
	done       chan struct{}
	closed     atomic.Bool

	// Timer based events
	updateTicker *time.Ticker
	updateTime   time.Time
	statusTicker *time.Ticker
	debugTicker  *time.Ticker
}

func NewHub(options HubOptions) (*Hub, error) {
	if options.Config == nil {
		return nil, errors.New("hub: no config")
	}
	selector, err := options.Config.Selector()
	if err != nil {
		return nil, err
	}

	h := &Hub{
		config:     options.Config,
		cloud:      options.Cloud,
		cache:      asset.NewCache(options.Cloud, options.Config.Cache()),
		selector:   selector,
		inbound:    make(chan SignedInbound, 16),
		register:   make(chan Client, 8),
		unregister: make(chan Client, 16),
		done:       make(chan struct{}),
	}

	if err = h.SwitchRealm(options.Config.Realm); err != nil {
		h.cache.Close()
		return nil, err
	}
	h.walker.Speed = options.Speed
	h.status()
	return h, nil
}

// Streamer returns the streamer of the current realm.
func (h *Hub) Streamer() *stream.Streamer {
	return h.streamer.Load()
}

// SwitchRealm replaces the streamer with one for realm. Every active chunk of
// the old realm is destroyed, which observers receive with the next update.
func (h *Hub) SwitchRealm(realm string) error {
	placer, err := h.config.Placer(realm)
	if err != nil {
		return err
	}
	streamer, err := stream.New(h.config.Stream(), placer, h.cache)
	if err != nil {
		return err
	}

	var destroyed []world.ChunkCoord
	if old := h.streamer.Swap(streamer); old != nil {
		destroyed = old.Reset()
	}

	h.realm = realm
	h.walker.Source = placer.Source()

	if h.clients.Len > 0 {
		h.broadcast(&Update{Tick: h.ticks, Realm: realm, Viewpoint: h.walker.Position, Destroyed: destroyed})
	}
	return nil
}

// Run is the hub goroutine. It returns after Close.
func (h *Hub) Run() {
	h.updateTicker = time.NewTicker(updatePeriod)
	h.updateTime = time.Now()
	h.statusTicker = time.NewTicker(statusPeriod)
	h.debugTicker = time.NewTicker(debugPeriod)

	defer func() {
		h.updateTicker.Stop()
		h.statusTicker.Stop()
		h.debugTicker.Stop()

		for client := h.clients.First; client != nil; client = h.clients.Remove(client) {
			client.Close()
		}
		h.Streamer().Reset()
		h.cache.Close()
		log.Println("hub stopped")
	}()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				// If not same hub the message is old
				if h == in.Client.Data().Hub {
					in.Inbound.Inbound(h, in.Client)
				}

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case <-h.updateTicker.C:
			now := time.Now()
			timeDelta := now.Sub(h.updateTime)
			h.updateTime = now

			// Don't teleport after a stall
			if timeDelta > updatePeriod*5 {
				timeDelta = updatePeriod
			}
			h.Update(float32(timeDelta.Seconds()))
		case <-h.statusTicker.C:
			h.status()
		case <-h.debugTicker.C:
			h.Debug()
		case <-h.done:
			return
		}
	}
}

// Close stops Run. It may be called more than once.
func (h *Hub) Close() {
	if h.closed.CompareAndSwap(false, true) {
		close(h.done)
	}
}

// Register adds a client to the hub goroutine. It is dropped if the hub
// has stopped.
func (h *Hub) Register(client Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client, it must only be called once per client.
func (h *Hub) Unregister(client Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ReceiveSigned queues an inbound for the hub goroutine. It returns false
// once the hub has stopped.
func (h *Hub) ReceiveSigned(in SignedInbound) bool {
	if h.closed.Load() {
		return false
	}
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) addClient(client Client) {
	h.clients.Add(client)
	client.Data().Hub = h
	client.Init()

	// Everything so far, so the client can render without waiting for changes
	client.Send(h.snapshot())
}

func (h *Hub) removeClient(client Client) {
	if client.Data().Hub != h {
		return
	}
	client.Close()
	client.Data().Hub = nil
	h.clients.Remove(client)
}

// Update advances the walker by seconds and ticks the streamer once.
func (h *Hub) Update(seconds float32) {
	defer h.timeFunction("update", time.Now())

	viewpoint := h.walker.Step(seconds)
	delta := h.Streamer().Tick(viewpoint)
	h.ticks++

	for _, diagnostic := range delta.Diagnostics {
		log.Println(diagnostic)
	}

	if delta.Empty() || h.clients.Len == 0 {
		return
	}

	update := &Update{
		Tick:      h.ticks,
		Viewpoint: viewpoint,
		Created:   h.chunkViews(viewpoint, delta.Created),
		Destroyed: delta.Destroyed,
	}
	for _, settled := range delta.Settled {
		update.Assets = append(update.Assets, AssetView{Kind: settled.Kind, State: settled.State})
	}
	for _, diagnostic := range delta.Diagnostics {
		update.Diagnostics = append(update.Diagnostics, diagnostic.String())
	}
	h.broadcast(update)
}

// snapshot is an Update creating every active chunk.
func (h *Hub) snapshot() *Update {
	viewpoint := h.walker.Position
	return &Update{
		Tick:      h.ticks,
		Realm:     h.realm,
		Viewpoint: viewpoint,
		Created:   h.chunkViews(viewpoint, h.Streamer().Active()),
	}
}

func (h *Hub) chunkViews(viewpoint world.Vec3f, chunks []*world.Chunk) []ChunkView {
	if len(chunks) == 0 {
		return nil
	}
	views := make([]ChunkView, len(chunks))
	for i, chunk := range chunks {
		views[i] = newChunkView(h.selector, viewpoint, chunk)
	}
	return views
}

func (h *Hub) broadcast(out Outbound) {
	for client := h.clients.First; client != nil; client = client.Data().Next {
		client.Send(out)
	}
}

// Move places the viewpoint and stops the walker.
func (h *Hub) Move(position world.Vec3f) {
	h.walker.Speed = 0
	h.walker.Position = position
}

// status is served by ServeIndex.
func (h *Hub) status() {
	s := h.Streamer().Stats()
	buf, err := json.Marshal(Status{
		Realm:     h.realm,
		Viewpoint: h.walker.Position,
		Clients:   h.clients.Len,
		Streamer:  s,
		Assets:    h.cache.Stats(),
	})
	if err != nil {
		log.Println("status error:", err)
		return
	}
	h.statusJSON.Store(buf)
}

// Status is the JSON body of ServeIndex.
type Status struct {
	Realm     string       `json:"realm"`
	Viewpoint world.Vec3f  `json:"viewpoint"`
	Clients   int          `json:"clients"`
	Streamer  stream.Stats `json:"streamer"`
	Assets    asset.Stats  `json:"assets"`
}

func (h *Hub) String() string {
	return fmt.Sprintf("hub{realm: %s, cloud: %s}", h.realm, h.cloud)
}
