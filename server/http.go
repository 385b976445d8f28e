// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/SoftbearStudios/realmwalk/server/terrain"
)

// maxPixelsPerMeter bounds the size of ServeMap images.
const maxPixelsPerMeter = 4

func (h *Hub) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	buf, ok := h.statusJSON.Load().([]byte)
	if ok {
		_, _ = w.Write(buf)
	}
}

// ServeMap renders the active chunks as a PNG. The optional scale query
// parameter is in pixels per meter.
func (h *Hub) ServeMap(w http.ResponseWriter, r *http.Request) {
	scale := float32(1)
	if s := r.URL.Query().Get("scale"); s != "" {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil || !(f > 0) || f > maxPixelsPerMeter {
			http.Error(w, "invalid scale", http.StatusBadRequest)
			return
		}
		scale = float32(f)
	}

	img := terrain.Render(h.Streamer().Active(), scale)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (h *Hub) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error", err)
		return
	}

	select {
	case h.register <- NewSocketClient(h, conn):
	case <-h.done:
		_ = conn.Close()
	}
}
