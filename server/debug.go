// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// DebugLog is where Debug appends a csv line of stream statistics.
var DebugLog = "/tmp/realmwalk.log"

// Debug prints debugging info to console and tmp files.
func (h *Hub) Debug() {
	fmt.Printf("Debug [%v] %s\n", time.Now().Format(time.UnixDate), h)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Printf(" - memstats: %dM/%dM\n", mem.HeapInuse/1e6, mem.NextGC/1e6)

	streamer := h.Streamer()
	s := streamer.Stats()
	fmt.Printf(" - clients: %d, viewpoint: %v, speed: %.1f\n", h.clients.Len, h.walker.Position, h.walker.Speed)
	fmt.Printf(" - chunks: %d/%d, created: %d, destroyed: %d, failures: %d, instances: %d\n",
		s.Active, streamer.MaxActive(), s.Created, s.Destroyed, s.Failures, s.Instances)

	a := h.cache.Stats()
	fmt.Printf(" - assets: %d (%d idle, %d loading), loads: %d, hits: %d, fallbacks: %d, evictions: %d\n",
		a.Entries, a.Idle, a.InFlight, a.Loads, a.Hits, a.Fallbacks, a.Evictions)

	counts := h.selector.Count(h.walker.Position, streamer.Active())
	fmt.Printf(" - lod: %v\n", counts)

	// Function benchmarks
	var totalDuration, updateDuration time.Duration

	fmt.Print(" - ")
	for i := range h.funcBenches {
		bench := &h.funcBenches[i]

		duration := bench.reset()
		totalDuration += duration
		if bench.name == "update" {
			updateDuration = duration
		}

		fmt.Print(bench.name, ": ", duration, ", ")
	}
	fmt.Println("total:", totalDuration)

	if err := appendRecord(DebugLog, &debugRecord{
		Millis:   unixMillis(),
		Realm:    h.realm,
		Z:        h.walker.Position.Z,
		Streamer: s,
		Assets:   a,
		Update:   updateDuration.Microseconds(),
	}); err != nil {
		log.Println("debug log error:", err)
	}
}

// funcBench is a benchmark of a core function.
type funcBench struct {
	name     string
	duration time.Duration
	runs     int
}

// reset resets the benchmark and returns the average duration
func (bench *funcBench) reset() time.Duration {
	if bench.runs == 0 {
		return 0
	}
	average := bench.duration / time.Duration(bench.runs)
	bench.duration = 0
	bench.runs = 0
	return average
}

// timeFunction times a function.
// defer timeFunction("name", time.Now())
func (h *Hub) timeFunction(name string, start time.Time) {
	end := time.Now()

	var bench *funcBench
	for i := range h.funcBenches {
		b := &h.funcBenches[i]
		if name == b.name {
			bench = b
			break
		}
	}

	if bench == nil {
		h.funcBenches = append(h.funcBenches, funcBench{name: name})
		bench = &h.funcBenches[len(h.funcBenches)-1]
	}

	bench.duration += end.Sub(start)
	bench.runs++
}

func unixMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond/time.Nanosecond)
}
