// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/stream"
)

// debugRecord is one csv line of DebugLog.
type debugRecord struct {
	Millis   int64
	Realm    string
	Z        float32
	Streamer stream.Stats
	Assets   asset.Stats
	Update   int64 // average microseconds per Update
}

var debugHeader = []string{
	"millis", "realm", "z",
	"active", "created", "destroyed", "failures", "instances",
	"assets", "loading", "fallbacks", "evictions",
	"update_us",
}

func (r *debugRecord) fields() []string {
	itoa := strconv.Itoa
	return []string{
		strconv.FormatInt(r.Millis, 10),
		r.Realm,
		strconv.FormatFloat(float64(r.Z), 'f', 2, 32),
		itoa(r.Streamer.Active),
		itoa(r.Streamer.Created),
		itoa(r.Streamer.Destroyed),
		itoa(r.Streamer.Failures),
		itoa(r.Streamer.Instances),
		itoa(r.Assets.Entries),
		itoa(r.Assets.InFlight),
		itoa(r.Assets.Fallbacks),
		itoa(r.Assets.Evictions),
		strconv.FormatInt(r.Update, 10),
	}
}

// appendRecord appends record to filename, starting a new file with a header.
func appendRecord(filename string, record *debugRecord) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err = w.Write(debugHeader); err != nil {
			return err
		}
	}
	if err = w.Write(record.fields()); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
