// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

// Height bands in meters, used for coloring.
const (
	ValleyLevel = -4
	MeadowLevel = 6
	RockLevel   = 18
	SnowLevel   = 30
)
