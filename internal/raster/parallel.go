// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"runtime"
	"sync/atomic"
)

// Upper limit for concurrently processed row bands, 0 for NumCPU()
var maxThreads atomic.Int32

// Limits the number of row bands processed concurrently. Values <=0 select NumCPU().
// Returns the effective limit
func SetMaxThreads(n int) int {
	if n < 0 {
		n = 0
	}
	maxThreads.Store(int32(n))
	return MaxThreads()
}

// Returns the effective limit for concurrently processed row bands
func MaxThreads() int {
	if n := int(maxThreads.Load()); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// A row function processes rows [yStart, yEnd). Must only write to its own rows.
type RowFunction func(yStart, yEnd int)

// Applies the given row function to all rows in [0, height). Splits into 8*MaxThreads() bands,
// limiting parallelism to MaxThreads(). Returns after all bands have completed.
func ParallelRows(height int, rf RowFunction) {
	if height <= 0 {
		return
	}
	threads := MaxThreads()
	if threads == 1 || height == 1 {
		rf(0, height)
		return
	}

	numBands := 8 * threads
	bandSize := (height + numBands - 1) / numBands
	sem := make(chan bool, threads)
	for lower := 0; lower < height; lower += bandSize {
		upper := lower + bandSize
		if upper > height {
			upper = height
		}

		sem <- true
		go func(lower, upper int) {
			rf(lower, upper)
			<-sem
		}(lower, upper)
	}

	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}
}
