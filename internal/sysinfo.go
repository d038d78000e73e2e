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

package internal

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/pbnjay/memory"
)

// Host information shown by the version command and at startup
type SystemInfo struct {
	CPU           string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	MemoryMB      uint64
	MaxThreads    int
}

func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPU:           cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.AVX2(),
		MemoryMB:      memory.TotalMemory() / 1024 / 1024,
		MaxThreads:    raster.MaxThreads(),
	}
}

func (s SystemInfo) String() string {
	cpu := s.CPU
	if cpu == "" {
		cpu = runtime.GOARCH
	}
	return fmt.Sprintf("%s, %d cores/%d threads, AVX2 %v, %d MiB memory, %d worker threads",
		cpu, s.PhysicalCores, s.LogicalCores, s.AVX2, s.MemoryMB, s.MaxThreads)
}
