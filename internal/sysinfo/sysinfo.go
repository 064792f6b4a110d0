package sysinfo

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is a point-in-time snapshot of host resource usage.
type Stats struct {
	CPUPercent  float64
	RAMPercent  float64
	DiskPercent float64
}

// Collect samples CPU, RAM, and root-disk usage. Each probe degrades to
// zero on failure rather than failing the whole snapshot.
func Collect() Stats {
	var s Stats
	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.RAMPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		s.DiskPercent = du.UsedPercent
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("💾 RAM Usage: %.1f%%\n⚙️ CPU Usage: %.1f%%\n🖴 Disk Usage: %.1f%%",
		s.RAMPercent, s.CPUPercent, s.DiskPercent)
}
