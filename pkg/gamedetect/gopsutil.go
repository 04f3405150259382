package gamedetect

import (
	"github.com/shirou/gopsutil/v4/process"
)

// gopsutilLister enumerates the real process table.
type gopsutilLister struct{}

func (gopsutilLister) list() ([]processInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	out := make([]processInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// Process exited between enumeration and inspection.
			continue
		}
		exe, _ := p.Exe()
		out = append(out, processInfo{pid: p.Pid, name: name, exe: exe})
	}
	return out, nil
}
