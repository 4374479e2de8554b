package profiling

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-tick CPU time accounting. Sections are keyed by "package.Operation".

type section struct {
	total time.Duration
	calls int
}

var (
	mu       sync.Mutex
	sections = make(map[string]*section)
)

// Track returns a stop function that adds the elapsed time to the named section.
// Usage: defer profiling.Track("meshing.Build")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := sections[name]
		if s == nil {
			s = &section{}
			sections[name] = s
		}
		s.total += d
		s.calls++
		mu.Unlock()
	}
}

// ResetFrame clears the accumulated sections. Call at the start of each tick.
func ResetFrame() {
	mu.Lock()
	clear(sections)
	mu.Unlock()
}

// Sample is one section's accumulated time for the current tick.
type Sample struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns the current sections sorted by descending total time.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(sections))
	for name, s := range sections {
		out = append(out, Sample{Name: name, Total: s.total, Calls: s.calls})
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive sections,
// e.g. "noise.Generate:4.2ms(3), meshing.Build:2.1ms(1)".
func TopN(n int) string {
	samples := Snapshot()
	if n > len(samples) {
		n = len(samples)
	}
	parts := make([]string, 0, n)
	for _, s := range samples[:n] {
		parts = append(parts, s.Name+":"+s.Total.Round(100*time.Microsecond).String()+"("+itoa(s.Calls)+")")
	}
	return strings.Join(parts, ", ")
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
