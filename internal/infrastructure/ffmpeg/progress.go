package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// parseProgress reads `-progress` key=value blocks from r and reports the
// encoded position as a ratio of total. Other lines are kept in t.
func parseProgress(r io.Reader, total time.Duration, report func(float64), t *tail) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var outTime time.Duration
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.ContainsAny(key, " \t") {
			t.add(line)
			continue
		}

		switch key {
		case "out_time_us", "out_time_ms":
			// both are microseconds
			if v, err := strconv.ParseInt(val, 10, 64); err == nil && v >= 0 {
				outTime = time.Duration(v) * time.Microsecond
			}
		case "progress":
			if report == nil {
				continue
			}
			if val == "end" {
				report(1)
				continue
			}
			if total > 0 {
				report(min(float64(outTime)/float64(total), 1))
			}
		}
	}
	// keep the pipe drained so ffmpeg never blocks on a full stderr
	_, _ = io.Copy(io.Discard, r)
}
