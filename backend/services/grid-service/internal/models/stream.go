package models

import "strings"

// Stream names an independent record stream.
type Stream string

const (
	StreamTelemetry Stream = "telemetry"
	StreamNews      Stream = "news"
	StreamReports   Stream = "reports"
)

// AllStreams lists every stream in a stable order.
var AllStreams = []Stream{StreamTelemetry, StreamNews, StreamReports}

// ParseStreams reads a comma separated list, ignoring unknown and repeated names.
// An empty list means every stream.
func ParseStreams(raw string) []Stream {
	seen := make(map[Stream]bool)
	var out []Stream
	for _, part := range strings.Split(raw, ",") {
		s := Stream(strings.ToLower(strings.TrimSpace(part)))
		switch s {
		case StreamTelemetry, StreamNews, StreamReports:
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return append([]Stream(nil), AllStreams...)
	}
	return out
}
