// Package gpx derives trace names from GPX track files.
//
// A trace name is the minute-precision start timestamp of the track,
// formatted as "YYYYMMDD - hh:mm". It doubles as the duplicate-detection
// key: the uploader writes it at the front of every remote trace
// description and looks for it there on subsequent runs.
package gpx

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/gpxup/internal/shared"
)

// NameLayout is the [time.Time.Format] layout for trace names.
const NameLayout = "20060102 - 15:04"

// timeOnly captures just the <time> element of a GPX node.
type timeOnly struct {
	Time string `xml:"time"`
}

// document captures the subset of a GPX file needed to find its start time:
// metadata, waypoint and track point timestamps.
type document struct {
	Metadata timeOnly   `xml:"metadata"`
	Points   []timeOnly `xml:"wpt"`
	Tracks   []struct {
		Segments []struct {
			Points []timeOnly `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// ParseStartTime extracts the earliest embedded timestamp from GPX data.
//
// Timestamps are collected from track points, waypoints and the metadata
// block. Returns false if the data is not parseable XML or carries no
// timestamps at all.
func ParseStartTime(data []byte) (time.Time, bool) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return time.Time{}, false
	}

	candidates := make([]string, 0, 16)
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				if pt.Time != "" {
					candidates = append(candidates, pt.Time)
				}
			}
		}
	}
	for _, wpt := range doc.Points {
		if wpt.Time != "" {
			candidates = append(candidates, wpt.Time)
		}
	}
	if doc.Metadata.Time != "" {
		candidates = append(candidates, doc.Metadata.Time)
	}

	var earliest time.Time
	found := false
	for _, raw := range candidates {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		if !found || ts.Before(earliest) {
			earliest = ts
			found = true
		}
	}

	return earliest, found
}

// StartTime resolves the start time for the file at path: the earliest
// embedded timestamp, or the file's modification time when the track
// carries none. A file with neither is unreconcilable.
func StartTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if ts, ok := ParseStartTime(data); ok {
			return ts, nil
		}
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrNoTimestamp, path)
	}

	return info.ModTime(), nil
}

// TraceName formats a start time as a trace name.
//
// The time is formatted as recorded: an embedded timestamp with an offset
// keeps its own wall clock, matching the descriptions written by earlier
// uploads.
func TraceName(t time.Time) string {
	return t.Format(NameLayout)
}

// Name derives the trace name for the file at path.
func Name(path string) (string, error) {
	ts, err := StartTime(path)
	if err != nil {
		return "", err
	}
	return TraceName(ts), nil
}
