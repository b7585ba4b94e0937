package journal

import (
	"context"
	"sort"
	"time"
)

// TrackSummary aggregates the journal for one track.
type TrackSummary struct {
	Track         string        `json:"track"`
	Started       int           `json:"started"`
	Completed     int           `json:"completed"`
	Abandoned     int           `json:"abandoned"`
	Stalls        int           `json:"stalls"`
	Detours       int           `json:"detours"`
	MeanDuration  time.Duration `json:"meanDuration"`
	LastCompleted time.Time     `json:"lastCompleted"`
}

// CompletionRate is Completed/Started, or 0 for a track never started.
func (s TrackSummary) CompletionRate() float64 {
	if s.Started == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Started)
}

// Summary aggregates every event per track, sorted by track name.
// Durations run from a run's start event to its completion event.
func (j *Journal) Summary(ctx context.Context) ([]TrackSummary, error) {
	events, err := j.Events(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return Summarize(events), nil
}

// Summarize aggregates events in journal order.
func Summarize(events []Event) []TrackSummary {
	byTrack := make(map[string]*TrackSummary)
	get := func(name string) *TrackSummary {
		s, ok := byTrack[name]
		if !ok {
			s = &TrackSummary{Track: name}
			byTrack[name] = s
		}
		return s
	}

	type run struct {
		track string
		at    time.Time
	}
	starts := make(map[uint64]run)
	totals := make(map[string]time.Duration)
	timed := make(map[string]int)

	for _, e := range events {
		if e.Track == "" {
			continue
		}
		s := get(e.Track)
		switch e.Kind {
		case KindStarted:
			s.Started++
			starts[e.Instance] = run{track: e.Track, at: e.At}
		case KindCompleted:
			s.Completed++
			if e.At.After(s.LastCompleted) {
				s.LastCompleted = e.At
			}
			if r, ok := starts[e.Instance]; ok && r.track == e.Track {
				totals[e.Track] += e.At.Sub(r.at)
				timed[e.Track]++
				delete(starts, e.Instance)
			}
		case KindReset:
			if e.Data["completed"] != "true" {
				s.Abandoned++
			}
			delete(starts, e.Instance)
		case KindStall:
			s.Stalls++
		case KindDetour:
			s.Detours++
		}
	}

	out := make([]TrackSummary, 0, len(byTrack))
	for name, s := range byTrack {
		if n := timed[name]; n > 0 {
			s.MeanDuration = totals[name] / time.Duration(n)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Track < out[b].Track })
	return out
}
