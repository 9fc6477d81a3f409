package models

import "time"

// CandidateSlot is a generated, not-yet-booked interval proposed as a
// possible lesson time. Produced and consumed within one suggestion run.
type CandidateSlot struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  int // minutes
}

// Suggestion wraps a candidate slot with a heuristic confidence score in
// [0, 1] and a human-readable reason describing which heuristics fired.
type Suggestion struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   int       `json:"duration"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// FrequencyTable counts historical lesson starts per weekday and per
// hour-of-day. Built once per suggestion run and discarded after scoring.
type FrequencyTable struct {
	Weekday map[time.Weekday]int
	Hour    map[int]int
}

// NewFrequencyTable tallies the start times of the provided lessons.
func NewFrequencyTable(history []Lesson) FrequencyTable {
	table := FrequencyTable{
		Weekday: make(map[time.Weekday]int),
		Hour:    make(map[int]int),
	}
	for _, lesson := range history {
		table.Weekday[lesson.StartTime.Weekday()]++
		table.Hour[lesson.StartTime.Hour()]++
	}
	return table
}
