package monitoring

import (
	"sync/atomic"
	"time"
)

// Statistics counts predictions served since process start. Nothing is persisted.
type Statistics struct {
	crops       atomic.Int64
	fertilizers atomic.Int64
	yields      atomic.Int64
	startTime   time.Time
}

// StatisticsSnapshot is a point-in-time copy of Statistics.
type StatisticsSnapshot struct {
	TotalPredictions int64     `json:"total_predictions"`
	Crops            int64     `json:"crops"`
	Fertilizers      int64     `json:"fertilizers"`
	Yields           int64     `json:"yields"`
	Since            time.Time `json:"since"`
}

// NewStatistics starts counting from now.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) RecordCrop()       { s.crops.Add(1) }
func (s *Statistics) RecordFertilizer() { s.fertilizers.Add(1) }
func (s *Statistics) RecordYield()      { s.yields.Add(1) }

func (s *Statistics) Snapshot() StatisticsSnapshot {
	snap := StatisticsSnapshot{
		Crops:       s.crops.Load(),
		Fertilizers: s.fertilizers.Load(),
		Yields:      s.yields.Load(),
		Since:       s.startTime,
	}
	snap.TotalPredictions = snap.Crops + snap.Fertilizers + snap.Yields
	return snap
}
