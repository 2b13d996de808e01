package history

import (
	"sort"
	"time"

	"github.com/avionix/bite-engine/internal/models"
)

// Journal retains the most recent fault events in memory, newest last. It is
// owned by the sampling loop; access is serialized by the loop's command
// channel, so the journal performs no locking of its own.
type Journal struct {
	capacity int
	events   []models.FaultEvent
}

// NewJournal creates a journal retaining up to capacity events.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Journal{capacity: capacity}
}

// Append records an event, evicting the oldest once the capacity is reached.
func (j *Journal) Append(ev models.FaultEvent) {
	j.events = append(j.events, ev)
	if len(j.events) > j.capacity {
		j.events = append(j.events[:0], j.events[len(j.events)-j.capacity:]...)
	}
}

// Query returns matching events, newest first.
func (j *Journal) Query(q models.FaultQuery) []models.FaultEvent {
	out := make([]models.FaultEvent, 0)
	for i := len(j.events) - 1; i >= 0; i-- {
		ev := j.events[i]
		if q.SensorID != "" && ev.SensorID != q.SensorID {
			continue
		}
		if !q.Since.IsZero() && ev.Timestamp.Before(q.Since) {
			continue
		}
		out = append(out, ev)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Len returns the number of retained events.
func (j *Journal) Len() int {
	return len(j.events)
}

// Summary aggregates the retained events by code, severity, and sensor.
func (j *Journal) Summary() models.FaultSummary {
	sum := models.FaultSummary{
		Total:      len(j.events),
		ByCode:     make(map[models.FaultCode]int),
		BySeverity: make(map[models.Severity]int),
		Sensors:    make(map[string]models.SensorFaults),
	}

	perSensor := make(map[string]*sensorAggregate)
	for _, ev := range j.events {
		sum.ByCode[ev.Code]++
		sum.BySeverity[ev.Severity]++

		agg, ok := perSensor[ev.SensorID]
		if !ok {
			agg = &sensorAggregate{codeCounts: make(map[models.FaultCode]int)}
			perSensor[ev.SensorID] = agg
		}
		agg.count++
		agg.codeCounts[ev.Code]++
		if ev.Timestamp.After(agg.lastSeen) {
			agg.lastSeen = ev.Timestamp
		}
	}

	for id, agg := range perSensor {
		sum.Sensors[id] = models.SensorFaults{
			Count:        agg.count,
			DominantCode: agg.dominantCode(),
			LastSeen:     agg.lastSeen,
		}
	}
	return sum
}

type sensorAggregate struct {
	count      int
	lastSeen   time.Time
	codeCounts map[models.FaultCode]int
}

// dominantCode picks the most frequent code, lexicographic on ties so the
// result is deterministic.
func (agg *sensorAggregate) dominantCode() models.FaultCode {
	codes := make([]models.FaultCode, 0, len(agg.codeCounts))
	for code := range agg.codeCounts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ci, cj := agg.codeCounts[codes[i]], agg.codeCounts[codes[j]]
		if ci != cj {
			return ci > cj
		}
		return codes[i] < codes[j]
	})
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}
