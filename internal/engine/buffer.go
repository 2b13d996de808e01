package engine

import "github.com/avionix/bite-engine/internal/models"

// defaultRetentionSec matches the plot window of the cockpit display.
const defaultRetentionSec = 30.0

// SampleBuffer retains the samples covering a sliding span of the simulation
// clock, oldest first. Eviction is strictly older-than: a sample exactly
// retention seconds behind the newest one stays in the window.
type SampleBuffer struct {
	retention float64
	samples   []models.Sample
}

// NewSampleBuffer creates a buffer spanning retention seconds. Non-positive
// retention falls back to the default span.
func NewSampleBuffer(retention float64) *SampleBuffer {
	if retention <= 0 {
		retention = defaultRetentionSec
	}
	return &SampleBuffer{retention: retention}
}

// Append pushes a sample and drops entries that fell out of the span.
func (b *SampleBuffer) Append(s models.Sample) {
	b.samples = append(b.samples, s)
	cut := 0
	for cut < len(b.samples) && s.Elapsed-b.samples[cut].Elapsed > b.retention {
		cut++
	}
	if cut > 0 {
		b.samples = append(b.samples[:0], b.samples[cut:]...)
	}
}

// Latest returns the newest sample, if any.
func (b *SampleBuffer) Latest() (models.Sample, bool) {
	if len(b.samples) == 0 {
		return models.Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// Samples returns a copy of the retained window, oldest first.
func (b *SampleBuffer) Samples() []models.Sample {
	out := make([]models.Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of retained samples.
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}
