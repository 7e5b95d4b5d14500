package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeDetector is a scriptable Detector implementation.
type fakeDetector struct {
	warmupErr   error
	detectErr   error
	detections  []Detection
	warmupCalls int
	detectCalls int
}

func (f *fakeDetector) Warmup(ctx context.Context) error {
	f.warmupCalls++
	return f.warmupErr
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	f.detectCalls++
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.detections, nil
}

func TestClassifier_HasHuman(t *testing.T) {
	img := []byte("jpeg bytes")

	tests := []struct {
		name       string
		detector   *fakeDetector
		threshold  float64
		want       bool
	}{
		{
			name: "person above threshold",
			detector: &fakeDetector{detections: []Detection{
				{Class: "dog", Score: 0.99},
				{Class: "person", Score: 0.8},
			}},
			threshold: 0.5,
			want:      true,
		},
		{
			name: "person below threshold",
			detector: &fakeDetector{detections: []Detection{
				{Class: "person", Score: 0.3},
			}},
			threshold: 0.5,
			want:      false,
		},
		{
			name:      "no detections",
			detector:  &fakeDetector{},
			threshold: 0.5,
			want:      false,
		},
		{
			name: "other classes only",
			detector: &fakeDetector{detections: []Detection{
				{Class: "tree", Score: 0.95},
				{Class: "mountain", Score: 0.9},
			}},
			threshold: 0.5,
			want:      false,
		},
		{
			name:      "detect error degrades to false",
			detector:  &fakeDetector{detectErr: errors.New("model crashed")},
			threshold: 0.5,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.detector, tt.threshold, zap.NewNop())
			assert.Equal(t, tt.want, c.HasHuman(context.Background(), img))
		})
	}
}

func TestClassifier_WarmupFailureIsSticky(t *testing.T) {
	fd := &fakeDetector{
		warmupErr:  errors.New("model file missing"),
		detections: []Detection{{Class: "person", Score: 0.99}},
	}
	c := NewClassifier(fd, 0.5, zap.NewNop())

	// Every call degrades to false and neither retries warmup nor reaches
	// the detector.
	for range 3 {
		assert.False(t, c.HasHuman(context.Background(), []byte("img")))
	}
	assert.Equal(t, 1, fd.warmupCalls)
	assert.Equal(t, 0, fd.detectCalls)
}

func TestClassifier_WarmupRunsOnce(t *testing.T) {
	fd := &fakeDetector{detections: []Detection{{Class: "person", Score: 0.9}}}
	c := NewClassifier(fd, 0.5, zap.NewNop())

	assert.True(t, c.HasHuman(context.Background(), []byte("img")))
	assert.True(t, c.HasHuman(context.Background(), []byte("img")))
	assert.Equal(t, 1, fd.warmupCalls)
	assert.Equal(t, 2, fd.detectCalls)
}
