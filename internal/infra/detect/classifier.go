package detect

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const personClass = "person"

// Classifier answers the single question the library cares about: does this
// frame contain a person. Model load happens lazily on first use; a failed
// load is not fatal and every later call degrades to false. Detector errors
// are swallowed the same way; classification is best-effort.
type Classifier struct {
	d         Detector
	threshold float64
	log       *zap.Logger

	warmOnce sync.Once
	warmErr  error
}

func NewClassifier(d Detector, threshold float64, log *zap.Logger) *Classifier {
	return &Classifier{
		d:         d,
		threshold: threshold,
		log:       log,
	}
}

// HasHuman reports whether any detection is a person at or above the
// confidence threshold. Never returns an error; unavailability means false.
func (c *Classifier) HasHuman(ctx context.Context, image []byte) bool {
	c.warmOnce.Do(func() {
		c.warmErr = c.d.Warmup(ctx)
		if c.warmErr != nil {
			c.log.Sugar().Warnw("detector warmup failed, classifying everything as scenery", "err", c.warmErr)
		}
	})
	if c.warmErr != nil {
		return false
	}

	detections, err := c.d.Detect(ctx, image)
	if err != nil {
		c.log.Sugar().Warnw("detection failed, defaulting to scenery", "err", err)
		return false
	}

	for _, d := range detections {
		if d.Class == personClass && d.Score >= c.threshold {
			return true
		}
	}
	return false
}
