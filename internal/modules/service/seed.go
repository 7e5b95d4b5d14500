package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipvault-io/clipvault/internal/infra/media"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
)

type sampleClip struct {
	title     string
	width     int
	height    int
	duration  float64
	hasHuman  bool
	inProject bool
	tint      color.RGBA
}

var sampleClips = []sampleClip{
	{title: "Beach Sunset", width: 1920, height: 1080, duration: 34, hasHuman: false, tint: color.RGBA{R: 240, G: 140, B: 60, A: 255}},
	{title: "City Walk", width: 1080, height: 1920, duration: 58, hasHuman: true, tint: color.RGBA{R: 90, G: 90, B: 110, A: 255}},
	{title: "Mountain Timelapse", width: 3840, height: 2160, duration: 125, hasHuman: false, inProject: true, tint: color.RGBA{R: 80, G: 120, B: 160, A: 255}},
	{title: "Birthday Party", width: 1920, height: 1080, duration: 252, hasHuman: true, inProject: true, tint: color.RGBA{R: 200, G: 80, B: 120, A: 255}},
}

// SeedSampleLibrary fills an empty library with a few placeholder clips and
// one project so a fresh install is not a blank page. Runs once; a non-empty
// library is left alone.
func SeedSampleLibrary(ctx context.Context, assets repo.AssetRepo, projects repo.ProjectRepo, bucket string, log *zap.Logger) error {
	n, err := assets.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	sample := &model.Project{ID: uuid.New(), Name: "Getting Started"}
	if err := projects.Create(ctx, sample); err != nil {
		return err
	}

	for _, c := range sampleClips {
		id := uuid.New()
		a := &model.Asset{
			ID:          id,
			Title:       c.title,
			Bucket:      bucket,
			S3Key:       blobKey(id),
			MIME:        "video/mp4",
			SizeB:       0,
			Width:       c.width,
			Height:      c.height,
			Orientation: model.OrientationOf(c.width, c.height),
			Duration:    media.FormatDuration(c.duration),
			DurationSec: c.duration,
			HasHuman:    c.hasHuman,
			Thumbnail:   placeholderThumb(c.width, c.height, c.tint),
		}
		if c.inProject {
			a.ProjectID = &sample.ID
		}
		if err := assets.Create(ctx, a); err != nil {
			return err
		}
	}
	log.Sugar().Infow("seeded sample library", "clips", len(sampleClips))
	return nil
}

// placeholderThumb renders a flat-color JPEG at the clip's aspect ratio.
func placeholderThumb(w, h int, tint color.RGBA) []byte {
	tw, th := media.ThumbnailSize(w, h)
	img := image.NewRGBA(image.Rect(0, 0, tw, th))
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			img.SetRGBA(x, y, tint)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		return nil
	}
	return buf.Bytes()
}
