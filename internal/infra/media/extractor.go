package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// REQUIRED BINARIES in the server runtime: ffmpeg and ffprobe.
// Extraction is synchronous and called once per file from the ingest loop,
// never from more than one file at a time.

const (
	// Thumbnails are stored inline on the asset record, so their size must
	// be bounded regardless of source resolution.
	thumbMaxWidth    = 360
	thumbJPEGQuality = 70

	// Seek past the first frames, which are often black.
	frameOffsetSec = 0.5
)

var (
	// ErrLoadTimeout is returned when any extraction stage exceeds the
	// configured deadline.
	ErrLoadTimeout = errors.New("media load timeout")

	// ErrDecode is returned when the input cannot be probed or decoded as
	// video.
	ErrDecode = errors.New("media decode failed")
)

// Metadata is the per-clip extraction result.
type Metadata struct {
	DurationSec float64
	Duration    string // "M:SS", seconds zero-padded
	Width       int
	Height      int
	Thumbnail   []byte // JPEG, width capped at thumbMaxWidth
}

type Extractor interface {
	Extract(ctx context.Context, path string) (*Metadata, error)
}

type ffmpegExtractor struct {
	log *zap.Logger

	ffmpegPath  string
	ffprobePath string
	workRoot    string
	timeout     time.Duration
}

func New(cfg *config.Config, log *zap.Logger) Extractor {
	timeout := time.Duration(cfg.Extractor.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ffmpegExtractor{
		log:         log,
		ffmpegPath:  cfg.Extractor.FfmpegPath,
		ffprobePath: cfg.Extractor.FfprobePath,
		workRoot:    cfg.Extractor.WorkDir,
		timeout:     timeout,
	}
}

// probeResult mirrors the ffprobe -print_format json layout for the fields
// we read.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (e *ffmpegExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	durationSec, width, height, err := e.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	framePNG, err := e.extractFrame(ctx, path, durationSec)
	if err != nil {
		return nil, err
	}

	thumb, err := encodeThumbnail(framePNG)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &Metadata{
		DurationSec: durationSec,
		Duration:    FormatDuration(durationSec),
		Width:       width,
		Height:      height,
		Thumbnail:   thumb,
	}, nil
}

func (e *ffmpegExtractor) probe(ctx context.Context, path string) (dur float64, w, h int, err error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, e.classify(ctx, fmt.Errorf("ffprobe: %v", err))
	}

	var pr probeResult
	if err := sonic.Unmarshal(out, &pr); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: parse ffprobe output: %v", ErrDecode, err)
	}

	for _, s := range pr.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			w, h = s.Width, s.Height
			break
		}
	}
	if w == 0 || h == 0 {
		return 0, 0, 0, fmt.Errorf("%w: no video stream in %s", ErrDecode, filepath.Base(path))
	}

	dur, err = strconv.ParseFloat(strings.TrimSpace(pr.Format.Duration), 64)
	if err != nil || dur < 0 {
		return 0, 0, 0, fmt.Errorf("%w: unreadable duration", ErrDecode)
	}

	return dur, w, h, nil
}

// extractFrame renders a single frame at the fixed offset into a temp PNG
// and returns its bytes. The temp file is removed on every path.
func (e *ffmpegExtractor) extractFrame(ctx context.Context, path string, durationSec float64) ([]byte, error) {
	if err := os.MkdirAll(e.workRoot, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir workRoot: %w", err)
	}

	offset := frameOffsetSec
	if durationSec < offset {
		offset = 0
	}

	framePath := filepath.Join(e.workRoot, uuid.New().String()+".png")
	defer os.Remove(framePath)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		framePath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, e.classify(ctx, fmt.Errorf("ffmpeg frame: %v; out=%s", err, string(out)))
	}

	data, err := os.ReadFile(framePath)
	if err != nil {
		return nil, fmt.Errorf("%w: frame output missing", ErrDecode)
	}
	return data, nil
}

// classify maps a failed stage to the taxonomy: deadline hits become
// ErrLoadTimeout, everything else ErrDecode.
func (e *ffmpegExtractor) classify(ctx context.Context, cause error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrLoadTimeout, cause)
	}
	return fmt.Errorf("%w: %v", ErrDecode, cause)
}

// encodeThumbnail decodes a full-resolution frame, downscales it so the
// width never exceeds thumbMaxWidth (aspect preserved), and re-encodes it
// as JPEG at a fixed lossy quality.
func encodeThumbnail(framePNG []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(framePNG))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	w, h := ThumbnailSize(src.Bounds().Dx(), src.Bounds().Dy())
	out := src
	if w != src.Bounds().Dx() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: thumbJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ThumbnailSize caps width at thumbMaxWidth while preserving aspect ratio.
func ThumbnailSize(w, h int) (int, int) {
	if w <= thumbMaxWidth || w <= 0 || h <= 0 {
		return w, h
	}
	scaled := int(math.Round(float64(h) * float64(thumbMaxWidth) / float64(w)))
	if scaled < 1 {
		scaled = 1
	}
	return thumbMaxWidth, scaled
}

// FormatDuration renders whole seconds as "M:SS". Minutes are unbounded,
// seconds are zero-padded to two digits.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
