package analysis

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/mediscan-ai/mediscan/internal/advisory"
	"github.com/mediscan-ai/mediscan/internal/classifier"
)

// chestIntensityThreshold splits brain from chest scans on mean pixel
// intensity (0-255). Brighter studies tend to be chest X-rays. This is a crude
// heuristic kept for API compatibility, not validated medical logic; a mean of
// exactly 100 resolves to brain.
const chestIntensityThreshold = 100.0

// defaultMaxImageBytes bounds the decoded payload size.
const defaultMaxImageBytes = 50 << 20

// Sink receives assembled records for deferred persistence. Enqueue must not
// block the caller.
type Sink interface {
	Enqueue(*Record)
}

// Request is one analysis input.
type Request struct {
	ImageData    string `json:"image_data"`
	ImageName    string `json:"image_name"`
	AnalysisType string `json:"analysis_type"`
}

// Pipeline orchestrates one analysis end to end.
type Pipeline struct {
	models        *classifier.Manager
	sink          Sink
	log           *logrus.Logger
	size          int
	maxImageBytes int
}

// New creates a Pipeline. size is the model input resolution; sink may be nil
// when history persistence is disabled.
func New(models *classifier.Manager, sink Sink, log *logrus.Logger, size int) *Pipeline {
	if size <= 0 {
		size = 224
	}
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{
		models:        models,
		sink:          sink,
		log:           log,
		size:          size,
		maxImageBytes: defaultMaxImageBytes,
	}
}

// Analyze runs one analysis. It always returns a record: every failure in the
// decode/normalize/classify/enrich steps is converted into a failed record
// rather than an error. Successful records are handed to the sink for
// asynchronous history persistence; the caller never waits on the append.
func (p *Pipeline) Analyze(req Request) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		FileName:  req.ImageName,
		Timestamp: time.Now().UTC(),
	}

	img, err := p.decodeImage(req.ImageData)
	if err != nil {
		return p.fail(rec, fmt.Errorf("decode image: %w", err))
	}

	pixels := normalize(img, p.size)

	domain, err := resolveDomain(pixels, req.AnalysisType)
	if err != nil {
		return p.fail(rec, err)
	}

	out := p.models.Predict(pixels, domain)
	if out.Err != nil {
		return p.fail(rec, out.Err)
	}

	entry := advisory.Lookup(out.Label)

	rec.Domain = string(domain)
	rec.Prediction = out.Label
	rec.Confidence = out.Confidence
	rec.Distribution = out.Distribution
	rec.Advisory = &entry
	rec.Success = true

	if p.sink != nil {
		p.sink.Enqueue(rec)
	}
	return rec
}

// AnalyzeBatch processes requests sequentially in caller order. A failing item
// yields a failed record for that item only; siblings are unaffected.
func (p *Pipeline) AnalyzeBatch(reqs []Request) []*Record {
	results := make([]*Record, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, p.Analyze(req))
	}
	return results
}

func (p *Pipeline) fail(rec *Record, err error) *Record {
	p.log.WithError(err).WithField("file_name", rec.FileName).Warn("analysis failed")
	rec.Domain = ""
	rec.Prediction = ""
	rec.Confidence = 0
	rec.Distribution = nil
	rec.Advisory = nil
	rec.Success = false
	rec.Error = err.Error()
	return rec
}

// decodeImage decodes a base64 payload, stripping a data-URI scheme marker
// when present, and reports the decoded image.
func (p *Pipeline) decodeImage(payload string) (image.Image, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("image payload is empty")
	}
	if idx := strings.IndexByte(payload, ','); idx >= 0 {
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(raw) > p.maxImageBytes {
		return nil, fmt.Errorf("image payload exceeds %d bytes", p.maxImageBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unsupported image format: %w", err)
	}
	return img, nil
}

// normalize resizes the image to size x size with Catmull-Rom resampling and
// flattens it to an HWC float32 array of RGB values in [0,255].
func normalize(src image.Image, size int) []float32 {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	pixels := make([]float32, size*size*3)
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dst.NRGBAAt(x, y)
			pixels[i] = float32(c.R)
			pixels[i+1] = float32(c.G)
			pixels[i+2] = float32(c.B)
			i += 3
		}
	}
	return pixels
}

// resolveDomain picks the classifier domain. Explicit brain/chest pass
// through; "auto" (or empty) applies the mean-intensity heuristic.
func resolveDomain(pixels []float32, requested string) (classifier.Domain, error) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	switch requested {
	case "", "auto":
		if meanIntensity(pixels) > chestIntensityThreshold {
			return classifier.DomainChest, nil
		}
		return classifier.DomainBrain, nil
	}
	return classifier.ParseDomain(requested)
}

func meanIntensity(pixels []float32) float64 {
	if len(pixels) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pixels {
		sum += float64(p)
	}
	return sum / float64(len(pixels))
}
