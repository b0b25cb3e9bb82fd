package tier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const uploadProbeBytes = 256 * 1024

// Measurement is the result of one throughput probe. Unknown is set when the
// probe failed or timed out; callers must not treat zero values as a real
// reading in that case.
type Measurement struct {
	UploadMbps   float64 `json:"upload_mbps"`
	DownloadMbps float64 `json:"download_mbps"`
	Unknown      bool    `json:"unknown,omitempty"`
}

// Prober runs a best-effort throughput test against a configured endpoint.
/// It is hard-bounded by its timeout and never blocks session start: a slow
// or unreachable probe target yields an Unknown measurement.
type Prober struct {
	client   *http.Client
	probeURL string
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewProber(probeURL string, timeout time.Duration, logger zerolog.Logger) *Prober {
	return &Prober{
		client:   &http.Client{Timeout: timeout},
		probeURL: probeURL,
		timeout:  timeout,
		logger:   logger.With().Str("component", "bandwidth_prober").Logger(),
	}
}

// Measure downloads the probe resource and uploads a fixed payload, timing
// both. Any failure returns Measurement{Unknown: true}.
func (p *Prober) Measure(ctx context.Context) Measurement {
	if p.probeURL == "" {
		return Measurement{Unknown: true}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	down, err := p.measureDownload(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("download probe failed")
		return Measurement{Unknown: true}
	}
	up, err := p.measureUpload(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("upload probe failed")
		return Measurement{Unknown: true}
	}
	return Measurement{UploadMbps: up, DownloadMbps: down}
}

func (p *Prober) measureDownload(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, err
	}
	return mbps(n, time.Since(start)), nil
}

func (p *Prober) measureUpload(ctx context.Context) (float64, error) {
	payload := bytes.Repeat([]byte("0"), uploadProbeBytes)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.probeURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return mbps(uploadProbeBytes, time.Since(start)), nil
}

func mbps(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	return float64(n) * 8 / 1e6 / elapsed.Seconds()
}

// Recommend maps a measurement onto a tier. Zoom needs the full configured
// download budget and half of it for upload; anything less recommends
// webrtc. Confidence scales linearly with the margin above or below the
// threshold, clamped to [0,1].
func Recommend(upMbps, downMbps, minForZoom float64) Recommendation {
	if minForZoom <= 0 {
		return Recommendation{Tier: TierZoom, Confidence: 1}
	}
	minUp := minForZoom / 2

	if upMbps >= minUp && downMbps >= minForZoom {
		upMargin := (upMbps - minUp) / minUp
		downMargin := (downMbps - minForZoom) / minForZoom
		return Recommendation{Tier: TierZoom, Confidence: clamp01(minFloat(upMargin, downMargin))}
	}

	// Confidence in the webrtc recommendation grows with how far short the
	// link falls of the zoom requirement.
	upShortfall := shortfall(upMbps, minUp)
	downShortfall := shortfall(downMbps, minForZoom)
	return Recommendation{Tier: TierWebRTC, Confidence: clamp01(maxFloat(upShortfall, downShortfall))}
}

func shortfall(measured, required float64) float64 {
	if measured >= required {
		return 0
	}
	return (required - measured) / required
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
