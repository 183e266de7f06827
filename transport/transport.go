// Package transport frames enhancement requests as JSON documents carrying
// base64 image payloads.
package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/codec"
	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
)

// FailureMessage is the Message of every unsuccessful Response.
const FailureMessage = "enhancement failed"

// Request is one enhancement request.
type Request struct {
	// ImageData is the base64 encoded image, optionally with a
	// "data:<mime>;base64," prefix.
	ImageData string `json:"imageData"`
	// Options overrides the default config; absent keys keep defaults.
	Options RequestOptions `json:"options"`
	// Format of the returned image. Empty selects png.
	Format string `json:"format,omitempty"`
}

// RequestOptions mirrors enhance.Config with optional fields. Quality is a
// percentage in [0,100].
type RequestOptions struct {
	Brightness     *float64 `json:"brightness,omitempty"`
	Contrast       *float64 `json:"contrast,omitempty"`
	Saturation     *float64 `json:"saturation,omitempty"`
	Sharpness      *float64 `json:"sharpness,omitempty"`
	Scale          *float64 `json:"scale,omitempty"`
	Quality        *float64 `json:"quality,omitempty"`
	Denoise        *bool    `json:"denoise,omitempty"`
	PreserveColors *bool    `json:"preserveColors,omitempty"`
	AnimeMode      *bool    `json:"animeMode,omitempty"`
	Boundary       *string  `json:"boundary,omitempty"`
	Debug          *bool    `json:"debug,omitempty"`
}

// Response is the outcome of one request.
type Response struct {
	Success           bool    `json:"success"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	Message           string  `json:"message,omitempty"`
	Algorithm         string  `json:"algorithm,omitempty"`
	QualityApplied    float64 `json:"quality_applied,omitempty"`
	ColorPreservation bool    `json:"color_preservation,omitempty"`
	ImageData         string  `json:"imageData,omitempty"`
	Format            string  `json:"format,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// Apply overlays the options on base.
func (o RequestOptions) Apply(base enhance.Config) (enhance.Config, error) {
	cfg := base
	if o.Brightness != nil {
		cfg.Brightness = *o.Brightness
	}
	if o.Contrast != nil {
		cfg.Contrast = *o.Contrast
	}
	if o.Saturation != nil {
		cfg.Saturation = *o.Saturation
	}
	if o.Sharpness != nil {
		cfg.Sharpness = *o.Sharpness
	}
	if o.Scale != nil {
		cfg.Scale = *o.Scale
	}
	if o.Quality != nil {
		cfg.Quality = *o.Quality / 100.0
	}
	if o.Denoise != nil {
		cfg.Denoise = *o.Denoise
	}
	if o.PreserveColors != nil {
		cfg.PreserveColors = *o.PreserveColors
	}
	if o.AnimeMode != nil {
		cfg.AnimeMode = *o.AnimeMode
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.Boundary != nil {
		mode, err := images.ParseEdgeMode(*o.Boundary)
		if err != nil {
			return enhance.Config{}, err
		}
		cfg.Boundary = mode
	}
	return cfg, cfg.Validate()
}

// Handle decodes, enhances and re-encodes the request image. It never
// returns an error; failures are reported in the Response.
//
// Arguments:
// - ctx: Cancellation for the pipeline run.
// - p: The pipeline to run.
// - base: The config the request options are applied over.
// - req: The request.
//
// Returns:
// - A Response with Success set, or an error description.
func Handle(ctx context.Context, p *enhance.Pipeline, base enhance.Config, req Request) Response {
	resp, err := handle(ctx, p, base, req)
	if err != nil {
		return Failure(err)
	}
	return resp
}

func handle(ctx context.Context, p *enhance.Pipeline, base enhance.Config, req Request) (Response, error) {
	cfg, err := req.Options.Apply(base)
	if err != nil {
		return Response{}, err
	}

	format := codec.PNG
	if req.Format != "" {
		if format, err = codec.ParseFormat(req.Format); err != nil {
			return Response{}, err
		}
	}

	data, err := base64.StdEncoding.DecodeString(stripDataURL(req.ImageData))
	if err != nil {
		return Response{}, errors.Wrap(err, "invalid base64 image data")
	}
	buf, _, err := codec.Decode(data)
	if err != nil {
		return Response{}, err
	}

	res, err := p.Run(ctx, buf, cfg)
	if err != nil {
		return Response{}, err
	}

	out, err := codec.Encode(res.Buffer, format, codec.EncodeOptions{})
	if err != nil {
		return Response{}, err
	}

	return Response{
		Success:           true,
		Width:             res.Width,
		Height:            res.Height,
		Message:           res.Message,
		Algorithm:         res.Algorithm,
		QualityApplied:    res.QualityApplied,
		ColorPreservation: res.ColorPreservation,
		ImageData:         base64.StdEncoding.EncodeToString(out),
		Format:            string(format),
	}, nil
}

// Failure builds the Response for err.
func Failure(err error) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: FailureMessage,
	}
}

// DecodeRequest reads one JSON Request.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, errors.Wrap(err, "failed to decode request")
	}
	return req, nil
}

// WriteResponse writes resp as a single JSON line.
func WriteResponse(w io.Writer, resp Response) error {
	return errors.Wrap(json.NewEncoder(w).Encode(resp), "failed to write response")
}

func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
