package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/roots-api/internal/observability"
	"github.com/noah-isme/roots-api/pkg/office"
)

const maxParallelConversions = 4

// Input is one uploaded file handed to the normalizer.
type Input struct {
	Name string
	Data []byte
}

// Warning flags an input converted with reduced confidence.
type Warning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Result describes a stored normalized document.
type Result struct {
	Path     string
	Warnings []Warning
}

// Normalizer merges heterogeneous uploads into a single PDF.
type Normalizer struct {
	office          OfficeConverter
	riskyExtensions []string
	logger          zerolog.Logger
	tracer          trace.Tracer
}

// NewNormalizer constructs a Normalizer. converter may be nil, in which case office formats are rejected.
func NewNormalizer(converter OfficeConverter, riskyExtensions []string, logger zerolog.Logger) *Normalizer {
	risky := make([]string, 0, len(riskyExtensions))
	for _, ext := range riskyExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		risky = append(risky, ext)
	}

	return &Normalizer{
		office:          converter,
		riskyExtensions: risky,
		logger:          logger.With().Str("component", "document_normalizer").Logger(),
		tracer:          otel.Tracer("github.com/noah-isme/roots-api/internal/document"),
	}
}

// Normalize converts inputs to PDF, concatenates them in input order and stores the result
// at root/rel. Nothing is written unless every input converts.
func (n *Normalizer) Normalize(ctx context.Context, root, rel string, inputs []Input) (Result, error) {
	ctx, span := n.tracer.Start(ctx, "document.normalize", trace.WithAttributes(
		attribute.String("document.path", rel),
		attribute.Int("document.inputs", len(inputs)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.NormalizationLatency().Observe(time.Since(start).Seconds())
	}()

	if len(inputs) == 0 {
		span.SetStatus(codes.Error, "no input")
		return Result{}, &ConversionError{File: "", Err: ErrNoInput}
	}

	target, err := resolve(root, rel)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	parts := make([][]byte, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelConversions)
	for i, in := range inputs {
		group.Go(func() error {
			converted, err := n.toPDF(groupCtx, in)
			if errors.Is(err, office.ErrConverterUnavailable) {
				return err
			}
			if err != nil {
				return &ConversionError{File: in.Name, Err: err}
			}
			parts[i] = converted
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")
		n.logger.Warn().Err(err).Str("path", rel).Msg("normalization rejected input")
		return Result{}, err
	}

	if err := writeFileAtomic(target, func(w io.Writer) error {
		if err := mergePDFs(w, parts); err != nil {
			return &ConversionError{File: inputNames(inputs), Err: err}
		}
		return nil
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return Result{}, err
	}

	warnings := n.Warnings(inputs)
	span.SetAttributes(attribute.Int("document.warnings", len(warnings)))
	span.SetStatus(codes.Ok, "stored")
	n.logger.Debug().Str("path", rel).Int("inputs", len(inputs)).Msg("document normalized")

	return Result{Path: rel, Warnings: warnings}, nil
}

// Warnings lists one advisory per input whose extension is in the risky set.
func (n *Normalizer) Warnings(inputs []Input) []Warning {
	var warnings []Warning
	for _, in := range inputs {
		ext := strings.ToLower(filepath.Ext(in.Name))
		if !n.isRisky(ext) {
			continue
		}
		warnings = append(warnings, Warning{
			File: in.Name,
			Message: fmt.Sprintf("Converting %s files to .pdf sometimes does not work properly, please check the result of %q!",
				strings.Join(n.riskyExtensions, " "), in.Name),
		})
	}
	return warnings
}

func (n *Normalizer) isRisky(ext string) bool {
	for _, risky := range n.riskyExtensions {
		if ext == risky {
			return true
		}
	}
	return false
}

func inputNames(inputs []Input) string {
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		names = append(names, in.Name)
	}
	return strings.Join(names, ", ")
}
