package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/roots-api/internal/observability"
)

// ErrConverterUnavailable indicates the office binary could not be found.
var ErrConverterUnavailable = errors.New("office converter binary not found")

// Config groups converter settings.
type Config struct {
	Binary  string
	Timeout time.Duration
	TempDir string
	Logger  zerolog.Logger
}

// LibreOffice converts documents by running LibreOffice in headless mode.
type LibreOffice struct {
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewLibreOffice constructs a converter. The binary is resolved lazily on first use.
func NewLibreOffice(cfg Config) *LibreOffice {
	if cfg.Binary == "" {
		cfg.Binary = "soffice"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	return &LibreOffice{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/roots-api/pkg/office"),
		logger: cfg.Logger.With().Str("component", "libreoffice").Logger(),
	}
}

// ConvertToPDF writes data to a scratch directory, converts it and returns the PDF bytes.
func (l *LibreOffice) ConvertToPDF(parent context.Context, name string, data []byte) ([]byte, error) {
	ctx, span := l.tracer.Start(parent, "office.convert", trace.WithAttributes(
		attribute.String("office.file", name),
		attribute.Int("office.size_bytes", len(data)),
	))
	defer span.End()

	binary, err := exec.LookPath(l.cfg.Binary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "binary missing")
		return nil, fmt.Errorf("%w: %s", ErrConverterUnavailable, l.cfg.Binary)
	}

	workDir, err := os.MkdirTemp(l.cfg.TempDir, "office-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputName := "input" + strings.ToLower(filepath.Ext(name))
	inputPath := filepath.Join(workDir, inputName)
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	// A private profile directory lets several conversions run at once.
	profile := url.URL{Scheme: "file", Path: filepath.Join(workDir, "profile")}
	cmd := exec.CommandContext(ctx, binary,
		"-env:UserInstallation="+profile.String(),
		"--headless", "--norestore",
		"--convert-to", "pdf",
		"--outdir", workDir,
		inputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	observability.OfficeConversionLatency().Observe(time.Since(start).Seconds())

	if runErr != nil {
		observability.OfficeConversionFailures().Inc()
		span.RecordError(runErr)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			span.SetStatus(codes.Error, "timeout")
			return nil, fmt.Errorf("office conversion timed out after %s", l.cfg.Timeout)
		}
		span.SetStatus(codes.Error, "conversion failed")
		l.logger.Warn().Err(runErr).Str("file", name).Str("stderr", strings.TrimSpace(stderr.String())).Msg("office conversion failed")
		return nil, fmt.Errorf("office conversion failed: %w", runErr)
	}

	output := filepath.Join(workDir, strings.TrimSuffix(inputName, filepath.Ext(inputName))+".pdf")
	pdf, err := os.ReadFile(output)
	if err != nil {
		observability.OfficeConversionFailures().Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "no output")
		return nil, fmt.Errorf("office conversion produced no output: %w", err)
	}

	span.SetStatus(codes.Ok, "converted")
	return pdf, nil
}
