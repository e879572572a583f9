package document

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// OfficeConverter renders word-processor, spreadsheet and presentation files as PDF.
type OfficeConverter interface {
	ConvertToPDF(ctx context.Context, name string, data []byte) ([]byte, error)
}

type inputKind int

const (
	kindUnsupported inputKind = iota
	kindPDF
	kindImage
	kindGIF
	kindOffice
)

var officeExtensions = map[string]struct{}{
	".doc": {}, ".docx": {}, ".odt": {}, ".rtf": {}, ".txt": {},
	".xls": {}, ".xlsx": {}, ".ods": {},
	".ppt": {}, ".pptx": {}, ".odp": {},
}

var officeMimes = []string{
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.oasis.opendocument.spreadsheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.oasis.opendocument.presentation",
	"text/rtf",
	"text/plain",
}

var disableConfigDir sync.Once

func newPDFConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func classify(name string, data []byte) (inputKind, string) {
	detected := mimetype.Detect(data)
	mime := detected.String()

	switch {
	case detected.Is("application/pdf"):
		return kindPDF, mime
	case detected.Is("image/jpeg"), detected.Is("image/png"), detected.Is("image/tiff"), detected.Is("image/webp"):
		return kindImage, mime
	case detected.Is("image/gif"):
		return kindGIF, mime
	}

	for _, office := range officeMimes {
		if detected.Is(office) {
			return kindOffice, mime
		}
	}

	// Zipped office formats are often only detected as a generic container.
	if _, ok := officeExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		if detected.Is("application/zip") || detected.Is("application/x-ole-storage") || detected.Is("application/octet-stream") {
			return kindOffice, mime
		}
	}

	return kindUnsupported, mime
}

func (n *Normalizer) toPDF(ctx context.Context, in Input) ([]byte, error) {
	kind, mime := classify(in.Name, in.Data)

	switch kind {
	case kindPDF:
		if err := api.Validate(bytes.NewReader(in.Data), newPDFConfig()); err != nil {
			return nil, err
		}
		return in.Data, nil
	case kindImage:
		return imageToPDF(in.Data)
	case kindGIF:
		img, err := gif.Decode(bytes.NewReader(in.Data))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return imageToPDF(buf.Bytes())
	case kindOffice:
		if n.office == nil {
			return nil, fmt.Errorf("%w: no office converter configured for %s", ErrUnsupportedFormat, mime)
		}
		converted, err := n.office.ConvertToPDF(ctx, in.Name, in.Data)
		if err != nil {
			return nil, err
		}
		if err := api.Validate(bytes.NewReader(converted), newPDFConfig()); err != nil {
			return nil, fmt.Errorf("converter produced invalid pdf: %w", err)
		}
		return converted, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

func imageToPDF(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(data)}, imp, newPDFConfig()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mergePDFs(w io.Writer, parts [][]byte) error {
	if len(parts) == 1 {
		_, err := w.Write(parts[0])
		return err
	}

	readers := make([]io.ReadSeeker, 0, len(parts))
	for _, part := range parts {
		readers = append(readers, bytes.NewReader(part))
	}
	return api.MergeRaw(readers, w, false, newPDFConfig())
}
