package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts the external binaries by name and records every call.
type fakeRunner struct {
	pdftotextOut string
	pdftotextErr error
	pages        int
	tesseractOut func(imgPath string) string
	calls        []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)
	switch name {
	case "pdftotext":
		return []byte(r.pdftotextOut), nil, r.pdftotextErr
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= r.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if r.tesseractOut == nil {
			return []byte("texto ocr"), nil, nil
		}
		return []byte(r.tesseractOut(args[0])), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected binary %q", name)
}

func newTestExtractor(r Runner, cfg Config) *Extractor {
	e := NewExtractor(cfg, nil)
	e.runner = r
	return e
}

func (r *fakeRunner) callCount(name string) int {
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestExtractTextPDFUsesTextLayer(t *testing.T) {
	runner := &fakeRunner{pdftotextOut: "Total $1,250.00"}
	e := newTestExtractor(runner, Config{})

	text, err := e.ExtractText(context.Background(), []byte("%PDF"), ".pdf")
	require.NoError(t, err)
	assert.Equal(t, "Total $1,250.00", text)
	assert.Zero(t, runner.callCount("pdftoppm"))
	assert.Zero(t, runner.callCount("tesseract"))
}

func TestExtractTextPDFFallsBackToOCROnEmptyLayer(t *testing.T) {
	runner := &fakeRunner{
		pdftotextOut: "  \n\t ",
		pages:        2,
		tesseractOut: func(img string) string { return "página " + filepath.Base(img) },
	}
	e := newTestExtractor(runner, Config{})

	text, err := e.ExtractText(context.Background(), []byte("%PDF"), "pdf")
	require.NoError(t, err)

	parts := strings.Split(text, "\n\f\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "página page-1.png", parts[0])
	assert.Equal(t, "página page-2.png", parts[1])
	assert.Equal(t, 2, runner.callCount("tesseract"))
}

func TestExtractTextPDFFallsBackToOCROnTextLayerError(t *testing.T) {
	runner := &fakeRunner{pdftotextErr: errors.New("broken pdf"), pages: 1}
	e := newTestExtractor(runner, Config{})

	text, err := e.ExtractText(context.Background(), []byte("%PDF"), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "texto ocr", text)
}

func TestExtractTextPDFMaxPages(t *testing.T) {
	runner := &fakeRunner{pages: 5}
	e := newTestExtractor(runner, Config{MaxPages: 2})

	_, err := e.ExtractText(context.Background(), []byte("%PDF"), "pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, runner.callCount("tesseract"))
}

func TestExtractTextPDFNoPagesRendered(t *testing.T) {
	runner := &fakeRunner{pages: 0}
	e := newTestExtractor(runner, Config{})

	_, err := e.ExtractText(context.Background(), []byte("%PDF"), "pdf")
	assert.ErrorContains(t, err, "no images")
}

func TestExtractTextImageGoesStraightToTesseract(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExtractor(runner, Config{})

	text, err := e.ExtractText(context.Background(), []byte{0xFF, 0xD8}, "JPG")
	require.NoError(t, err)
	assert.Equal(t, "texto ocr", text)
	assert.Zero(t, runner.callCount("pdftotext"))
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	e := newTestExtractor(&fakeRunner{}, Config{})
	_, err := e.ExtractText(context.Background(), []byte("<xml/>"), "xml")
	assert.Error(t, err)
}
