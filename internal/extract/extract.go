package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	// ErrExtraction matches every *ExtractionError via errors.Is.
	ErrExtraction = errors.New("extraction failed")
	// ErrUnsupportedType is returned for extensions other than pdf, docx and txt.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ExtractionError reports that a single uploaded file could not be turned into text.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExtraction) match any extraction failure.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

const (
	extPDF  = ".pdf"
	extDOCX = ".docx"
	extTXT  = ".txt"
)

// Allowed reports whether filename has an extension the extractor handles.
func Allowed(filename string) bool {
	switch ext(filename) {
	case extPDF, extDOCX, extTXT:
		return true
	default:
		return false
	}
}

// Extract converts an uploaded file into trimmed plaintext, dispatching on extension.
// Content is sniffed first so a renamed binary fails fast.
func Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if Allowed(filename) {
		if err := checkContent(ext(filename), data); err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
	}

	var (
		text string
		err  error
	)
	switch ext(filename) {
	case extPDF:
		text, err = extractPDF(data)
	case extDOCX:
		text, err = extractDOCX(data)
	case extTXT:
		text, err = extractTXT(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	if err != nil {
		return "", &ExtractionError{Filename: filename, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ExtractionError{Filename: filename, Err: errors.New("no readable text")}
	}
	return text, nil
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// expectedKind maps an extension to the MIME type its content must descend from.
var expectedKind = map[string]string{
	extPDF:  "application/pdf",
	extDOCX: "application/zip",
	extTXT:  "text/plain",
}

func checkContent(extension string, data []byte) error {
	want := expectedKind[extension]
	if want == "" || len(data) == 0 {
		return nil
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(want) {
			return nil
		}
	}
	return fmt.Errorf("content looks like %s, not %s", detected.String(), want)
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("corrupt pdf: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent())
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// stripDocxXML keeps character data and breaks lines at paragraph and break elements.
func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return collapseBlankLines(buf.String()), nil
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
