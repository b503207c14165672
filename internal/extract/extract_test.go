package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Senior Go Engineer</w:t></w:r><w:r><w:br/><w:t>Kubernetes, Postgres</w:t></w:r></w:p><w:p></w:p></w:body></w:document>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("cv.pdf"))
	assert.True(t, Allowed("CV.DOCX"))
	assert.True(t, Allowed("notes.txt"))
	assert.False(t, Allowed("cv.doc"))
	assert.False(t, Allowed("cv"))
	assert.False(t, Allowed("archive.zip"))
}

func TestExtractTXT(t *testing.T) {
	text, err := Extract(context.Background(), "cv.txt", []byte("\ufeff  Go developer, 5 years  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Go developer, 5 years", text)
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	_, err := Extract(context.Background(), "cv.txt", []byte{0xff, 0xfe, 'a'})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "cv.txt", extErr.Filename)
}

func TestExtractEmptyTextIsExtractionError(t *testing.T) {
	_, err := Extract(context.Background(), "blank.txt", []byte("   \n\t"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := Extract(context.Background(), "cv.odt", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, errors.Is(err, ErrExtraction))
}

func TestExtractDOCX(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": documentRels,
	})

	text, err := Extract(context.Background(), "cv.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer\nKubernetes, Postgres", text)
}

func TestExtractDOCXCorrupt(t *testing.T) {
	_, err := Extract(context.Background(), "cv.docx", []byte("definitely not a zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractPDFCorrupt(t *testing.T) {
	_, err := Extract(context.Background(), "cv.pdf", []byte("%PDF-1.4\nthis is not really a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, "cv.txt", []byte("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripDocxXMLRejectsBrokenXML(t *testing.T) {
	_, err := stripDocxXML("<w:p><w:t>unclosed")
	assert.Error(t, err)
}

func TestExtractRejectsMismatchedContent(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := Extract(context.Background(), "cv.pdf", png)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "image/png")
}

func TestCheckContentAcceptsDocxAsZip(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": documentRels,
	})
	assert.NoError(t, checkContent(extDOCX, data))
	assert.Error(t, checkContent(extPDF, data))
}
