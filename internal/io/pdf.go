package ioutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when a downloaded file is not a PDF document.
// Sites often answer a dead PDF link with an HTML page and status 200.
var ErrNotPDF = errors.New("not a PDF document")

var pdfMagic = []byte("%PDF-")

// IsPDFHeader reports whether head starts with the PDF signature. Leading
// whitespace is tolerated.
func IsPDFHeader(head []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), pdfMagic)
}

// VerifyPDF checks that the file at path is a PDF.
//
// Without strict, only the file signature is checked and the returned page
// count is 0. With strict, the document structure is parsed and the page
// count returned; documents that cannot be parsed are rejected.
func VerifyPDF(path string, strict bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if !IsPDFHeader(head[:n]) {
		return 0, ErrNotPDF
	}
	if !strict {
		return 0, nil
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return countPages(f, info.Size())
}

// countPages parses the document with the pdf reader. The reader panics on
// some malformed inputs, so panics are turned into ErrNotPDF.
func countPages(r io.ReaderAt, size int64) (pages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			pages, err = 0, fmt.Errorf("%w: %v", ErrNotPDF, p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return reader.NumPage(), nil
}
