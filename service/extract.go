package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/daivikpurani/AI-Tutor/types"
)

// ExtractText pulls raw text from a file on disk. Plain text and markdown are
// read directly; PDF goes through pdftotext. DOCX extraction is not
// implemented and fails with ErrUnsupportedFormat.
func ExtractText(path string, format types.SourceFormat) (string, error) {
	switch format {
	case types.FormatText, types.FormatMarkdown:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	case types.FormatPDF:
		return extractTextWithPdftotext(path)
	default:
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, format)
	}
}

func extractTextWithPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-enc", "UTF-8", "-nopgbrk", path, "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed for %s: %w", path, err)
	}
	return out.String(), nil
}
