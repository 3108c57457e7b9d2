package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxUploadBytes caps transcript file uploads.
const MaxUploadBytes = 10 << 20

// FileExtractService turns an uploaded transcript document into text.
type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

func (s *FileExtractService) ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt":
		text, err = extractTXT(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return "", &UnsupportedFileError{Message: fmt.Sprintf("Unsupported file type %q. Upload a .txt, .pdf or .docx file.", ext)}
	}
	if err != nil {
		return "", &UnsupportedFileError{Message: "Could not read text from the uploaded file: " + err.Error()}
	}
	return text, nil
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	text := normalizeExtractedText(string(data))
	if text == "" {
		return "", fmt.Errorf("text file is empty")
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(io.LimitReader(plain, MaxUploadBytes*4))
	if err != nil {
		return "", err
	}

	text := normalizeExtractedText(string(body))
	if text == "" {
		return "", fmt.Errorf("no extractable text found in pdf")
	}
	return text, nil
}

func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	documentXML, err := readZipEntry(archive, "word/document.xml")
	if err != nil {
		return "", err
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return "", fmt.Errorf("no extractable text found in docx")
	}
	return text, nil
}

func readZipEntry(archive *zip.Reader, name string) ([]byte, error) {
	f, err := archive.Open(name)
	if err != nil {
		return nil, fmt.Errorf("docx %s not found", name)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxUploadBytes*4))
}

var (
	docxBreakReplacer = strings.NewReplacer("</w:p>", "\n", "<w:br/>", "\n", "<w:br />", "\n", "<w:tab/>", "\t")
	xmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
)

func stripDOCXML(src []byte) string {
	s := docxBreakReplacer.Replace(string(src))
	return html.UnescapeString(xmlTagPattern.ReplaceAllString(s, ""))
}

// normalizeExtractedText trims every line and keeps at most one blank
// line between paragraphs.
func normalizeExtractedText(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && blank {
			continue
		}
		blank = line == ""
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
