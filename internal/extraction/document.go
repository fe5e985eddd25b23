package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/config"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/ledongthuc/pdf"
)

// DocumentKind classifies a fetched document for the model call.
type DocumentKind int

const (
	KindImage DocumentKind = iota
	KindPDF
)

// minImageBytes guards against truncated or empty image payloads reaching
// the provider.
const minImageBytes = 64

// Document is a fetched invoice file ready for extraction.
type Document struct {
	Kind DocumentKind
	Data []byte
	MIME string
}

// Fetcher downloads invoice documents with a timeout and a hard size cap.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher builds a fetcher from document settings.
func NewFetcher(cfg config.DocumentConfig) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes: cfg.MaxFetchBytes,
	}
}

// Fetch downloads the file and classifies it. The body read is capped at
// maxBytes; larger documents are rejected rather than buffered.
func (f *Fetcher) Fetch(ctx context.Context, fileURL, fileName string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid file url")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, err, "fetching document")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CodeUpstream, fmt.Sprintf("document fetch returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, err, "reading document body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, apperrors.New(apperrors.CodeValidation, "document exceeds the maximum allowed size")
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "document is empty")
	}

	if isPDF(data, fileURL, fileName) {
		return &Document{Kind: KindPDF, Data: data, MIME: "application/pdf"}, nil
	}
	if len(data) < minImageBytes {
		return nil, apperrors.New(apperrors.CodeValidation, "image payload is too small to analyze")
	}
	return &Document{Kind: KindImage, Data: data, MIME: imageMIME(fileURL, fileName)}, nil
}

func isPDF(data []byte, fileURL, fileName string) bool {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return true
	}
	return hasExt(fileURL, ".pdf") || hasExt(fileName, ".pdf")
}

func hasExt(name, ext string) bool {
	if name == "" {
		return false
	}
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		name = u.Path
	}
	return strings.EqualFold(path.Ext(name), ext)
}

// imageMIME maps the file extension to a provider MIME type, defaulting to
// PNG when the extension is unknown.
func imageMIME(fileURL, fileName string) string {
	for _, candidate := range []string{fileName, fileURL} {
		if candidate == "" {
			continue
		}
		if u, err := url.Parse(candidate); err == nil && u.Path != "" {
			candidate = u.Path
		}
		switch strings.ToLower(path.Ext(candidate)) {
		case ".jpg", ".jpeg":
			return "image/jpeg"
		case ".webp":
			return "image/webp"
		case ".gif":
			return "image/gif"
		case ".png":
			return "image/png"
		}
	}
	return "image/png"
}

// PDFText extracts plain text from each page of a PDF held in memory.
// Pages that fail to decode are skipped; fully empty output is an error
// because the model would have nothing to work with.
func PDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return out, nil
}
