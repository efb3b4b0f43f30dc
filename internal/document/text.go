package document

import (
	"bytes"
	"fmt"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/utils"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// TextExtractor turns raw file bytes into plain text
type TextExtractor func(data []byte) (string, error)

var extractors = map[string]TextExtractor{
	".txt":      plainText,
	".text":     plainText,
	".md":       markdownText,
	".markdown": markdownText,
	".pdf":      pdfText,
	".html":     htmlText,
	".htm":      htmlText,
	".docx":     docxText,
}

// SupportedTextExtensions lists the extensions ExtractText understands
func SupportedTextExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	return exts
}

// ExtractText returns the plain text of a job description or resume file,
// choosing the parser from the file extension.
func ExtractText(filename string, data []byte) (string, error) {
	ext := utils.GetFileExtension(filename)
	extract, ok := extractors[ext]
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported file type %q", ext), nil).
			WithContext("filename", filename)
	}

	out, err := extract(data)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return "", err
		}
		return "", errors.NewDocumentError(errors.ErrCodeDocumentUnreadable,
			fmt.Sprintf("Failed to extract text from %s", filename), err)
	}
	return strings.TrimSpace(out), nil
}

func plainText(data []byte) (string, error) {
	return string(data), nil
}

func docxText(data []byte) (string, error) {
	paras, err := LoadParagraphs(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return ParagraphText(paras), nil
}

// markdownText keeps the source lines of every leaf block
func markdownText(data []byte) (string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(data))

	var buf strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.WriteString(strings.TrimRight(string(seg.Value(data)), "\r\n"))
			buf.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(content)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

var htmlSkip = map[string]bool{"script": true, "style": true, "noscript": true, "head": true, "template": true}

var htmlBlocks = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"ul": true, "ol": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && htmlSkip[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && htmlBlocks[n.Data] {
			buf.WriteByte('\n')
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
