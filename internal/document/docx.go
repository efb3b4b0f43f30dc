package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/fumiama/go-docx"
)

// DefaultStyle is reported for paragraphs that carry no pStyle.
const DefaultStyle = "Normal"

// MIMEType is the content type of a .docx package
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// LoadParagraphs reads a .docx package and returns its top-level body
// paragraphs in document order. Table cells, headers and footers are not
// included.
func LoadParagraphs(r io.Reader) ([]types.Paragraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read document", err)
	}

	doc, err := parse(data)
	if err != nil {
		return nil, err
	}

	paras := bodyParagraphs(doc)
	out := make([]types.Paragraph, len(paras))
	for i, p := range paras {
		out[i] = types.Paragraph{Style: paragraphStyle(p), Text: paragraphText(p)}
	}
	return out, nil
}

// ParagraphText joins paragraph texts with newlines, one line per paragraph.
func ParagraphText(paragraphs []types.Paragraph) string {
	lines := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		lines[i] = p.Text
	}
	return strings.Join(lines, "\n")
}

// Rewrite re-opens original and replaces the text of every body paragraph
// whose text differs from the matching entry in paragraphs. The first run of
// a rewritten paragraph keeps its formatting and receives the new text; the
// remaining runs are removed. Styles, numbering and media are untouched.
func Rewrite(original []byte, paragraphs []types.Paragraph) ([]byte, error) {
	doc, err := parse(original)
	if err != nil {
		return nil, err
	}

	paras := bodyParagraphs(doc)
	if len(paras) != len(paragraphs) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Paragraph count mismatch: document has %d, got %d", len(paras), len(paragraphs)), nil)
	}

	for i, p := range paras {
		if paragraphText(p) == paragraphs[i].Text {
			continue
		}
		setParagraphText(p, paragraphs[i].Text)
	}

	return write(doc)
}

// Render builds a new document with one paragraph per entry, using each
// entry's style as the paragraph style id.
func Render(paragraphs []types.Paragraph) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	for _, p := range paragraphs {
		para := doc.AddParagraph()
		if p.Style != "" && p.Style != DefaultStyle {
			para.Properties = &docx.ParagraphProperties{
				Style: &docx.Style{Val: p.Style},
			}
		}
		if p.Text != "" {
			para.AddText(p.Text)
		}
	}

	return write(doc)
}

func parse(data []byte) (*docx.Docx, error) {
	if len(data) == 0 {
		return nil, errors.NewDocumentError(errors.ErrCodeDocumentUnreadable, "Document is empty", nil)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewDocumentError(errors.ErrCodeDocumentUnreadable, "Failed to parse .docx document", err)
	}
	return doc, nil
}

func write(doc *docx.Docx) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, errors.NewDocumentError(errors.ErrCodeDocumentWriteFailed, "Failed to serialize .docx document", err)
	}
	return buf.Bytes(), nil
}

func bodyParagraphs(doc *docx.Docx) []*docx.Paragraph {
	var paras []*docx.Paragraph
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paras = append(paras, p)
		}
	}
	return paras
}

func paragraphStyle(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Style == nil || p.Properties.Style.Val == "" {
		return DefaultStyle
	}
	return p.Properties.Style.Val
}

func paragraphText(p *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			buf.WriteString(runText(c))
		case *docx.Hyperlink:
			// go-docx writes link text as instrText
			if text := runText(&c.Run); text != "" {
				buf.WriteString(text)
			} else {
				buf.WriteString(c.Run.InstrText)
			}
		}
	}
	return buf.String()
}

func runText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

// setParagraphText replaces the visible text of p with text, keeping the
// first run's properties. Other runs and hyperlinks are removed.
func setParagraphText(p *docx.Paragraph, text string) {
	var first *docx.Run
	kept := make([]interface{}, 0, len(p.Children))

	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			if first == nil {
				first = c
				kept = append(kept, c)
			}
		case *docx.Hyperlink:
		default:
			kept = append(kept, child)
		}
	}

	p.Children = kept
	if first == nil {
		first = p.AddText("")
	}
	first.Children = []interface{}{newText(text)}
}

func newText(text string) *docx.Text {
	t := &docx.Text{Text: text}
	if strings.TrimSpace(text) != text {
		t.XMLSpace = "preserve"
	}
	return t
}
