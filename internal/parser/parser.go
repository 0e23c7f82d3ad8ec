package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gtext "github.com/yuin/goldmark/text"

	"docmate/internal/models"
)

// pageBuilder accumulates page texts and remembers the rune offset where each begins.
type pageBuilder struct {
	text  strings.Builder
	runes int
	pages []models.Span
}

func (b *pageBuilder) addPage(label, content string) {
	b.pages = append(b.pages, models.Span{Offset: b.runes, Label: label})
	b.text.WriteString(content)
	b.runes += utf8.RuneCountInString(content)
}

func (b *pageBuilder) document(source string) *models.Document {
	text := b.text.String()
	return &models.Document{
		Source:   source,
		Text:     text,
		Pages:    b.pages,
		Chapters: FindChapters(text),
	}
}

// ParseDocument extracts the full text of a file, choosing the reader by extension.
func ParseDocument(filePath string) (*models.Document, error) {
	source := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filePath))

	var (
		b   *pageBuilder
		err error
	)
	switch ext {
	case ".pdf":
		b, err = parsePDF(filePath)
	case ".docx":
		b, err = parseDOCX(filePath)
	case ".pptx":
		b, err = parsePPTX(filePath)
	case ".xlsx":
		b, err = parseXLSX(filePath)
	case ".md", ".markdown":
		b, err = parseMarkdown(filePath)
	case ".txt":
		b, err = parseText(filePath)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", models.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	doc := b.document(source)
	log.Debug().
		Str("source", source).
		Int("pages", len(doc.Pages)).
		Int("chapters", len(doc.Chapters)).
		Int("chars", utf8.RuneCountInString(doc.Text)).
		Msg("Extracted document text")
	return doc, nil
}

// parsePDF joins the plain text of every page with no separator.
func parsePDF(filePath string) (*pageBuilder, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	b := &pageBuilder{}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			b.addPage(strconv.Itoa(i), "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		b.addPage(strconv.Itoa(i), pageText)
	}
	return b, nil
}

func parseDOCX(filePath string) (*pageBuilder, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b := &pageBuilder{}
	// DOCX has no page numbers
	b.addPage("1", extractTextFromXML(r.Editable().GetContent(), "w:t", "</w:p>"))
	return b, nil
}

// slideRe captures the slide number so slides come out in deck order.
var slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func parsePPTX(filePath string) (*pageBuilder, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range f.File {
		m := slideRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	b := &pageBuilder{}
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		b.addPage(strconv.Itoa(s.num), extractTextFromXML(string(data), "a:t", "</a:p>"))
	}
	return b, nil
}

// parseXLSX treats every sheet as one page of tab separated rows.
func parseXLSX(filePath string) (*pageBuilder, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &pageBuilder{}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		var text strings.Builder
		fmt.Fprintf(&text, "## Sheet: %s\n", sheetName)
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		b.addPage(sheetName, text.String())
	}
	return b, nil
}

func parseMarkdown(filePath string) (*pageBuilder, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	b := &pageBuilder{}
	b.addPage("1", markdownToText(data))
	return b, nil
}

func parseText(filePath string) (*pageBuilder, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	b := &pageBuilder{}
	b.addPage("1", string(data))
	return b, nil
}

// markdownToText drops markdown syntax and keeps the readable text, one line per block.
func markdownToText(src []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gtext.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// extractTextFromXML collects the contents of every <tag> element, ending a
// line at each paragraph close.
func extractTextFromXML(xmlContent, tag, paragraphEnd string) string {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tag) + `(?:\s[^>]*)?>([^<]*)</` + regexp.QuoteMeta(tag) + `>`)

	var text strings.Builder
	for _, paragraph := range strings.Split(xmlContent, paragraphEnd) {
		matches := re.FindAllStringSubmatch(paragraph, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			text.WriteString(html.UnescapeString(m[1]))
		}
		text.WriteString("\n")
	}
	return text.String()
}
