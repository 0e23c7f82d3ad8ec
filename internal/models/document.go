package models

// Document is the extracted text of a source file plus where its pages and
// chapters start, as rune offsets into Text.
type Document struct {
	Source   string
	Text     string
	Pages    []Span
	Chapters []Span
}

// Span marks a labelled position in a document's text.
type Span struct {
	Offset int
	Label  string
}

// PageAt returns the 1-based page containing offset, or 0 when no page info exists.
func (d *Document) PageAt(offset int) int {
	page := 0
	for i, p := range d.Pages {
		if p.Offset > offset {
			break
		}
		page = i + 1
	}
	return page
}

// ChapterAt returns the chapter heading in force at offset.
func (d *Document) ChapterAt(offset int) string {
	chapter := ""
	for _, c := range d.Chapters {
		if c.Offset > offset {
			break
		}
		chapter = c.Label
	}
	return chapter
}
