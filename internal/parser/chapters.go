package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docmate/internal/models"
)

var chapterRe = regexp.MustCompile(models.ChapterRegex)

// FindChapters returns every chapter heading in text with its rune offset, in
// document order. Headings are whole lines starting with "Chapter" followed by
// an arabic or roman number.
func FindChapters(text string) []models.Span {
	var chapters []models.Span
	for _, loc := range chapterRe.FindAllStringSubmatchIndex(text, -1) {
		label := strings.TrimSpace(text[loc[2]:loc[3]])
		chapters = append(chapters, models.Span{
			Offset: utf8.RuneCountInString(text[:loc[0]]),
			Label:  label,
		})
	}
	return chapters
}
