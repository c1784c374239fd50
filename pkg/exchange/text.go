package exchange

import (
	"bufio"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/quicknote/pkg/core"
)

// Separator ends every note in the text format.
var Separator = strings.Repeat("-", 50)

// DateLayout is the date shown on the "Date:" line.
const DateLayout = "1/2/2006"

// TextCodec renders notes for reading:
//
//	Title
//	=====
//	Date: 1/2/2006
//
//	content
//	--------------------------------------------------
//
// Ids, tags and timestamps are not preserved.
type TextCodec struct{}

func (TextCodec) Encode(w io.Writer, notes []core.Note, exportedAt time.Time) error {
	bw := bufio.NewWriter(w)
	for _, n := range notes {
		title := n.DisplayTitle()
		bw.WriteString(title + "\n")
		bw.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)) + "\n")
		bw.WriteString("Date: " + n.UpdatedAt.Local().Format(DateLayout) + "\n")
		bw.WriteString("\n")
		bw.WriteString(n.Content + "\n")
		bw.WriteString(Separator + "\n")
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// Decode splits data on separator lines. In each section the first line is
// the title and content resumes two lines after the "Date:" line. Sections
// with neither title nor content are dropped.
func (TextCodec) Decode(data []byte) (Report, error) {
	var (
		report  Report
		section []string
	)

	flush := func() {
		title, content := parseSection(section)
		section = nil
		if title == "" && content == "" {
			return
		}
		report.Notes = append(report.Notes, core.Note{Title: title, Content: content, Tags: []string{}})
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == Separator {
			flush()
			continue
		}
		section = append(section, line)
	}
	flush()

	return report, nil
}

func parseSection(lines []string) (title, content string) {
	// Skip the blank line that follows each separator.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return "", ""
	}

	title = strings.TrimSpace(lines[0])

	// The title line is never the date marker, even when it reads "Date: ...".
	body := 1
	if len(lines) > 1 && isUnderline(lines[1]) {
		body = 2
	}

	start := body
	for i := body; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "Date:") {
			start = i + 2
			break
		}
	}

	if start < len(lines) {
		content = strings.TrimSpace(strings.Join(lines[start:], "\n"))
	}
	return title, content
}

func isUnderline(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && strings.Trim(line, "=") == ""
}
