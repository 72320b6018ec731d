// Package transcript formats backend text for display: podcast scripts
// become speaker lines, summary sections become a heading with bullets.
package transcript

import (
	"regexp"
	"strings"
)

// DefaultHeading names a section without a "## " heading line.
const DefaultHeading = "Section"

var (
	// "Host (Alex): text" -> speaker "Alex".
	roleSpeaker = regexp.MustCompile(`^(.*?)\s*\((.*?)\):`)
	// "Dr. Smith: text" -> speaker "Dr. Smith".
	plainSpeaker = regexp.MustCompile(`^([A-Z][\w.' -]{0,40}):\s`)
)

// Line is one paragraph of a podcast script. Speaker is empty for
// narration.
type Line struct {
	Speaker string
	Text    string
}

// ParseScript splits a script on blank lines and attributes each paragraph
// to a speaker where one is named.
func ParseScript(script string) []Line {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	var out []Line
	for _, block := range strings.Split(script, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		out = append(out, parseBlock(block))
	}
	return out
}

func parseBlock(block string) Line {
	if m := roleSpeaker.FindStringSubmatch(block); m != nil {
		return Line{Speaker: m[2], Text: afterColon(block)}
	}
	if m := plainSpeaker.FindStringSubmatch(block); m != nil {
		return Line{Speaker: strings.TrimSpace(m[1]), Text: afterColon(block)}
	}
	return Line{Text: block}
}

func afterColon(block string) string {
	return strings.TrimSpace(block[strings.Index(block, ":")+1:])
}

// Section is one summary section.
type Section struct {
	Heading string
	Bullets []string
}

// ParseSection reads a "## heading" line and "- bullet" lines.
func ParseSection(section string) Section {
	s := Section{Heading: DefaultHeading}
	lines := strings.Split(strings.ReplaceAll(section, "\r\n", "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "## ") {
		s.Heading = strings.TrimSpace(strings.TrimPrefix(lines[0], "## "))
	}
	for _, l := range lines {
		if strings.HasPrefix(l, "- ") {
			s.Bullets = append(s.Bullets, strings.TrimSpace(strings.TrimPrefix(l, "- ")))
		}
	}
	return s
}

// Render formats lines as "Speaker: text" paragraphs.
func Render(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if l.Speaker != "" {
			b.WriteString(l.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(l.Text)
	}
	return b.String()
}
