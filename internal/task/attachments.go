package task

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Attachments are stored inline in the description, one per line, after the
// body text:
//
//	**Attachment:** [name](url)
//
// The clean text and the attachment list are derived views of that one
// canonical field.
type Attachment struct {
	Name string
	URL  string
	Kind string // "image" or "file"
}

var attachmentLine = regexp.MustCompile(`^\*\*Attachment:\*\* \[([^\]]*)\]\(([^)]*)\)$`)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// ParseDescription splits a description into its body text and attachment
// references. Lines that do not match the attachment markup stay in the
// body untouched.
func ParseDescription(desc string) (string, []Attachment) {
	if desc == "" {
		return "", nil
	}
	lines := strings.Split(desc, "\n")
	var body []string
	var atts []Attachment
	for _, line := range lines {
		m := attachmentLine.FindStringSubmatch(line)
		if m == nil {
			body = append(body, line)
			continue
		}
		atts = append(atts, Attachment{Name: m[1], URL: m[2], Kind: attachmentKind(m[2])})
	}
	// SerializeDescription re-adds the newline that separated the body
	// from the first attachment line, so the pair round-trips exactly.
	return strings.Join(body, "\n"), atts
}

// SerializeDescription rebuilds the canonical description from the clean
// text and attachment list.
func SerializeDescription(text string, atts []Attachment) string {
	if len(atts) == 0 {
		return text
	}
	lines := make([]string, 0, len(atts)+1)
	if text != "" {
		lines = append(lines, text)
	}
	for _, a := range atts {
		lines = append(lines, fmt.Sprintf("**Attachment:** [%s](%s)", a.Name, a.URL))
	}
	return strings.Join(lines, "\n")
}

func attachmentKind(url string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	if imageExts[ext] {
		return "image"
	}
	return "file"
}
