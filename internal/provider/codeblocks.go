package provider

import (
	"regexp"
	"strings"
)

// CodeBlock is one fenced block lifted out of a reply, with the filename when
// the block leads with a path comment.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Filename string `json:"filename,omitempty"`
	Code     string `json:"code"`
}

var (
	codeFenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+_.-]*)[ \t]*\n(.*?)```")
	filenameRe  = regexp.MustCompile(`^(?://|#)\s*([\w./-]+\.\w+)\s*$`)
)

// ExtractCodeBlocks returns every fenced block in reply order. It does not
// decide what the blocks mean; that is the action parser's job.
func ExtractCodeBlocks(text string) []CodeBlock {
	blocks := []CodeBlock{}
	for _, m := range codeFenceRe.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(m[1])
		code := strings.TrimSuffix(m[2], "\n")
		block := CodeBlock{Language: lang, Code: code}

		firstLine, rest, found := strings.Cut(code, "\n")
		if sub := filenameRe.FindStringSubmatch(strings.TrimSpace(firstLine)); sub != nil && found {
			block.Filename = sub[1]
			block.Code = rest
		}
		blocks = append(blocks, block)
	}
	return blocks
}
