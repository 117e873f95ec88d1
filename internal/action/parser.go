package action

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Parse maps freeform agent text to the actions it proposes. It is pure and
// deterministic: malformed input yields an empty or partial list, never a
// panic. Each matcher scans independently; the merged list preserves the
// order actions were discovered in the source text.
func Parse(text string) []Action {
	matches := codeBlockMatches(text)
	matches = append(matches, deleteMatches(text)...)
	matches = append(matches, gitMatches(text)...)

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	actions := make([]Action, 0, len(matches))
	for i, m := range matches {
		a := m.action
		a.ID = fmt.Sprintf("action_%d", i+1)
		a.Status = StatusPending
		actions = append(actions, a)
	}
	return actions
}

type match struct {
	offset int
	action Action
}

var (
	fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+_.-]*)[ \t]*\n(.*?)```")
	pathCommentRe = regexp.MustCompile(`^(?://|#)\s*([\w./-]+\.\w+)\s*$`)
	deleteRe      = regexp.MustCompile("(?i)(?:delete|remove)\\s+(?:the\\s+)?file\\s+`?([\\w./-]+)`?")
	gitStatusRe   = regexp.MustCompile(`git\s+status\b`)
	gitCommitRe   = regexp.MustCompile(`git\s+commit\s+-m\s+"([^"]*)"`)
	gitPushRe     = regexp.MustCompile(`git\s+push\b`)
	gitPullRe     = regexp.MustCompile(`git\s+pull\b`)
)

var shellLangs = map[string]struct{}{
	"bash":  {},
	"sh":    {},
	"shell": {},
}

func codeBlockMatches(text string) []match {
	matches := []match{}
	for _, loc := range fencedBlockRe.FindAllStringSubmatchIndex(text, -1) {
		lang := strings.ToLower(text[loc[2]:loc[3]])
		body := text[loc[4]:loc[5]]
		body = strings.TrimSuffix(body, "\n")

		if _, ok := shellLangs[lang]; ok {
			command := strings.TrimSpace(body)
			if command == "" {
				continue
			}
			firstLine := command
			if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
				firstLine = firstLine[:idx]
			}
			matches = append(matches, match{offset: loc[0], action: Action{
				Type:        TypeRunCommand,
				Description: strings.TrimSpace(firstLine),
				Command:     command,
				// The parser never assumes a command is safe.
				RequiresConfirmation: true,
			}})
			continue
		}

		firstLine, rest, _ := strings.Cut(body, "\n")
		sub := pathCommentRe.FindStringSubmatch(strings.TrimSpace(firstLine))
		if sub == nil {
			continue
		}
		path := sub[1]
		matches = append(matches, match{offset: loc[0], action: Action{
			Type:        TypeWriteFile,
			Description: "Write " + path,
			Path:        path,
			Content:     rest,
			Language:    lang,
		}})
	}
	return matches
}

func deleteMatches(text string) []match {
	matches := []match{}
	seen := map[string]struct{}{}
	for _, loc := range deleteRe.FindAllStringSubmatchIndex(text, -1) {
		path := text[loc[2]:loc[3]]
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		matches = append(matches, match{offset: loc[0], action: Action{
			Type:        TypeDeleteFile,
			Description: "Delete " + path,
			Path:        path,
		}})
	}
	return matches
}

func gitMatches(text string) []match {
	matches := []match{}
	for _, loc := range gitStatusRe.FindAllStringIndex(text, -1) {
		matches = append(matches, match{offset: loc[0], action: gitAction("status", "")})
	}
	for _, loc := range gitCommitRe.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, match{offset: loc[0], action: gitAction("commit", text[loc[2]:loc[3]])})
	}
	for _, loc := range gitPushRe.FindAllStringIndex(text, -1) {
		matches = append(matches, match{offset: loc[0], action: gitAction("push", "")})
	}
	for _, loc := range gitPullRe.FindAllStringIndex(text, -1) {
		matches = append(matches, match{offset: loc[0], action: gitAction("pull", "")})
	}
	return matches
}

func gitAction(op, message string) Action {
	desc := "git " + op
	if message != "" {
		desc = fmt.Sprintf("git %s -m %q", op, message)
	}
	return Action{
		Type:        TypeGitOperation,
		Description: desc,
		GitOp:       op,
		GitMessage:  message,
	}
}
