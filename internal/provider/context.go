package provider

import (
	"fmt"
	"strings"

	"codelink/hub/internal/registry"
)

// BuildProjectContext flattens a project's cached file contents into one
// context block for the system prompt. Only files that carry cached content
// count toward maxFiles; the tree itself is already bounded by the registry.
func BuildProjectContext(project registry.Project, maxFiles int) string {
	if maxFiles <= 0 {
		maxFiles = 20
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s (%s)\n", project.Name, project.Path)

	remaining := maxFiles
	appendFiles(&sb, project.Files, &remaining)
	return strings.TrimRight(sb.String(), "\n")
}

func appendFiles(sb *strings.Builder, nodes []registry.FileNode, remaining *int) {
	for _, node := range nodes {
		if *remaining <= 0 {
			return
		}
		if node.Type == registry.NodeFile && node.Content != "" {
			fmt.Fprintf(sb, "\nFile: %s\n```\n%s\n```\n", node.Path, node.Content)
			*remaining--
		}
		appendFiles(sb, node.Children, remaining)
	}
}
