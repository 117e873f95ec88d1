package action

import "fmt"

type Validation struct {
	Valid bool
	Error string
}

// Validate checks required fields per type before an action is admitted into
// a task. Invalid actions are reported to the caller, never silently dropped.
func Validate(a Action) Validation {
	switch a.Type {
	case TypeWriteFile:
		if a.Path == "" {
			return invalid("write_file requires a path")
		}
		if a.Content == "" {
			return invalid("write_file requires content")
		}
	case TypeDeleteFile, TypeReadFile:
		if a.Path == "" {
			return invalid(fmt.Sprintf("%s requires a path", a.Type))
		}
	case TypeRunCommand:
		if a.Command == "" {
			return invalid("run_command requires a command")
		}
	case TypeSearchCode:
		if a.Query == "" {
			return invalid("search_code requires a query")
		}
	case TypeGitOperation:
		switch a.GitOp {
		case "status", "commit", "push", "pull":
		default:
			return invalid(fmt.Sprintf("unsupported git operation %q", a.GitOp))
		}
	case TypeExplain, TypeAskQuestion:
		if a.Description == "" {
			return invalid(fmt.Sprintf("%s requires a description", a.Type))
		}
	default:
		return invalid(fmt.Sprintf("unknown action type %q", a.Type))
	}
	return Validation{Valid: true}
}

func invalid(reason string) Validation {
	return Validation{Valid: false, Error: reason}
}
