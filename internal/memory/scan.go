package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// techStackMarkers maps a marker filename at the worktree root to the
// tech-stack label it implies, per SPEC_FULL.md §4.7.
var techStackMarkers = map[string]string{
	"go.mod":          "go",
	"package.json":    "node",
	"Cargo.toml":      "rust",
	"pyproject.toml":  "python",
	"requirements.txt": "python",
	"Gemfile":         "ruby",
	"pom.xml":         "java",
	"build.gradle":    "java",
}

// DetectTechStack scans root for the fixed set of tech-stack marker
// files, returning the implied stack labels in a stable, deterministic
// order.
func DetectTechStack(root string) []string {
	order := []string{"go.mod", "package.json", "Cargo.toml", "pyproject.toml", "requirements.txt", "Gemfile", "pom.xml", "build.gradle"}
	var stack []string
	seen := make(map[string]bool)
	for _, marker := range order {
		if _, err := os.Stat(filepath.Join(root, marker)); err != nil {
			continue
		}
		label := techStackMarkers[marker]
		if seen[label] {
			continue
		}
		seen[label] = true
		stack = append(stack, label)
	}
	return stack
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// DetectCommands inspects package.json scripts, Makefile targets, or a
// go.mod-implied `go build`/`go test` to populate build/test/lint
// commands, per SPEC_FULL.md §4.7.
func DetectCommands(root string) Commands {
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			return Commands{
				Build: pkg.Scripts["build"],
				Test:  pkg.Scripts["test"],
				Lint:  pkg.Scripts["lint"],
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "Makefile")); err == nil {
		return commandsFromMakefile(string(data))
	}

	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		return Commands{Build: "go build ./...", Test: "go test ./..."}
	}

	return Commands{}
}

var makefileTargetOf = map[string]string{
	"build": "build",
	"test":  "test",
	"lint":  "lint",
}

func commandsFromMakefile(content string) Commands {
	var cmds Commands
	for _, line := range strings.Split(content, "\n") {
		for target, field := range makefileTargetOf {
			if strings.HasPrefix(line, target+":") {
				cmd := "make " + target
				switch field {
				case "build":
					cmds.Build = cmd
				case "test":
					cmds.Test = cmd
				case "lint":
					cmds.Lint = cmd
				}
			}
		}
	}
	return cmds
}
