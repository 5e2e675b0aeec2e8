// Package promptbuilder assembles the system prompt (spec.md §4.8, C8):
// a fixed safety/tools preamble, the workspace path, a set of named
// identity files read from the workspace root, a timestamp, and a few
// runtime facts.
package promptbuilder

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// maxIdentityFileSize is the largest identity file that is injected,
// matching the C original's 64KB-per-file limit; a larger file gets the
// not-found placeholder instead of a truncated copy.
const maxIdentityFileSize = 64 * 1024

const safetySection = `## Safety

- Do not exfiltrate private data.
- Do not run destructive commands without asking.
- Prefer recoverable operations over destructive ones.
- When in doubt, ask before acting externally.

`

const toolsSection = `## Tools

You have access to the following tools:

- **shell**: Execute terminal commands
- **file_read**: Read file contents
- **file_write**: Write file contents

`

// identityFiles are looked up, in order, at the workspace root.
var identityFiles = []string{
	"AGENTS.md", "SOUL.md", "TOOLS.md", "IDENTITY.md",
	"USER.md", "HEARTBEAT.md", "MEMORY.md",
}

// Build assembles the full system prompt for workspace and model.
func Build(workspace, model string) string {
	var b strings.Builder

	b.WriteString(safetySection)
	b.WriteString(toolsSection)
	fmt.Fprintf(&b, "## Workspace\n\nWorking directory: `%s`\n\n", workspace)
	b.WriteString("## Project Context\n\n")

	for _, name := range identityFiles {
		injectFile(&b, workspace, name)
	}

	now := time.Now().UTC()
	fmt.Fprintf(&b, "## Current Date & Time\n\nTimezone: UTC\nDate: %s\n\n", now.Format("2006-01-02 15:04:05"))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	fmt.Fprintf(&b, "## Runtime\n\nHost: %s | OS: %s %s | Model: %s | Engine: seaclaw (Go)\n\n",
		hostname, runtime.GOOS, runtime.GOARCH, model)

	return b.String()
}

// injectFile appends one "### <name>" section containing the file's
// content, or a "[File not found: <name>]" placeholder when it is
// missing, empty, or larger than maxIdentityFileSize.
func injectFile(b *strings.Builder, workspace, name string) {
	path := filepath.Join(workspace, name)
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 || len(data) > maxIdentityFileSize {
		fmt.Fprintf(b, "### %s\n\n[File not found: %s]\n\n", name, name)
		return
	}
	fmt.Fprintf(b, "### %s\n\n%s\n\n", name, string(data))
}
