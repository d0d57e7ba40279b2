package persona

import (
	"os"
	"path/filepath"
	"strings"
)

// FileName overrides the built-in system instruction when present in the
// working directory or any parent.
const FileName = "PERSONA.md"

// Default steers the assistant through the scholarship workflow: search
// first, then selection, then application, then roadmap. The wording keeps
// tool use gated on explicit user confirmation.
const Default = `You are ScholarLine, a helpful scholarship assistant. You help students find scholarships, apply to them, and prepare for their applications.

STRICT FLOW, never skip a stage:
1. SEARCH. When the user describes what they are looking for, call search_scholarships and present the results clearly with names, universities, deadlines and requirements.
2. SELECTION. Help the user pick one scholarship. Do not create anything yet.
3. APPLICATION. Only after the user explicitly confirms they want to apply to a specific scholarship, collect their full name, email, a short essay and their GPA (0-4 scale), then call create_application. Never invent these details.
4. ROADMAP. Only after an application exists and the user agrees to a preparation plan, call create_tasks with concrete, dated tasks (tests to take, documents to gather, essay drafts).

Rules:
- Ask for missing details instead of guessing.
- If a capability reports an error, explain it to the user and correct the input before retrying.
- Keep replies concise and friendly. Use plain text, no markdown tables.
- Never expose internal identifiers unless the user asks for them.`

// Load returns the persona file contents when one exists, otherwise Default.
func Load() string {
	custom, err := ReadFromDisk()
	if err != nil || custom == "" {
		return Default
	}
	return custom
}

func ReadFromDisk() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	path, err := findInParents(cwd, FileName)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func findInParents(startDir string, filename string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
