package runner

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"text/template"

	"github.com/google/uuid"
)

// HeaderTemplates renders per-request header values such as
// "X-Request-ID: {{uuid}}" or "X-User: {{userID}}".
type HeaderTemplates struct {
	tmpls map[string]*template.Template

	fileCache map[string][]string
	mu        sync.RWMutex
}

// TemplateData is what a header template can reference.
type TemplateData struct {
	UserID string
	UUID   string
	Task   string
}

var shorthands = strings.NewReplacer(
	"{{userID}}", "{{.UserID}}",
	"{{uuid}}", "{{.UUID}}",
	"{{requestID}}", "{{.UUID}}",
	"{{task}}", "{{.Task}}",
)

// NewHeaderTemplates parses every header value. Values without template
// actions render to themselves.
func NewHeaderTemplates(headers map[string]string) (*HeaderTemplates, error) {
	h := &HeaderTemplates{
		tmpls:     make(map[string]*template.Template, len(headers)),
		fileCache: make(map[string][]string),
	}
	funcs := template.FuncMap{
		"randomInt":    randomInt,
		"randomChoice": randomChoice,
		"randomLine":   h.randomLine,
	}
	for key, value := range headers {
		t, err := template.New(key).Funcs(funcs).Parse(shorthands.Replace(value))
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		h.tmpls[key] = t
	}
	return h, nil
}

// Render evaluates all headers for one request.
func (h *HeaderTemplates) Render(userID, task string) (map[string]string, error) {
	if len(h.tmpls) == 0 {
		return nil, nil
	}
	data := TemplateData{UserID: userID, UUID: uuid.New().String(), Task: task}
	out := make(map[string]string, len(h.tmpls))
	var buf bytes.Buffer
	for key, t := range h.tmpls {
		buf.Reset()
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		out[key] = buf.String()
	}
	return out, nil
}

func randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.IntN(max-min) + min
}

func randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.IntN(len(choices))]
}

func (h *HeaderTemplates) randomLine(filename string) (string, error) {
	h.mu.RLock()
	lines, ok := h.fileCache[filename]
	h.mu.RUnlock()

	if !ok {
		h.mu.Lock()
		defer h.mu.Unlock()
		if lines, ok = h.fileCache[filename]; !ok {
			content, err := os.ReadFile(filename)
			if err != nil {
				return "", fmt.Errorf("failed to read file '%s': %w", filename, err)
			}
			scanner := bufio.NewScanner(bytes.NewReader(content))
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					lines = append(lines, line)
				}
			}
			h.fileCache[filename] = lines
		}
	}

	if len(lines) == 0 {
		return "", nil
	}
	return lines[rand.IntN(len(lines))], nil
}
