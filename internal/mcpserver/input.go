package mcpserver

import (
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/internal/options"
	"github.com/erraggy/specbuild/joiner"
	"github.com/erraggy/specbuild/source"
)

// specInput represents the three ways a spec can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a Swagger 2.0 document or split configuration on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a Swagger 2.0 document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline Swagger 2.0 document content (JSON or YAML)"`
}

func (s specInput) validate() error {
	if err := options.RequireOne("spec", map[string]string{"file": s.File, "url": s.URL, "content": s.Content}); err != nil {
		return err
	}
	if s.Content != "" && int64(len(s.Content)) > cfg.MaxInlineSize {
		return fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set SPECBUILD_MAX_INLINE_SIZE to increase",
			len(s.Content), cfg.MaxInlineSize)
	}
	return nil
}

// name identifies the i-th spec in results. Inline specs are named
// inline<i+1>.yaml, which also names their conflict renames.
func (s specInput) name(i int) string {
	switch {
	case s.File != "":
		return s.File
	case s.URL != "":
		return s.URL
	default:
		return fmt.Sprintf("inline%d.yaml", i+1)
	}
}

// option turns the i-th spec into a joiner input.
func (s specInput) option(i int) (joiner.Option, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Content == "" {
		return joiner.WithFilePaths(s.name(i)), nil
	}
	var raw any
	if err := yaml.Unmarshal([]byte(s.Content), &raw); err != nil {
		return nil, fmt.Errorf("parsing inline content: %w", err)
	}
	doc, ok := nodewalk.Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("inline content is not a document object")
	}
	return joiner.WithDocuments(s.name(i), doc), nil
}

// joinOptions validates specs and returns the joiner options loading them,
// followed by the shared source options.
func joinOptions(specs []specInput) ([]joiner.Option, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least 1 spec is required")
	}
	if len(specs) > cfg.MaxSpecs {
		return nil, fmt.Errorf("too many specs: got %d, maximum is %d; set SPECBUILD_MAX_SPECS to increase",
			len(specs), cfg.MaxSpecs)
	}
	opts := make([]joiner.Option, 0, len(specs)+1)
	for i, s := range specs {
		opt, err := s.option(i)
		if err != nil {
			return nil, fmt.Errorf("spec[%d]: %w", i, err)
		}
		opts = append(opts, opt)
	}
	return append(opts, joiner.WithSourceOptions(sourceOptions()...)), nil
}

// sourceOptions returns the loader options for tool calls. URL specs and
// outer references go through the SSRF-safe client unless private IPs are
// allowed.
func sourceOptions() []source.Option {
	if cfg.AllowPrivateIPs {
		return nil
	}
	return []source.Option{source.WithHTTPClient(newSafeHTTPClient())}
}
