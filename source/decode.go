package source

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
)

type format int

const (
	formatUnknown format = iota
	formatJSON
	formatYAML
)

// formatFromPath detects the document format from a file extension.
func formatFromPath(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatUnknown
	}
}

// decode turns raw bytes into a document root. An unknown format is tried as
// JSON first and as YAML when that fails.
func decode(path string, data []byte, f format) (map[string]any, error) {
	var raw any
	var err error
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, &raw)
	case formatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		if jsonErr := json.Unmarshal(data, &raw); jsonErr != nil {
			raw = nil
			err = yaml.Unmarshal(data, &raw)
		}
	}
	if err != nil {
		return nil, &oaserrors.ParseError{Path: path, Message: "failed to decode document", Cause: err}
	}

	root, ok := nodewalk.Normalize(raw).(map[string]any)
	if !ok {
		return nil, &oaserrors.ParseError{Path: path, Message: "document root must be an object"}
	}
	return root, nil
}

// definitionOrder returns the keys of the root "definitions" mapping in the
// order they appear in data. JSON is valid YAML, so one pass covers both.
func definitionOrder(data []byte) []string {
	var node yaml.Node
	if err := yaml.Unmarshal(bytes.TrimSpace(data), &node); err != nil {
		return nil
	}
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != refs.Definitions {
			continue
		}
		defs := root.Content[i+1]
		if defs.Kind != yaml.MappingNode {
			return nil
		}
		names := make([]string, 0, len(defs.Content)/2)
		for j := 0; j+1 < len(defs.Content); j += 2 {
			names = append(names, defs.Content[j].Value)
		}
		return names
	}
	return nil
}

// canonicalize rewrites the document part of every outer reference in root
// so that it no longer depends on the location of the referencing document.
// base is the absolute path or URL of the document root was loaded from.
func (l *Loader) canonicalize(root map[string]any, base string) map[string]any {
	out := refs.Rewrite(root, func(ref string) (string, bool) {
		if !refs.IsOuter(ref) {
			return ref, false
		}
		doc, inner := refs.Split(ref)
		resolved := l.resolveDocument(base, doc)
		if resolved == doc {
			return ref, false
		}
		if strings.Contains(ref, "#") {
			return resolved + "#" + inner, true
		}
		return resolved, true
	})
	return nodewalk.Map(out)
}

// resolveDocument resolves doc against base. Targets that cannot be located
// are returned unchanged and fail when they are loaded.
func (l *Loader) resolveDocument(base, doc string) string {
	if refs.IsURL(doc) {
		return doc
	}
	if refs.IsURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return doc
		}
		r, err := url.Parse(doc)
		if err != nil {
			return doc
		}
		return b.ResolveReference(r).String()
	}
	path, _, err := l.locate(doc, filepath.Dir(base))
	if err != nil {
		return doc
	}
	return path
}
