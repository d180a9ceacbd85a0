// Package output serializes a merged document to YAML or JSON.
//
// Root keys are written in the conventional Swagger 2.0 order (swagger,
// info, host, ..., paths, parameters, responses, definitions) followed by
// any other key in lexical order. Nested maps are written in lexical order.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/specbuild/internal/fileutil"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// RootOrder lists the root keys written first, in order.
var RootOrder = []string{
	"swagger", "info", "host", "basePath", "schemes", "consumes", "produces",
	"securityDefinitions", "security", "tags", "externalDocs",
	"paths", "parameters", "responses", "definitions",
}

// ValidateFormat returns an error unless format is FormatYAML or FormatJSON.
func ValidateFormat(format string) error {
	if format != FormatYAML && format != FormatJSON {
		return &oaserrors.ConfigError{
			Option:  "format",
			Value:   format,
			Message: fmt.Sprintf("valid formats: %s, %s", FormatYAML, FormatJSON),
		}
	}
	return nil
}

// FormatFromPath returns FormatJSON for a ".json" path and FormatYAML
// otherwise.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Marshal serializes doc in format.
func Marshal(doc map[string]any, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	keys := rootKeys(doc)
	if format == FormatJSON {
		return marshalJSON(doc, keys)
	}
	return marshalYAML(doc, keys)
}

// Write serializes doc in format to w.
func Write(w io.Writer, doc map[string]any, format string) error {
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// WriteFile serializes doc in format to path with owner-only permissions.
// An empty format is taken from the path extension.
func WriteFile(path string, doc map[string]any, format string) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(path, data)
}

func rootKeys(doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	for _, k := range RootOrder {
		if _, ok := doc[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range nodewalk.SortedKeys(doc) {
		if !slices.Contains(RootOrder, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func marshalYAML(doc map[string]any, keys []string) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0, len(keys)*2)}
	for _, k := range keys {
		value, err := valueToNode(doc[k])
		if err != nil {
			return nil, fmt.Errorf("output: encoding %s: %w", k, err)
		}
		root.Content = append(root.Content, scalarNode("!!str", k), value)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return data, nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// valueToNode converts a decoded document value to a yaml.Node, with map
// keys in lexical order.
func valueToNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(val)), nil
	case int:
		return scalarNode("!!int", strconv.Itoa(val)), nil
	case int64:
		return scalarNode("!!int", strconv.FormatInt(val, 10)), nil
	case uint64:
		return scalarNode("!!int", strconv.FormatUint(val, 10)), nil
	case float64:
		return scalarNode("!!float", strconv.FormatFloat(val, 'f', -1, 64)), nil
	case json.Number:
		return scalarNode("!!float", val.String()), nil
	case string:
		return scalarNode("!!str", val), nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(val))}
		for _, item := range val {
			child, err := valueToNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0, len(val)*2)}
		for _, k := range nodewalk.SortedKeys(val) {
			child, err := valueToNode(val[k])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, scalarNode("!!str", k), child)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

func marshalJSON(doc map[string]any, keys []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, doc[k]); err != nil {
			return nil, fmt.Errorf("output: encoding %s: %w", k, err)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// writeJSON encodes v without HTML escaping and without the trailing newline
// of json.Encoder.
func writeJSON(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
