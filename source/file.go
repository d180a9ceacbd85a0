package source

import (
	"context"
	"os"

	"github.com/erraggy/specbuild/oaserrors"
)

// LocalFile is a YAML or JSON document on disk.
type LocalFile struct {
	lazyGetters
	path   string
	kind   Kind
	format format
	loader *Loader
	doc    parsedDocument
}

func newLocalFile(l *Loader, path string, kind Kind, f format) *LocalFile {
	lf := &LocalFile{path: path, kind: kind, format: f, loader: l}
	lf.lazyGetters = lazyGetters{doc: &lf.doc, parse: lf.Parse}
	return lf
}

// SourcePath returns the absolute path of the file.
func (f *LocalFile) SourcePath() string { return f.path }

// Kind reports whether the file was found directly or as a package.
func (f *LocalFile) Kind() Kind { return f.kind }

// IsParsed reports whether the file has been read.
func (f *LocalFile) IsParsed() bool { return f.doc.IsParsed() }

// Parse reads and decodes the file.
func (f *LocalFile) Parse(ctx context.Context) error {
	return f.doc.ensure(ctx, func(ctx context.Context) (map[string]any, []string, error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, nil, &oaserrors.ParseError{Path: f.path, Message: "failed to read file", Cause: err}
		}
		root, err := decode(f.path, data, f.format)
		if err != nil {
			return nil, nil, err
		}
		f.loader.logger.Debug("loaded document", "path", f.path, "kind", string(f.kind))
		return f.loader.canonicalize(root, f.path), definitionOrder(data), nil
	})
}
