package checker

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/erraggy/specbuild/internal/httputil"
	"github.com/erraggy/specbuild/internal/issues"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
)

// Finding is a single problem reported by a checker.
type Finding = issues.Issue

// Operation identifies the operation a finding relates to.
type Operation = issues.Operation

// Report is the ordered list of findings of one checker run.
type Report []Finding

// String renders one finding per line.
func (r Report) String() string {
	lines := make([]string, len(r))
	for i, f := range r {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n")
}

// Checker is a read-only analysis of a document.
type Checker interface {
	// Name identifies the checker on the command line.
	Name() string
	// Check analyzes doc. It must not modify doc.
	Check(doc map[string]any) Report
}

// All returns every provided checker.
func All() []Checker {
	return []Checker{OperationIDChecker{}, MultiSuccessChecker{}, DictionaryChecker{}}
}

// Names returns the names of the provided checkers.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name()
	}
	return names
}

// ByName returns the provided checkers with the given names, in that order.
func ByName(names ...string) ([]Checker, error) {
	byName := make(map[string]Checker)
	for _, c := range All() {
		byName[c.Name()] = c
	}
	checkers := make([]Checker, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, &oaserrors.ConfigError{
				Option:  "checker",
				Value:   name,
				Message: fmt.Sprintf("unknown checker, expected one of %s", strings.Join(Names(), ", ")),
			}
		}
		checkers = append(checkers, c)
	}
	return checkers, nil
}

// Run applies checkers to every document concurrently and returns the
// non-empty reports by document name. Findings of one document are in
// checker order. Run only fails when ctx is done.
func Run(ctx context.Context, docs map[string]map[string]any, checkers ...Checker) (map[string]Report, error) {
	names := nodewalk.SortedKeys(docs)
	// slots[i][j] is the report of checkers[j] on docs[names[i]]
	slots := make([][]Report, len(names))
	for i := range slots {
		slots[i] = make([]Report, len(checkers))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		for j, c := range checkers {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i][j] = c.Check(docs[name])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}

	reports := make(map[string]Report)
	for i, name := range names {
		var report Report
		for _, r := range slots[i] {
			report = append(report, r...)
		}
		if len(report) > 0 {
			reports[name] = report
		}
	}
	return reports, nil
}

// operationRef is one operation of a document.
type operationRef struct {
	path, method string
	node         map[string]any
}

// operations flattens the paths of doc in path then method order.
func operations(doc map[string]any) []operationRef {
	paths := nodewalk.Map(doc["paths"])
	var ops []operationRef
	for _, url := range nodewalk.SortedKeys(paths) {
		item := nodewalk.Map(paths[url])
		for _, method := range httputil.Methods {
			raw, ok := item[method]
			if !ok {
				continue
			}
			op := nodewalk.Map(raw)
			if op == nil {
				op = map[string]any{}
			}
			ops = append(ops, operationRef{path: url, method: method, node: op})
		}
	}
	return ops
}
