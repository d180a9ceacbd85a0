package shaker

import (
	"fmt"
	"sort"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
)

// Strategy selects how unreachable definitions are found.
type Strategy string

const (
	// StrategyBottomUp removes unreferenced definitions round after round.
	StrategyBottomUp Strategy = "bottom-up"
	// StrategyTopDown keeps the reachability closure of the paths.
	StrategyTopDown Strategy = "top-down"
)

// Strategies lists the valid strategies.
var Strategies = []Strategy{StrategyBottomUp, StrategyTopDown}

// ParseStrategy returns the strategy named s.
func ParseStrategy(s string) (Strategy, error) {
	for _, strategy := range Strategies {
		if string(strategy) == s {
			return strategy, nil
		}
	}
	return "", &oaserrors.ConfigError{
		Option:  "strategy",
		Value:   s,
		Message: fmt.Sprintf("must be %q or %q", StrategyBottomUp, StrategyTopDown),
	}
}

// Result is the outcome of a shake.
type Result struct {
	// Document is the shaken copy of the input.
	Document map[string]any
	// RemovedDefinitions, RemovedParameters, RemovedResponses and
	// RemovedTags list the removed names in sorted order.
	RemovedDefinitions []string
	RemovedParameters  []string
	RemovedResponses   []string
	RemovedTags        []string
	// Rounds is the number of removal rounds of a bottom-up shake.
	Rounds int
}

// Shake returns a copy of doc without the definitions, tags, parameters and
// responses its paths cannot reach. doc is not modified.
func Shake(doc map[string]any, strategy Strategy) (map[string]any, error) {
	result, err := ShakeWithResult(doc, strategy)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}

// ShakeWithResult is Shake returning what was removed.
func ShakeWithResult(doc map[string]any, strategy Strategy) (*Result, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, fmt.Errorf("shaker: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("shaker: document is nil")
	}

	out := nodewalk.CloneMap(doc)
	result := &Result{Document: out}
	paths := out[refs.Paths]

	result.RemovedTags = removeUnusedTags(out, paths)
	result.RemovedParameters = removeUnreferenced(out, refs.Parameters, paths)
	result.RemovedResponses = removeUnreferenced(out, refs.Responses, paths)

	defs := nodewalk.Map(out[refs.Definitions])
	if defs == nil {
		return result, nil
	}
	seeds := roots(out)

	var removed []string
	if strategy == StrategyBottomUp {
		removed, result.Rounds = bottomUp(defs, seeds)
	}
	removed = append(removed, sweep(defs, reachable(seeds, defs, DiscriminatorLinks(defs)))...)
	sort.Strings(removed)
	result.RemovedDefinitions = removed
	return result, nil
}

// roots returns the definitions referenced from the paths and from the
// parameters and responses that remain.
func roots(doc map[string]any) map[string]bool {
	seeds := make(map[string]bool)
	for _, node := range []any{doc[refs.Paths], doc[refs.Parameters], doc[refs.Responses]} {
		for _, name := range refs.ScanNames(node, refs.Definitions) {
			seeds[name] = true
		}
	}
	return seeds
}

// bottomUp drops, round after round, the definitions referenced neither by
// the seeds nor by a retained definition or discriminator parent. Links are
// recomputed every round so a removed parent no longer holds its children.
func bottomUp(defs map[string]any, seeds map[string]bool) ([]string, int) {
	var removed []string
	for round := 1; ; round++ {
		links := DiscriminatorLinks(defs)
		reached := make(map[string]bool, len(defs))
		for name := range seeds {
			reached[name] = true
		}
		for name, def := range defs {
			for _, target := range refs.ScanNames(def, refs.Definitions) {
				if target != name {
					reached[target] = true
				}
			}
			for _, child := range links[name] {
				reached[child] = true
			}
		}

		dropped := sweep(defs, reached)
		if len(dropped) == 0 {
			return removed, round
		}
		removed = append(removed, dropped...)
	}
}

// reachable returns the closure of seeds over definition references and
// discriminator links.
func reachable(seeds map[string]bool, defs map[string]any, links Links) map[string]bool {
	visited := make(map[string]bool, len(defs))
	queue := make([]string, 0, len(seeds))
	for name := range seeds {
		if _, ok := defs[name]; ok && !visited[name] {
			visited[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		next := append(refs.ScanNames(defs[name], refs.Definitions), links[name]...)
		for _, target := range next {
			if _, ok := defs[target]; ok && !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}
	return visited
}

// sweep deletes the definitions missing from keep and returns their names.
func sweep(defs map[string]any, keep map[string]bool) []string {
	var removed []string
	for _, name := range nodewalk.SortedKeys(defs) {
		if !keep[name] {
			delete(defs, name)
			removed = append(removed, name)
		}
	}
	return removed
}

// removeUnusedTags keeps the tags some operation lists.
func removeUnusedTags(doc map[string]any, paths any) []string {
	tags, ok := doc[refs.Tags].([]any)
	if !ok {
		return nil
	}

	used := make(map[string]bool)
	for _, item := range nodewalk.Map(paths) {
		for _, op := range nodewalk.Map(item) {
			for _, tag := range nodewalk.Slice(nodewalk.Map(op)["tags"]) {
				used[nodewalk.String(tag)] = true
			}
		}
	}

	var kept []any
	var removed []string
	for _, t := range tags {
		name := nodewalk.String(nodewalk.Map(t)["name"])
		if used[name] {
			kept = append(kept, t)
		} else {
			removed = append(removed, name)
		}
	}
	if len(kept) == 0 {
		delete(doc, refs.Tags)
	} else {
		doc[refs.Tags] = kept
	}
	sort.Strings(removed)
	return removed
}

// removeUnreferenced deletes the entries of collection that paths does not
// reference.
func removeUnreferenced(doc map[string]any, collection string, paths any) []string {
	entries := nodewalk.Map(doc[collection])
	if entries == nil {
		return nil
	}
	used := make(map[string]bool)
	for _, name := range refs.ScanNames(paths, collection) {
		used[name] = true
	}
	return sweep(entries, used)
}
