package shaker

import (
	"github.com/erraggy/specbuild/internal/nodewalk"
)

// Links maps a parent definition to the child definitions named by the enum
// of its discriminator property.
type Links map[string][]string

// DiscriminatorLinks derives the discriminator links of defs. Children that
// are not definitions of defs are left out.
func DiscriminatorLinks(defs map[string]any) Links {
	links := make(Links)
	for _, name := range nodewalk.SortedKeys(defs) {
		def := nodewalk.Map(defs[name])
		field := nodewalk.String(def["discriminator"])
		if field == "" {
			continue
		}
		prop := discriminatorField(def, field)
		var children []string
		for _, v := range nodewalk.Slice(prop["enum"]) {
			child := nodewalk.String(v)
			if _, ok := defs[child]; ok && child != name {
				children = append(children, child)
			}
		}
		if len(children) > 0 {
			links[name] = children
		}
	}
	return links
}

// discriminatorField finds the schema of the discriminator property in
// node's properties, or else in the members of its allOf.
func discriminatorField(node map[string]any, field string) map[string]any {
	if prop := nodewalk.Map(nodewalk.Map(node["properties"])[field]); prop != nil {
		return prop
	}
	for _, member := range nodewalk.Slice(node["allOf"]) {
		if m := nodewalk.Map(member); m != nil {
			if prop := discriminatorField(m, field); prop != nil {
				return prop
			}
		}
	}
	return nil
}
