package filter

import (
	"strings"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/sahilm/fuzzy"
)

type Hit struct {
	Plugin model.PluginSnapshot
	// Matched holds byte offsets into Key.
	Matched []int
	Key     string
	Score   int
}

type pluginSource []model.PluginSnapshot

func (s pluginSource) String(i int) string { return SearchKey(s[i]) }
func (s pluginSource) Len() int            { return len(s) }

// SearchKey is the text the fuzzy matcher sees for a plugin.
func SearchKey(p model.PluginSnapshot) string {
	return p.Name + " " + p.Group + " " + p.UUID
}

// Search ranks plugins against query, best first. An empty query returns
// every plugin in input order.
func Search(query string, plugins []model.PluginSnapshot) []Hit {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Hit, 0, len(plugins))
		for _, p := range plugins {
			out = append(out, Hit{Plugin: p, Key: SearchKey(p)})
		}
		return out
	}
	matches := fuzzy.FindFrom(query, pluginSource(plugins))
	out := make([]Hit, 0, len(matches))
	for _, m := range matches {
		out = append(out, Hit{
			Plugin:  plugins[m.Index],
			Matched: m.MatchedIndexes,
			Key:     m.Str,
			Score:   m.Score,
		})
	}
	return out
}
