package scraper

import (
	"sort"
	"strings"
)

// Registry maps venue names to their Definitions. Lookups ignore case and diacritics.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry holding defs
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		r.Register(def)
	}
	return r
}

// DefaultRegistry returns the registry of every venue with a dedicated parser
func DefaultRegistry() *Registry {
	return NewRegistry(
		Akropolis,
		RockCafe,
		LucernaMusicBar,
		O2Arena,
		MeetFactory,
		Vagon,
		Reduta,
		WattMusicClub,
		PapirnaPlzen,
		UStarePani,
	)
}

// Register adds or replaces a Definition
func (r *Registry) Register(def Definition) {
	r.defs[registryKey(def.Name)] = def
}

// Lookup finds the Definition for a venue name
func (r *Registry) Lookup(name string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.defs[registryKey(name)]
	return def, ok
}

// Names returns the registered venue names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

func registryKey(name string) string {
	return strings.Join(strings.Fields(Fold(name)), " ")
}
