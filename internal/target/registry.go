package target

import "sort"

// Registry maps target names to descriptors. It is filled once at startup and
// only read afterwards, so lookups take no lock.
type Registry struct {
	targets map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]*Descriptor)}
}

// ParseAll builds a registry from operator specs. The first bad spec aborts
// the whole set. Duplicate names are reported so the caller can warn; the
// later spec wins.
func ParseAll(specs []string) (reg *Registry, duplicates []string, err error) {
	reg = NewRegistry()
	for _, s := range specs {
		d, err := Parse(s)
		if err != nil {
			return nil, nil, err
		}
		if reg.Add(d) {
			duplicates = append(duplicates, d.Name)
		}
	}
	return reg, duplicates, nil
}

// Add inserts d, replacing any descriptor with the same name. It reports
// whether a previous entry was replaced.
func (r *Registry) Add(d *Descriptor) (replaced bool) {
	_, replaced = r.targets[d.Name]
	r.targets[d.Name] = d
	return replaced
}

// Get is an exact-match lookup.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.targets[name]
	return d, ok
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.targets))
	for _, d := range r.targets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int { return len(r.targets) }

func (r *Registry) IsEmpty() bool { return len(r.targets) == 0 }
