package negotiate

import "github.com/albertocavalcante/go-negotiate/version"

// newestSentinel seeds the newest-source scan. A source must have strict
// precedence over it to win, so a lone 0.0.0 source never does.
var newestSentinel = version.New(0, 0, 0, nil, nil)

// NewestSourceName returns the name of the registered source with the
// highest version precedence. On exact ties the first-registered source
// keeps the lead. It returns false when no source beats 0.0.0.
func (r *Registry) NewestSourceName() (string, bool) {
	var (
		name   string
		found  bool
		newest = newestSentinel
	)
	for _, e := range r.table.snapshot() {
		v := version.Parse(e.source.Version())
		if v.HasPrecedenceOver(newest) {
			name, newest, found = e.name, v, true
		}
	}
	return name, found
}

// Newest returns the newest registered source, or nil.
func (r *Registry) Newest() Source {
	name, ok := r.NewestSourceName()
	if !ok {
		return nil
	}
	src, _ := r.table.get(name)
	return src
}

// Satisfying returns the last-registered source whose version satisfies
// requirement. That is not necessarily the highest matching version. It
// returns a nil Source when nothing matches and an error only when the
// requirement is malformed.
func (r *Registry) Satisfying(requirement string) (Source, error) {
	rng, err := r.parseRequirement(requirement)
	if err != nil {
		return nil, err
	}

	var match Source
	for _, e := range r.table.snapshot() {
		if rng.SatisfiedBy(version.Parse(e.source.Version())) {
			match = e.source
		}
	}
	return match, nil
}

// LocalCompatible prefers a source compatible (^) with the page's own
// "local" source over an unrelated newer one. Without a local source it
// falls back to Newest.
func (r *Registry) LocalCompatible() (Source, error) {
	local, ok := r.table.get(LocalSourceName)
	if !ok {
		return r.Newest(), nil
	}
	return r.Satisfying(string(version.Compatible) + local.Version())
}

// Local prefers a source with exactly the local source's version. Without a
// local source it falls back to Newest.
func (r *Registry) Local() (Source, error) {
	local, ok := r.table.get(LocalSourceName)
	if !ok {
		return r.Newest(), nil
	}
	return r.Satisfying(string(version.Exact) + local.Version())
}

func (r *Registry) parseRequirement(s string) (version.Range, error) {
	if r.cache != nil {
		if rng, ok := r.cache.Get(s); ok {
			return rng, nil
		}
	}

	rng, err := version.ParseRequirement(s)
	if err != nil {
		return version.Range{}, err
	}

	if r.cache != nil {
		r.cache.Set(s, rng)
	}
	return rng, nil
}
