package unit

import (
	"strings"

	"github.com/unitsys/resolver/resolver"
	"github.com/unitsys/resolver/util"
)

// dictionary is the name -> UnitInfo table described in the
// specification: populated once at construction, then read-only.
type dictionary struct {
	entries map[string]UnitInfo
	names   []string
	bases   map[string]bool
	dim     int
	frozen  bool
}

func newDictionary() *dictionary {
	return &dictionary{
		entries: make(map[string]UnitInfo),
		bases:   make(map[string]bool),
	}
}

func stripName(s string) string {
	return strings.Trim(s, " ")
}

func (d *dictionary) lookup(name string) (UnitInfo, bool) {
	v, ok := d.entries[stripName(name)]
	return v, ok
}

func (d *dictionary) has(name string) bool {
	_, ok := d.entries[stripName(name)]
	return ok
}

// insert adds name -> info, recording it for suggestion listing.
// Returns false without modifying the dictionary if name is already
// present.
func (d *dictionary) insert(name string, info UnitInfo) bool {
	name = stripName(name)
	if _, exists := d.entries[name]; exists {
		return false
	}
	d.entries[name] = info
	d.names = append(d.names, name)
	return true
}

// nameSpec is one entry parsed out of a unit's comma-separated name
// list, optionally tagged with the prefix families that apply only to
// that one name.
type nameSpec struct {
	name      string
	families  []string
}

// parseNameList splits a "[family1,family2]name1, name2" style field
// into individual name specs. Commas inside a bracketed family tag do
// not split names; family tags never carry across a top-level comma.
func parseNameList(raw string) []nameSpec {
	var segments []string
	depth := 0
	start := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				segments = append(segments, raw[start:i])
				start = i + 1
			}
		}
	}
	segments = append(segments, raw[start:])

	specs := make([]nameSpec, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if seg[0] == '[' {
			if end := strings.IndexByte(seg, ']'); end >= 0 {
				familyPart := seg[1:end]
				var families []string
				for _, f := range strings.Split(familyPart, ",") {
					f = strings.TrimSpace(f)
					if f != "" {
						families = append(families, f)
					}
				}
				specs = append(specs, nameSpec{name: strings.TrimSpace(seg[end+1:]), families: families})
				continue
			}
		}
		specs = append(specs, nameSpec{name: seg})
	}
	return specs
}

// BuildDictionary constructs the name -> UnitInfo table from a Config,
// following §4.3: base units first, then every configured unit
// expression is resolved against the dictionary under construction,
// then prefix families are expanded for each tagged name. It returns
// the frozen dictionary's resolver (useful for resolving further
// expressions against the exact same dictionary without caching).
func BuildDictionary(cfg *Config) (*resolver.Resolver[UnitInfo], error) {
	d := newDictionary()
	d.dim = len(cfg.BaseUnits)
	alg := &algebra{dict: d}
	r := resolver.New[UnitInfo](alg)

	mustRegister := func(err error) error {
		if err != nil {
			return InvalidConfigError("registering operator: %v", err)
		}
		return nil
	}
	if err := mustRegister(r.AddUnary('+')); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddUnary('-')); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddBinary('^', 4, true)); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddBinary('*', 3, false)); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddBinary('/', 3, false)); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddBinary('+', 2, false)); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddBinary('-', 2, false)); err != nil {
		return nil, err
	}
	if err := mustRegister(r.AddFunction("pow", 2)); err != nil {
		return nil, err
	}

	for i, name := range cfg.BaseUnits {
		n := stripName(name)
		info := UnitInfo{Exponents: baseVector(len(cfg.BaseUnits), i), Factor: 1, Offset: 0}
		if !d.insert(n, info) {
			return nil, InvalidConfigError("duplicate base unit %q", n)
		}
		d.bases[n] = true
	}

	if err := resolveUnitEntries(r, d, cfg); err != nil {
		return nil, err
	}

	d.frozen = true
	return r, nil
}

// resolvedEntry is one configured unit whose expression has resolved,
// waiting on prefix expansion once every bare name in the config is
// installed.
type resolvedEntry struct {
	specs []nameSpec
	base  UnitInfo
}

// resolveUnitEntries resolves every configured unit expression against
// the dictionary under construction. Because Go's map iteration order
// (and a config's own JSON/YAML object key order) is not something a
// caller can rely on, this runs a fixed-point pass: entries that
// forward-reference a name not yet in the dictionary are retried after
// other entries succeed, until a full pass makes no further progress.
//
// Bare names and prefix-generated names are installed in two separate
// phases (see installBareNames / expandPrefixFamilies below) so that a
// bare unit name always wins a collision against a prefix expansion of
// some other unit, regardless of which order the config's entries
// happen to sort or resolve in (spec.md:130's "min" (minute) vs
// "milli-in" example).
func resolveUnitEntries(r *resolver.Resolver[UnitInfo], d *dictionary, cfg *Config) error {
	type pending struct {
		names string
		expr  string
	}
	remaining := make([]pending, 0, len(cfg.Units))
	for k, expr := range util.CanonicalMapIter(cfg.Units) {
		remaining = append(remaining, pending{names: k, expr: expr})
	}

	var resolved []resolvedEntry
	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0:0]
		for _, p := range remaining {
			base, err := r.Resolve(p.expr)
			if err != nil {
				next = append(next, p)
				continue
			}
			specs, err := installBareNames(d, p.names, base)
			if err != nil {
				return err
			}
			resolved = append(resolved, resolvedEntry{specs: specs, base: base})
			progressed = true
		}
		if !progressed {
			return InvalidConfigError("unresolvable unit expression(s): %q (forward reference to an undefined name, or a genuine syntax error)", next[0].names)
		}
		remaining = next
	}

	for _, entry := range resolved {
		if err := expandPrefixFamilies(d, cfg, entry.specs, entry.base); err != nil {
			return err
		}
	}
	return nil
}

// installBareNames inserts every bare name for one configured unit
// entry, returning its parsed name specs (including prefix family
// tags) for expandPrefixFamilies to use once every entry's bare name
// has been installed.
func installBareNames(d *dictionary, rawNames string, base UnitInfo) ([]nameSpec, error) {
	specs := parseNameList(rawNames)
	for _, spec := range specs {
		bareName := stripName(spec.name)
		if bareName == "" {
			continue
		}
		if d.bases[bareName] {
			// do not overwrite a pre-existing base unit.
			continue
		}
		if !d.insert(bareName, base) {
			return nil, InvalidConfigError("duplicate unit name %q", bareName)
		}
	}
	return specs, nil
}

// expandPrefixFamilies runs only after every configured unit's bare
// name has already been installed by installBareNames, so a
// prefix-generated spelling that collides with any bare name -- no
// matter which config entry declared it or what order the config
// resolved in -- always falls back to its bracketed disambiguation
// instead of claiming, or losing out to, the bare binding.
func expandPrefixFamilies(d *dictionary, cfg *Config, specs []nameSpec, base UnitInfo) error {
	for _, spec := range specs {
		bareName := stripName(spec.name)
		if bareName == "" {
			continue
		}
		for _, family := range spec.families {
			prefixes, ok := cfg.Prefixes[family]
			if !ok {
				return InvalidConfigError("unit %q references unknown prefix family %q", bareName, family)
			}
			for prefix, factor := range prefixes {
				prefixedName := prefix + bareName
				scaled := UnitInfo{
					Exponents: cloneExponents(base.Exponents),
					Factor:    base.Factor * factor,
					Offset:    base.Offset,
				}
				if d.insert(prefixedName, scaled) {
					continue
				}
				// collision: fall back to the bracketed disambiguated
				// spelling, preserving the original binding.
				bracketed := "[" + prefix + "]" + bareName
				d.insert(bracketed, scaled)
			}
		}
	}
	return nil
}
