package core

// propertyGroups lists the seven clause lists a FunctionSpec carries, in
// the fixed order RetrieveProperty/RetrieveAllProperties use so lookups
// stay deterministic (spec.md §6).
func propertyGroups(spec *FunctionSpec) [][]Invariant {
	if spec == nil {
		return nil
	}
	return [][]Invariant{
		spec.Predicates,
		spec.Definitions,
		spec.Lemmas,
		spec.Theorems,
		spec.Invariants,
		spec.Postconditions,
		spec.Assertions,
	}
}

// RetrieveProperty returns the named clause from spec (searched across
// predicates, definitions, lemmas, theorems, invariants, postconditions and
// assertions in that order) and whether it was found.
func RetrieveProperty(spec *FunctionSpec, id string) (Invariant, bool) {
	for _, group := range propertyGroups(spec) {
		for _, inv := range group {
			if inv.Ident == id {
				return inv, true
			}
		}
	}
	return Invariant{}, false
}

// RetrieveAllProperties returns every named clause of spec, concatenated in
// the canonical group order RetrieveProperty searches.
func RetrieveAllProperties(spec *FunctionSpec) []Invariant {
	var out []Invariant
	for _, group := range propertyGroups(spec) {
		out = append(out, group...)
	}
	return out
}

// UsesIdent reports whether spec's `uses` clause names ident. A nil spec
// names nothing.
func UsesIdent(spec *FunctionSpec, ident string) bool {
	if spec == nil {
		return false
	}
	for _, u := range spec.Uses {
		if u == ident {
			return true
		}
	}
	return false
}

// PruneInvariants returns invs with every clause whose body mentions an
// identifier in drop removed (a variable or storage name, or a projected
// field name), e.g. to drop specification clauses that can no longer
// type-check once a storage variable or asset field has been eliminated.
func PruneInvariants(invs []Invariant, drop map[string]bool) []Invariant {
	var out []Invariant
	for _, inv := range invs {
		if mentionsAny(inv.Expr, drop) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func mentionsAny(mt *MT, drop map[string]bool) bool {
	if mt == nil || len(drop) == 0 {
		return false
	}
	return FoldTermDeep(mt, false, func(found bool, n *MT) bool {
		if found {
			return true
		}
		switch n.Tag {
		case Mvar, Mstoragevar:
			return drop[n.Ident]
		case MdotAssetField, Mdot:
			return drop[n.Field]
		default:
			return false
		}
	})
}
