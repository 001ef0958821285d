package core

// This file is the IR Traversal Kit (spec.md §4.1). MT stores every
// immediate subterm it carries — Args, an update list's values, an
// assignment target's key, match-case bodies, and defaulted parameters —
// so MapTerm/FoldTerm/FoldMapTerm can be defined once, generically, over
// "every *MT field a node happens to carry" rather than via a per-tag
// switch. That means growing the MTag catalogue (see DESIGN.md "Open
// Question decisions") can never silently skip a new child position: any
// field typed *MT or []*MT-bearing is automatically visited. Tag-specific
// behaviour belongs to passes, which switch on mt.Tag and return nodes of
// every tag they do not name unchanged (see core/pass_*.go).

// children returns every immediate subterm of mt, in a fixed left-to-right
// order: Args, then update values, then an assignment target's key, then
// match-case bodies, then defaulted parameters.
func children(mt *MT) []*MT {
	if mt == nil {
		return nil
	}
	out := make([]*MT, 0, len(mt.Args)+len(mt.Updates)+len(mt.Cases)+1)
	out = append(out, mt.Args...)
	for _, u := range mt.Updates {
		out = append(out, u.Value)
	}
	if mt.TargetV.Key != nil {
		out = append(out, mt.TargetV.Key)
	}
	for _, c := range mt.Cases {
		out = append(out, c.Body)
	}
	for _, p := range mt.Params {
		if p.Default != nil {
			out = append(out, p.Default)
		}
	}
	return out
}

// withChildren rebuilds mt with its immediate subterms replaced by cs, which
// must have the same length and order as children(mt) returned.
func withChildren(mt *MT, cs []*MT) *MT {
	out := *mt
	i := 0
	if n := len(mt.Args); n > 0 {
		args := make([]*MT, n)
		copy(args, cs[i:i+n])
		out.Args = args
		i += n
	} else {
		out.Args = nil
	}
	if n := len(mt.Updates); n > 0 {
		upd := make([]FieldUpdate, n)
		for j := range mt.Updates {
			upd[j] = mt.Updates[j]
			upd[j].Value = cs[i+j]
		}
		out.Updates = upd
		i += n
	}
	if mt.TargetV.Key != nil {
		out.TargetV.Key = cs[i]
		i++
	}
	if n := len(mt.Cases); n > 0 {
		cases := make([]MatchCase, n)
		for j := range mt.Cases {
			cases[j] = mt.Cases[j]
			cases[j].Body = cs[i+j]
		}
		out.Cases = cases
		i += n
	}
	if n := len(mt.Params); n > 0 {
		params := make([]Param, n)
		copy(params, mt.Params)
		for j := range params {
			if params[j].Default != nil {
				params[j].Default = cs[i]
				i++
			}
		}
		out.Params = params
	}
	return &out
}

// MapTermT applies f to every immediate subterm of mt and rebuilds mt with
// the results, preserving mt's own tag. If ft is non-nil it additionally
// transforms mt's own carried type. f is responsible for recursing further
// if a full top-down or bottom-up walk is wanted — MapTermT itself touches
// only the immediate children, per spec.md §4.1. When ft is nil and f
// returns every child unchanged, mt itself is returned rather than a copy.
func MapTermT(mt *MT, f func(*MT) *MT, ft func(Type) Type) *MT {
	if mt == nil {
		return nil
	}
	cs := children(mt)
	newCs := make([]*MT, len(cs))
	changed := false
	for i, c := range cs {
		newCs[i] = f(c)
		if newCs[i] != c {
			changed = true
		}
	}
	if !changed && ft == nil {
		return mt
	}
	out := withChildren(mt, newCs)
	if ft != nil {
		out.Type = ft(mt.Type)
	}
	return out
}

// MapTerm is MapTermT with no type transformer.
func MapTerm(mt *MT, f func(*MT) *MT) *MT {
	return MapTermT(mt, f, nil)
}

// FoldTerm folds f over mt's immediate subterms, left to right.
func FoldTerm[A any](mt *MT, acc A, f func(A, *MT) A) A {
	for _, c := range children(mt) {
		acc = f(acc, c)
	}
	return acc
}

// FoldMapTerm combines FoldTerm and MapTerm: g is applied left to right to
// each immediate subterm, threading acc, and mt is rebuilt from the mapped
// results once folding completes.
func FoldMapTerm[A any](mt *MT, acc A, g func(A, *MT) (A, *MT)) (A, *MT) {
	cs := children(mt)
	newCs := make([]*MT, len(cs))
	for i, c := range cs {
		var nc *MT
		acc, nc = g(acc, c)
		newCs[i] = nc
	}
	return acc, withChildren(mt, newCs)
}

// MapTermBottomUp rewrites every node of the tree rooted at mt, children
// first, by repeatedly calling MapTerm then applying f to the rebuilt node.
// Whole-model passes use MapMTermModel instead; this helper serves passes
// that rewrite a single term tree (a default, a condition, a body).
func MapTermBottomUp(mt *MT, f func(*MT) *MT) *MT {
	if mt == nil {
		return nil
	}
	rebuilt := MapTerm(mt, func(c *MT) *MT { return MapTermBottomUp(c, f) })
	return f(rebuilt)
}

// FoldTermDeep folds f over every node of the tree rooted at mt (not just
// its immediate children), left to right, depth first.
func FoldTermDeep[A any](mt *MT, acc A, f func(A, *MT) A) A {
	if mt == nil {
		return acc
	}
	acc = f(acc, mt)
	for _, c := range children(mt) {
		acc = FoldTermDeep(c, acc, f)
	}
	return acc
}

// EqualTerm reports deep structural equality of two terms, ignoring source
// location (two terms that differ only by Loc are considered equal — the
// determinism property in spec.md §8 is about observable shape, not about
// where a node happened to be parsed from).
func EqualTerm(a, b *MT) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || !a.Type.Equal(b.Type) {
		return false
	}
	if a.Ident != b.Ident || a.Ident2 != b.Ident2 {
		return false
	}
	if a.Lit != b.Lit {
		return false
	}
	if a.Asset != b.Asset || a.CKind != b.CKind || a.Field != b.Field {
		return false
	}
	if a.Arith != b.Arith || a.Assign != b.Assign {
		return false
	}
	if !equalTargets(a.TargetV, b.TargetV) {
		return false
	}
	if len(a.FieldNames) != len(b.FieldNames) {
		return false
	}
	for i := range a.FieldNames {
		if a.FieldNames[i] != b.FieldNames[i] {
			return false
		}
	}
	ac, bc := children(a), children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !EqualTerm(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func equalTargets(a, b Target) bool {
	if a.Kind != b.Kind || a.Ident != b.Ident || a.Asset != b.Asset ||
		a.Field != b.Field || a.Index != b.Index {
		return false
	}
	return EqualTerm(a.Key, b.Key)
}
