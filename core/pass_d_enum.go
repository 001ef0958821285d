package core

// Cohort D eliminates every user enum and the synthetic per-asset state
// enum (spec.md §4.4 cohort D). Every non-state enum, including one whose
// constructors are all argument-less, is encoded as a balanced binary tree
// of `or<>` injections over each constructor's argument tuple (argless
// constructors carry a unit payload); no non-state enum is encoded as a
// plain int. State enums
// are always encoded as plain ints (RemoveEnum000) since Archetype's
// `with states E` constructors never carry arguments.

// enumEncoding captures, per enum, the overall encoded type and, per
// constructor, how to wrap a leaf value/pattern into the full encoding.
type enumEncoding struct {
	typ     Type
	wrap    map[string]func(*MT) *MT
	pattern map[string]func(Pattern) Pattern
}

func leafTypeOf(args []Type) Type {
	switch len(args) {
	case 0:
		return TUnit()
	case 1:
		return args[0]
	default:
		return TTuple(args...)
	}
}

func buildEnumEncoding(values []EnumValue) enumEncoding {
	leaves := make([]Type, len(values))
	for i, v := range values {
		leaves[i] = leafTypeOf(v.Args)
	}
	typ, wraps, pats := buildOrTree(leaves)
	enc := enumEncoding{typ: typ, wrap: map[string]func(*MT) *MT{}, pattern: map[string]func(Pattern) Pattern{}}
	for i, v := range values {
		enc.wrap[v.Ident] = wraps[i]
		enc.pattern[v.Ident] = pats[i]
	}
	return enc
}

func buildOrTree(leaves []Type) (Type, []func(*MT) *MT, []func(Pattern) Pattern) {
	if len(leaves) == 1 {
		return leaves[0],
			[]func(*MT) *MT{func(v *MT) *MT { return v }},
			[]func(Pattern) Pattern{func(p Pattern) Pattern { return p }}
	}
	mid := len(leaves) / 2
	leftType, leftWraps, leftPats := buildOrTree(leaves[:mid])
	rightType, rightWraps, rightPats := buildOrTree(leaves[mid:])
	orType := TOr(leftType, rightType)

	var wraps []func(*MT) *MT
	for _, w := range leftWraps {
		w := w
		wraps = append(wraps, func(v *MT) *MT {
			return &MT{Tag: MorInjLeft, Type: orType, Loc: v.Loc, Args: []*MT{w(v)}}
		})
	}
	for _, w := range rightWraps {
		w := w
		wraps = append(wraps, func(v *MT) *MT {
			return &MT{Tag: MorInjRight, Type: orType, Loc: v.Loc, Args: []*MT{w(v)}}
		})
	}

	var pats []func(Pattern) Pattern
	for _, p := range leftPats {
		p := p
		pats = append(pats, func(leaf Pattern) Pattern { return Pattern{Kind: PatOrLeft, Sub: []Pattern{p(leaf)}} })
	}
	for _, p := range rightPats {
		p := p
		pats = append(pats, func(leaf Pattern) Pattern { return Pattern{Kind: PatOrRight, Sub: []Pattern{p(leaf)}} })
	}
	return orType, wraps, pats
}

func buildLeafTerm(args []*MT, loc Loc) *MT {
	switch len(args) {
	case 0:
		return Skip(loc)
	case 1:
		return args[0]
	default:
		types := make([]Type, len(args))
		for i, a := range args {
			types[i] = a.Type
		}
		return &MT{Tag: Mlittuple, Type: TTuple(types...), Loc: loc, Args: args}
	}
}

func buildLeafPattern(sub []Pattern) Pattern {
	switch len(sub) {
	case 0:
		return Pattern{Kind: PatWildcard}
	case 1:
		return sub[0]
	default:
		return Pattern{Kind: PatTuple, Sub: sub}
	}
}

// RemoveEnum lowers every ordinary (non-state) enum to its encoding,
// rewriting Menumval constructions and Mmatch arms that pattern-match a
// PatEnumCtor of that enum, then drops the enum declaration. Asset state
// enums are left untouched for ProcessAssetState/RemoveEnum000.
func RemoveEnum(m *Model) *Model {
	stateEnums := map[string]bool{}
	for _, a := range m.Decls.Assets {
		if a.StateEnum != "" {
			stateEnums[a.StateEnum] = true
		}
	}

	encodings := map[string]enumEncoding{}
	ctorEnum := map[string]string{}
	for _, e := range m.Decls.Enums {
		if stateEnums[e.Ident] {
			continue
		}
		encodings[e.Ident] = buildEnumEncoding(e.Values)
		for _, v := range e.Values {
			ctorEnum[v.Ident] = e.Ident
		}
	}

	retype := func(t Type) Type {
		if t.Tag == Tenum {
			if enc, ok := encodings[t.Name]; ok {
				return enc.typ
			}
		}
		return t
	}
	out := MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Menumval:
			enumName, ok := ctorEnum[mt.Ident]
			if !ok {
				return mt
			}
			return encodings[enumName].wrap[mt.Ident](buildLeafTerm(mt.Args, mt.Loc))
		case Mmatch:
			// rewriteEnumMatch builds fresh nodes the bottom-up sweep will not
			// revisit, so the retype walks the whole replacement.
			return MapTermBottomUp(rewriteEnumMatch(mt, ctorEnum, encodings), func(n *MT) *MT { return retypeTerm(n, retype) })
		default:
			return retypeTerm(mt, retype)
		}
	})

	out = out.Clone()
	retypeAssetFields(out, retype)
	var kept []*EnumDecl
	for _, e := range out.Decls.Enums {
		if stateEnums[e.Ident] {
			kept = append(kept, e)
		}
	}
	out.Decls.Enums = kept
	return out
}

// retypeTerm returns mt with its carried type passed through f, copying
// only when the type actually changes.
func retypeTerm(mt *MT, f func(Type) Type) *MT {
	nt := f(mt.Type)
	if nt.Equal(mt.Type) {
		return mt
	}
	out := *mt
	out.Type = nt
	return &out
}

// retypeAssetFields rewrites every asset field's current type in place on
// an already-cloned model, so an erased enum's encoding propagates into
// the record shapes cohort E later derives storage from.
func retypeAssetFields(out *Model, f func(Type) Type) {
	for i, a := range out.Decls.Assets {
		na := *a
		na.Fields = make([]AssetField, len(a.Fields))
		for j, fld := range a.Fields {
			nf := fld
			nf.CurrentType = f(fld.CurrentType)
			na.Fields[j] = nf
		}
		out.Decls.Assets[i] = &na
	}
}

func rewriteEnumMatch(mt *MT, ctorEnum map[string]string, encodings map[string]enumEncoding) *MT {
	enumName := ""
	for _, c := range mt.Cases {
		if c.Pattern.Kind == PatEnumCtor {
			if e, ok := ctorEnum[c.Pattern.Ident]; ok {
				enumName = e
				break
			}
		}
	}
	if enumName == "" {
		return mt
	}
	enc := encodings[enumName]
	newCases := make([]MatchCase, len(mt.Cases))
	for i, c := range mt.Cases {
		if c.Pattern.Kind != PatEnumCtor {
			newCases[i] = c
			continue
		}
		leaf := buildLeafPattern(c.Pattern.Sub)
		newCases[i] = MatchCase{Pattern: enc.pattern[c.Pattern.Ident](leaf), Body: c.Body}
	}
	out := *mt
	out.Cases = newCases
	return &out
}

// ProcessAssetState materialises a synthetic `state_A` field of type
// `enum E` on every asset declaring `with states E`, initialised to E's
// first (initial) constructor; every Massetstate read becomes a dot
// projection of that field, and every assignment targeting TKassetState
// becomes an update of it.
func ProcessAssetState(m *Model) *Model {
	out := m.Clone()
	stateField := map[string]string{}
	out.Decls.Assets = make([]*AssetDecl, len(m.Decls.Assets))
	for i, a := range m.Decls.Assets {
		na := *a
		if a.StateEnum != "" {
			e := m.FindEnum(a.StateEnum)
			initCtor := e.Values[0]
			fieldName := "state_" + a.Ident
			initDefault := &MT{Tag: Menumval, Type: TEnum(a.StateEnum), Loc: a.Loc, Asset: a.StateEnum, Ident: initCtor.Ident}
			na.Fields = append(append([]AssetField{}, a.Fields...), AssetField{
				Ident: fieldName, OriginalType: TEnum(a.StateEnum), CurrentType: TEnum(a.StateEnum),
				Default: initDefault, Loc: a.Loc,
			})
			stateField[a.Ident] = fieldName
		}
		out.Decls.Assets[i] = &na
	}
	return MapMTermModel(out, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Massetstate:
			return &MT{Tag: MdotAssetField, Type: mt.Type, Loc: mt.Loc, Asset: mt.Asset, Field: stateField[mt.Asset], Args: mt.Args}
		case Massign:
			if mt.TargetV.Kind != TKassetState {
				return mt
			}
			f := stateField[mt.TargetV.Asset]
			return &MT{
				Tag: MassetUpdate, Type: TUnit(), Loc: mt.Loc,
				Asset: mt.TargetV.Asset, CKind: CKcoll, Args: []*MT{mt.TargetV.Key},
				Updates: []FieldUpdate{{Field: f, Op: AssignSet, Value: mt.Args[0]}},
			}
		default:
			return mt
		}
	})
}

// RemoveEnum000 lowers each asset's state pseudo-enum (the values
// ProcessAssetState stores in the asset's `state_*` field) to plain int
// constants (constructor index in declaration order) and drops its
// declaration.
func RemoveEnum000(m *Model) *Model {
	stateEnums := map[string]bool{}
	for _, a := range m.Decls.Assets {
		if a.StateEnum != "" {
			stateEnums[a.StateEnum] = true
		}
	}
	index := map[string]int{}
	ctorEnum := map[string]string{}
	for _, e := range m.Decls.Enums {
		if !stateEnums[e.Ident] {
			continue
		}
		for i, v := range e.Values {
			if len(v.Args) != 0 {
				panic("core: state enum " + e.Ident + " constructor " + v.Ident + " carries arguments")
			}
			index[v.Ident] = i
			ctorEnum[v.Ident] = e.Ident
		}
	}

	retype := func(t Type) Type {
		if t.Tag == Tenum && stateEnums[t.Name] {
			return TInt()
		}
		return t
	}
	out := MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Menumval:
			if _, ok := ctorEnum[mt.Ident]; !ok {
				return mt
			}
			return litInt(int64(index[mt.Ident]), TInt(), mt.Loc)
		case Mmatch:
			return MapTermBottomUp(rewriteStateMatch(mt, ctorEnum, index), func(n *MT) *MT { return retypeTerm(n, retype) })
		default:
			return retypeTerm(mt, retype)
		}
	})

	out = out.Clone()
	retypeAssetFields(out, retype)
	var kept []*EnumDecl
	for _, e := range out.Decls.Enums {
		if !stateEnums[e.Ident] {
			kept = append(kept, e)
		}
	}
	out.Decls.Enums = kept
	return out
}

func rewriteStateMatch(mt *MT, ctorEnum map[string]string, index map[string]int) *MT {
	isState := false
	for _, c := range mt.Cases {
		if c.Pattern.Kind == PatEnumCtor {
			if _, ok := ctorEnum[c.Pattern.Ident]; ok {
				isState = true
				break
			}
		}
	}
	if !isState {
		return mt
	}
	scrutinee := mt.Args[0]
	var build func(i int) *MT
	build = func(i int) *MT {
		if i >= len(mt.Cases) {
			return &MT{Tag: Mfail, Type: mt.Type, Loc: mt.Loc, Args: []*MT{
				{Tag: Mlitstring, Type: TString(), Loc: mt.Loc, Lit: Literal{Kind: LKstring, Str: "InvalidState"}},
			}}
		}
		c := mt.Cases[i]
		if c.Pattern.Kind == PatWildcard || c.Pattern.Kind == PatVar {
			return c.Body
		}
		cond := &MT{Tag: Meq, Type: TBool(), Loc: mt.Loc, Args: []*MT{scrutinee, litInt(int64(index[c.Pattern.Ident]), TInt(), mt.Loc)}}
		return &MT{Tag: Mif, Type: mt.Type, Loc: mt.Loc, Args: []*MT{cond, c.Body, build(i + 1)}}
	}
	return build(0)
}
