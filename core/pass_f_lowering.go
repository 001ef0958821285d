package core

// Cohort F lowers every remaining high-level expression shape — rational
// arithmetic, date/duration, multi-key assets, implicit-order iteration,
// the iterable big_map encoding, and various two-instruction-form
// sugars — to the primitive vocabulary cohort E already reduced asset
// access to (spec.md §4.4 cohort F).

// ratPairType is the `(num:int, den:nat)` encoding every surviving
// `rational` value is flattened to by RemoveRational.
func ratPairType() Type { return TTuple(TInt(), TNat()) }

func ratPairOf(num, den int64, loc Loc) *MT {
	return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: loc, Args: []*MT{
		litInt(num, TInt(), loc), litInt(den, TNat(), loc),
	}}
}

// MtupleAccess carries its slot index in Lit.Num (Args[0] is the tuple
// being projected) — this pass is the first to construct the node, so it
// establishes that convention for the rest of the pipeline.
func ratNum(v *MT) *MT {
	return &MT{Tag: MtupleAccess, Type: TInt(), Loc: v.Loc, Args: []*MT{v}, Lit: Literal{Num: 0}}
}

func ratDen(v *MT) *MT {
	return &MT{Tag: MtupleAccess, Type: TNat(), Loc: v.Loc, Args: []*MT{v}, Lit: Literal{Num: 1}}
}

// crossMul builds `a.num*b.den OP b.num*a.den`-style primitive expressions
// for the four rational arithmetic operators, and `a.num*b.den CMP
// b.num*a.den` for comparisons — the standard cross-multiplication
// encoding for exact rationals kept as (int, nat) pairs (see
// core/util_rational.go for the constant-folding sibling of this logic).
func crossMul(tag MTag, a, b *MT, loc Loc) *MT {
	an, ad, bn, bd := ratNum(a), ratDen(a), ratNum(b), ratDen(b)
	mul := func(x, y *MT) *MT { return &MT{Tag: Mmul, Type: TInt(), Loc: loc, Args: []*MT{x, y}} }
	switch tag {
	case Madd, Msub:
		newNum := &MT{Tag: tag, Type: TInt(), Loc: loc, Args: []*MT{mul(an, bd), mul(bn, ad)}}
		newDen := mul(ad, bd)
		return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: loc, Args: []*MT{newNum, &MT{Tag: MintToNat, Type: TNat(), Loc: loc, Args: []*MT{newDen}}}}
	case Mmul:
		return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: loc, Args: []*MT{mul(an, bn), &MT{Tag: MintToNat, Type: TNat(), Loc: loc, Args: []*MT{mul(ad, bd)}}}}
	case Mdiv:
		return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: loc, Args: []*MT{mul(an, bd), &MT{Tag: MintToNat, Type: TNat(), Loc: loc, Args: []*MT{mul(ad, bn)}}}}
	default: // comparisons: a.num*b.den CMP b.num*a.den
		return &MT{Tag: tag, Type: TBool(), Loc: loc, Args: []*MT{mul(an, bd), mul(bn, ad)}}
	}
}

// RemoveRational flattens every rational literal and operator to the
// `(int, nat)` pair encoding. A literal MratCtorLit becomes a reduced
// pair immediately (sharing RatSimplify with the constant-folding
// helpers); an MratCtorDiv becomes the unreduced pair
// (numerator, int_to_nat(denominator)); Mratarith/Mrateq/Mratcmp on non-literal operands become the
// cross-multiplied primitive form; Mratuminus negates the numerator;
// Mrattez/Mratdur scale a currency/duration operand by a rational pair.
func RemoveRational(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case MratCtorLit:
			n, d := RatSimplify(mt.Lit.Num, mt.Lit.Den)
			return ratPairOf(n, d, mt.Loc)
		case MratCtorDiv:
			return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: mt.Loc, Args: []*MT{
				mt.Args[0], &MT{Tag: MintToNat, Type: TNat(), Loc: mt.Loc, Args: []*MT{mt.Args[1]}},
			}}
		case Mratarith:
			tag := map[ArithOp]MTag{OpPlus: Madd, OpMinus: Msub, OpMult: Mmul, OpDiv: Mdiv}[mt.Arith]
			return crossMul(tag, mt.Args[0], mt.Args[1], mt.Loc)
		case Mrateq:
			return crossMul(Meq, mt.Args[0], mt.Args[1], mt.Loc)
		case Mratcmp:
			return crossMul(Mcmp, mt.Args[0], mt.Args[1], mt.Loc)
		case Mratuminus:
			v := mt.Args[0]
			return &MT{Tag: Mlittuple, Type: ratPairType(), Loc: mt.Loc, Args: []*MT{
				{Tag: Muminus, Type: TInt(), Loc: mt.Loc, Args: []*MT{ratNum(v)}}, ratDen(v),
			}}
		case Mrattez, Mratdur:
			scaled := &MT{Tag: Mmul, Type: TInt(), Loc: mt.Loc, Args: []*MT{mt.Args[0], ratNum(mt.Args[1])}}
			return &MT{Tag: Mdiv, Type: mt.Type, Loc: mt.Loc, Args: []*MT{scaled, ratDen(mt.Args[1])}}
		default:
			return mt
		}
	})
}

// UpdateNatIntRat constant-folds every arithmetic/comparison node whose
// operands are now literal ints/nats, cleaning up the Madd/Msub/... chains
// RemoveRational and ReplaceDateDurationByTimestamp introduce. Run once
// after each of those two passes (spec.md §4.4 cohort F).
func UpdateNatIntRat(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT { return Eval(mt) })
}

// ReplaceDateDurationByTimestamp maps every `date` to `timestamp` and
// `duration` to `int` (seconds), translating literal values to their
// Unix-epoch form; `now` is left untouched since it is already symbolic.
func ReplaceDateDurationByTimestamp(m *Model) *Model {
	retype := func(t Type) Type {
		switch t.Tag {
		case Tdate:
			return TTimestamp()
		case Tduration:
			return TInt()
		default:
			return t
		}
	}
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		out := *mt
		out.Type = retype(mt.Type)
		switch mt.Tag {
		case Mlitdate:
			out.Tag = Mlittimestamp
		case Mlitduration:
			out.Tag = Mlitint
		case MintToDate:
			out.Tag = Mcast
		}
		return &out
	})
}

// AbsTez wraps an `int` factor of a currency multiplication with `abs`,
// since the IR's VM requires a `nat` multiplicand for `currency * int`.
func AbsTez(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mmul || len(mt.Args) != 2 {
			return mt
		}
		a, b := mt.Args[0], mt.Args[1]
		wrap := func(x *MT) *MT { return &MT{Tag: Mabs, Type: TNat(), Loc: x.Loc, Args: []*MT{x}} }
		switch {
		case a.Type.Tag == Tcurrency && b.Type.Tag == Tint:
			out := *mt
			out.Args = []*MT{a, wrap(b)}
			return &out
		case b.Type.Tag == Tcurrency && a.Type.Tag == Tint:
			out := *mt
			out.Args = []*MT{wrap(a), b}
			return &out
		default:
			return mt
		}
	})
}

// ProcessInternalString rewrites `string + string` (Madd on two
// Tstring-typed operands) to `concat`.
func ProcessInternalString(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Madd || len(mt.Args) != 2 || mt.Args[0].Type.Tag != Tstring {
			return mt
		}
		return &MT{Tag: Mconcat, Type: TString(), Loc: mt.Loc, Args: mt.Args}
	})
}

// ProcessMultiKeys is the ≥2-key flattening seam, kept as a named
// pass-through the same way ExprToInstr is: by the time cohort F runs
// there is no term-level work left for it to do. GetAssetKey synthesizes
// the flattened tuple key every storage-shape consumer reads, and
// ReplaceDotassetfieldByDot (cohort C) already projects a member-key read
// off the key expression as a tuple access — it is the one pass with the
// declared keys, the accessed field and the key expression together on
// one node, so the rewrite cannot wait until here (see DESIGN.md).
func ProcessMultiKeys(m *Model) *Model { return m }

// AddContainOnGet guards every get(A, k) with
// `if !contains(A, k) then fail(AssetNotFound) else get(A, k)`. No
// containment facts are tracked: a get inside the true branch of an
// `if contains(A, k)` is guarded as well, and no later pass removes such
// a redundant guard.
func AddContainOnGet(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != McollGet {
			return mt
		}
		coll, key := mt.Args[0], mt.Args[1]
		cond := &MT{Tag: Mnot, Type: TBool(), Loc: mt.Loc, Args: []*MT{
			{Tag: McollContains, Type: TBool(), Loc: mt.Loc, Args: []*MT{coll, key}},
		}}
		return &MT{Tag: Mif, Type: mt.Type, Loc: mt.Loc, Args: []*MT{
			cond, failWith(AssetNotFoundKind, mt.Loc, mt.Type, ""), mt,
		}}
	})
}

// AddExplicitSort inserts an explicit ascending sort (by the asset's first
// declared sort field, or by key when it declares none) before any
// nth/head/tail applied to an asset view whose order is otherwise
// implicit, so traversal order is deterministic across back-ends. The
// inserted sort is emitted directly in its lowered fold form: RemoveAsset
// has already run, so a fresh MassetSort node would never be lowered.
func AddExplicitSort(m *Model) *Model {
	infos := buildAssetLowerings(m)
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if (mt.Tag != McollNth && mt.Tag != Mslice) || mt.Asset == "" || mt.CKind != CKview {
			return mt
		}
		if _, ok := infos[mt.Asset]; !ok {
			return mt
		}
		sortNode := &MT{Tag: MassetSort, Type: mt.Args[0].Type, Loc: mt.Loc, Asset: mt.Asset, CKind: CKview, Args: []*MT{mt.Args[0]}}
		out := *mt
		out.Args = append([]*MT{lowerAssetSort(m, infos, sortNode)}, mt.Args[1:]...)
		return &out
	})
}

// SplitKeyValues replaces every remaining Mlitasset with a (key,
// record_value) pair, the shape storage maps are keyed on after
// RemoveAsset chose a map_kind<K,V> backing.
func SplitKeyValues(m *Model) *Model {
	infos := buildAssetLowerings(m)
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mlitasset {
			return mt
		}
		lw, ok := infos[mt.Asset]
		if !ok || lw.singleField {
			return mt
		}
		key, val := ExtractKeyValueFromMasset(lw.decl, mt)
		return &MT{Tag: Mlittuple, Type: TTuple(lw.key.Type, lw.valueType), Loc: mt.Loc, Args: []*MT{key, val}}
	})
}

// ChangeTypeOfNth rewrites `nth` results consumed as a full record: since
// `nth` on a view now returns a key (see SplitKeyValues/AddExplicitSort),
// a follow-up Mdot projection on its result is routed through an inserted
// `get` to retrieve the full record first.
func ChangeTypeOfNth(m *Model) *Model {
	infos := buildAssetLowerings(m)
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mdot || len(mt.Args) != 1 || mt.Args[0].Tag != McollNth {
			return mt
		}
		nth := mt.Args[0]
		lw, ok := infos[nth.Asset]
		if !ok || lw.singleField {
			return mt
		}
		got := &MT{Tag: McollGet, Type: lw.valueType, Loc: nth.Loc, Args: []*MT{
			storageVarFor(nth.Asset, lw, nth.Loc), nth,
		}}
		out := *mt
		out.Args = []*MT{got}
		return &out
	})
}

// ReplaceForToIter turns every `for x in coll do body` into an index-based
// `iter i from 0 to count(coll)-1 do let x = nth(coll, i) in body`, so a
// single Miter shape covers every bounded loop regardless of source
// collection kind.
func ReplaceForToIter(m *Model) *Model {
	counter := 0
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mfor {
			return mt
		}
		counter++
		coll, body := mt.Args[0], mt.Args[1]
		idxVar := "_i$iter" + itoa(int64(counter))
		count := &MT{Tag: McollLength, Type: TNat(), Loc: mt.Loc, Args: []*MT{coll}}
		upper := &MT{Tag: Msub, Type: TNat(), Loc: mt.Loc, Args: []*MT{count, litInt(1, TNat(), mt.Loc)}}
		nth := &MT{Tag: McollNth, Type: mt.Type, Loc: mt.Loc, Args: []*MT{coll, {Tag: Mvar, Type: TNat(), Loc: mt.Loc, Ident: idxVar}}}
		letBody := &MT{Tag: Mlet, Type: TUnit(), Loc: mt.Loc, Ident: mt.Ident, Args: []*MT{nth, body}}
		return &MT{
			Tag: Miter, Type: TUnit(), Loc: mt.Loc, Ident: idxVar, Ident2: mt.Ident2,
			Args: []*MT{litInt(0, TNat(), mt.Loc), upper, letBody},
		}
	})
}

// RemoveIterableBigMap replaces every iterable_big_map<K,V> storage item
// with the triple
// (big_map<K,(nat,V)>, big_map<nat,K>, nat) maintaining insertion order, a
// reverse index, and a running size counter (spec.md §4.4 cohort F).
func RemoveIterableBigMap(m *Model) *Model {
	out := m.Clone()
	renamed := map[string]bool{}
	out.Storage = nil
	for _, s := range m.Storage {
		if s.ModelKind != StorageAsset || s.Type.Tag != TiterableBigMap {
			out.Storage = append(out.Storage, s)
			continue
		}
		k, v := s.Type.Args[0], s.Type.Args[1]
		renamed[s.Ident] = true
		out.Storage = append(out.Storage,
			StorageItem{Ident: s.Ident, ModelKind: StorageAsset, AssetName: s.AssetName, Type: TBigMap(k, TTuple(TNat(), v)), Loc: s.Loc},
			StorageItem{Ident: s.Ident + "_index", ModelKind: StorageVar, Type: TBigMap(TNat(), k), Loc: s.Loc},
			StorageItem{Ident: s.Ident + "_size", ModelKind: StorageVar, Type: TNat(), Loc: s.Loc},
		)
	}
	return out
}

// RemoveUpdateAll rewrites `update_all(A, coll, l)` as
// `for k in coll do update(A, k, l)`.
func RemoveUpdateAll(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetUpdateAll {
			return mt
		}
		coll := mt.Args[0]
		loopVar := "_k$update_all"
		body := &MT{
			Tag: MassetUpdate, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: CKcoll,
			Args: []*MT{{Tag: Mvar, Type: coll.Type, Loc: mt.Loc, Ident: loopVar}}, Updates: mt.Updates,
		}
		return &MT{Tag: Mfor, Type: TUnit(), Loc: mt.Loc, Ident: loopVar, Args: []*MT{coll, body}}
	})
}

// RemoveDeclVarOpt rewrites `declvar_opt id ?= e : fallback` (Massignopt)
// to `let id = match e with Some v -> v | None -> fallback in rest`.
func RemoveDeclVarOpt(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Massignopt {
			return mt
		}
		e, fallback, rest := mt.Args[0], mt.Args[1], mt.Args[2]
		bound := e.Type
		if bound.Tag == Toption {
			bound = bound.Args[0]
		}
		match := &MT{Tag: Mmatch, Type: bound, Loc: mt.Loc, Args: []*MT{e}, Cases: []MatchCase{
			{Pattern: Pattern{Kind: PatVar, Ident: "v"}, Body: &MT{Tag: Mvar, Type: bound, Loc: mt.Loc, Ident: "v"}},
			{Pattern: Pattern{Kind: PatWildcard}, Body: fallback},
		}}
		return &MT{Tag: Mlet, Type: rest.Type, Loc: mt.Loc, Ident: mt.Ident, Args: []*MT{match, rest}}
	})
}

// ProcessArithContainer rewrites `set + list`, `map + list-of-pairs` (and
// their `-` analogs) to explicit folds adding/removing each element.
func ProcessArithContainer(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if (mt.Tag != Madd && mt.Tag != Msub) || len(mt.Args) != 2 {
			return mt
		}
		coll, rhs := mt.Args[0], mt.Args[1]
		if coll.Type.Tag != Tset && coll.Type.Tag != Tmap && coll.Type.Tag != TbigMap {
			return mt
		}
		tag := McollAdd
		if mt.Tag == Msub {
			tag = McollRemove
		}
		loopVar := "_e$arith"
		elem := &MT{Tag: Mvar, Type: rhs.Type.Args[0], Loc: mt.Loc, Ident: loopVar}
		var step *MT
		if coll.Type.Tag == Tset {
			step = &MT{Tag: tag, Type: coll.Type, Loc: mt.Loc, Args: []*MT{coll, elem}}
		} else {
			k := &MT{Tag: MtupleAccess, Type: coll.Type.Args[0], Loc: mt.Loc, Args: []*MT{elem}, Lit: Literal{Num: 0}}
			if tag == McollAdd {
				v := &MT{Tag: MtupleAccess, Type: coll.Type.Args[1], Loc: mt.Loc, Args: []*MT{elem}, Lit: Literal{Num: 1}}
				step = &MT{Tag: McollPut, Type: coll.Type, Loc: mt.Loc, Args: []*MT{coll, k, v}}
			} else {
				step = &MT{Tag: McollRemove, Type: coll.Type, Loc: mt.Loc, Args: []*MT{coll, k}}
			}
		}
		return &MT{Tag: McollFold, Type: coll.Type, Loc: mt.Loc, Args: []*MT{rhs, step}}
	})
}

// LazyEvalCondition rewrites `a and b` as `if a then b else false` and
// `a or b` as `if a then true else b`, matching a VM with eager-only
// boolean primitives but short-circuit source semantics.
func LazyEvalCondition(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Mand:
			return &MT{Tag: Mif, Type: TBool(), Loc: mt.Loc, Args: []*MT{mt.Args[0], mt.Args[1], litBool(false, mt.Loc)}}
		case Mor:
			return &MT{Tag: Mif, Type: TBool(), Loc: mt.Loc, Args: []*MT{mt.Args[0], litBool(true, mt.Loc), mt.Args[1]}}
		default:
			return mt
		}
	})
}

// RemoveTernaryOperator rewrites `c ? a : b` as `if c then a else b`; the
// Mternary/MoptionMatch distinction collapses the same way, since an
// option-ternary is already expressed as an MoptionMatch over the same
// three-argument shape.
func RemoveTernaryOperator(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mternary && mt.Tag != MoptionMatch {
			return mt
		}
		return &MT{Tag: Mif, Type: mt.Type, Loc: mt.Loc, Args: mt.Args}
	})
}

// RemoveHighLevelModel lowers the last few convenience forms: list_concat
// to a fold-prepend over the reversed operand, bounded-range `iter i from
// a to b` to a `while`, map_get to a guarded map_get_opt, and fail_some to
// a match over its option argument.
func RemoveHighLevelModel(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Mconcat:
			if mt.Type.Tag != Tlist {
				return mt
			}
			rev := &MT{Tag: McollFold, Type: mt.Type, Loc: mt.Loc, Args: []*MT{mt.Args[0]}}
			return &MT{Tag: McollFold, Type: mt.Type, Loc: mt.Loc, Args: []*MT{rev, mt.Args[1]}}
		case Miter:
			lo, hi, body := mt.Args[0], mt.Args[1], mt.Args[2]
			cond := &MT{Tag: Mle, Type: TBool(), Loc: mt.Loc, Args: []*MT{
				{Tag: Mvar, Type: lo.Type, Loc: mt.Loc, Ident: mt.Ident}, hi,
			}}
			step := &MT{Tag: Massign, Type: TUnit(), Loc: mt.Loc, TargetV: Target{Kind: TKvar, Ident: mt.Ident}, Args: []*MT{
				{Tag: Madd, Type: lo.Type, Loc: mt.Loc, Args: []*MT{{Tag: Mvar, Type: lo.Type, Loc: mt.Loc, Ident: mt.Ident}, litInt(1, lo.Type, mt.Loc)}},
			}}
			loopBody := seqOf(mt.Loc, body, step)
			whileLoop := &MT{Tag: Mwhile, Type: TUnit(), Loc: mt.Loc, Ident2: mt.Ident2, Args: []*MT{cond, loopBody}}
			return &MT{Tag: Mlet, Type: TUnit(), Loc: mt.Loc, Ident: mt.Ident, Args: []*MT{lo, whileLoop}}
		case McollGet:
			opt := &MT{Tag: McollGetOpt, Type: TOption(mt.Type), Loc: mt.Loc, Args: mt.Args}
			return &MT{Tag: Mmatch, Type: mt.Type, Loc: mt.Loc, Args: []*MT{opt}, Cases: []MatchCase{
				{Pattern: Pattern{Kind: PatVar, Ident: "v"}, Body: &MT{Tag: Mvar, Type: mt.Type, Loc: mt.Loc, Ident: "v"}},
				{Pattern: Pattern{Kind: PatWildcard}, Body: failWith(AssetNotFoundKind, mt.Loc, mt.Type, "")},
			}}
		case MfailSome:
			e := mt.Args[0]
			bound := e.Type
			if bound.Tag == Toption {
				bound = bound.Args[0]
			}
			return &MT{Tag: Mmatch, Type: TUnit(), Loc: mt.Loc, Args: []*MT{e}, Cases: []MatchCase{
				{Pattern: Pattern{Kind: PatVar, Ident: "v"}, Body: &MT{Tag: Mfail, Type: TUnit(), Loc: mt.Loc, Args: []*MT{{Tag: Mvar, Type: bound, Loc: mt.Loc, Ident: "v"}}}},
				{Pattern: Pattern{Kind: PatWildcard}, Body: Skip(mt.Loc)},
			}}
		default:
			return mt
		}
	})
}

// instrForms maps a functional container op to its in-place instruction
// counterpart, used when an assignment target and the op's container
// operand are the same variable.
var instrForms = map[MTag]MTag{
	McollAdd: MsetInstrAdd, McollRemove: MsetInstrRemove, McollPut: MmapInstrPut,
}

// InstrToExprExec converts `x := op(x, args...)` into the dedicated
// in-place instruction form when the op's first operand is the same
// storage/local variable the result is assigned back into.
func InstrToExprExec(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Massign || len(mt.Args) != 1 {
			return mt
		}
		rhs := mt.Args[0]
		instrTag, ok := instrForms[rhs.Tag]
		if !ok || len(rhs.Args) == 0 {
			return mt
		}
		ref := rhs.Args[0]
		if ref.Tag != Mvar && ref.Tag != Mstoragevar {
			return mt
		}
		if (mt.TargetV.Kind == TKvar || mt.TargetV.Kind == TKstorageVar) && mt.TargetV.Ident == ref.Ident {
			out := *mt
			out.Tag = instrTag
			out.Args = rhs.Args[1:]
			return &out
		}
		return mt
	})
}

// ExprToInstr is the named slot for the dual of InstrToExprExec. It
// returns m unchanged: no in-place instruction is turned back into its
// functional op-then-assign form, whether or not its source container is
// referenced elsewhere.
func ExprToInstr(m *Model) *Model { return m }

// FixContainer coerces an embedded list literal into `massets` (a list of
// constructed child-asset literals) wherever it fills a partition/
// aggregate field of an asset literal, the shape cohort E's cascade logic
// expects.
func FixContainer(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mlitasset {
			return mt
		}
		a := m.FindAsset(mt.Asset)
		if a == nil {
			return mt
		}
		out := *mt
		args := append([]*MT(nil), mt.Args...)
		for i, name := range mt.FieldNames {
			idx := a.FieldIndex(name)
			if idx < 0 || a.Fields[idx].CurrentType.Tag != Tcontainer {
				continue
			}
			intent := a.Fields[idx].CurrentType.Intent
			if (intent != CIpartition && intent != CIaggregate) || args[i].Tag == Mmassets {
				continue
			}
			args[i] = &MT{Tag: Mmassets, Type: args[i].Type, Loc: args[i].Loc, Args: args[i].Args}
		}
		out.Args = args
		return &out
	})
}

// ExtractItemCollectionFromAddAsset splits `add(A, {... ; f = [c1, c2]})`
// into `add(A, {... ; f = []}); add_field(A, f, key_of_A, c1); add_field(A, f, key_of_A, c2)`
// ahead of RemoveAsset, so its partition cascade only ever sees an
// already-empty container field plus explicit add_field calls.
func ExtractItemCollectionFromAddAsset(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetAdd || len(mt.Args) != 1 || mt.Args[0].Tag != Mlitasset {
			return mt
		}
		lit := mt.Args[0]
		a := m.FindAsset(mt.Asset)
		if a == nil {
			return mt
		}
		key, _ := ExtractKeyValueFromMasset(a, lit)
		fieldNames := append([]string(nil), lit.FieldNames...)
		argsCopy := append([]*MT(nil), lit.Args...)
		var addFields []*MT
		for i, name := range fieldNames {
			idx := a.FieldIndex(name)
			if idx < 0 || a.Fields[idx].CurrentType.Tag != Tcontainer || argsCopy[i].Tag != Mmassets {
				continue
			}
			for _, child := range argsCopy[i].Args {
				addFields = append(addFields, &MT{
					Tag: MassetAddField, Type: TUnit(), Loc: child.Loc, Asset: argsCopy[i].Args[0].Type.Name, Field: name,
					Args: []*MT{key, child},
				})
			}
			argsCopy[i] = &MT{Tag: Mmassets, Type: argsCopy[i].Type, Loc: argsCopy[i].Loc}
		}
		if len(addFields) == 0 {
			return mt
		}
		newLit := *lit
		newLit.Args = argsCopy
		emptyAdd := &MT{Tag: MassetAdd, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{&newLit}}
		return seqOf(mt.Loc, append([]*MT{emptyAdd}, addFields...)...)
	})
}
