package core

// Cohort C lowers the high-level asset convenience methods (add_update,
// A[k].f assignment sugar, update merging) down to the smaller MassetGet/
// MassetPut/MassetUpdate vocabulary that cohort E's remove_asset pass
// eliminates entirely (spec.md §4.4 cohort C).

func fieldNamesOf(upd []FieldUpdate) []string {
	out := make([]string, len(upd))
	for i, u := range upd {
		out[i] = u.Field
	}
	return out
}

// RemoveAddUpdate rewrites `A.add_update(k, {f_i op_i v_i})` into
// `if contains(A, k) then update(A, k, l) else add(A, make_asset(k, l))`.
func RemoveAddUpdate(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetAddUpdate {
			return mt
		}
		key := mt.Args[0]
		cond := &MT{Tag: MassetContains, Type: TBool(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{key}}
		thenB := &MT{Tag: MassetUpdate, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{key}, Updates: mt.Updates}
		made := &MT{Tag: MmakeAsset, Type: TAsset(mt.Asset), Loc: mt.Loc, Asset: mt.Asset, Args: []*MT{key}, FieldNames: fieldNamesOf(mt.Updates), Updates: mt.Updates}
		elseB := &MT{Tag: MassetAdd, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{made}}
		return &MT{Tag: Mif, Type: TUnit(), Loc: mt.Loc, Args: []*MT{cond, thenB, elseB}}
	})
}

// RemoveContainerOpInUpdate splits a `+=`/`-=` entry of an update's field
// list targeting a partition/aggregate container field into an explicit
// add_field/remove_field call, leaving only plain-value entries (`:=`, and
// `+=`/`-=`/`*=` on a scalar or native-container field) in the update
// itself. It must run after ReplaceAssignfieldByUpdate so an `A[k].f += v`
// assignment already folded into an MassetUpdate gets the same treatment.
func RemoveContainerOpInUpdate(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetUpdate {
			return mt
		}
		return decomposeContainerUpdates(m, mt)
	})
}

func decomposeContainerUpdates(m *Model, mt *MT) *MT {
	a := GetAsset(m, mt.Asset)
	var cascade []*MT
	var keep []FieldUpdate
	for _, u := range mt.Updates {
		idx := a.FieldIndex(u.Field)
		if idx < 0 || a.Fields[idx].CurrentType.Tag != Tcontainer || (u.Op != AssignPlus && u.Op != AssignMinus) {
			keep = append(keep, u)
			continue
		}
		tag := MassetAddField
		if u.Op == AssignMinus {
			tag = MassetRemoveField
		}
		childAsset := a.Fields[idx].CurrentType.AssetName
		cascade = append(cascade, &MT{
			Tag: tag, Type: TUnit(), Loc: mt.Loc, Asset: childAsset, Field: u.Field,
			Args: []*MT{mt.Args[0], u.Value},
		})
	}
	if len(cascade) == 0 {
		return mt
	}
	var rest *MT
	if len(keep) == 0 {
		rest = Skip(mt.Loc)
	} else {
		out := *mt
		out.Updates = keep
		rest = &out
	}
	return seqOf(mt.Loc, append(cascade, rest)...)
}

// RemoveContainerOpInUpdateExec is the exec-mode twin of
// RemoveContainerOpInUpdate; the rewrite is idempotent, so running it again
// against whatever the first pass left behind is safe and keeps the two
// named seams spec.md §4.4 cohort C lists independently addressable.
func RemoveContainerOpInUpdateExec(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetUpdate {
			return mt
		}
		return decomposeContainerUpdates(m, mt)
	})
}

// RemoveEmptyUpdate collapses `update(A, k, [])` and `update_all(A, c, [])`
// to skip.
func RemoveEmptyUpdate(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if (mt.Tag == MassetUpdate || mt.Tag == MassetUpdateAll) && len(mt.Updates) == 0 {
			return Skip(mt.Loc)
		}
		return mt
	})
}

// MergeUpdate collapses consecutive `update(A, k, l1); update(A, k, l2)` on
// the same (A, k) appearing as adjacent statements of a sequence: every
// field assigned in l2 with `:=` overrides the corresponding entry of l1;
// every other field is appended.
func MergeUpdate(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mseq {
			return mt
		}
		var merged []*MT
		for _, stmt := range mt.Args {
			if len(merged) > 0 {
				prev := merged[len(merged)-1]
				if combined, ok := mergeTwoUpdates(prev, stmt); ok {
					merged[len(merged)-1] = combined
					continue
				}
			}
			merged = append(merged, stmt)
		}
		out := *mt
		out.Args = merged
		return &out
	})
}

func mergeTwoUpdates(a, b *MT) (*MT, bool) {
	if a.Tag != MassetUpdate || b.Tag != MassetUpdate {
		return nil, false
	}
	if a.Asset != b.Asset || a.CKind != b.CKind || len(a.Args) != 1 || len(b.Args) != 1 {
		return nil, false
	}
	if !EqualTerm(a.Args[0], b.Args[0]) {
		return nil, false
	}
	result := append([]FieldUpdate(nil), a.Updates...)
	for _, u := range b.Updates {
		replaced := false
		if u.Op == AssignSet {
			for i, r := range result {
				if r.Field == u.Field {
					result[i] = u
					replaced = true
					break
				}
			}
		}
		if !replaced {
			result = append(result, u)
		}
	}
	out := *a
	out.Updates = result
	return &out, true
}

// ReplaceAssignfieldByUpdate rewrites `A[k].f op= v` (an Massign targeting
// TKassetField) into `update(A, k, [(f, op, v)])`.
func ReplaceAssignfieldByUpdate(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Massign || mt.TargetV.Kind != TKassetField {
			return mt
		}
		value := mt.Args[0]
		return &MT{
			Tag: MassetUpdate, Type: TUnit(), Loc: mt.Loc,
			Asset: mt.TargetV.Asset, CKind: CKcoll,
			Args:    []*MT{mt.TargetV.Key},
			Updates: []FieldUpdate{{Field: mt.TargetV.Field, Op: mt.Assign, Value: value}},
		}
	})
}

// compoundArith maps an AssignOp to the ArithOp an Mratarith node carries.
var compoundArith = map[AssignOp]ArithOp{
	AssignPlus: OpPlus, AssignMinus: OpMinus, AssignMult: OpMult, AssignDiv: OpDiv,
}

// compoundScalar maps an AssignOp to the primitive arithmetic tag used to
// resolve a `+=`/`-=`/`*=`/`/=` entry on a plain int/nat/currency field.
var compoundScalar = map[AssignOp]MTag{
	AssignPlus: Madd, AssignMinus: Msub, AssignMult: Mmul, AssignDiv: Mdiv,
}

// resolveFieldUpdate turns a `+=`/`-=`/`*=`/`/=` entry into a `:=` entry
// carrying the computed new value, read off tmpRef's old field value. By
// the time this runs, RemoveContainerOpInUpdate has already extracted every
// container-field compound op into its own add_field/remove_field call, so
// only rational, native-container and plain scalar fields remain.
func resolveFieldUpdate(a *AssetDecl, tmpRef *MT, u FieldUpdate, loc Loc) FieldUpdate {
	if u.Op == AssignSet {
		return u
	}
	idx := a.FieldIndex(u.Field)
	var fieldType Type
	if idx >= 0 {
		fieldType = a.Fields[idx].CurrentType
	}
	old := &MT{Tag: Mdot, Type: fieldType, Loc: loc, Field: u.Field, Args: []*MT{tmpRef}}
	var newVal *MT
	switch fieldType.Tag {
	case Trational:
		newVal = &MT{Tag: Mratarith, Type: fieldType, Loc: loc, Arith: compoundArith[u.Op], Args: []*MT{old, u.Value}}
	case Tset, Tlist, Tmap, TbigMap, TiterableBigMap:
		tag := McollAdd
		switch u.Op {
		case AssignMinus:
			tag = McollRemove
		case AssignPlus:
			tag = McollAdd
		default:
			panic("core: ReplaceUpdateBySet: unsupported container compound op on field " + u.Field)
		}
		newVal = &MT{Tag: tag, Type: fieldType, Loc: loc, Args: []*MT{old, u.Value}}
	case Tcontainer:
		panic("core: ReplaceUpdateBySet: container field " + u.Field + " should already be decomposed by RemoveContainerOpInUpdate")
	default:
		newVal = &MT{Tag: compoundScalar[u.Op], Type: fieldType, Loc: loc, Args: []*MT{old, u.Value}}
	}
	return FieldUpdate{Field: u.Field, Op: AssignSet, Value: newVal}
}

// ReplaceUpdateBySet rewrites every remaining `update(A, k, l)` into
// `let _a = get(A, k) in let _a = record_with_fields(_a, l) in put(A, k, _a)`
// — a get/modify/put triple expressed with the still-asset-level MassetGet/
// MassetPut ops, which RemoveAsset (cohort E) lowers to concrete primitives
// alongside every other surviving asset-API node. Every field entry is
// resolved to a `:=` of a computed value first, so no arithmetic operator
// survives past this pass (spec.md §8).
func ReplaceUpdateBySet(m *Model) *Model {
	counter := 0
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetUpdate {
			return mt
		}
		counter++
		tmp := "_a$" + itoa(int64(counter))
		key := mt.Args[0]
		valType := TAsset(mt.Asset)
		a := GetAsset(m, mt.Asset)
		got := &MT{Tag: MassetGet, Type: valType, Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{key}}
		tmpRef := &MT{Tag: Mvar, Type: valType, Loc: mt.Loc, Ident: tmp}
		resolved := make([]FieldUpdate, len(mt.Updates))
		for i, u := range mt.Updates {
			resolved[i] = resolveFieldUpdate(a, tmpRef, u, mt.Loc)
		}
		updated := &MT{Tag: MrecUpdate, Type: valType, Loc: mt.Loc, Args: []*MT{tmpRef}, Updates: resolved}
		put := &MT{Tag: MassetPut, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{key, tmpRef}}
		inner := &MT{Tag: Mlet, Type: TUnit(), Loc: mt.Loc, Ident: tmp, Args: []*MT{updated, put}}
		return &MT{Tag: Mlet, Type: TUnit(), Loc: mt.Loc, Ident: tmp, Args: []*MT{got, inner}}
	})
}

// ReplaceInstrVerif guards `remove(A, k)` with `if contains(A, k)` so the
// verification back-end's logical semantics (removing an absent key is a
// no-op, not a failure) matches the executable back-end's. Only run when
// Options.VerifMode is set (see core/driver.go).
func ReplaceInstrVerif(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MassetRemove {
			return mt
		}
		cond := &MT{Tag: MassetContains, Type: TBool(), Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: append([]*MT(nil), mt.Args...)}
		return &MT{Tag: Mif, Type: TUnit(), Loc: mt.Loc, Args: []*MT{cond, mt, Skip(mt.Loc)}}
	})
}

// ReplaceDotassetfieldByDot rewrites `A[k].f` into `dot(get(A, k), f)` once
// `get` is a primitive-enough node that field projection can be expressed
// uniformly for assets and records alike. When f is one of a multi-key
// asset's own key fields, ExtractKeyValueFromMasset's stored value never
// carries it back (GetAssetKey flattens the keys into a tuple kept only
// on the key side), so f is instead projected straight off the key
// expression as a tuple_access — this is the only point in the pipeline
// that still has the asset's key fields (a.Keys), the field name and the
// key expression together.
func ReplaceDotassetfieldByDot(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != MdotAssetField {
			return mt
		}
		key := mt.Args[0]
		a := GetAsset(m, mt.Asset)
		if len(a.Keys) >= 2 {
			for i, k := range a.Keys {
				if k != mt.Field {
					continue
				}
				return &MT{Tag: MtupleAccess, Type: mt.Type, Loc: mt.Loc, Args: []*MT{key}, Lit: Literal{Num: int64(i)}}
			}
		}
		got := &MT{Tag: MassetGet, Type: TAsset(mt.Asset), Loc: mt.Loc, Asset: mt.Asset, CKind: CKcoll, Args: []*MT{key}}
		return &MT{Tag: Mdot, Type: mt.Type, Loc: mt.Loc, Field: mt.Field, Args: []*MT{got}}
	})
}

// RemoveDuplicateKey reduces a literal value of a single-field asset to
// its key entry alone — that asset's storage will be a bare set<K>
// (IsAssetSingleField), so the sole field is the key itself and any other
// entry the literal lists is dropped. A literal that lists one field is
// left unchanged.
func RemoveDuplicateKey(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mlitasset {
			return mt
		}
		a := GetAsset(m, mt.Asset)
		if !IsAssetSingleField(a) {
			return mt
		}
		keyIdx := -1
		for i, n := range mt.FieldNames {
			if a.IsKey(n) {
				keyIdx = i
				break
			}
		}
		if keyIdx < 0 || len(mt.FieldNames) == 1 {
			return mt
		}
		out := *mt
		out.FieldNames = []string{mt.FieldNames[keyIdx]}
		out.Args = []*MT{mt.Args[keyIdx]}
		return &out
	})
}
