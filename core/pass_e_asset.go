package core

// Cohort E is the single largest pass in the pipeline, RemoveAsset
// (spec.md §4.4 cohort E): it eliminates every remaining Masset* node by
// choosing a concrete primitive storage shape per asset and rewriting each
// asset-API operation into the Mcoll*/control-flow vocabulary that
// operates on it.

type assetLowering struct {
	decl        *AssetDecl
	key         AssetKey
	singleField bool
	singleValue bool
	valueType   Type // meaningless when singleField
}

func buildAssetLowerings(m *Model) map[string]assetLowering {
	out := map[string]assetLowering{}
	for _, a := range m.Decls.Assets {
		lw := assetLowering{decl: a, key: GetAssetKey(a), singleField: IsAssetSingleField(a)}
		if !lw.singleField {
			if IsSingleValueAsset(a) {
				lw.singleValue = true
				lw.valueType = SingleValueField(a).CurrentType
			} else {
				lw.valueType = TRecord(a.Ident + "_value")
			}
		}
		out[a.Ident] = lw
	}
	return out
}

func (lw assetLowering) storageType() Type {
	if lw.singleField {
		return TSet(lw.key.Type)
	}
	return MapKindToType(lw.decl.MapKind, lw.key.Type, lw.valueType)
}

func storageVarFor(name string, lw assetLowering, loc Loc) *MT {
	return &MT{Tag: Mstoragevar, Type: lw.storageType(), Loc: loc, Ident: name}
}

// findParentOwningField returns the asset declaring a container field
// named field whose target is child, used to resolve CKfield operations
// back to the parent's own backing storage.
func findParentOwningField(m *Model, child, field string) *AssetDecl {
	for _, a := range m.Decls.Assets {
		idx := a.FieldIndex(field)
		if idx < 0 {
			continue
		}
		ft := a.Fields[idx].CurrentType
		if ft.Tag == Tcontainer && ft.AssetName == child {
			return a
		}
	}
	panic("core: RemoveAsset: no asset owns container field " + field + " -> " + child)
}

// containerTermFor returns the term denoting the concrete collection a
// CKcoll/CKfield/CKview asset-API node operates over.
//   - CKcoll: the asset's own storage slot.
//   - CKfield: the key-set stored in the named field of the owning
//     parent's record value, fetched via a map_get on the parent's own
//     storage slot at parentKey (mt.Args[0] by convention). A key-only
//     parent yields its storage slot itself, and a single-value parent
//     whose one value field is that container yields the map_get itself.
//   - CKview: the node already carries the materialised view term as
//     mt.Args[0] (built by an earlier select/sort).
func containerTermFor(m *Model, infos map[string]assetLowering, mt *MT, viewArgOffset int) *MT {
	switch mt.CKind {
	case CKcoll:
		return storageVarFor(mt.Asset, infos[mt.Asset], mt.Loc)
	case CKview:
		return mt.Args[viewArgOffset]
	case CKfield:
		parent := findParentOwningField(m, mt.Asset, mt.Field)
		parentLw := infos[parent.Ident]
		parentKey := mt.Args[0]
		parentStorage := storageVarFor(parent.Ident, parentLw, mt.Loc)
		fieldSetType := TSet(infos[mt.Asset].key.Type)
		if parentLw.singleField {
			return parentStorage // key-only parent: its storage IS the set
		}
		parentVal := &MT{Tag: McollGet, Type: parentLw.valueType, Loc: mt.Loc, Args: []*MT{parentStorage, parentKey}}
		if parentLw.singleValue && SingleValueField(parent).Ident == mt.Field {
			return parentVal
		}
		return &MT{Tag: Mdot, Type: fieldSetType, Loc: mt.Loc, Field: mt.Field, Args: []*MT{parentVal}}
	default:
		panic("core: RemoveAsset: unreachable ContainerKindTag")
	}
}

func failWith(kind DiagKind, loc Loc, typ Type, detail string) *MT {
	msg := kind.String()
	if detail != "" {
		msg = msg + ": " + detail
	}
	return &MT{Tag: Mfail, Type: typ, Loc: loc, Args: []*MT{
		{Tag: Mlitstring, Type: TString(), Loc: loc, Lit: Literal{Kind: LKstring, Str: msg}},
	}}
}

// RemoveAsset is the cohort E driver: it rewrites every surviving asset-API
// node bottom-up using the per-asset storage shape computed up front.
// Several lowerings (the partition cascades of lowerAssetAdd/Remove/
// RemoveAll/RemoveField) themselves emit a fresh Masset* node for a child,
// which the single bottom-up sweep that produced it will not revisit — so
// the sweep repeats until one leaves every Masset* tag lowered.
func RemoveAsset(m *Model) *Model {
	infos := buildAssetLowerings(m)
	counter := 0
	var apiItems []APIItem
	out := m
	for {
		touched := false
		out = MapMTermModel(out, func(_ TraverseContext, mt *MT) *MT {
			switch mt.Tag {
			case MassetGet:
				touched = true
				return lowerAssetGet(m, infos, mt)
			case MassetGetSome:
				touched = true
				return lowerAssetGetSome(m, infos, mt)
			case MassetAdd:
				touched = true
				return lowerAssetAdd(m, infos, mt)
			case MassetRemove:
				touched = true
				return lowerAssetRemove(m, infos, mt)
			case MassetAddField:
				touched = true
				counter++
				return lowerAssetAddField(m, infos, mt, counter)
			case MassetRemoveField:
				touched = true
				counter++
				return lowerAssetRemoveField(m, infos, mt, counter)
			case MassetRemoveAll:
				touched = true
				return lowerAssetRemoveAll(m, infos, mt)
			case MassetRemoveIf:
				touched = true
				return lowerAssetRemoveIf(m, infos, mt)
			case MassetClear:
				touched = true
				return lowerAssetClear(m, infos, mt)
			case MassetSelect:
				touched = true
				apiItems = append(apiItems, APIItem{Name: "select_" + mt.Asset, Asset: mt.Asset, CKind: mt.CKind})
				return lowerAssetSelect(m, infos, mt)
			case MassetSort:
				touched = true
				apiItems = append(apiItems, APIItem{Name: "sort_" + mt.Asset, Asset: mt.Asset, CKind: mt.CKind})
				return lowerAssetSort(m, infos, mt)
			case MassetContains:
				touched = true
				return lowerAssetContains(m, infos, mt)
			case MassetCount:
				touched = true
				return lowerAssetCount(m, infos, mt)
			case MassetSum:
				touched = true
				return lowerAssetSum(m, infos, mt)
			case MassetNth:
				touched = true
				return lowerAssetNth(m, infos, mt)
			case MassetHead, MassetTail:
				touched = true
				return lowerAssetHeadTail(m, infos, mt)
			case MassetPut:
				touched = true
				return lowerAssetPut(m, infos, mt)
			case MassetPutRemove:
				touched = true
				return lowerAssetPutRemove(m, infos, mt)
			default:
				return mt
			}
		})
		if !touched {
			break
		}
	}

	out = out.Clone()
	for i, a := range out.Decls.Assets {
		na := *a
		lw := infos[a.Ident]
		out.Storage = append(out.Storage, StorageItem{
			Ident: a.Ident, ModelKind: StorageAsset, AssetName: a.Ident, Type: lw.storageType(), Loc: a.Loc,
		})
		out.Decls.Assets[i] = &na
	}
	out.APIItems = append(out.APIItems, apiItems...)

	// Every asset-API node is gone; erase the asset-level types the lowered
	// terms still carry so no Tasset/Tcontainer term type survives the pass.
	return MapMTermModel(out, func(_ TraverseContext, mt *MT) *MT {
		retyped := eraseAssetType(infos, mt.Type)
		if retyped.Equal(mt.Type) {
			return mt
		}
		nn := *mt
		nn.Type = retyped
		return &nn
	})
}

// eraseAssetType maps asset<A> to A's lowered value shape (its key type
// for a key-only asset, its value type otherwise) and container(asset<A>)
// to the key set (or key list, for a view intent), recursing through
// parameterised constructors.
func eraseAssetType(infos map[string]assetLowering, t Type) Type {
	switch t.Tag {
	case Tasset:
		lw, ok := infos[t.Name]
		if !ok {
			return t
		}
		if lw.singleField {
			return lw.key.Type
		}
		return lw.valueType
	case Tcontainer:
		lw, ok := infos[t.AssetName]
		if !ok {
			return t
		}
		if t.Intent == CIview {
			return TList(lw.key.Type)
		}
		return TSet(lw.key.Type)
	default:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		changed := false
		for i, a := range t.Args {
			args[i] = eraseAssetType(infos, a)
			if !args[i].Equal(a) {
				changed = true
			}
		}
		if !changed {
			return t
		}
		out := t
		out.Args = args
		return out
	}
}

func lowerAssetGet(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	if mt.CKind == CKview {
		view := mt.Args[0]
		k := mt.Args[1]
		va := storageVarFor(mt.Asset, lw, mt.Loc)
		cond := &MT{Tag: McollContains, Type: TBool(), Loc: mt.Loc, Args: []*MT{view, k}}
		get := &MT{Tag: McollGet, Type: mt.Type, Loc: mt.Loc, Args: []*MT{va, k}}
		return &MT{Tag: Mif, Type: mt.Type, Loc: mt.Loc, Args: []*MT{cond, get, failWith(AssetNotFoundKind, mt.Loc, mt.Type, mt.Asset)}}
	}
	coll := containerTermFor(m, infos, mt, 1)
	key := mt.Args[len(mt.Args)-1]
	return &MT{Tag: McollGet, Type: mt.Type, Loc: mt.Loc, Args: []*MT{coll, key}}
}

func lowerAssetGetSome(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 1)
	key := mt.Args[len(mt.Args)-1]
	return &MT{Tag: McollGetOpt, Type: mt.Type, Loc: mt.Loc, Args: []*MT{coll, key}}
}

func valueSetter(name string, loc Loc, newColl *MT) *MT {
	return &MT{
		Tag: Massign, Type: TUnit(), Loc: loc,
		TargetV: Target{Kind: TKstorageVar, Ident: name}, Args: []*MT{newColl},
	}
}

// lowerAssetAdd implements `add(A, v)`: fail with KeyExists if the key is
// already present, else insert. A literal value (Mlitasset/MmakeAsset)
// whose partition fields carry an embedded `massets` children list is
// cascaded: each child is added to its own asset first, and the parent's
// stored value keeps only the set of child keys. A non-literal value is
// inserted as-is — the partition cascade for that case is the
// responsibility of an earlier pass producing a literal shape (FixContainer,
// cohort F), which always runs before RemoveAsset.
func lowerAssetAdd(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	v := mt.Args[0]
	va := storageVarFor(mt.Asset, lw, mt.Loc)
	key, _ := literalOrDynamicKey(lw, v)

	cond := &MT{Tag: McollContains, Type: TBool(), Loc: mt.Loc, Args: []*MT{va, key}}
	failB := failWith(KeyExistsKind, mt.Loc, TUnit(), mt.Asset)

	var cascade []*MT
	storedValue := v
	if v.Tag == Mlitasset {
		// MmakeAsset (cascadePartitionFields' caller also being fed one)
		// carries only the key positionally, with the rest of its fields
		// described by an update list rather than parallel FieldNames/Args —
		// its partition cascade is produced earlier, by RemoveAddUpdate's own
		// lowering to MassetAdd over an Mlitasset, so it never reaches here.
		storedValue, cascade = cascadePartitionFields(m, infos, lw.decl, v)
	}

	var stmts []*MT
	stmts = append(stmts, cascade...)
	if lw.singleField {
		stmts = append(stmts, valueSetter(mt.Asset, mt.Loc, &MT{Tag: McollAdd, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{va, key}}))
	} else {
		put := &MT{Tag: McollPut, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{va, key, storedValue}}
		stmts = append(stmts, valueSetter(mt.Asset, mt.Loc, put))
	}
	thenB := seqOf(mt.Loc, stmts...)
	return &MT{Tag: Mif, Type: TUnit(), Loc: mt.Loc, Args: []*MT{cond, failB, thenB}}
}

func seqOf(loc Loc, stmts ...*MT) *MT {
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &MT{Tag: Mseq, Type: TUnit(), Loc: loc, Args: stmts}
}

func literalOrDynamicKey(lw assetLowering, v *MT) (key *MT, value *MT) {
	if v.Tag == Mlitasset {
		return ExtractKeyValueFromMasset(lw.decl, v)
	}
	if v.Tag == MmakeAsset {
		if len(lw.decl.Keys) == 1 || len(v.Args) == 1 {
			// RemoveAddUpdate's make_asset carries the already-flattened key
			// expression as its sole positional argument, tuple or not.
			return v.Args[0], v
		}
		return &MT{Tag: Mlittuple, Type: lw.key.Type, Loc: v.Loc, Args: v.Args[:len(lw.decl.Keys)]}, v
	}
	return &MT{Tag: Mdot, Type: lw.key.Type, Loc: v.Loc, Field: lw.key.Ident, Args: []*MT{v}}, v
}

// cascadePartitionFields replaces every partition field of a literal asset
// value with the set of keys of its embedded children (an Mmassets list),
// returning the rewritten literal plus one MassetAdd per child — those
// adds are emitted ahead of the parent's own insertion so a child always
// exists before its parent references it.
func cascadePartitionFields(m *Model, infos map[string]assetLowering, a *AssetDecl, lit *MT) (*MT, []*MT) {
	out := *lit
	outArgs := append([]*MT(nil), lit.Args...)
	var cascade []*MT
	for i, name := range lit.FieldNames {
		idx := a.FieldIndex(name)
		if idx < 0 || a.Fields[idx].CurrentType.Tag != Tcontainer || a.Fields[idx].CurrentType.Intent != CIpartition {
			continue
		}
		childAsset := a.Fields[idx].CurrentType.AssetName
		childLw := infos[childAsset]
		field := outArgs[i]
		if field.Tag != Mmassets {
			continue
		}
		var keys []*MT
		for _, child := range field.Args {
			cascade = append(cascade, &MT{Tag: MassetAdd, Type: TUnit(), Loc: child.Loc, Asset: childAsset, CKind: CKcoll, Args: []*MT{child}})
			k, _ := literalOrDynamicKey(childLw, child)
			keys = append(keys, k)
		}
		outArgs[i] = &MT{Tag: Mlitset, Type: TSet(childLw.key.Type), Loc: field.Loc, Args: keys}
	}
	out.Args = outArgs
	return &out, cascade
}

// lowerAssetRemove implements `remove(A, k)`: every partition field's
// key-set is iterated and each child recursively removed first, then the
// parent entry itself is dropped.
func lowerAssetRemove(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	key := mt.Args[0]
	va := storageVarFor(mt.Asset, lw, mt.Loc)
	var cascade []*MT
	if !lw.singleField {
		val := &MT{Tag: McollGet, Type: lw.valueType, Loc: mt.Loc, Args: []*MT{va, key}}
		for _, f := range lw.decl.Fields {
			if f.CurrentType.Tag != Tcontainer || f.CurrentType.Intent != CIpartition {
				continue
			}
			childLw := infos[f.CurrentType.AssetName]
			keySet := &MT{Tag: Mdot, Type: TSet(childLw.key.Type), Loc: mt.Loc, Field: f.Ident, Args: []*MT{val}}
			loopVar := "_k$" + f.Ident
			body := &MT{Tag: MassetRemove, Type: TUnit(), Loc: mt.Loc, Asset: f.CurrentType.AssetName, CKind: CKcoll,
				Args: []*MT{{Tag: Mvar, Type: childLw.key.Type, Loc: mt.Loc, Ident: loopVar}}}
			cascade = append(cascade, &MT{Tag: Mfor, Type: TUnit(), Loc: mt.Loc, Ident: loopVar, Args: []*MT{keySet, body}})
		}
	}
	var result *MT
	if lw.singleField {
		result = &MT{Tag: McollRemove, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{va, key}}
	} else {
		result = &MT{Tag: McollRemove, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{va, key}}
	}
	stmts := append(cascade, valueSetter(mt.Asset, mt.Loc, result))
	return seqOf(mt.Loc, stmts...)
}

// lowerParentFieldSet builds the get/record_update/put (or, for a
// single-value parent, a plain put) triple that commits newFieldVal as the
// new value of the parent's container field directly in terms of
// primitives, rather than re-emitting a MassetUpdate: RemoveAsset's
// traversal rebuilds bottom-up and visits each node once, so a freshly
// synthesized MassetUpdate would never itself be lowered (spec.md §8, "no
// Mupdate survives replace_update_by_set").
func lowerParentFieldSet(infos map[string]assetLowering, parent *AssetDecl, parentKey *MT, field string, newFieldVal *MT, loc Loc, id int) *MT {
	parentLw := infos[parent.Ident]
	parentStorage := storageVarFor(parent.Ident, parentLw, loc)
	if parentLw.singleValue && SingleValueField(parent).Ident == field {
		put := &MT{Tag: McollPut, Type: parentLw.storageType(), Loc: loc, Args: []*MT{parentStorage, parentKey, newFieldVal}}
		return valueSetter(parent.Ident, loc, put)
	}
	tmp := "_pf$" + itoa(int64(id))
	got := &MT{Tag: McollGet, Type: parentLw.valueType, Loc: loc, Args: []*MT{parentStorage, parentKey}}
	tmpRef := &MT{Tag: Mvar, Type: parentLw.valueType, Loc: loc, Ident: tmp}
	updated := &MT{
		Tag: MrecUpdate, Type: parentLw.valueType, Loc: loc, Args: []*MT{tmpRef},
		Updates: []FieldUpdate{{Field: field, Op: AssignSet, Value: newFieldVal}},
	}
	put := &MT{Tag: McollPut, Type: parentLw.storageType(), Loc: loc, Args: []*MT{parentStorage, parentKey, tmpRef}}
	inner := &MT{Tag: Mlet, Type: TUnit(), Loc: loc, Ident: tmp, Args: []*MT{updated, valueSetter(parent.Ident, loc, put)}}
	return &MT{Tag: Mlet, Type: TUnit(), Loc: loc, Ident: tmp, Args: []*MT{got, inner}}
}

// lowerAssetAddField implements `add_field(A, f, k, b)`. For an aggregate
// field, b must already exist in the target collection; for a partition,
// b is recursively added to the child asset first. Either way, the
// parent's key-set at f gains key(b).
func lowerAssetAddField(m *Model, infos map[string]assetLowering, mt *MT, id int) *MT {
	parentKey := mt.Args[0]
	childLit := mt.Args[1]
	parent := findParentOwningField(m, mt.Asset, mt.Field)
	childLw := infos[mt.Asset]
	childKey, _ := literalOrDynamicKey(childLw, childLit)

	var pre *MT
	intent := CIaggregate
	idx := parent.FieldIndex(mt.Field)
	if idx >= 0 {
		intent = parent.Fields[idx].CurrentType.Intent
	}
	fieldSet := containerTermFor(m, infos, &MT{Asset: mt.Asset, CKind: CKfield, Field: mt.Field, Args: []*MT{parentKey}}, 0)
	if intent == CIaggregate {
		cond := &MT{Tag: McollContains, Type: TBool(), Loc: mt.Loc, Args: []*MT{storageVarFor(mt.Asset, childLw, mt.Loc), childKey}}
		pre = &MT{Tag: Mif, Type: TUnit(), Loc: mt.Loc, Args: []*MT{
			&MT{Tag: Mnot, Type: TBool(), Loc: mt.Loc, Args: []*MT{cond}},
			failWith(AssetNotFoundKind, mt.Loc, TUnit(), mt.Asset), Skip(mt.Loc),
		}}
	} else {
		pre = &MT{Tag: MassetAdd, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: CKcoll, Args: []*MT{childLit}}
	}
	newSet := &MT{Tag: McollAdd, Type: fieldSet.Type, Loc: mt.Loc, Args: []*MT{fieldSet, childKey}}
	set := lowerParentFieldSet(infos, parent, parentKey, mt.Field, newSet, mt.Loc, id)
	return seqOf(mt.Loc, pre, set)
}

// lowerAssetRemoveField is the mirror of lowerAssetAddField: the key
// leaves the parent's key-set, and for a partition field the child asset
// is recursively removed too.
func lowerAssetRemoveField(m *Model, infos map[string]assetLowering, mt *MT, id int) *MT {
	parentKey := mt.Args[0]
	childLit := mt.Args[1]
	parent := findParentOwningField(m, mt.Asset, mt.Field)
	childLw := infos[mt.Asset]
	childKey, _ := literalOrDynamicKey(childLw, childLit)

	idx := parent.FieldIndex(mt.Field)
	intent := CIaggregate
	if idx >= 0 {
		intent = parent.Fields[idx].CurrentType.Intent
	}
	fieldSet := containerTermFor(m, infos, &MT{Asset: mt.Asset, CKind: CKfield, Field: mt.Field, Args: []*MT{parentKey}}, 0)
	newSet := &MT{Tag: McollRemove, Type: fieldSet.Type, Loc: mt.Loc, Args: []*MT{fieldSet, childKey}}
	set := lowerParentFieldSet(infos, parent, parentKey, mt.Field, newSet, mt.Loc, id)
	if intent == CIpartition {
		childRemove := &MT{Tag: MassetRemove, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: CKcoll, Args: []*MT{childKey}}
		return seqOf(mt.Loc, childRemove, set)
	}
	return set
}

// lowerAssetRemoveAll empties the chosen container, cascading a recursive
// remove over every partition child first.
func lowerAssetRemoveAll(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	coll := containerTermFor(m, infos, mt, 0)
	loopVar := "_k$clear"
	var pre []*MT
	if !lw.singleField {
		for _, f := range lw.decl.Fields {
			if f.CurrentType.Tag != Tcontainer || f.CurrentType.Intent != CIpartition {
				continue
			}
			body := &MT{Tag: MassetRemove, Type: TUnit(), Loc: mt.Loc, Asset: f.CurrentType.AssetName, CKind: CKcoll,
				Args: []*MT{{Tag: Mvar, Type: infos[f.CurrentType.AssetName].key.Type, Loc: mt.Loc, Ident: loopVar}}}
			pre = append(pre, &MT{Tag: Mfor, Type: TUnit(), Loc: mt.Loc, Ident: loopVar, Args: []*MT{coll, body}})
		}
	}
	empty := emptyContainerOf(coll.Type, mt.Loc)
	var setStmt *MT
	if mt.CKind == CKcoll {
		setStmt = valueSetter(mt.Asset, mt.Loc, empty)
	} else {
		setStmt = Skip(mt.Loc)
	}
	return seqOf(mt.Loc, append(pre, setStmt)...)
}

func emptyContainerOf(t Type, loc Loc) *MT {
	switch t.Tag {
	case Tset:
		return &MT{Tag: Mlitset, Type: t, Loc: loc}
	case Tlist:
		return &MT{Tag: Mlitlist, Type: t, Loc: loc}
	default:
		return &MT{Tag: Mlitmap, Type: t, Loc: loc}
	}
}

// lowerAssetRemoveIf lowers `remove_if` to an explicit loop over the
// container's key set, removing any key whose predicate holds.
func lowerAssetRemoveIf(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	pred := mt.Args[len(mt.Args)-1]
	coll := containerTermFor(m, infos, mt, 0)
	loopVar := "_k$remove_if"
	removeCall := &MT{Tag: MassetRemove, Type: TUnit(), Loc: mt.Loc, Asset: mt.Asset, CKind: CKcoll,
		Args: []*MT{{Tag: Mvar, Type: infos[mt.Asset].key.Type, Loc: mt.Loc, Ident: loopVar}}}
	body := &MT{Tag: Mif, Type: TUnit(), Loc: mt.Loc, Args: []*MT{pred, removeCall, Skip(mt.Loc)}}
	return &MT{Tag: Mfor, Type: TUnit(), Loc: mt.Loc, Ident: loopVar, Args: []*MT{coll, body}}
}

func lowerAssetClear(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	return lowerAssetRemoveAll(m, infos, mt)
}

func lowerAssetContains(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 1)
	key := mt.Args[len(mt.Args)-1]
	return &MT{Tag: McollContains, Type: TBool(), Loc: mt.Loc, Args: []*MT{coll, key}}
}

func lowerAssetCount(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 0)
	return &MT{Tag: McollLength, Type: TNat(), Loc: mt.Loc, Args: []*MT{coll}}
}

// lowerAssetSum folds the chosen container adding the selected field (or
// the element itself, for a key-only asset) into an accumulator.
func lowerAssetSum(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 0)
	return &MT{Tag: McollFold, Type: mt.Type, Loc: mt.Loc, Args: []*MT{coll, mt.Args[len(mt.Args)-1]}}
}

// lowerAssetSelect lowers `select(A, ck, pred)` to a fold over the chosen
// container accumulating, in container order, the keys whose predicate
// holds — the view shape (ordered key list) every later view consumer
// operates on.
func lowerAssetSelect(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	viewT := TList(lw.key.Type)
	pred := mt.Args[len(mt.Args)-1]
	loc := mt.Loc
	return foldCK(m, infos, mt, func(coll *MT) *MT {
		kid := &MT{Tag: Mvar, Type: lw.key.Type, Loc: loc, Ident: "_kid"}
		accu := &MT{Tag: Mvar, Type: viewT, Loc: loc, Ident: "_accu"}
		keep := &MT{Tag: McollAdd, Type: viewT, Loc: loc, Args: []*MT{accu, kid}}
		body := &MT{Tag: Mif, Type: viewT, Loc: loc, Args: []*MT{pred, keep, accu}}
		return &MT{Tag: McollFold, Type: viewT, Loc: loc, Ident: "_kid", Ident2: "_accu", Args: []*MT{coll, body}}
	})
}

// sortRankTerm is the comparand lowerAssetSort orders keys by: the sort
// field's stored value at that key, or the key itself when the asset sorts
// by (or falls back to) its primary key.
func sortRankTerm(infos map[string]assetLowering, asset, field string, key *MT, loc Loc) *MT {
	lw := infos[asset]
	if field == "" || field == lw.key.Ident || lw.singleField {
		return key
	}
	va := storageVarFor(asset, lw, loc)
	val := &MT{Tag: McollGet, Type: lw.valueType, Loc: loc, Args: []*MT{va, key}}
	if lw.singleValue {
		return val
	}
	var ft Type
	if idx := lw.decl.FieldIndex(field); idx >= 0 {
		ft = lw.decl.Fields[idx].CurrentType
	}
	return &MT{Tag: Mdot, Type: ft, Loc: loc, Field: field, Args: []*MT{val}}
}

// lowerAssetSort lowers `sort(A, ck, f)` to an explicit insertion fold:
// each key of the chosen container is spliced into an accumulator list
// between the elements ranking below it and the rest, yielding an
// ascending key list. The two inner folds partition the accumulator
// around the inserted key's rank.
func lowerAssetSort(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	viewT := TList(lw.key.Type)
	field := ""
	if len(mt.FieldNames) > 0 {
		field = mt.FieldNames[0]
	} else if len(lw.decl.Sort) > 0 {
		field = lw.decl.Sort[0]
	}
	loc := mt.Loc
	return foldCK(m, infos, mt, func(coll *MT) *MT {
		kid := &MT{Tag: Mvar, Type: lw.key.Type, Loc: loc, Ident: "_kid"}
		accu := &MT{Tag: Mvar, Type: viewT, Loc: loc, Ident: "_accu"}
		vid := &MT{Tag: Mvar, Type: lw.key.Type, Loc: loc, Ident: "_vid"}
		tmp := &MT{Tag: Mvar, Type: viewT, Loc: loc, Ident: "_tmp"}
		less := &MT{Tag: Mlt, Type: TBool(), Loc: loc, Args: []*MT{
			sortRankTerm(infos, mt.Asset, field, vid, loc),
			sortRankTerm(infos, mt.Asset, field, kid, loc),
		}}
		takeVid := &MT{Tag: McollAdd, Type: viewT, Loc: loc, Args: []*MT{tmp, vid}}
		below := &MT{Tag: McollFold, Type: viewT, Loc: loc, Ident: "_vid", Ident2: "_tmp", Args: []*MT{
			accu, {Tag: Mif, Type: viewT, Loc: loc, Args: []*MT{less, takeVid, tmp}},
		}}
		rest := &MT{Tag: McollFold, Type: viewT, Loc: loc, Ident: "_vid", Ident2: "_tmp", Args: []*MT{
			accu, {Tag: Mif, Type: viewT, Loc: loc, Args: []*MT{less, tmp, takeVid}},
		}}
		placed := &MT{Tag: McollAdd, Type: viewT, Loc: loc, Args: []*MT{below, kid}}
		insert := &MT{Tag: McollConcat, Type: viewT, Loc: loc, Args: []*MT{placed, rest}}
		return &MT{Tag: McollFold, Type: viewT, Loc: loc, Ident: "_kid", Ident2: "_accu", Args: []*MT{coll, insert}}
	})
}

func lowerAssetNth(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 1)
	idx := mt.Args[len(mt.Args)-1]
	return &MT{Tag: McollNth, Type: mt.Type, Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{coll, idx}}
}

// lowerAssetHeadTail lowers `head(A, n)`/`tail(A, n)` (only meaningful on
// a sorted list-shaped view) to a Slice primitive over the underlying
// collection.
func lowerAssetHeadTail(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	coll := containerTermFor(m, infos, mt, 1)
	n := mt.Args[len(mt.Args)-1]
	if mt.Tag == MassetHead {
		return &MT{Tag: Mslice, Type: mt.Type, Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{coll, litInt(0, TNat(), mt.Loc), n}}
	}
	return &MT{Tag: Mslice, Type: mt.Type, Loc: mt.Loc, Asset: mt.Asset, CKind: mt.CKind, Args: []*MT{coll, n}}
}

func lowerAssetPut(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	coll := storageVarFor(mt.Asset, lw, mt.Loc)
	key, val := mt.Args[0], mt.Args[1]
	put := &MT{Tag: McollPut, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{coll, key, val}}
	return valueSetter(mt.Asset, mt.Loc, put)
}

// lowerAssetPutRemove lowers `put_remove(A, CKcoll, k, opt_v)` to
// map_update, failing for an iterable_big_map-backed asset since its
// ordered key index cannot be maintained under a put_remove (spec.md §9
// Open Question — rejected per DESIGN.md).
func lowerAssetPutRemove(m *Model, infos map[string]assetLowering, mt *MT) *MT {
	lw := infos[mt.Asset]
	if lw.decl.MapKind == MapIterable {
		return failWith(NoPutRemoveForIterableBigMapAsset, mt.Loc, TUnit(), mt.Asset)
	}
	coll := storageVarFor(mt.Asset, lw, mt.Loc)
	key, optVal := mt.Args[0], mt.Args[1]
	upd := &MT{Tag: McollUpdate, Type: lw.storageType(), Loc: mt.Loc, Args: []*MT{coll, key, optVal}}
	return valueSetter(mt.Asset, mt.Loc, upd)
}
