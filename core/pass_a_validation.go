package core

// Cohort A validates the typed model before any rewrite runs. Every pass in
// this file has signature func(*Model, *Bus) *Model: it records diagnostics
// on bus and returns m unchanged, except CheckAndReplaceInitCaller, which
// also rewrites (spec.md §4.4 cohort A; failure semantics in §4.4
// "Validation passes record all diagnostics then... raise a Stop(code)").

var contextConstantTags = map[MTag]bool{
	Mnow: true, Mtransferred: true, Mcaller: true, Mbalance: true,
	Msource: true, MselfAddress: true, MselfChainID: true,
	Mmetadata: true, Mlevel: true, MminBlockTime: true,
}

// CheckPartitionAccess fails if any add/remove/clear targets an asset that
// is itself the target of some partition field, directly rather than
// through the owning parent field.
func CheckPartitionAccess(m *Model, bus *Bus) *Model {
	partitioned := map[string]bool{}
	for _, p := range GetPartitions(m) {
		partitioned[p.TargetAsset] = true
	}
	ForEachTerm(m, func(_ TraverseContext, mt *MT) {
		switch mt.Tag {
		case MassetAdd, MassetRemove, MassetClear:
			if mt.CKind == CKcoll && partitioned[mt.Asset] {
				bus.EmitError(mt.Loc, AssetPartitionnedby, mt.Asset)
			}
		}
	})
	return m
}

// CheckContainersAsset fails if a container field references an asset that
// itself has container fields — Archetype forbids nested ownership graphs
// more than one level deep.
func CheckContainersAsset(m *Model, bus *Bus) *Model {
	for _, a := range m.Decls.Assets {
		for _, f := range a.Fields {
			if f.CurrentType.Tag != Tcontainer {
				continue
			}
			target := GetAsset(m, f.CurrentType.AssetName)
			for _, tf := range target.Fields {
				if tf.CurrentType.Tag == Tcontainer {
					bus.EmitError(f.Loc, ContainersInAssetContainers, a.Ident+"."+f.Ident)
					break
				}
			}
		}
	}
	return m
}

func isEmptyLitContainer(mt *MT) bool {
	switch mt.Tag {
	case Mlitset, Mlitlist:
		return len(mt.Args) == 0
	case Mlitmap:
		return len(mt.Args) == 0
	default:
		return false
	}
}

// CheckEmptyContainerOnAssetDefaultValue requires a container field's
// default, if present, to be an empty literal container.
func CheckEmptyContainerOnAssetDefaultValue(m *Model, bus *Bus) *Model {
	for _, a := range m.Decls.Assets {
		for _, f := range a.Fields {
			if f.CurrentType.Tag != Tcontainer || f.Default == nil {
				continue
			}
			if !isEmptyLitContainer(f.Default) {
				bus.EmitError(f.Default.Loc, NoEmptyContainerForDefaultValue, a.Ident+"."+f.Ident)
			}
		}
	}
	return m
}

// CheckAssetKey rejects a default value on any key field, and rejects a
// sort clause that names only the sole key field of a multi-key asset
// (sorting by an incomplete key is ambiguous once flattened).
func CheckAssetKey(m *Model, bus *Bus) *Model {
	for _, a := range m.Decls.Assets {
		for _, f := range a.Fields {
			if a.IsKey(f.Ident) && f.Default != nil {
				bus.EmitError(f.Loc, DefaultValueOnKeyAsset, a.Ident+"."+f.Ident)
			}
		}
		if len(a.Keys) > 1 && len(a.Sort) == 1 && a.IsKey(a.Sort[0]) {
			bus.EmitError(a.Loc, NoSortOnKeyWithMultiKey, a.Ident)
		}
	}
	return m
}

// CheckInvalidInitValue rejects any context constant (now, caller,
// transferred, ...) appearing in a var/asset-field/storage default. caller
// is special-cased — CheckAndReplaceInitCaller owns that diagnostic.
func CheckInvalidInitValue(m *Model, bus *Bus) *Model {
	check := func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mcaller && contextConstantTags[mt.Tag] {
			bus.EmitError(mt.Loc, InvalidInitValue, mt.Tag.String())
		}
		return mt
	}
	for _, v := range m.Decls.Vars {
		if v.Default != nil {
			mapMTermCtx(TraverseContext{}, v.Default, check)
		}
	}
	for _, a := range m.Decls.Assets {
		for _, f := range a.Fields {
			if f.Default != nil {
				mapMTermCtx(TraverseContext{}, f.Default, check)
			}
		}
	}
	for _, s := range m.Storage {
		if s.Default != nil {
			mapMTermCtx(TraverseContext{}, s.Default, check)
		}
	}
	return m
}

func (t MTag) String() string {
	if n, ok := mtagNames[t]; ok {
		return n
	}
	return "mtag"
}

var mtagNames = map[MTag]string{
	Mnow: "now", Mtransferred: "transferred", Mcaller: "caller",
	Mbalance: "balance", Msource: "source", MselfAddress: "self_address",
	MselfChainID: "self_chain_id", Mmetadata: "metadata", Mlevel: "level",
	MminBlockTime: "min_block_time",
}

// CheckInitPartitionInAsset fails if an asset that is the target of some
// partition field also declares literal `init` entries — partition
// children only ever come into existence via their parent's add.
func CheckInitPartitionInAsset(m *Model, bus *Bus) *Model {
	partitioned := map[string]bool{}
	for _, p := range GetPartitions(m) {
		partitioned[p.TargetAsset] = true
	}
	for _, a := range m.Decls.Assets {
		if partitioned[a.Ident] && len(a.Init) > 0 {
			bus.EmitError(a.Loc, NoInitForPartitionAsset, a.Ident)
		}
	}
	return m
}

// CheckDuplicatedKeysInAsset fails if two `init` entries of the same asset
// carry the same primary-key literal.
func CheckDuplicatedKeysInAsset(m *Model, bus *Bus) *Model {
	for _, a := range m.Decls.Assets {
		seen := map[string]bool{}
		for _, in := range a.Init {
			key, _ := ExtractKeyValueFromMasset(a, in.Value)
			k := literalKeyString(key)
			if seen[k] {
				bus.EmitError(in.Loc, DuplicatedKeyAsset, a.Ident+"."+k)
			}
			seen[k] = true
		}
	}
	return m
}

func literalKeyString(mt *MT) string {
	if mt == nil {
		return ""
	}
	if mt.Tag == Mlittuple {
		s := ""
		for _, a := range mt.Args {
			s += literalKeyString(a) + ","
		}
		return s
	}
	return mt.Lit.Str + "#" + itoa(mt.Lit.Num) + "#" + btoa(mt.Lit.B)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func btoa(b bool) string {
	if b {
		return "t"
	}
	return "f"
}

// CheckAndReplaceInitCaller rewrites every `caller` context constant found
// in a default to the literal address caller, or, if caller is empty,
// records CallerNotSetInInit. Gated by Options.Caller (spec.md §4.5
// opt_caller). Function bodies, specifications and invariants are left
// as they are.
func CheckAndReplaceInitCaller(m *Model, bus *Bus, caller string) *Model {
	replace := func(ctx TraverseContext, mt *MT) *MT {
		if mt.Tag != Mcaller {
			return mt
		}
		if ctx.Func != nil || ctx.SpecID != "" || ctx.InvariantID != "" {
			return mt
		}
		if caller == "" {
			bus.EmitError(mt.Loc, CallerNotSetInInit, "")
			return mt
		}
		return &MT{Tag: Mlitaddress, Type: TAddress(), Loc: mt.Loc, Lit: Literal{Kind: LKaddress, Str: caller}}
	}
	return MapMTermModel(m, replace)
}

// CheckIfAssetInFunction fails if any function's argument, extra argument
// or return type exposes a bare asset<A> value — the runtime value of an
// asset is always a (key, record) pair, never the asset type itself.
func CheckIfAssetInFunction(m *Model, bus *Bus) *Model {
	for _, fn := range m.Functions {
		for _, p := range fn.Args {
			if p.Type.IsAssetType() {
				bus.EmitError(fn.Loc, CannotBuildAsset, fn.Name+"("+p.Ident+")")
			}
		}
		for _, p := range fn.ExtraArgs {
			if p.Type.IsAssetType() {
				bus.EmitError(fn.Loc, CannotBuildAsset, fn.Name+"("+p.Ident+")")
			}
		}
		if fn.Node.ReturnType.IsAssetType() {
			bus.EmitError(fn.Loc, CannotBuildAsset, fn.Name+": return")
		}
	}
	return m
}

// CheckUnusedVariables emits warnings (never errors) for function
// arguments and let-bindings that are never referenced in the scope they
// are visible in.
func CheckUnusedVariables(m *Model, bus *Bus) *Model {
	usesIdent := func(body *MT, name string) bool {
		if body == nil {
			return false
		}
		return FoldTermDeep(body, false, func(found bool, n *MT) bool {
			if found {
				return true
			}
			return (n.Tag == Mvar) && n.Ident == name
		})
	}
	for _, fn := range m.Functions {
		for _, p := range fn.Args {
			if !usesIdent(fn.Body, p.Ident) {
				bus.EmitWarning(fn.Loc, UnusedArgument, fn.Name+"("+p.Ident+")")
			}
		}
		if fn.Body != nil {
			FoldTermDeep(fn.Body, struct{}{}, func(_ struct{}, n *MT) struct{} {
				if n.Tag == Mlet && len(n.Args) == 2 {
					if !usesIdent(n.Args[1], n.Ident) {
						bus.EmitWarning(n.Loc, UnusedVariable, n.Ident)
					}
				}
				return struct{}{}
			})
		}
	}
	return m
}
