package core

// Cohort G is the whole-program, environment-facing pass group: storage
// shape finalisation, constant inlining, entry/getter/parameter wiring,
// and the bookkeeping the back-end needs per function (spec.md §4.4
// cohort G).

// ProcessSingleFieldStorage renames every `s.x` reference to a local
// parameter `_s` threaded through every function when storage has exactly
// one slot, avoiding an implicit global for the common single-variable
// contract.
func ProcessSingleFieldStorage(m *Model) *Model {
	if len(m.Storage) != 1 {
		return m
	}
	slot := m.Storage[0]
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		nf.ExtraArgs = append(append([]Param{}, fn.ExtraArgs...), Param{Ident: "_s", Type: slot.Type})
		nf.Body = MapTermBottomUp(fn.Body, func(n *MT) *MT {
			if n.Tag == Mstoragevar && n.Ident == slot.Ident {
				nn := *n
				nn.Tag = Mvar
				nn.Ident = "_s"
				return &nn
			}
			return n
		})
		out.Functions[i] = &nf
	}
	return out
}

func storageIdentsUsed(body *MT) map[string]bool {
	used := map[string]bool{}
	ForEachTermInBody(body, func(n *MT) {
		if n.Tag == Mstoragevar {
			used[n.Ident] = true
		}
		if n.Tag == Massign && (n.TargetV.Kind == TKstorageVar) {
			used[n.TargetV.Ident] = true
		}
	})
	return used
}

// ForEachTermInBody visits every node of a single term tree (every child
// position children reports, children before parent), independent
// of the whole-model traversal MapMTermModel drives.
func ForEachTermInBody(mt *MT, visit func(*MT)) {
	if mt == nil {
		return
	}
	for _, a := range children(mt) {
		ForEachTermInBody(a, visit)
	}
	visit(mt)
}

// RemoveStorageFieldInFunction computes, per function, the set of storage
// identifiers its body (transitively, through callees) accesses, and
// records it as ExtraArgs so a later back-end can thread storage
// explicitly rather than through an implicit global. Iterates to a
// fixpoint since a callee may use storage its caller's body never
// mentions directly.
func RemoveStorageFieldInFunction(m *Model) *Model {
	out := m.Clone()
	used := map[string]map[string]bool{}
	for _, fn := range m.Functions {
		used[fn.Name] = storageIdentsUsed(fn.Body)
	}
	callees := map[string][]string{}
	for _, fn := range m.Functions {
		ForEachTermInBody(fn.Body, func(n *MT) {
			if n.Tag == McallEntry || n.Tag == McallView {
				callees[fn.Name] = append(callees[fn.Name], n.Ident)
			}
		})
	}
	for changed := true; changed; {
		changed = false
		for _, fn := range m.Functions {
			for _, callee := range callees[fn.Name] {
				for ident := range used[callee] {
					if !used[fn.Name][ident] {
						used[fn.Name][ident] = true
						changed = true
					}
				}
			}
		}
	}
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		var extra []Param
		for _, s := range m.Storage {
			if used[fn.Name][s.Ident] {
				extra = append(extra, Param{Ident: s.Ident, Type: s.Type})
			}
		}
		nf.ExtraArgs = append(append([]Param{}, fn.ExtraArgs...), extra...)
		out.Functions[i] = &nf
	}
	return out
}

// RemoveConstant inlines every `constant` declaration's default term at
// every reference, then drops the declaration.
func RemoveConstant(m *Model) *Model {
	values := map[string]*MT{}
	for _, v := range m.Decls.Vars {
		if v.Kind == VarConst {
			values[v.Ident] = v.Default
		}
	}
	if len(values) == 0 {
		return m
	}
	out := MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mvar {
			return mt
		}
		if v, ok := values[mt.Ident]; ok {
			return v
		}
		return mt
	})
	out = out.Clone()
	var kept []*VarDecl
	for _, v := range out.Decls.Vars {
		if v.Kind != VarConst {
			kept = append(kept, v)
		}
	}
	out.Decls.Vars = kept
	return out
}

// EvalStorage folds literal storage defaults in declaration order,
// threading each item's evaluated value into the environment so later
// items can reference earlier ones.
func EvalStorage(m *Model) *Model {
	out := m.Clone()
	env := map[string]*MT{}
	out.Storage = make([]StorageItem, len(m.Storage))
	for i, s := range m.Storage {
		ns := s
		if s.Default != nil {
			substituted := MapTermBottomUp(s.Default, func(n *MT) *MT {
				if n.Tag == Mstoragevar || n.Tag == Mvar {
					if v, ok := env[n.Ident]; ok {
						return v
					}
				}
				return n
			})
			ns.Default = Eval(substituted)
			env[s.Ident] = ns.Default
		}
		out.Storage[i] = ns
	}
	return out
}

func sortKeyOf(mt *MT) string {
	switch mt.Tag {
	case Mlitint, Mlitnat:
		// fixed-width hex of the sign-flipped value, so text order is
		// numeric order (plain decimal text would put 10 before 9)
		u := uint64(mt.Lit.Num) ^ (1 << 63)
		b := make([]byte, 16)
		for i := 15; i >= 0; i-- {
			b[i] = "0123456789abcdef"[u&15]
			u >>= 4
		}
		return string(b)
	case Mlitstring, Mlitaddress, Mlitbytes:
		return mt.Lit.Str
	case Mlitbool:
		return btoa(mt.Lit.B)
	default:
		return literalKeyString(mt)
	}
}

// NormalizeStorage (sort_container) canonicalises every literal set/map
// the model holds (storage defaults and every other term position) by
// ascending key order, so two structurally-equal values always serialise
// identically regardless of source order. Integer keys compare
// numerically; other keys compare by their literal text.
func NormalizeStorage(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Mlitset:
			sorted := append([]*MT(nil), mt.Args...)
			sortTerms(sorted, sortKeyOf)
			out := *mt
			out.Args = sorted
			return &out
		case Mlitmap:
			sorted := append([]*MT(nil), mt.Args...)
			sortTerms(sorted, func(kv *MT) string { return sortKeyOf(kv.Args[0]) })
			out := *mt
			out.Args = sorted
			return &out
		default:
			return mt
		}
	})
}

func sortTerms(items []*MT, key func(*MT) string) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && key(items[j-1]) > key(items[j]); j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

// ReverseOperations appends `operations := reverse(operations)` to every
// function body that assigns to the pending-operations list, so the
// append-to-head internal representation ends up in call order once
// emitted.
func ReverseOperations(m *Model) *Model {
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		if WithOperationsForMTerm(fn) {
			opsVar := Target{Kind: TKoperations}
			opsRead := &MT{Tag: Mvar, Type: TList(TOperation()), Loc: fn.Loc, Ident: "operations"}
			reversed := &MT{Tag: Mconcat, Type: opsRead.Type, Loc: fn.Loc, Args: []*MT{opsRead}}
			reverseStmt := &MT{Tag: Massign, Type: TUnit(), Loc: fn.Loc, TargetV: opsVar, Args: []*MT{reversed}}
			nf.Body = seqOf(fn.Loc, fn.Body, reverseStmt)
		}
		out.Functions[i] = &nf
	}
	return out
}

// ProcessParameter turns every contract-call parameter into a storage
// variable (one per Entry argument), and ProcessMetadata chooses the
// `%metadata` representation: a URI bytes value when Extra["metadata_uri"]
// is set, a JSON-embedded pointer when Extra["metadata_json"] is set, else
// a parameter-driven value left for the caller to supply at origination.
func ProcessParameter(m *Model) *Model {
	out := m.Clone()
	seen := map[string]bool{}
	for _, fn := range m.Functions {
		if fn.Node.Kind != NodeEntry {
			continue
		}
		for _, p := range fn.Args {
			if seen[p.Ident] {
				continue
			}
			seen[p.Ident] = true
			out.Storage = append(out.Storage, StorageItem{Ident: p.Ident, ModelKind: StorageVar, Type: p.Type, Loc: fn.Loc})
		}
	}
	return out
}

func ProcessMetadata(m *Model) *Model {
	out := m.Clone()
	var value *MT
	switch {
	case m.Extra["metadata_uri"] != "":
		value = &MT{Tag: Mlitbytes, Type: TBytes(), Lit: Literal{Kind: LKbytes, Str: m.Extra["metadata_uri"]}}
	case m.Extra["metadata_json"] != "":
		value = &MT{Tag: Mlitbytes, Type: TBytes(), Lit: Literal{Kind: LKbytes, Str: "tezos-storage:here"}}
	default:
		return out
	}
	out.Storage = append(out.Storage, StorageItem{Ident: "metadata", ModelKind: StorageVar, Type: TBigMap(TString(), TBytes()), Default: value})
	return out
}

// EvalVariableInitialValue constant-folds every remaining var default by
// substituting previously evaluated defaults, the non-storage sibling of
// EvalStorage (run after RemoveConstant, so only mutable `var` defaults
// remain).
func EvalVariableInitialValue(m *Model) *Model {
	out := m.Clone()
	env := map[string]*MT{}
	out.Decls.Vars = make([]*VarDecl, len(m.Decls.Vars))
	for i, v := range m.Decls.Vars {
		nv := *v
		if v.Default != nil {
			substituted := MapTermBottomUp(v.Default, func(n *MT) *MT {
				if n.Tag == Mvar {
					if val, ok := env[n.Ident]; ok {
						return val
					}
				}
				return n
			})
			nv.Default = Eval(substituted)
			env[v.Ident] = nv.Default
		}
		out.Decls.Vars[i] = &nv
	}
	return out
}

// GetterToEntry rewrites every Getter-kind function returning T as an
// Entry taking an extra `_cb : contract<T>` callback parameter, replacing
// every `return x` with `transfer to _cb(x)`.
func GetterToEntry(m *Model) *Model {
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		if fn.Node.Kind != NodeGetter {
			out.Functions[i] = fn
			continue
		}
		nf := *fn
		cbType := TContractOf(fn.Node.ReturnType)
		nf.ExtraArgs = append(append([]Param{}, fn.ExtraArgs...), Param{Ident: "_cb", Type: cbType})
		nf.Node = FuncNode{Kind: NodeEntry}
		nf.Body = MapTermBottomUp(fn.Body, func(n *MT) *MT {
			if n.Tag != Mreturn {
				return n
			}
			op := &MT{Tag: MmkOperation, Type: TOperation(), Loc: n.Loc, Args: []*MT{
				{Tag: Mvar, Type: cbType, Loc: n.Loc, Ident: "_cb"}, n.Args[0], litInt(0, TCurrency(), n.Loc),
			}}
			return &MT{
				Tag: Massign, Type: TUnit(), Loc: n.Loc, TargetV: Target{Kind: TKoperations},
				Args: []*MT{{Tag: Mconcat, Type: TList(TOperation()), Loc: n.Loc, Args: []*MT{op}}},
			}
		})
		out.Functions[i] = &nf
	}
	return out
}

// TestMode, gated by Options.TestMode (core/driver.go), introduces a
// `_now : timestamp` storage variable and a `_set_now` entry writing to
// it, redirecting every Mnow to that variable — off by default so
// production builds keep the VM's real clock.
func TestMode(m *Model) *Model {
	out := m.Clone()
	out.Storage = append(out.Storage, StorageItem{Ident: "_now", ModelKind: StorageVar, Type: TTimestamp()})
	setNow := &Function{
		Name: "_set_now", Node: FuncNode{Kind: NodeEntry},
		Args: []Param{{Ident: "v", Type: TTimestamp()}},
		Body: &MT{
			Tag: Massign, Type: TUnit(), TargetV: Target{Kind: TKstorageVar, Ident: "_now"},
			Args: []*MT{{Tag: Mvar, Type: TTimestamp(), Ident: "v"}},
		},
	}
	out.Functions = append(append([]*Function{}, m.Functions...), setNow)
	return MapMTermModel(out, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mnow {
			return mt
		}
		return &MT{Tag: Mstoragevar, Type: TTimestamp(), Loc: mt.Loc, Ident: "_now"}
	})
}

// PatchFA2 specialises arm annotations of specific entry-point types
// (transfer/balance_of/update_operators) to match the FA2 token-standard
// ABI, when Extra["token_standard"] == "fa2".
func PatchFA2(m *Model) *Model {
	if m.Extra["token_standard"] != "fa2" {
		return m
	}
	out := m.Clone()
	for i, fn := range out.Functions {
		nf := *fn
		switch fn.Name {
		case "transfer":
			nf.Args = annotateArgs(fn.Args, "%transfer")
		case "balance_of":
			nf.Args = annotateArgs(fn.Args, "%balance_of")
		case "update_operators":
			nf.Args = annotateArgs(fn.Args, "%update_operators")
		}
		out.Functions[i] = &nf
	}
	return out
}

func annotateArgs(args []Param, annot string) []Param {
	if len(args) == 0 {
		return args
	}
	out := append([]Param(nil), args...)
	out[0].Type.Annot = annot
	return out
}

// FillStovars computes, per function, the set of storage identifiers its
// body actually reads or writes and attaches it as Function.StoredVars,
// for the back-end to emit precise VM effect annotations.
func FillStovars(m *Model) *Model {
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		used := storageIdentsUsed(fn.Body)
		var vars []string
		for _, s := range m.Storage {
			if used[s.Ident] {
				vars = append(vars, s.Ident)
			}
		}
		nf.StoredVars = vars
		out.Functions[i] = &nf
	}
	return out
}

// FilterAPIStorage canonicalises the list of required helper operations
// emitted by earlier passes, collapsing CKcoll/CKview variants of the same
// named operation into one entry.
func FilterAPIStorage(m *Model) *Model {
	out := m.Clone()
	seen := map[string]bool{}
	var kept []APIItem
	for _, it := range append(append([]APIItem{}, m.APIItems...), m.APIVerif...) {
		key := it.Name + "/" + it.Asset
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, APIItem{Name: it.Name, Asset: it.Asset, CKind: CKcoll})
	}
	out.APIItems = kept
	return out
}

// ProcessFail rewrites `InvalidCondition(_, Some v)` into `Invalid(v)` now
// that condition labels are no longer needed once validation has run.
func ProcessFail(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mfail || len(mt.Args) != 2 {
			return mt
		}
		if mt.Args[0].Tag != Mlitstring || mt.Args[0].Lit.Str != InvalidConditionKind.String() {
			return mt
		}
		out := *mt
		out.Args = mt.Args[1:]
		return &out
	})
}
