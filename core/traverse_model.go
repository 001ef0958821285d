package core

// LoopContext records the label and source collection of the loop
// enclosing the current traversal position, consumed by ExtendLoopIter
// (cohort B) to resolve the `toiterate`/`iterated` pseudo-variables.
type LoopContext struct {
	Label      string
	Collection *MT
}

// TraverseContext is threaded by MapMTermModel through every term position
// of a Model, per spec.md §4.1: the enclosing function (nil at storage/
// global-spec positions), the nearest enclosing Mmark label, the id of the
// enclosing specification clause (function name, "$model" in the
// model-level specification, "" at declaration and storage positions),
// the id of the enclosing invariant/predicate (its Ident, if any), and the
// nearest enclosing loop.
type TraverseContext struct {
	Func        *Function
	Label       string
	SpecID      string
	InvariantID string
	Loop        *LoopContext
}

func (ctx TraverseContext) withLabel(l string) TraverseContext {
	ctx.Label = l
	return ctx
}

func (ctx TraverseContext) withLoop(label string, coll *MT) TraverseContext {
	ctx.Loop = &LoopContext{Label: label, Collection: coll}
	return ctx
}

func (ctx TraverseContext) withInvariant(id string) TraverseContext {
	ctx.InvariantID = id
	return ctx
}

// mapMTermCtx rewrites every node of mt bottom-up, calling f with the
// context describing that node's *enclosing* scope (context updates for
// Mmark/Mfor/Miter/Mwhile apply to the subtree under the node, not to the
// node's own callback invocation — mirroring lexical scoping). An Mfor's
// iterated collection (Args[0]) is outside the loop and keeps ctx.
func mapMTermCtx(ctx TraverseContext, mt *MT, f func(TraverseContext, *MT) *MT) *MT {
	if mt == nil {
		return nil
	}
	childCtx := ctx
	switch mt.Tag {
	case Mmark:
		childCtx = ctx.withLabel(mt.Ident)
	case Mfor:
		coll := (*MT)(nil)
		if len(mt.Args) > 0 {
			coll = mt.Args[0]
		}
		childCtx = ctx.withLoop(mt.Ident2, coll)
	case Miter, Mwhile:
		childCtx = ctx.withLoop(mt.Ident2, nil)
	}
	i := 0
	rebuilt := MapTerm(mt, func(c *MT) *MT {
		cctx := childCtx
		if mt.Tag == Mfor && i == 0 && len(mt.Args) > 0 {
			cctx = ctx
		}
		i++
		return mapMTermCtx(cctx, c, f)
	})
	return f(ctx, rebuilt)
}

// MapMTermModel walks every term position of mdl — every function body,
// every var/asset-field/storage default, every invariant on a var/enum/
// asset, every clause of every function specification and the model-level
// specification — rewriting each with f, and returns a new Model.
func MapMTermModel(mdl *Model, f func(TraverseContext, *MT) *MT) *Model {
	out := mdl.Clone()
	base := TraverseContext{}

	mapOpt := func(ctx TraverseContext, mt *MT) *MT {
		if mt == nil {
			return nil
		}
		return mapMTermCtx(ctx, mt, f)
	}
	mapInvariants := func(ctx TraverseContext, invs []Invariant) []Invariant {
		if len(invs) == 0 {
			return invs
		}
		out := make([]Invariant, len(invs))
		for i, inv := range invs {
			out[i] = inv
			out[i].Expr = mapOpt(ctx.withInvariant(inv.Ident), inv.Expr)
		}
		return out
	}

	out.Decls.Vars = make([]*VarDecl, len(mdl.Decls.Vars))
	for i, v := range mdl.Decls.Vars {
		nv := *v
		nv.Default = mapOpt(base, v.Default)
		nv.Invariants = mapInvariants(base, v.Invariants)
		out.Decls.Vars[i] = &nv
	}

	out.Decls.Enums = make([]*EnumDecl, len(mdl.Decls.Enums))
	for i, e := range mdl.Decls.Enums {
		ne := *e
		ne.Values = make([]EnumValue, len(e.Values))
		for j, v := range e.Values {
			nv := v
			nv.Invariants = mapInvariants(base, v.Invariants)
			ne.Values[j] = nv
		}
		out.Decls.Enums[i] = &ne
	}

	out.Decls.Assets = make([]*AssetDecl, len(mdl.Decls.Assets))
	for i, a := range mdl.Decls.Assets {
		na := *a
		na.Fields = make([]AssetField, len(a.Fields))
		for j, fld := range a.Fields {
			nf := fld
			nf.Default = mapOpt(base, fld.Default)
			na.Fields[j] = nf
		}
		na.Init = make([]AssetInit, len(a.Init))
		for j, in := range a.Init {
			ni := in
			ni.Value = mapOpt(base, in.Value)
			na.Init[j] = ni
		}
		na.Invariants = mapInvariants(base, a.Invariants)
		out.Decls.Assets[i] = &na
	}

	out.Storage = make([]StorageItem, len(mdl.Storage))
	for i, s := range mdl.Storage {
		ns := s
		ns.Default = mapOpt(base, s.Default)
		out.Storage[i] = ns
	}

	mapSpec := func(ctx TraverseContext, spec *FunctionSpec) *FunctionSpec {
		if spec == nil {
			return nil
		}
		ns := *spec
		ns.Predicates = mapInvariants(ctx, spec.Predicates)
		ns.Definitions = mapInvariants(ctx, spec.Definitions)
		ns.Lemmas = mapInvariants(ctx, spec.Lemmas)
		ns.Theorems = mapInvariants(ctx, spec.Theorems)
		ns.Invariants = mapInvariants(ctx, spec.Invariants)
		ns.Postconditions = mapInvariants(ctx, spec.Postconditions)
		ns.Assertions = mapInvariants(ctx, spec.Assertions)
		ns.ShadowEffects = make([]*MT, len(spec.ShadowEffects))
		for i, e := range spec.ShadowEffects {
			ns.ShadowEffects[i] = mapOpt(ctx, e)
		}
		ns.Fails = make([]*MT, len(spec.Fails))
		for i, e := range spec.Fails {
			ns.Fails[i] = mapOpt(ctx, e)
		}
		return &ns
	}

	out.Functions = make([]*Function, len(mdl.Functions))
	for i, fn := range mdl.Functions {
		nf := *fn
		ctx := TraverseContext{Func: &nf, SpecID: fn.Name}
		nf.Body = mapOpt(ctx, fn.Body)
		args := make([]Param, len(fn.Args))
		for j, p := range fn.Args {
			np := p
			np.Default = mapOpt(ctx, p.Default)
			args[j] = np
		}
		nf.Args = args
		nf.Spec = mapSpec(ctx, fn.Spec)
		out.Functions[i] = &nf
	}

	out.Specification = mapSpec(TraverseContext{SpecID: "$model"}, mdl.Specification)
	return out
}

// ForEachTerm visits every term position of mdl (read-only), in the same
// order MapMTermModel would rewrite them.
func ForEachTerm(mdl *Model, visit func(TraverseContext, *MT)) {
	MapMTermModel(mdl, func(ctx TraverseContext, mt *MT) *MT {
		visit(ctx, mt)
		return mt
	})
}
