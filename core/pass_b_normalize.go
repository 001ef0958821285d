package core

import "fmt"

// Cohort B renormalises the shape of the term tree before any semantic
// lowering begins (spec.md §4.4 cohort B). Two binding-shaped tags share a
// fixed layout used throughout this file and the later cohorts: Mlet and
// Mdeclvar both carry `Ident` = the bound name, `Args[0]` = the bound
// expression, `Args[1]` = the body in which it is visible.

// PruneFormula strips every specification artefact from the model: var/
// enum-value/asset invariants and every function's FunctionSpec, plus the
// model-level Specification. Used only on the pure-code output path
// (spec.md §4.4 cohort B "prune_formula").
func PruneFormula(m *Model) *Model {
	out := m.Clone()
	out.Decls.Vars = make([]*VarDecl, len(m.Decls.Vars))
	for i, v := range m.Decls.Vars {
		nv := *v
		nv.Invariants = nil
		out.Decls.Vars[i] = &nv
	}
	out.Decls.Enums = make([]*EnumDecl, len(m.Decls.Enums))
	for i, e := range m.Decls.Enums {
		ne := *e
		ne.Values = make([]EnumValue, len(e.Values))
		for j, v := range e.Values {
			nv := v
			nv.Invariants = nil
			ne.Values[j] = nv
		}
		out.Decls.Enums[i] = &ne
	}
	out.Decls.Assets = make([]*AssetDecl, len(m.Decls.Assets))
	for i, a := range m.Decls.Assets {
		na := *a
		na.Invariants = nil
		out.Decls.Assets[i] = &na
	}
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		nf.Spec = nil
		out.Functions[i] = &nf
	}
	out.Specification = nil
	return out
}

// FlatSequence collapses nested Mseq nodes bottom-up: seq[seq[...], ...]
// flattens one level at a time until fully flat, seq[] becomes a unit
// skip, and a singleton seq[x] becomes x itself.
func FlatSequence(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mseq {
			return mt
		}
		var flat []*MT
		for _, a := range mt.Args {
			if a.Tag == Mseq {
				flat = append(flat, a.Args...)
			} else {
				flat = append(flat, a)
			}
		}
		switch len(flat) {
		case 0:
			return Skip(mt.Loc)
		case 1:
			return flat[0]
		default:
			out := *mt
			out.Args = flat
			return &out
		}
	})
}

// RemoveLabel drops every Mlabel wrapper, keeping only the labelled rest
// (used on paths that never need the mark-based loop-label resolution
// ExtendLoopIter relies on).
func RemoveLabel(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mlabel {
			return mt
		}
		if len(mt.Args) == 0 {
			return Skip(mt.Loc)
		}
		return mt.Args[0]
	})
}

// ReplaceLabelByMark turns every `label L; rest` into `mark(L, rest)`, so a
// label scopes the following suffix instead of being parsed as a
// standalone instruction (spec.md §9 Open Question — the "mark"
// interpretation this port commits to; see DESIGN.md). Any Mlabel
// surviving this pass is an internal-invariant violation, not a user
// error, and panics rather than being silently treated as a no-op.
func ReplaceLabelByMark(m *Model) *Model {
	out := MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mlabel {
			return mt
		}
		rest := Skip(mt.Loc)
		if len(mt.Args) > 0 {
			rest = mt.Args[0]
		}
		return &MT{Tag: Mmark, Type: mt.Type, Loc: mt.Loc, Ident: mt.Ident, Args: []*MT{rest}}
	})
	ForEachTerm(out, func(_ TraverseContext, mt *MT) {
		if mt.Tag == Mlabel {
			panic(fmt.Sprintf("core: free-standing Mlabel survived ReplaceLabelByMark at %s", mt.Loc))
		}
	})
	return out
}

// ReplaceDeclvarByLetin turns every `declvar id = e; rest` into
// `let id = e in rest`, so every later pass sees a single, uniform
// binding-introduction shape.
func ReplaceDeclvarByLetin(m *Model) *Model {
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != Mdeclvar {
			return mt
		}
		out := *mt
		out.Tag = Mlet
		return &out
	})
}

// RenameShadowVariable renames every specification shadow variable
// `v` to `v_<entry>` per owning function, so concatenating several
// functions' shadow effects into their bodies can never collide.
func RenameShadowVariable(m *Model) *Model {
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		if fn.Spec == nil || len(fn.Spec.Variables) == 0 {
			out.Functions[i] = &nf
			continue
		}
		rename := map[string]string{}
		newSpec := *fn.Spec
		newSpec.Variables = make([]SpecVar, len(fn.Spec.Variables))
		for j, sv := range fn.Spec.Variables {
			renamed := sv.Ident + "_" + fn.Name
			rename[sv.Ident] = renamed
			nsv := sv
			nsv.Ident = renamed
			newSpec.Variables[j] = nsv
		}
		applyRename := func(mt *MT) *MT {
			return MapTermBottomUp(mt, func(n *MT) *MT {
				if (n.Tag == Mvar || n.Tag == Mstoragevar) && rename[n.Ident] != "" {
					nn := *n
					nn.Ident = rename[n.Ident]
					return &nn
				}
				return n
			})
		}
		newSpec.ShadowEffects = make([]*MT, len(fn.Spec.ShadowEffects))
		for j, e := range fn.Spec.ShadowEffects {
			newSpec.ShadowEffects[j] = applyRename(e)
		}
		newSpec.Postconditions = renameInvariants(fn.Spec.Postconditions, applyRename)
		newSpec.Assertions = renameInvariants(fn.Spec.Assertions, applyRename)
		newSpec.Invariants = renameInvariants(fn.Spec.Invariants, applyRename)
		nf.Spec = &newSpec
		out.Functions[i] = &nf
	}
	return out
}

func renameInvariants(invs []Invariant, f func(*MT) *MT) []Invariant {
	if len(invs) == 0 {
		return invs
	}
	out := make([]Invariant, len(invs))
	for i, inv := range invs {
		out[i] = inv
		out[i].Expr = f(inv.Expr)
	}
	return out
}

// AssignLoopLabel attaches a unique synthetic label (stored in the loop
// node's Ident2) to every for/iter/while, derived from the enclosing
// function or spec context plus a monotonically increasing counter —
// later formula lowering (ExtendLoopIter) resolves `toiterate`/`iterated`
// by matching this label.
func AssignLoopLabel(m *Model) *Model {
	counter := 0
	return MapMTermModel(m, func(ctx TraverseContext, mt *MT) *MT {
		switch mt.Tag {
		case Mfor, Miter, Mwhile:
			counter++
			scope := ctx.SpecID
			if scope == "" {
				scope = "$model"
			}
			out := *mt
			out.Ident2 = fmt.Sprintf("%s$loop%d", scope, counter)
			return &out
		default:
			return mt
		}
	})
}

const (
	pseudoToIterate = "toiterate"
	pseudoIterated  = "iterated"
)

// ExtendLoopIter replaces the `toiterate`/`iterated` pseudo-variables
// inside invariants with MsetToIterate(c)/MsetIterated(c), where c is the
// collection expression of the nearest enclosing loop at that term
// position (spec.md §4.4 cohort B "extend_loop_iter").
func ExtendLoopIter(m *Model) *Model {
	return MapMTermModel(m, func(ctx TraverseContext, mt *MT) *MT {
		if mt.Tag != Mvar || ctx.Loop == nil || ctx.Loop.Collection == nil {
			return mt
		}
		switch mt.Ident {
		case pseudoToIterate:
			return &MT{Tag: MsetToIterate, Type: mt.Type, Loc: mt.Loc, Args: []*MT{ctx.Loop.Collection}}
		case pseudoIterated:
			return &MT{Tag: MsetIterated, Type: mt.Type, Loc: mt.Loc, Args: []*MT{ctx.Loop.Collection}}
		default:
			return mt
		}
	})
}

// TransferShadowVariableToStorage materialises every function's spec
// shadow variables as ghost storage items, so subsequent passes can read
// and write them as ordinary storage.
func TransferShadowVariableToStorage(m *Model) *Model {
	out := m.Clone()
	for _, fn := range m.Functions {
		if fn.Spec == nil {
			continue
		}
		for _, sv := range fn.Spec.Variables {
			out.Storage = append(out.Storage, StorageItem{
				Ident: sv.Ident, ModelKind: StorageVar, Type: sv.Type, Ghost: true, Loc: sv.Loc,
			})
		}
	}
	return out
}

// ConcatShadowEffectToExec splices each entry's shadow effects onto the
// end of its own body, sequenced after the entry's ordinary logic, once
// those variables are addressable storage (see
// TransferShadowVariableToStorage, which must run first).
func ConcatShadowEffectToExec(m *Model) *Model {
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		if fn.Spec != nil && len(fn.Spec.ShadowEffects) > 0 && fn.Node.Kind == NodeEntry {
			args := append([]*MT{fn.Body}, fn.Spec.ShadowEffects...)
			nf.Body = &MT{Tag: Mseq, Type: fn.Body.Type, Loc: fn.Loc, Args: args}
		}
		out.Functions[i] = &nf
	}
	return out
}
