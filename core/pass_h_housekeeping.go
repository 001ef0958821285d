package core

// Cohort H is pure housekeeping: extracting subterms the back-end cannot
// evaluate in certain nested positions into preceding let-bindings
// (spec.md §4.4 cohort H).

// extractTermFromInstruction drives the single generic transform every
// `remove_letin_from_expr`/`remove_fun_dotasset`-style pass is built from:
// for every immediate subexpression of mt that f flags for extraction, f
// returns a replacement reference plus the (ident, init) binding pair to
// wrap the whole instruction in.
func extractTermFromInstruction(mt *MT, f func(*MT) (*MT, string, *MT, bool)) *MT {
	var binds []struct {
		ident string
		init  *MT
	}
	newArgs := make([]*MT, len(mt.Args))
	for i, a := range mt.Args {
		if repl, ident, init, ok := f(a); ok {
			newArgs[i] = repl
			binds = append(binds, struct {
				ident string
				init  *MT
			}{ident, init})
		} else {
			newArgs[i] = a
		}
	}
	out := *mt
	out.Args = newArgs
	var result *MT = &out
	for i := len(binds) - 1; i >= 0; i-- {
		b := binds[i]
		result = &MT{Tag: Mlet, Type: result.Type, Loc: mt.Loc, Ident: b.ident, Args: []*MT{b.init, result}}
	}
	return result
}

// letinNamer hands out the _t$letin1, _t$letin2, ... temporaries one
// extraction pass needs. Scoped per pass invocation so repeated pipeline
// runs generate identical names (spec.md §8 determinism).
type letinNamer struct{ n int64 }

func (l *letinNamer) fresh() string {
	l.n++
	return "_t$letin" + itoa(l.n)
}

// extractableCall reports whether a term is a call-shaped node the
// back-end cannot evaluate nested inside an arbitrary expression position
// (an entry/view call or an asset-API effect used for its value).
func extractableCall(mt *MT) bool {
	switch mt.Tag {
	case McallEntry, McallView, MassetAdd, MassetRemove, MassetUpdate, MassetPut:
		return true
	default:
		return false
	}
}

// RemoveLetinFromExpr hoists any call-shaped subexpression nested inside
// an instruction's arguments into a preceding let-binding, using
// extractTermFromInstruction as the generic driver.
func RemoveLetinFromExpr(m *Model) *Model {
	var names letinNamer
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag == Mlet || len(mt.Args) == 0 {
			return mt
		}
		needsExtraction := false
		for _, a := range mt.Args {
			if extractableCall(a) {
				needsExtraction = true
				break
			}
		}
		if !needsExtraction {
			return mt
		}
		return extractTermFromInstruction(mt, func(a *MT) (*MT, string, *MT, bool) {
			if !extractableCall(a) {
				return nil, "", nil, false
			}
			ident := names.fresh()
			ref := &MT{Tag: Mvar, Type: a.Type, Loc: a.Loc, Ident: ident}
			return ref, ident, a, true
		})
	})
}

// RemoveFunDotasset hoists a nested `A[k].f`-shaped MdotAssetField
// reference out of a call's argument list the same way, for back-ends
// that cannot evaluate a dotted asset-field projection inline within a
// call expression.
func RemoveFunDotasset(m *Model) *Model {
	var names letinNamer
	return MapMTermModel(m, func(_ TraverseContext, mt *MT) *MT {
		if mt.Tag != McallEntry && mt.Tag != McallView {
			return mt
		}
		hasDot := false
		for _, a := range mt.Args {
			if a.Tag == MdotAssetField {
				hasDot = true
				break
			}
		}
		if !hasDot {
			return mt
		}
		return extractTermFromInstruction(mt, func(a *MT) (*MT, string, *MT, bool) {
			if a.Tag != MdotAssetField {
				return nil, "", nil, false
			}
			ident := names.fresh()
			ref := &MT{Tag: Mvar, Type: a.Type, Loc: a.Loc, Ident: ident}
			return ref, ident, a, true
		})
	})
}

// foldCK dispatches a container-fold over an asset-API node's collection
// to the concrete primitive shape matching its ContainerKindTag, the
// small shared helper several cohort E/F passes describe informally as
// "fold_ck" in spec.md.
func foldCK(m *Model, infos map[string]assetLowering, mt *MT, body func(coll *MT) *MT) *MT {
	switch mt.CKind {
	case CKcoll:
		return body(storageVarFor(mt.Asset, infos[mt.Asset], mt.Loc))
	case CKfield:
		return body(containerTermFor(m, infos, mt, 0))
	case CKview:
		return body(mt.Args[0])
	default:
		panic("core: foldCK: unreachable ContainerKindTag")
	}
}
