package core

// Eval is the small partial evaluator UpdateNatIntRat, EvalStorage and
// EvalVariableInitialValue (cohort F/G) share: given a term built entirely
// from literals it folds it down to a single literal node; given anything
// else it evaluates children bottom-up and returns the rebuilt node
// unchanged at the top, since only a closed-over constant sub-term can
// ever be folded (spec.md §4.4 cohort F "rational literal construction",
// cohort G "storage default evaluation").
func Eval(mt *MT) *MT {
	if mt == nil {
		return nil
	}
	evaluated := MapTerm(mt, Eval)
	switch evaluated.Tag {
	case Muminus:
		if isLitInt(evaluated.Args[0]) {
			return litInt(-evaluated.Args[0].Lit.Num, evaluated.Args[0].Type, evaluated.Loc)
		}
	case Mnot:
		if isLitBool(evaluated.Args[0]) {
			return litBool(!evaluated.Args[0].Lit.B, evaluated.Loc)
		}
	case Madd, Msub, Mmul, Mdiv, Mmod:
		if isLitInt(evaluated.Args[0]) && isLitInt(evaluated.Args[1]) {
			if v, ok := foldArith(evaluated.Tag, evaluated.Args[0].Lit.Num, evaluated.Args[1].Lit.Num); ok {
				return litInt(v, evaluated.Args[0].Type, evaluated.Loc)
			}
		}
	case Mand:
		if isLitBool(evaluated.Args[0]) && isLitBool(evaluated.Args[1]) {
			return litBool(evaluated.Args[0].Lit.B && evaluated.Args[1].Lit.B, evaluated.Loc)
		}
	case Mor:
		if isLitBool(evaluated.Args[0]) && isLitBool(evaluated.Args[1]) {
			return litBool(evaluated.Args[0].Lit.B || evaluated.Args[1].Lit.B, evaluated.Loc)
		}
	case Meq, Mneq, Mlt, Mle, Mgt, Mge:
		if isLitInt(evaluated.Args[0]) && isLitInt(evaluated.Args[1]) {
			return litBool(foldCmp(evaluated.Tag, evaluated.Args[0].Lit.Num, evaluated.Args[1].Lit.Num), evaluated.Loc)
		}
	case MtupleAccess:
		if evaluated.Args[0].Tag == Mlittuple {
			if i := evaluated.Lit.Num; i >= 0 && int(i) < len(evaluated.Args[0].Args) {
				return evaluated.Args[0].Args[int(i)]
			}
		}
	case MintToNat:
		if isLitInt(evaluated.Args[0]) && evaluated.Args[0].Lit.Num >= 0 {
			return litInt(evaluated.Args[0].Lit.Num, TNat(), evaluated.Loc)
		}
	case MratCtorDiv:
		if isLitInt(evaluated.Args[0]) && isLitInt(evaluated.Args[1]) && evaluated.Args[1].Lit.Num != 0 {
			return MakeRatLit(evaluated.Args[0].Lit.Num, evaluated.Args[1].Lit.Num, evaluated.Loc)
		}
	case Mratarith:
		if isLitRat(evaluated.Args[0]) && isLitRat(evaluated.Args[1]) {
			a, b := evaluated.Args[0], evaluated.Args[1]
			switch evaluated.Arith {
			case OpPlus:
				return RatAdd(a, b)
			case OpMinus:
				return RatSub(a, b)
			case OpMult:
				return RatMul(a, b)
			case OpDiv:
				if b.Lit.Num != 0 {
					return RatDiv(a, b)
				}
			}
		}
	case Mratuminus:
		if isLitRat(evaluated.Args[0]) {
			return RatNeg(evaluated.Args[0])
		}
	case Mrateq:
		if isLitRat(evaluated.Args[0]) && isLitRat(evaluated.Args[1]) {
			return litBool(RatCompare(evaluated.Args[0], evaluated.Args[1]) == 0, evaluated.Loc)
		}
	case Mratcmp:
		if isLitRat(evaluated.Args[0]) && isLitRat(evaluated.Args[1]) {
			return litInt(int64(RatCompare(evaluated.Args[0], evaluated.Args[1])), TInt(), evaluated.Loc)
		}
	}
	return evaluated
}

func isLitRat(mt *MT) bool {
	return mt.Tag == MratCtorLit
}

func isLitInt(mt *MT) bool {
	return mt.Tag == Mlitint || mt.Tag == Mlitnat
}

func isLitBool(mt *MT) bool {
	return mt.Tag == Mlitbool
}

func litInt(v int64, t Type, loc Loc) *MT {
	tag := Mlitint
	kind := LKint
	if t.Tag == Tnat {
		tag = Mlitnat
		kind = LKnat
	}
	return &MT{Tag: tag, Type: t, Loc: loc, Lit: Literal{Kind: kind, Num: v}}
}

func litBool(v bool, loc Loc) *MT {
	return &MT{Tag: Mlitbool, Type: TBool(), Loc: loc, Lit: Literal{Kind: LKbool, B: v}}
}

func foldArith(tag MTag, a, b int64) (int64, bool) {
	switch tag {
	case Madd:
		return a + b, true
	case Msub:
		return a - b, true
	case Mmul:
		return a * b, true
	case Mdiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case Mmod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	default:
		return 0, false
	}
}

func foldCmp(tag MTag, a, b int64) bool {
	switch tag {
	case Meq:
		return a == b
	case Mneq:
		return a != b
	case Mlt:
		return a < b
	case Mle:
		return a <= b
	case Mgt:
		return a > b
	case Mge:
		return a >= b
	default:
		return false
	}
}

// WithOperationsForMTerm reports whether fn's body can push to the pending
// operations list — directly via an assignment targeting TKoperations, or
// implicitly via Mtransfer/Memit/MmkOperation — which ReverseOperations
// (cohort G) uses to decide whether the function's body gets the closing
// `operations := reverse(operations)`.
func WithOperationsForMTerm(fn *Function) bool {
	if fn.Body == nil {
		return false
	}
	return FoldTermDeep(fn.Body, false, func(found bool, mt *MT) bool {
		if found {
			return true
		}
		switch mt.Tag {
		case Mtransfer, Memit, MmkOperation:
			return true
		case Massign, Massignopt:
			return mt.TargetV.Kind == TKoperations
		default:
			return false
		}
	})
}

// ExtractKeyValueFromMasset splits a literal Mlitasset term (whose
// FieldNames/Args are parallel, in a's field-declaration order) into its
// key expression — a single literal, or an Mlittuple of key literals for a
// multi-key asset — and its value expression, chosen per cohort E's
// storage-shape rule (spec.md §4.4 cohort E point 1): nil for a key-only
// asset, the sole non-key literal for a single-value asset, or an
// Mlitrecord of the remaining fields otherwise.
func ExtractKeyValueFromMasset(a *AssetDecl, lit *MT) (key *MT, value *MT) {
	if lit.Tag != Mlitasset {
		panic("core: ExtractKeyValueFromMasset: not an Mlitasset term")
	}
	byName := make(map[string]*MT, len(lit.FieldNames))
	for i, n := range lit.FieldNames {
		byName[n] = lit.Args[i]
	}

	if len(a.Keys) == 1 {
		key = byName[a.Keys[0]]
	} else {
		keys := make([]*MT, len(a.Keys))
		keyTypes := make([]Type, len(a.Keys))
		for i, k := range a.Keys {
			keys[i] = byName[k]
			keyTypes[i] = byName[k].Type
		}
		key = &MT{Tag: Mlittuple, Type: TTuple(keyTypes...), Loc: lit.Loc, Args: keys}
	}

	if IsAssetSingleField(a) {
		return key, nil
	}
	if IsSingleValueAsset(a) {
		return key, byName[SingleValueField(a).Ident]
	}

	var names []string
	var vals []*MT
	for _, f := range a.Fields {
		if a.IsKey(f.Ident) {
			continue
		}
		names = append(names, f.Ident)
		vals = append(vals, byName[f.Ident])
	}
	value = &MT{
		Tag:        Mlitrecord,
		Type:       TRecord(a.Ident + "_value"),
		Loc:        lit.Loc,
		Args:       vals,
		FieldNames: names,
	}
	return key, value
}
