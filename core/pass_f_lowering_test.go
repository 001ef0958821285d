package core

import "testing"

func TestRemoveRationalFlattensLiteral(t *testing.T) {
	ratLit := MakeRatLit(2, 4, Loc{})
	out := RemoveRational(modelWithBody(ratLit))
	body := bodyOf(out)
	if body.Tag != Mlittuple || body.Type.Tag != Ttuple {
		t.Fatalf("expected a flattened (int,nat) pair, got %+v", body)
	}
	if body.Args[0].Lit.Num != 1 || body.Args[1].Lit.Num != 2 {
		t.Fatalf("expected reduced 1/2, got %d/%d", body.Args[0].Lit.Num, body.Args[1].Lit.Num)
	}
}

func TestRemoveRationalArithCrossMultiplies(t *testing.T) {
	a := &MT{Tag: Mvar, Ident: "a", Type: TRational()}
	b := &MT{Tag: Mvar, Ident: "b", Type: TRational()}
	arith := &MT{Tag: Mratarith, Type: TRational(), Arith: OpPlus, Args: []*MT{a, b}}
	out := RemoveRational(modelWithBody(arith))
	body := bodyOf(out)
	if body.Tag != Mlittuple {
		t.Fatalf("expected cross-multiplied (int,nat) pair, got %+v", body)
	}
	if body.Args[0].Tag != Madd {
		t.Fatalf("expected numerator built from Madd, got %+v", body.Args[0])
	}
}

func TestReplaceDateDurationByTimestamp(t *testing.T) {
	litDate := &MT{Tag: Mlitdate, Type: TDate(), Lit: Literal{Kind: LKdate, Num: 1000}}
	out := ReplaceDateDurationByTimestamp(modelWithBody(litDate))
	body := bodyOf(out)
	if body.Tag != Mlittimestamp || body.Type.Tag != Ttimestamp {
		t.Fatalf("expected Mlittimestamp/Ttimestamp, got %+v", body)
	}
}

func TestAbsTezWrapsIntFactor(t *testing.T) {
	cur := &MT{Tag: Mvar, Ident: "price", Type: TCurrency()}
	factor := &MT{Tag: Mvar, Ident: "n", Type: TInt()}
	mul := &MT{Tag: Mmul, Type: TCurrency(), Args: []*MT{cur, factor}}
	out := AbsTez(modelWithBody(mul))
	body := bodyOf(out)
	if body.Args[1].Tag != Mabs {
		t.Fatalf("expected the int factor wrapped in Mabs, got %+v", body.Args[1])
	}
	if body.Args[0] != cur {
		t.Fatalf("expected the currency operand left untouched")
	}
}

func TestAbsTezIgnoresNonMixedMul(t *testing.T) {
	a := &MT{Tag: Mvar, Ident: "a", Type: TInt()}
	b := &MT{Tag: Mvar, Ident: "b", Type: TInt()}
	mul := &MT{Tag: Mmul, Type: TInt(), Args: []*MT{a, b}}
	out := AbsTez(modelWithBody(mul))
	if bodyOf(out).Args[1].Tag == Mabs {
		t.Fatalf("expected an int*int multiplication to be left untouched")
	}
}

func TestProcessInternalStringRewritesConcat(t *testing.T) {
	s1 := &MT{Tag: Mvar, Ident: "a", Type: TString()}
	s2 := &MT{Tag: Mvar, Ident: "b", Type: TString()}
	add := &MT{Tag: Madd, Type: TString(), Args: []*MT{s1, s2}}
	out := ProcessInternalString(modelWithBody(add))
	if bodyOf(out).Tag != Mconcat {
		t.Fatalf("expected string + string to become Mconcat, got %+v", bodyOf(out))
	}
}

func TestLazyEvalConditionRewritesAndOr(t *testing.T) {
	and := &MT{Tag: Mand, Type: TBool(), Args: []*MT{litBool(true, Loc{}), litBool(false, Loc{})}}
	out := LazyEvalCondition(modelWithBody(and))
	body := bodyOf(out)
	if body.Tag != Mif || body.Args[2].Lit.B != false {
		t.Fatalf("expected if(a, b, false), got %+v", body)
	}

	or := &MT{Tag: Mor, Type: TBool(), Args: []*MT{litBool(true, Loc{}), litBool(false, Loc{})}}
	out2 := LazyEvalCondition(modelWithBody(or))
	body2 := bodyOf(out2)
	if body2.Tag != Mif || body2.Args[1].Lit.B != true {
		t.Fatalf("expected if(a, true, b), got %+v", body2)
	}
}

func TestRemoveTernaryOperatorRewrites(t *testing.T) {
	tern := &MT{Tag: Mternary, Type: TInt(), Args: []*MT{litBool(true, Loc{}), lit(1), lit(2)}}
	out := RemoveTernaryOperator(modelWithBody(tern))
	if bodyOf(out).Tag != Mif {
		t.Fatalf("expected Mternary to become Mif, got %+v", bodyOf(out))
	}
}

func TestInstrToExprExecRecognisesSelfMutation(t *testing.T) {
	storageVar := &MT{Tag: Mstoragevar, Ident: "s", Type: TSet(TNat())}
	addCall := &MT{Tag: McollAdd, Type: TSet(TNat()), Args: []*MT{storageVar, lit(1)}}
	assign := &MT{Tag: Massign, TargetV: Target{Kind: TKstorageVar, Ident: "s"}, Args: []*MT{addCall}}
	out := InstrToExprExec(modelWithBody(assign))
	body := bodyOf(out)
	if body.Tag != MsetInstrAdd {
		t.Fatalf("expected MsetInstrAdd in-place form, got %+v", body)
	}
	if len(body.Args) != 1 || body.Args[0].Tag != Mlitint {
		t.Fatalf("expected the collection operand dropped, got %+v", body.Args)
	}
}

func TestInstrToExprExecIgnoresDifferentTarget(t *testing.T) {
	storageVar := &MT{Tag: Mstoragevar, Ident: "other", Type: TSet(TNat())}
	addCall := &MT{Tag: McollAdd, Type: TSet(TNat()), Args: []*MT{storageVar, lit(1)}}
	assign := &MT{Tag: Massign, TargetV: Target{Kind: TKstorageVar, Ident: "s"}, Args: []*MT{addCall}}
	out := InstrToExprExec(modelWithBody(assign))
	if bodyOf(out).Tag != Massign {
		t.Fatalf("expected assignment to an unrelated var to stay untouched, got %+v", bodyOf(out))
	}
}

func TestRemoveIterableBigMapIntroducesTriple(t *testing.T) {
	m := &Model{Storage: []StorageItem{
		{Ident: "registry", ModelKind: StorageAsset, AssetName: "token", Type: TIterableBigMap(TNat(), TString())},
		{Ident: "owner", ModelKind: StorageVar, Type: TAddress()},
	}}
	out := RemoveIterableBigMap(m)
	if len(out.Storage) != 4 {
		t.Fatalf("expected 3 new items + 1 untouched, got %d: %+v", len(out.Storage), out.Storage)
	}
	if out.Storage[0].Type.Tag != TbigMap {
		t.Fatalf("expected the registry item rewritten to a big_map, got %+v", out.Storage[0])
	}
	if out.Storage[1].Ident != "registry_index" || out.Storage[2].Ident != "registry_size" {
		t.Fatalf("expected _index/_size companions, got %+v", out.Storage[1:3])
	}
	if out.Storage[3].Ident != "owner" {
		t.Fatalf("expected the unrelated storage item preserved in place, got %+v", out.Storage[3])
	}
}

func TestRemoveDeclVarOptRewritesToMatch(t *testing.T) {
	opt := &MT{Tag: Mvar, Ident: "maybe", Type: TOption(TInt())}
	assignOpt := &MT{Tag: Massignopt, Ident: "x", Args: []*MT{opt, lit(0), lit(1)}}
	out := RemoveDeclVarOpt(modelWithBody(assignOpt))
	body := bodyOf(out)
	if body.Tag != Mlet || body.Args[0].Tag != Mmatch {
		t.Fatalf("expected let x = match ... in rest, got %+v", body)
	}
}
