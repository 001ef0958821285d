package core

import "testing"

func lit(n int64) *MT { return &MT{Tag: Mlitint, Type: TInt(), Lit: Literal{Kind: LKint, Num: n}} }

func TestMapTermRewritesImmediateChildrenOnly(t *testing.T) {
	inner := NewNode(Madd, TInt(), Loc{}, lit(1), lit(2))
	outer := NewNode(Msub, TInt(), Loc{}, inner, lit(3))

	calls := 0
	got := MapTerm(outer, func(c *MT) *MT {
		calls++
		return c
	})

	if calls != 2 {
		t.Fatalf("expected 2 immediate children visited, got %d", calls)
	}
	if got.Tag != Msub || len(got.Args) != 2 {
		t.Fatalf("MapTerm changed node shape: %+v", got)
	}
}

func TestMapTermBottomUpVisitsEveryNode(t *testing.T) {
	tree := NewNode(Madd, TInt(), Loc{}, NewNode(Mmul, TInt(), Loc{}, lit(2), lit(3)), lit(4))

	var seen []MTag
	MapTermBottomUp(tree, func(mt *MT) *MT {
		seen = append(seen, mt.Tag)
		return mt
	})

	want := []MTag{Mlitint, Mlitint, Mmul, Mlitint, Madd}
	if len(seen) != len(want) {
		t.Fatalf("expected %d visits, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("visit order mismatch at %d: got %v want %v", i, seen, want)
		}
	}
}

func TestMapTermBottomUpRewrite(t *testing.T) {
	tree := NewNode(Madd, TInt(), Loc{}, lit(1), lit(2))
	doubled := MapTermBottomUp(tree, func(mt *MT) *MT {
		if mt.Tag == Mlitint {
			n := *mt
			n.Lit.Num *= 2
			return &n
		}
		return mt
	})
	if doubled.Args[0].Lit.Num != 2 || doubled.Args[1].Lit.Num != 4 {
		t.Fatalf("expected doubled literals, got %+v", doubled)
	}
}

func TestFoldTermDeepCountsAllNodes(t *testing.T) {
	tree := NewNode(Madd, TInt(), Loc{}, NewNode(Mmul, TInt(), Loc{}, lit(2), lit(3)), lit(4))
	count := FoldTermDeep(tree, 0, func(acc int, _ *MT) int { return acc + 1 })
	if count != 5 {
		t.Fatalf("expected 5 nodes, got %d", count)
	}
}

func TestEqualTermIgnoresLocButNotShape(t *testing.T) {
	a := NewNode(Madd, TInt(), Loc{File: "a.ae", Line: 1}, lit(1), lit(2))
	b := NewNode(Madd, TInt(), Loc{File: "b.ae", Line: 99}, lit(1), lit(2))
	if !EqualTerm(a, b) {
		t.Fatalf("expected terms differing only by Loc to be equal")
	}

	c := NewNode(Madd, TInt(), Loc{}, lit(1), lit(3))
	if EqualTerm(a, c) {
		t.Fatalf("expected terms with different literal payloads to differ")
	}
}

func TestEqualTermUpdatesAndTarget(t *testing.T) {
	mkAssign := func(v int64) *MT {
		return &MT{
			Tag: Massign,
			TargetV: Target{
				Kind:  TKassetField,
				Asset: "wallet",
				Field: "balance",
				Key:   lit(1),
			},
			Updates: []FieldUpdate{{Field: "balance", Op: AssignPlus, Value: lit(v)}},
		}
	}
	if !EqualTerm(mkAssign(5), mkAssign(5)) {
		t.Fatalf("expected identical assign-shaped terms to be equal")
	}
	if EqualTerm(mkAssign(5), mkAssign(6)) {
		t.Fatalf("expected differing update value to break equality")
	}
}

func TestWithChildrenRoundTripsParams(t *testing.T) {
	fn := &MT{
		Tag: Mlambda,
		Params: []Param{
			{Ident: "x", Type: TInt(), Default: lit(0)},
			{Ident: "y", Type: TInt()},
		},
		Args: []*MT{lit(1)},
	}
	out := MapTerm(fn, func(c *MT) *MT {
		n := *c
		n.Lit.Num += 100
		return &n
	})
	if out.Params[0].Default.Lit.Num != 100 {
		t.Fatalf("expected default param to be visited, got %+v", out.Params[0].Default)
	}
	if out.Params[1].Default != nil {
		t.Fatalf("expected nil default to stay nil")
	}
	if out.Args[0].Lit.Num != 101 {
		t.Fatalf("expected Args to be visited independently, got %+v", out.Args[0])
	}
}
