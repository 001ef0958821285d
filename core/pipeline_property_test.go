package core

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// fa12PipelineModel builds a fresh minimal fa12-style contract with both
// halves of the scenario: a big_map-backed ledger whose transfer entry is
// the `ledger.add_update(to_, { tokens += value })` convenience call, and
// a multi-key allowance big_map with an `approve` add_update on the
// `(owner, spender)` tuple key plus a member-key read of `spender`.
func fa12PipelineModel() *Model {
	ledger := &AssetDecl{
		Ident: "ledger", Keys: []string{"holder"}, MapKind: MapBig,
		Fields: []AssetField{
			{Ident: "holder", OriginalType: TAddress(), CurrentType: TAddress()},
			{Ident: "tokens", OriginalType: TNat(), CurrentType: TNat()},
		},
	}
	allowance := &AssetDecl{
		Ident: "allowance", Keys: []string{"owner", "spender"}, MapKind: MapBig,
		Fields: []AssetField{
			{Ident: "owner", OriginalType: TAddress(), CurrentType: TAddress()},
			{Ident: "spender", OriginalType: TAddress(), CurrentType: TAddress()},
			{Ident: "amount", OriginalType: TNat(), CurrentType: TNat()},
		},
	}

	addUpdate := &MT{
		Tag: MassetAddUpdate, Type: TUnit(), Asset: "ledger", CKind: CKcoll,
		Args:    []*MT{{Tag: Mvar, Ident: "to_", Type: TAddress()}},
		Updates: []FieldUpdate{{Field: "tokens", Op: AssignPlus, Value: &MT{Tag: Mvar, Ident: "value", Type: TNat()}}},
	}
	transfer := &Function{
		Name: "transfer", Node: FuncNode{Kind: NodeEntry},
		Args: []Param{{Ident: "to_", Type: TAddress()}, {Ident: "value", Type: TNat()}},
		Body: addUpdate,
	}

	allowanceKey := &MT{Tag: Mlittuple, Type: TTuple(TAddress(), TAddress()), Args: []*MT{
		{Tag: Mvar, Ident: "owner_", Type: TAddress()},
		{Tag: Mvar, Ident: "spender_", Type: TAddress()},
	}}
	approveUpdate := &MT{
		Tag: MassetAddUpdate, Type: TUnit(), Asset: "allowance", CKind: CKcoll,
		Args:    []*MT{allowanceKey},
		Updates: []FieldUpdate{{Field: "amount", Op: AssignSet, Value: &MT{Tag: Mvar, Ident: "value", Type: TNat()}}},
	}
	approve := &Function{
		Name: "approve", Node: FuncNode{Kind: NodeEntry},
		Args: []Param{{Ident: "owner_", Type: TAddress()}, {Ident: "spender_", Type: TAddress()}, {Ident: "value", Type: TNat()}},
		Body: approveUpdate,
	}

	spenderRead := &MT{
		Tag: MdotAssetField, Asset: "allowance", Field: "spender", Type: TAddress(),
		Args: []*MT{{Tag: Mvar, Ident: "k", Type: TTuple(TAddress(), TAddress())}},
	}
	spenderOf := &Function{
		Name: "spender_of", Node: FuncNode{Kind: NodeEntry},
		Args: []Param{{Ident: "k", Type: TTuple(TAddress(), TAddress())}},
		Body: &MT{Tag: Massign, Type: TUnit(), TargetV: Target{Kind: TKvar, Ident: "_tmp"}, Args: []*MT{spenderRead}},
	}

	return &Model{
		Name:      "fa12",
		Decls:     Decls{Assets: []*AssetDecl{ledger, allowance}},
		Functions: []*Function{transfer, approve, spenderOf},
	}
}

// removeIfPipelineModel is the remove_if scenario: an asset with three
// columns and an entry removing every row matching a predicate.
func removeIfPipelineModel() *Model {
	asset := &AssetDecl{
		Ident: "my_asset", Keys: []string{"id"},
		Fields: []AssetField{
			{Ident: "id", OriginalType: TNat(), CurrentType: TNat()},
			{Ident: "s", OriginalType: TString(), CurrentType: TString()},
			{Ident: "b", OriginalType: TBool(), CurrentType: TBool()},
		},
	}
	pred := &MT{Tag: Mge, Type: TBool(), Args: []*MT{
		{Tag: Mvar, Ident: "the_id", Type: TNat()},
		{Tag: Mvar, Ident: "n", Type: TNat()},
	}}
	body := &MT{Tag: MassetRemoveIf, Type: TUnit(), Asset: "my_asset", CKind: CKcoll, Args: []*MT{pred}}
	exec := &Function{
		Name: "exec", Node: FuncNode{Kind: NodeEntry},
		Args: []Param{{Ident: "n", Type: TNat()}},
		Body: body,
	}
	return &Model{Name: "rmif", Decls: Decls{Assets: []*AssetDecl{asset}}, Functions: []*Function{exec}}
}

func collectTags(m *Model) map[MTag]int {
	tags := map[MTag]int{}
	ForEachTerm(m, func(_ TraverseContext, mt *MT) {
		tags[mt.Tag]++
	})
	return tags
}

func TestPipelineIsDeterministic(t *testing.T) {
	out1, err1 := Run(fa12PipelineModel(), Options{}, nil)
	out2, err2 := Run(fa12PipelineModel(), Options{}, nil)
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.True(t, reflect.DeepEqual(out1, out2), "two runs over the same input must agree node for node")
}

func TestPipelineEliminatesHighLevelConstructs(t *testing.T) {
	for _, build := range []func() *Model{fa12PipelineModel, removeIfPipelineModel} {
		out, err := Run(build(), Options{}, nil)
		require.NoError(t, err)

		tags := collectTags(out)
		forbidden := []MTag{
			MassetAddUpdate, MassetUpdate, MassetUpdateAll, MassetPutRemove,
			MassetGet, MassetAdd, MassetRemove, MassetRemoveIf, MassetSelect,
			MassetSort, MassetContains, MassetCount, MassetSum, MassetNth,
			MassetHead, MassetTail, MdotAssetField,
			Mdeclvar, Mdeclvaropt, Massignopt, Mternary, Menumval, Mlabel,
			Mfor, Miter,
		}
		for _, tag := range forbidden {
			require.Zero(t, tags[tag], "tag %d must not survive the pipeline", int(tag))
		}

		ForEachTerm(out, func(_ TraverseContext, mt *MT) {
			require.NotEqual(t, Tasset, mt.Type.Tag, "no asset<A> term type may survive cohort E")
			require.NotEqual(t, Tcontainer, mt.Type.Tag, "no container term type may survive cohort E")
			require.NotEqual(t, Trational, mt.Type.Tag, "no rational term type may survive cohort F")
			require.NotEqual(t, Tdate, mt.Type.Tag, "no date term type may survive cohort F")
			require.NotEqual(t, Tduration, mt.Type.Tag, "no duration term type may survive cohort F")
		})
		for _, s := range out.Storage {
			require.NotEqual(t, TiterableBigMap, s.Type.Tag, "iterable big maps must be lowered to the triple encoding")
		}
	}
}

func TestPipelineChoosesFa12StorageShape(t *testing.T) {
	out, err := Run(fa12PipelineModel(), Options{}, nil)
	require.NoError(t, err)

	var ledger *StorageItem
	for i := range out.Storage {
		if out.Storage[i].Ident == "ledger" {
			ledger = &out.Storage[i]
		}
	}
	require.NotNil(t, ledger, "the ledger asset must gain a storage slot")
	require.Equal(t, StorageAsset, ledger.ModelKind)
	require.Equal(t, TbigMap, ledger.Type.Tag, "a big_map-declared single-value asset stores big_map<K,V>")
	require.Equal(t, Taddress, ledger.Type.Args[0].Tag)
	require.Equal(t, Tnat, ledger.Type.Args[1].Tag, "the single non-key column is the map value directly")

	var allowance *StorageItem
	for i := range out.Storage {
		if out.Storage[i].Ident == "allowance" {
			allowance = &out.Storage[i]
		}
	}
	require.NotNil(t, allowance, "the allowance asset must gain a storage slot")
	require.Equal(t, TbigMap, allowance.Type.Tag)
	key := allowance.Type.Args[0]
	require.Equal(t, Ttuple, key.Tag, "a multi-key asset flattens to a synthetic tuple key")
	require.Len(t, key.Args, 2)
	require.Equal(t, Taddress, key.Args[0].Tag)
	require.Equal(t, Taddress, key.Args[1].Tag)
	require.Equal(t, Tnat, allowance.Type.Args[1].Tag, "allowance stores big_map<(address,address), nat>")
}

func TestPipelineProjectsMemberKeyAsTupleAccess(t *testing.T) {
	out, err := Run(fa12PipelineModel(), Options{}, nil)
	require.NoError(t, err)

	found := false
	ForEachTerm(out, func(_ TraverseContext, mt *MT) {
		if mt.Tag == MtupleAccess && mt.Lit.Num == 1 && mt.Args[0].Tag == Mvar {
			found = true
		}
	})
	require.True(t, found,
		"the spender member-key read must survive as a tuple access at key index 1 on the key expression")
}

func TestPipelineLowersRemoveIfToGuardedLoop(t *testing.T) {
	out, err := Run(removeIfPipelineModel(), Options{}, nil)
	require.NoError(t, err)

	tags := collectTags(out)
	require.NotZero(t, tags[Mwhile], "the scan loop must survive as a bounded while")
	require.NotZero(t, tags[Mif], "the predicate guard must survive")
	removals := tags[MsetInstrRemove] + tags[McollRemove] + tags[MmapInstrRemove]
	require.NotZero(t, removals, "the per-key removal must be expressed over the primitive container")
}

func TestPipelineStopsOnDefaultedKey(t *testing.T) {
	m := fa12PipelineModel()
	m.Decls.Assets[0].Fields[0].Default = litInt(0, TNat(), Loc{})
	_, err := Run(m, Options{}, nil)
	require.Error(t, err)
	stop, ok := err.(*StopError)
	require.True(t, ok, "a cohort A failure must surface as *StopError, got %T", err)
	require.Equal(t, "check_asset_key", stop.Pass)
	found := false
	for _, d := range stop.Diagnostics {
		if d.Kind == DefaultValueOnKeyAsset {
			found = true
		}
	}
	require.True(t, found, "expected DefaultValueOnKeyAsset among %v", stop.Diagnostics)
}

func TestIdempotentPassesAreIdempotent(t *testing.T) {
	build := func() *Model {
		body := &MT{Tag: Mseq, Type: TUnit(), Args: []*MT{
			{Tag: Mseq, Type: TUnit(), Args: []*MT{
				{Tag: Mdeclvar, Type: TUnit(), Ident: "x", Args: []*MT{lit(1), {Tag: Mvar, Ident: "x", Type: TInt()}}},
			}},
			{Tag: Mlabel, Type: TUnit(), Ident: "l", Args: []*MT{Skip(Loc{})}},
		}}
		m := modelWithBody(body)
		m.Decls.Vars = []*VarDecl{{Ident: "limit", Kind: VarConst, Type: TNat(), Default: litInt(5, TNat(), Loc{})}}
		m.Storage = []StorageItem{{
			Ident: "seen", ModelKind: StorageVar, Type: TSet(TNat()),
			Default: &MT{Tag: Mlitset, Type: TSet(TNat()), Args: []*MT{lit(3), lit(1), lit(2)}},
		}}
		return m
	}

	passes := []struct {
		name string
		fn   func(*Model) *Model
	}{
		{"flat_sequence", FlatSequence},
		{"remove_label", RemoveLabel},
		{"replace_declvar_by_letin", ReplaceDeclvarByLetin},
		{"remove_constant", RemoveConstant},
		{"eval_storage", EvalStorage},
		{"normalize_storage", NormalizeStorage},
		{"reverse_operations", ReverseOperations},
		{"remove_letin_from_expr", RemoveLetinFromExpr},
	}
	for _, p := range passes {
		once := p.fn(build())
		twice := p.fn(p.fn(build()))
		require.True(t, EqualTerm(once.Functions[0].Body, twice.Functions[0].Body),
			"%s must be idempotent on function bodies", p.name)
		require.Equal(t, len(once.Storage), len(twice.Storage), "%s must be idempotent on storage", p.name)
		for i := range once.Storage {
			require.True(t, EqualTerm(once.Storage[i].Default, twice.Storage[i].Default),
				"%s must be idempotent on storage defaults", p.name)
		}
	}
}

func TestPipelineDiagnosticOrderIsSourceOrder(t *testing.T) {
	m := fa12PipelineModel()
	m.Decls.Assets[0].Fields[0].Default = litInt(0, TNat(), Loc{})
	m.Decls.Assets[0].Fields[0].Loc = Loc{File: "a.arl", Line: 3}
	m.Decls.Assets = append(m.Decls.Assets, &AssetDecl{
		Ident: "other", Keys: []string{"id"},
		Fields: []AssetField{{
			Ident: "id", CurrentType: TNat(), Default: litInt(1, TNat(), Loc{}),
			Loc: Loc{File: "a.arl", Line: 9},
		}},
	})
	_, err := Run(m, Options{}, nil)
	require.Error(t, err)
	stop := err.(*StopError)
	var lines []int
	for _, d := range stop.Diagnostics {
		if d.Kind == DefaultValueOnKeyAsset {
			lines = append(lines, d.Loc.Line)
		}
	}
	require.Equal(t, []int{3, 9}, lines, "diagnostics must be recorded in source-traversal order")
}
