package core

import "testing"

func TestBuildAssetLoweringsSingleFieldVsMap(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{
		singleKeyAsset("seen"),
		singleKeyAsset("wallet", AssetField{Ident: "balance", CurrentType: TCurrency()}),
		singleKeyAsset("record", AssetField{Ident: "a", CurrentType: TNat()}, AssetField{Ident: "b", CurrentType: TNat()}),
	}}}
	infos := buildAssetLowerings(m)

	seen := infos["seen"]
	if !seen.singleField {
		t.Fatalf("expected key-only asset to be single-field")
	}
	if seen.storageType().Tag != Tset {
		t.Fatalf("expected set<K> storage for a key-only asset, got %v", seen.storageType().Tag)
	}

	wallet := infos["wallet"]
	if wallet.singleField || !wallet.singleValue {
		t.Fatalf("expected 'wallet' to be single-value map-backed, got %+v", wallet)
	}
	if wallet.valueType.Tag != Tcurrency {
		t.Fatalf("expected wallet value type currency, got %v", wallet.valueType.Tag)
	}

	record := infos["record"]
	if record.singleField || record.singleValue {
		t.Fatalf("expected 'record' to be multi-field map-backed, got %+v", record)
	}
	if record.valueType.Tag != Trecord {
		t.Fatalf("expected a synthesized record value type, got %v", record.valueType.Tag)
	}
}

func TestContainerTermForCKcollReturnsStorageVar(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen")}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Asset: "seen", CKind: CKcoll}
	got := containerTermFor(m, infos, mt, 0)
	if got.Tag != Mstoragevar || got.Ident != "seen" {
		t.Fatalf("expected the asset's own storage slot, got %+v", got)
	}
}

func TestContainerTermForCKfieldResolvesParentField(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{
		{Ident: "garage", Keys: []string{"id"}, Fields: []AssetField{
			{Ident: "id", CurrentType: TNat()},
			{Ident: "name", CurrentType: TString()},
			{Ident: "vehicles", CurrentType: TContainer("vehicle", CIpartition)},
		}},
		singleKeyAsset("vehicle"),
	}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Asset: "vehicle", CKind: CKfield, Field: "vehicles", Args: []*MT{lit(1)}}
	got := containerTermFor(m, infos, mt, 0)
	if got.Tag != Mdot || got.Field != "vehicles" {
		t.Fatalf("expected a field projection off the parent's record value, got %+v", got)
	}
	if got.Args[0].Tag != McollGet {
		t.Fatalf("expected the parent value fetched via map_get, got %+v", got.Args[0])
	}
}

func TestLowerAssetAddKeyOnlyAsset(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen")}}}
	infos := buildAssetLowerings(m)
	v := &MT{Tag: Mvar, Ident: "k", Type: TNat()}
	mt := &MT{Tag: MassetAdd, Asset: "seen", CKind: CKcoll, Args: []*MT{v}}
	out := lowerAssetAdd(m, infos, mt)
	if out.Tag != Mif {
		t.Fatalf("expected an if(contains, fail, add) shape, got %+v", out)
	}
	if out.Args[0].Tag != McollContains {
		t.Fatalf("expected the guard to test McollContains, got %+v", out.Args[0])
	}
	if out.Args[1].Tag != Mfail {
		t.Fatalf("expected the then-branch to fail with KeyExists, got %+v", out.Args[1])
	}
	assign := out.Args[2]
	if assign.Tag != Massign || assign.TargetV.Ident != "seen" {
		t.Fatalf("expected an assignment to the 'seen' storage slot, got %+v", assign)
	}
	if assign.Args[0].Tag != McollAdd {
		t.Fatalf("expected a set_add for a key-only asset, got %+v", assign.Args[0])
	}
}

func TestLowerAssetRemoveCascadesPartitionChildren(t *testing.T) {
	childValue := TRecord("vehicle_value")
	m := &Model{Decls: Decls{Assets: []*AssetDecl{
		{Ident: "garage", Keys: []string{"id"}, Fields: []AssetField{
			{Ident: "id", CurrentType: TNat()},
			{Ident: "vehicles", CurrentType: TContainer("vehicle", CIpartition)},
		}},
		singleKeyAsset("vehicle"),
	}}}
	infos := buildAssetLowerings(m)
	infos["garage"] = assetLowering{decl: m.Decls.Assets[0], key: GetAssetKey(m.Decls.Assets[0]), singleField: false, valueType: childValue}
	mt := &MT{Tag: MassetRemove, Asset: "garage", CKind: CKcoll, Args: []*MT{lit(1)}}
	out := lowerAssetRemove(m, infos, mt)
	if out.Tag != Mseq {
		t.Fatalf("expected a sequence of cascade + removal, got %+v", out)
	}
	last := out.Args[len(out.Args)-1]
	if last.Tag != Massign || last.TargetV.Ident != "garage" {
		t.Fatalf("expected the final statement to assign the updated 'garage' storage, got %+v", last)
	}
	found := false
	for _, s := range out.Args[:len(out.Args)-1] {
		if s.Tag == Mfor {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cascade loop over the partition field's key set, got %+v", out.Args)
	}
}

func TestLowerAssetSelectBuildsKeyFold(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen", AssetField{Ident: "amount", CurrentType: TNat()})}}}
	infos := buildAssetLowerings(m)
	pred := litBool(true, Loc{})
	mt := &MT{Tag: MassetSelect, Type: TContainer("seen", CIview), Asset: "seen", CKind: CKcoll, Args: []*MT{pred}}
	out := lowerAssetSelect(m, infos, mt)
	if out.Tag != McollFold || out.Type.Tag != Tlist {
		t.Fatalf("expected a list-typed fold over the backing map, got %+v", out)
	}
	if out.Ident != "_kid" || out.Ident2 != "_accu" {
		t.Fatalf("expected _kid/_accu fold binders, got %q/%q", out.Ident, out.Ident2)
	}
	body := out.Args[1]
	if body.Tag != Mif || body.Args[0] != pred {
		t.Fatalf("expected the fold body to branch on the predicate, got %+v", body)
	}
	if body.Args[1].Tag != McollAdd {
		t.Fatalf("expected the matching branch to append the key, got %+v", body.Args[1])
	}
}

func TestLowerAssetSortInsertionFold(t *testing.T) {
	a := singleKeyAsset("mile",
		AssetField{Ident: "amount", CurrentType: TInt()},
		AssetField{Ident: "expiration", CurrentType: TTimestamp()})
	m := &Model{Decls: Decls{Assets: []*AssetDecl{a}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Tag: MassetSort, Type: TContainer("mile", CIview), Asset: "mile", CKind: CKcoll, FieldNames: []string{"expiration"}}
	out := lowerAssetSort(m, infos, mt)
	if out.Tag != McollFold || out.Type.Tag != Tlist {
		t.Fatalf("expected a list-typed outer fold, got %+v", out)
	}
	insert := out.Args[1]
	if insert.Tag != McollConcat {
		t.Fatalf("expected the insertion step to concat the two partitions, got %+v", insert)
	}
	if insert.Args[0].Tag != McollAdd || insert.Args[1].Tag != McollFold {
		t.Fatalf("expected below+key then rest, got %+v / %+v", insert.Args[0], insert.Args[1])
	}
}

func TestSortRankTermProjectsSortField(t *testing.T) {
	a := singleKeyAsset("mile",
		AssetField{Ident: "amount", CurrentType: TInt()},
		AssetField{Ident: "expiration", CurrentType: TTimestamp()})
	m := &Model{Decls: Decls{Assets: []*AssetDecl{a}}}
	infos := buildAssetLowerings(m)
	key := &MT{Tag: Mvar, Ident: "k", Type: TNat()}
	rank := sortRankTerm(infos, "mile", "expiration", key, Loc{})
	if rank.Tag != Mdot || rank.Field != "expiration" {
		t.Fatalf("expected a field projection off the fetched value, got %+v", rank)
	}
	if rank.Args[0].Tag != McollGet {
		t.Fatalf("expected the value fetched via map_get, got %+v", rank.Args[0])
	}
	if byKey := sortRankTerm(infos, "mile", "id", key, Loc{}); byKey != key {
		t.Fatalf("expected sort-by-key to compare the key itself, got %+v", byKey)
	}
}

func TestRemoveAssetRecordsSelectSortAPIItems(t *testing.T) {
	a := singleKeyAsset("seen", AssetField{Ident: "amount", CurrentType: TNat()})
	sel := &MT{Tag: MassetSelect, Type: TContainer("seen", CIview), Asset: "seen", CKind: CKcoll, Args: []*MT{litBool(true, Loc{})}}
	m := &Model{
		Decls:     Decls{Assets: []*AssetDecl{a}},
		Functions: []*Function{{Name: "e", Node: FuncNode{Kind: NodeEntry}, Body: sel}},
	}
	out := RemoveAsset(m)
	found := false
	for _, it := range out.APIItems {
		if it.Name == "select_seen" && it.Asset == "seen" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a select_seen API item, got %+v", out.APIItems)
	}
}

func TestRemoveAssetErasesAssetTermTypes(t *testing.T) {
	a := singleKeyAsset("wallet", AssetField{Ident: "balance", CurrentType: TCurrency()})
	get := &MT{Tag: MassetGet, Type: TAsset("wallet"), Asset: "wallet", CKind: CKcoll, Args: []*MT{lit(1)}}
	m := &Model{
		Decls:     Decls{Assets: []*AssetDecl{a}},
		Functions: []*Function{{Name: "e", Node: FuncNode{Kind: NodeEntry}, Body: get}},
	}
	out := RemoveAsset(m)
	ForEachTerm(out, func(_ TraverseContext, mt *MT) {
		if mt.Type.Tag == Tasset || mt.Type.Tag == Tcontainer {
			t.Fatalf("expected no asset-level term type to survive, got %+v", mt)
		}
	})
	if body := out.Functions[0].Body; body.Type.Tag != Tcurrency {
		t.Fatalf("expected the get retyped to the single-value field type, got %v", body.Type.Tag)
	}
}

func TestLowerAssetContains(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen")}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Tag: MassetContains, Asset: "seen", CKind: CKcoll, Args: []*MT{lit(1)}}
	out := lowerAssetContains(m, infos, mt)
	if out.Tag != McollContains || out.Type.Tag != Tbool {
		t.Fatalf("expected a bool-typed McollContains, got %+v", out)
	}
}

func TestLowerAssetCount(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen")}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Tag: MassetCount, Asset: "seen", CKind: CKcoll}
	out := lowerAssetCount(m, infos, mt)
	if out.Tag != McollLength || out.Type.Tag != Tnat {
		t.Fatalf("expected a nat-typed McollLength, got %+v", out)
	}
}

func TestLowerAssetPutRemoveRejectsIterableBigMap(t *testing.T) {
	a := singleKeyAsset("ledger", AssetField{Ident: "amount", CurrentType: TNat()})
	a.MapKind = MapIterable
	m := &Model{Decls: Decls{Assets: []*AssetDecl{a}}}
	infos := buildAssetLowerings(m)
	mt := &MT{Tag: MassetPutRemove, Asset: "ledger", CKind: CKcoll, Args: []*MT{lit(1), lit(2)}}
	out := lowerAssetPutRemove(m, infos, mt)
	if out.Tag != Mfail {
		t.Fatalf("expected put_remove on an iterable_big_map asset to fail, got %+v", out)
	}
}

func TestRemoveAssetAppendsStorageItemsAndRewritesGet(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{singleKeyAsset("seen")}}}
	out := RemoveAsset(m)
	if len(out.Storage) != 1 || out.Storage[0].Ident != "seen" || out.Storage[0].ModelKind != StorageAsset {
		t.Fatalf("expected one storage item for 'seen', got %+v", out.Storage)
	}
	if out.Storage[0].Type.Tag != Tset {
		t.Fatalf("expected set<K> storage type, got %v", out.Storage[0].Type.Tag)
	}
}
