package core

import "testing"

func singleKeyAsset(name string, extraFields ...AssetField) *AssetDecl {
	fields := append([]AssetField{{Ident: "id", CurrentType: TNat()}}, extraFields...)
	return &AssetDecl{Ident: name, Keys: []string{"id"}, Fields: fields}
}

func TestGetAssetKeySingleKey(t *testing.T) {
	a := singleKeyAsset("wallet", AssetField{Ident: "balance", CurrentType: TCurrency()})
	k := GetAssetKey(a)
	if k.Ident != "id" || k.Type.Tag != Tnat {
		t.Fatalf("unexpected key: %+v", k)
	}
}

func TestGetAssetKeyMultiKeyFlattensToTuple(t *testing.T) {
	a := &AssetDecl{
		Ident: "allowance",
		Keys:  []string{"owner", "spender"},
		Fields: []AssetField{
			{Ident: "owner", CurrentType: TAddress()},
			{Ident: "spender", CurrentType: TAddress()},
			{Ident: "amount", CurrentType: TNat()},
		},
	}
	k := GetAssetKey(a)
	if k.Ident != "_key" {
		t.Fatalf("expected synthetic _key identifier, got %q", k.Ident)
	}
	if k.Type.Tag != Ttuple || len(k.Type.Args) != 2 {
		t.Fatalf("expected a 2-tuple key type, got %+v", k.Type)
	}
}

func TestIsAssetSingleFieldAndSingleValue(t *testing.T) {
	keyOnly := singleKeyAsset("seen")
	if !IsAssetSingleField(keyOnly) {
		t.Fatalf("expected key-only asset to be single-field")
	}
	if IsAssetMap(keyOnly) {
		t.Fatalf("expected key-only asset not to be map-backed")
	}

	singleValue := singleKeyAsset("my_asset", AssetField{Ident: "value", CurrentType: TNat()})
	if IsAssetSingleField(singleValue) {
		t.Fatalf("expected two-field asset not to be single-field")
	}
	if !IsSingleValueAsset(singleValue) {
		t.Fatalf("expected asset with exactly one non-key field to be single-value")
	}
	if SingleValueField(singleValue).Ident != "value" {
		t.Fatalf("expected SingleValueField to resolve to 'value'")
	}

	multiField := singleKeyAsset("record",
		AssetField{Ident: "a", CurrentType: TNat()},
		AssetField{Ident: "b", CurrentType: TNat()},
	)
	if IsSingleValueAsset(multiField) {
		t.Fatalf("expected 3-field asset not to be single-value")
	}

	multiKey := &AssetDecl{
		Ident: "allowance", Keys: []string{"owner", "spender"},
		Fields: []AssetField{
			{Ident: "owner", CurrentType: TAddress()},
			{Ident: "spender", CurrentType: TAddress()},
			{Ident: "amount", CurrentType: TNat()},
		},
	}
	if !IsSingleValueAsset(multiKey) {
		t.Fatalf("expected a multi-key asset with one payload column to be single-value")
	}
	if SingleValueField(multiKey).Ident != "amount" {
		t.Fatalf("expected SingleValueField to resolve to 'amount'")
	}
}

func TestAssetStorageType(t *testing.T) {
	keyOnly := singleKeyAsset("seen")
	if got := AssetStorageType(keyOnly, Type{}); got.Tag != Tset {
		t.Fatalf("expected set<K> for a key-only asset, got %v", got.Tag)
	}

	mapAsset := singleKeyAsset("ledger", AssetField{Ident: "balance", CurrentType: TNat()})
	mapAsset.MapKind = MapBig
	if got := AssetStorageType(mapAsset, TNat()); got.Tag != TbigMap {
		t.Fatalf("expected big_map<K,V> for MapBig, got %v", got.Tag)
	}
}

func TestGetFieldContainerAndPartitionAggregate(t *testing.T) {
	parent := &AssetDecl{
		Ident: "garage",
		Keys:  []string{"id"},
		Fields: []AssetField{
			{Ident: "id", CurrentType: TNat()},
			{Ident: "vehicles", CurrentType: TContainer("vehicle", CIpartition)},
			{Ident: "drivers", CurrentType: TContainer("driver", CIaggregate)},
		},
	}
	asset, intent := GetFieldContainer(parent, "vehicles")
	if asset != "vehicle" || intent != CIpartition {
		t.Fatalf("unexpected field container: %s %v", asset, intent)
	}
	if !IsPartition(parent, "vehicles") {
		t.Fatalf("expected 'vehicles' to be a partition field")
	}
	if !IsAggregate(parent, "drivers") {
		t.Fatalf("expected 'drivers' to be an aggregate field")
	}
}

func TestGetFieldContainerPanicsOnNonContainer(t *testing.T) {
	a := singleKeyAsset("wallet", AssetField{Ident: "balance", CurrentType: TCurrency()})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for non-container field")
		}
	}()
	GetFieldContainer(a, "balance")
}

func TestGetPartitionsCollectsAcrossAssets(t *testing.T) {
	m := &Model{Decls: Decls{Assets: []*AssetDecl{
		{Ident: "garage", Fields: []AssetField{
			{Ident: "vehicles", CurrentType: TContainer("vehicle", CIpartition)},
		}},
		{Ident: "fleet", Fields: []AssetField{
			{Ident: "trucks", CurrentType: TContainer("truck", CIpartition)},
			{Ident: "drivers", CurrentType: TContainer("driver", CIaggregate)},
		}},
	}}}
	got := GetPartitions(m)
	if len(got) != 2 {
		t.Fatalf("expected 2 partitions, got %d: %+v", len(got), got)
	}
	if got[0].Asset != "garage" || got[0].TargetAsset != "vehicle" {
		t.Fatalf("unexpected first partition: %+v", got[0])
	}
	if got[1].Asset != "fleet" || got[1].Field != "trucks" {
		t.Fatalf("unexpected second partition: %+v", got[1])
	}
}
