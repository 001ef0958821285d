package core

import "fmt"

// GetAsset looks up the asset declaration named name and panics if there
// is none — passes that call GetAsset have already been preceded by
// Cohort A's validation, so a miss here is a programmer error, not a user
// error (spec.md §4.2/§7).
func GetAsset(m *Model, name string) *AssetDecl {
	a := m.FindAsset(name)
	if a == nil {
		panic(fmt.Sprintf("core: GetAsset: unknown asset %q", name))
	}
	return a
}

// AssetKey describes an asset's sole effective primary key after
// multi-key flattening (spec.md §4.2 get_asset_key).
type AssetKey struct {
	Ident string
	Type  Type
}

// GetAssetKey returns the sole primary key of asset a. For a single-key
// asset this is simply that field. For a multi-key asset it is a
// synthetic flattened tuple key built here: identifier "_key", type
// tuple<K1,...,Kn> in declared key order.
func GetAssetKey(a *AssetDecl) AssetKey {
	if len(a.Keys) == 0 {
		panic(fmt.Sprintf("core: asset %q declares no primary key", a.Ident))
	}
	if len(a.Keys) == 1 {
		idx := a.FieldIndex(a.Keys[0])
		if idx < 0 {
			panic(fmt.Sprintf("core: asset %q: key field %q not found", a.Ident, a.Keys[0]))
		}
		return AssetKey{Ident: a.Keys[0], Type: a.Fields[idx].CurrentType}
	}
	types := make([]Type, len(a.Keys))
	for i, k := range a.Keys {
		idx := a.FieldIndex(k)
		if idx < 0 {
			panic(fmt.Sprintf("core: asset %q: key field %q not found", a.Ident, k))
		}
		types[i] = a.Fields[idx].CurrentType
	}
	return AssetKey{Ident: "_key", Type: TTuple(types...)}
}

// GetFieldContainer returns the target asset name and container intent of
// asset field name, panicking if the field is not a container (spec.md
// §4.2 get_field_container).
func GetFieldContainer(a *AssetDecl, field string) (string, ContainerIntent) {
	idx := a.FieldIndex(field)
	if idx < 0 {
		panic(fmt.Sprintf("core: asset %q has no field %q", a.Ident, field))
	}
	t := a.Fields[idx].CurrentType
	if t.Tag != Tcontainer {
		panic(fmt.Sprintf("core: asset %q field %q is not a container", a.Ident, field))
	}
	return t.AssetName, t.Intent
}

// IsPartition reports whether asset a's field f is a partition (owned)
// container, as opposed to an aggregate (referenced) one.
func IsPartition(a *AssetDecl, f string) bool {
	_, intent := GetFieldContainer(a, f)
	return intent == CIpartition
}

// IsAggregate reports whether asset a's field f is an aggregate (merely
// referenced) container.
func IsAggregate(a *AssetDecl, f string) bool {
	_, intent := GetFieldContainer(a, f)
	return intent == CIaggregate
}

// IsAssetSingleField reports whether a's record shape is reduced to its
// key field alone — the case cohort E lowers to a bare set<K> rather than
// a map_kind<K,V>.
func IsAssetSingleField(a *AssetDecl) bool {
	return len(a.Fields) == 1
}

// IsAssetMap reports whether a's storage is backed by a map_kind (the
// complement of IsAssetSingleField).
func IsAssetMap(a *AssetDecl) bool {
	return !IsAssetSingleField(a)
}

// IsSingleValueAsset reports whether a has exactly one non-key field, in
// which case cohort E's chosen value type V is that field's type directly
// rather than a generated record<A> (spec.md §4.4 cohort E point 1). The
// key side may be one field or several — a multi-key ledger with a single
// payload column still stores map<tuple-key, payload>.
func IsSingleValueAsset(a *AssetDecl) bool {
	nonKey := 0
	for _, f := range a.Fields {
		if !a.IsKey(f.Ident) {
			nonKey++
		}
	}
	return nonKey == 1
}

// SingleValueField returns the sole non-key field of a single-value asset.
func SingleValueField(a *AssetDecl) AssetField {
	for _, f := range a.Fields {
		if !a.IsKey(f.Ident) {
			return f
		}
	}
	panic(fmt.Sprintf("core: asset %q has no non-key field", a.Ident))
}

// Partition describes one container field of asset Asset that owns
// children of TargetAsset.
type Partition struct {
	Asset       string
	Field       string
	TargetAsset string
}

// GetPartitions returns every partition field declared across the model's
// assets, in declaration order — used by cohort E to cascade add/remove
// through owned children.
func GetPartitions(m *Model) []Partition {
	var out []Partition
	for _, a := range m.Decls.Assets {
		for _, f := range a.Fields {
			if f.CurrentType.Tag == Tcontainer && f.CurrentType.Intent == CIpartition {
				out = append(out, Partition{Asset: a.Ident, Field: f.Ident, TargetAsset: f.CurrentType.AssetName})
			}
		}
	}
	return out
}

// AssetStorageType returns the primitive collection type cohort E chooses
// to back asset a, given the already-lowered key/value types.
func AssetStorageType(a *AssetDecl, valueType Type) Type {
	key := GetAssetKey(a)
	if IsAssetSingleField(a) {
		return TSet(key.Type)
	}
	return MapKindToType(a.MapKind, key.Type, valueType)
}
