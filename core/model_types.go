package core

// TypeTag is the closed enumeration of type constructors in the model, as
// described in spec.md §3. Primitives, parameterised constructors,
// asset-container wrappers, named types and the internal scaffolding
// markers all share one tag space so Type can remain a single flat struct.
type TypeTag int

const (
	Tunit TypeTag = iota
	Tbool
	Tint
	Tnat
	Trational
	Tstring
	Tbytes
	Taddress
	TtxRollupL2Address
	Tdate
	Tduration
	Ttimestamp
	Tcurrency
	Tkey
	TkeyHash
	Tsignature
	TchainID
	Tbls12381Fr
	Tbls12381G1
	Tbls12381G2
	Tnever
	Tchest
	TchestKey

	// Parameterised constructors. Type.Args holds the parameters in the
	// order documented per constructor below.
	Toption             // Args[0] = T
	Tlist               // Args[0] = T
	Tset                // Args[0] = T
	Tmap                // Args[0] = K, Args[1] = V
	TbigMap             // Args[0] = K, Args[1] = V
	TiterableBigMap     // Args[0] = K, Args[1] = V
	Tor                 // Args[0] = L, Args[1] = R
	Tcontract           // Args[0] = T
	Tticket             // Args[0] = T
	TsaplingState       // Size = n
	TsaplingTransaction // Size = n
	Tlambda             // Args[0] = A (argument), Args[1] = R (result)
	Ttuple              // Args = T...

	// Tcontainer wraps a reference to an asset with an intent tag
	// describing how the container relates to its owner: a plain
	// collection, a partition (owned child), an aggregate (referenced
	// child), the raw asset-container/key/value shape, or a derived view.
	Tcontainer

	// Named types. Name carries the declared identifier.
	Tasset
	Tenum
	Trecord
	Tevent
	Tstate
	Tstorage
	Toperation
	Tentry

	// Internal IR-scaffolding markers. A faithful port may omit these from
	// surface syntax; they exist purely to type intermediate pass states.
	Tvset
	Ttrace
	Tprog
)

// ContainerIntent labels the semantic role of a Tcontainer type: the kind
// of relationship a container field has to the asset it names.
type ContainerIntent int

const (
	CIcollection ContainerIntent = iota
	CIpartition
	CIaggregate
	CIassetContainer
	CIassetKey
	CIassetValue
	CIview
)

// MapKind selects the concrete backing collection an asset's declared
// storage uses: an eager map, a lazy big_map, or an order-preserving
// iterable_big_map (see spec.md §4.4 cohort E/F).
type MapKind int

const (
	MapPlain MapKind = iota
	MapBig
	MapIterable
)

// Type is a semantic tag plus an optional sum-arm annotation, as described
// in spec.md §3. Args carries parameters for parameterised constructors;
// Name carries the identifier for named types (asset/enum/record/event);
// Size carries sapling's compile-time parameter n; Intent and AssetName
// describe a Tcontainer's relationship to the asset it names.
type Type struct {
	Tag       TypeTag
	Annot     string
	Args      []Type
	Name      string
	Size      int
	Intent    ContainerIntent
	AssetName string
}

// --- Constructors for primitives -------------------------------------------------

func TUnit() Type      { return Type{Tag: Tunit} }
func TBool() Type      { return Type{Tag: Tbool} }
func TInt() Type       { return Type{Tag: Tint} }
func TNat() Type       { return Type{Tag: Tnat} }
func TRational() Type  { return Type{Tag: Trational} }
func TString() Type    { return Type{Tag: Tstring} }
func TBytes() Type     { return Type{Tag: Tbytes} }
func TAddress() Type   { return Type{Tag: Taddress} }
func TDate() Type      { return Type{Tag: Tdate} }
func TDuration() Type  { return Type{Tag: Tduration} }
func TTimestamp() Type { return Type{Tag: Ttimestamp} }
func TCurrency() Type  { return Type{Tag: Tcurrency} }
func TKeyHash() Type   { return Type{Tag: TkeyHash} }
func TOperation() Type { return Type{Tag: Toperation} }

// --- Constructors for parameterised types ----------------------------------------

func TOption(t Type) Type       { return Type{Tag: Toption, Args: []Type{t}} }
func TList(t Type) Type         { return Type{Tag: Tlist, Args: []Type{t}} }
func TSet(t Type) Type          { return Type{Tag: Tset, Args: []Type{t}} }
func TMap(k, v Type) Type       { return Type{Tag: Tmap, Args: []Type{k, v}} }
func TBigMap(k, v Type) Type    { return Type{Tag: TbigMap, Args: []Type{k, v}} }
func TIterableBigMap(k, v Type) Type {
	return Type{Tag: TiterableBigMap, Args: []Type{k, v}}
}
func TOr(l, r Type) Type       { return Type{Tag: Tor, Args: []Type{l, r}} }
func TContractOf(t Type) Type  { return Type{Tag: Tcontract, Args: []Type{t}} }
func TTicket(t Type) Type      { return Type{Tag: Tticket, Args: []Type{t}} }
func TLambda(a, r Type) Type   { return Type{Tag: Tlambda, Args: []Type{a, r}} }
func TTuple(ts ...Type) Type   { return Type{Tag: Ttuple, Args: ts} }

// TContainer builds the Tcontainer wrapper for an asset container field or
// derived view of the named asset.
func TContainer(asset string, intent ContainerIntent) Type {
	return Type{Tag: Tcontainer, AssetName: asset, Intent: intent}
}

func TAsset(name string) Type  { return Type{Tag: Tasset, Name: name} }
func TEnum(name string) Type   { return Type{Tag: Tenum, Name: name} }
func TRecord(name string) Type { return Type{Tag: Trecord, Name: name} }
func TEvent(name string) Type  { return Type{Tag: Tevent, Name: name} }

// MapKindToType maps a declared asset's map_kind to the primitive type
// constructor cohort E must choose between when lowering its storage shape.
func MapKindToType(k MapKind, key, val Type) Type {
	switch k {
	case MapPlain:
		return TMap(key, val)
	case MapBig:
		return TBigMap(key, val)
	case MapIterable:
		return TIterableBigMap(key, val)
	default:
		panic("core: unreachable MapKind")
	}
}

// Equal reports structural equality of two types, respecting annotations
// (which label sum-type arms and therefore are semantically significant).
func (t Type) Equal(o Type) bool {
	if t.Tag != o.Tag || t.Annot != o.Annot || t.Name != o.Name ||
		t.Size != o.Size || t.Intent != o.Intent || t.AssetName != o.AssetName {
		return false
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// IsAssetType reports whether t is a bare asset<A> value type — the
// disallowed-construct marker cohort E's completion property checks for.
func (t Type) IsAssetType() bool { return t.Tag == Tasset }
