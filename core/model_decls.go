package core

// VarKind distinguishes a mutable storage variable from a compile-time
// constant (spec.md §3 "Declarations").
type VarKind int

const (
	VarMutable VarKind = iota
	VarConst
)

// VarDecl is a top-level `var`/`constant` declaration.
type VarDecl struct {
	Ident      string
	Kind       VarKind
	Type       Type
	Default    *MT
	Invariants []Invariant
	Loc        Loc
}

// EnumValue is one constructor of an enum declaration, with zero or more
// typed arguments (spec.md §3).
type EnumValue struct {
	Ident      string
	Args       []Type
	Invariants []Invariant
	Loc        Loc
}

// EnumDecl is a top-level `enum` declaration.
type EnumDecl struct {
	Ident  string
	Values []EnumValue
	Loc    Loc
}

// AssetField is one column of an asset's record shape. OriginalType is the
// type as declared in source; CurrentType tracks the type as rewritten by
// lowering passes (e.g. once an asset field becomes a primitive container
// in cohort E). Shadow fields are specification-only ghost columns
// materialised for verification back-ends (spec.md glossary).
type AssetField struct {
	Ident        string
	OriginalType Type
	CurrentType  Type
	Default      *MT
	Shadow       bool
	Loc          Loc
}

// AssetInit is one literal initial value of an asset, keyed by its primary
// key literal(s).
type AssetInit struct {
	Value *MT // Mlitasset
	Loc   Loc
}

// AssetDecl is a top-level `asset` declaration.
type AssetDecl struct {
	Ident      string
	Keys       []string // primary key field identifiers, in declared order
	Sort       []string // sort-field identifiers
	Fields     []AssetField
	Init       []AssetInit
	Invariants []Invariant
	StateEnum  string // non-empty if the asset declares `with states E`
	MapKind    MapKind
	Loc        Loc
}

// FieldIndex returns the index of field name in a.Fields, or -1.
func (a *AssetDecl) FieldIndex(name string) int {
	for i, f := range a.Fields {
		if f.Ident == name {
			return i
		}
	}
	return -1
}

// IsKey reports whether name is one of the asset's primary key fields.
func (a *AssetDecl) IsKey(name string) bool {
	for _, k := range a.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// RecordField is one field of a record or event declaration.
type RecordField struct {
	Ident string
	Type  Type
	Loc   Loc
}

// RecordDecl is a top-level `record` declaration (positional-shape struct).
type RecordDecl struct {
	Ident  string
	Fields []RecordField
	Loc    Loc
}

// EventDecl is a top-level `event` declaration; same shape as RecordDecl.
type EventDecl struct {
	Ident  string
	Fields []RecordField
	Loc    Loc
}

// StorageModelKind distinguishes a storage item backed by a plain var, a
// constant, or an asset container.
type StorageModelKind int

const (
	StorageVar StorageModelKind = iota
	StorageConst
	StorageAsset
)

// StorageItem is one slot of the contract's persistent storage record.
type StorageItem struct {
	Ident     string
	ModelKind StorageModelKind
	AssetName string // set when ModelKind == StorageAsset
	Type      Type
	Default   *MT
	Ghost     bool // shadow-variable-promoted storage slot (cohort B)
	Loc       Loc
}

// FuncNodeKind distinguishes the four function shapes spec.md §3
// enumerates: an externally-callable effectful Entry, a value-returning
// Getter, a pure on/off-chain View, or an ordinary helper Function.
type FuncNodeKind int

const (
	NodeEntry FuncNodeKind = iota
	NodeGetter
	NodeView
	NodeFunction
)

// ViewVisibility selects where a View may be invoked from.
type ViewVisibility int

const (
	VisOnChain ViewVisibility = iota
	VisOffChain
	VisOnOrOffChain
)

// FuncNode carries the node-kind-specific payload of a Function: a Getter
// or View's declared return type, and a View's visibility.
type FuncNode struct {
	Kind       FuncNodeKind
	ReturnType Type
	Visibility ViewVisibility
}

// Function is a single callable unit: entry, getter, view, or helper
// function. StoredVars is filled in by FillStovars (cohort G) with the set
// of storage identifiers the body actually reads or writes.
type Function struct {
	Name       string
	Node       FuncNode
	Args       []Param
	ExtraArgs  []Param
	Body       *MT
	StoredVars []string
	Spec       *FunctionSpec
	Loc        Loc
}

// SpecVar is a specification-only (ghost) variable.
type SpecVar struct {
	Ident string
	Type  Type
	Loc   Loc
}

// Invariant is a named boolean predicate attached to a var, enum value,
// asset, or function specification.
type Invariant struct {
	Ident string
	Expr  *MT
	Loc   Loc
}

// FunctionSpec carries the predicates, definitions, lemmas, theorems,
// postconditions, assertions, shadow effects, fails clauses and uses list
// attached to a function (spec.md §3 "Specification").
type FunctionSpec struct {
	Variables      []SpecVar
	Predicates     []Invariant
	Definitions    []Invariant
	Lemmas         []Invariant
	Theorems       []Invariant
	Invariants     []Invariant
	Postconditions []Invariant
	Assertions     []Invariant
	ShadowEffects  []*MT
	Fails          []*MT
	Uses           []string
}

// SecurityRuleKind closes the small enumeration of role/entry access
// predicates spec.md §3 "Security" names.
type SecurityRuleKind int

const (
	SecOnlyByRole SecurityRuleKind = iota
	SecOnlyInEntry
	SecNotByRole
	SecTransferredBy
	SecNoStorageFail
)

// SecurityRule is one labeled security predicate.
type SecurityRule struct {
	Label string
	Kind  SecurityRuleKind
	Role  string
	Entry string
	Loc   Loc
}

// Decls groups the top-level declarations of a Model by kind, matching
// spec.md §3's declaration kinds.
type Decls struct {
	Vars    []*VarDecl
	Enums   []*EnumDecl
	Assets  []*AssetDecl
	Records []*RecordDecl
	Events  []*EventDecl
}

// APIItem names a helper primitive operation earlier passes determined the
// lowered program needs (e.g. a particular map-fold shape); FilterAPIStorage
// (cohort G) canonicalises this list. APIVerif is the same concept scoped
// to the verification-only back-end.
type APIItem struct {
	Name  string
	Asset string
	CKind ContainerKindTag
}

// Model is the top-level record threaded through the entire pipeline
// (spec.md §3 "Model"). Each pass is `func(*Model) *Model` (cohort A
// validations also take the diagnostic *Bus) and returns a fresh value; no
// pass mutates its input in place.
type Model struct {
	Name          string
	Parameters    []Param
	Metadata      map[string]string
	Decls         Decls
	Storage       []StorageItem
	Functions     []*Function
	APIItems      []APIItem
	APIVerif      []APIItem
	Specification *FunctionSpec
	Security      []SecurityRule
	Extra         map[string]string
	Loc           Loc
}

// FindAsset returns the asset declaration named name, or nil.
func (m *Model) FindAsset(name string) *AssetDecl {
	for _, a := range m.Decls.Assets {
		if a.Ident == name {
			return a
		}
	}
	return nil
}

// FindEnum returns the enum declaration named name, or nil.
func (m *Model) FindEnum(name string) *EnumDecl {
	for _, e := range m.Decls.Enums {
		if e.Ident == name {
			return e
		}
	}
	return nil
}

// FindRecord returns the record declaration named name, or nil.
func (m *Model) FindRecord(name string) *RecordDecl {
	for _, r := range m.Decls.Records {
		if r.Ident == name {
			return r
		}
	}
	return nil
}

// FindVar returns the var/constant declaration named name, or nil.
func (m *Model) FindVar(name string) *VarDecl {
	for _, v := range m.Decls.Vars {
		if v.Ident == name {
			return v
		}
	}
	return nil
}

// FindFunction returns the function named name, or nil.
func (m *Model) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasEntrypoint reports whether the model declares at least one Entry
// function — the driver fails with NoEntrypoint when this is false
// (spec.md §6).
func (m *Model) HasEntrypoint() bool {
	for _, f := range m.Functions {
		if f.Node.Kind == NodeEntry {
			return true
		}
	}
	return false
}

// Clone returns a shallow top-level copy of m so passes can build their
// output by mutating copies of slices rather than the caller's Model.
// Passes must still treat nested pointers (e.g. *Function, *MT) as
// immutable unless they explicitly rebuild them — see core/traverse.go.
func (m *Model) Clone() *Model {
	clone := *m
	clone.Parameters = append([]Param(nil), m.Parameters...)
	clone.Decls.Vars = append([]*VarDecl(nil), m.Decls.Vars...)
	clone.Decls.Enums = append([]*EnumDecl(nil), m.Decls.Enums...)
	clone.Decls.Assets = append([]*AssetDecl(nil), m.Decls.Assets...)
	clone.Decls.Records = append([]*RecordDecl(nil), m.Decls.Records...)
	clone.Decls.Events = append([]*EventDecl(nil), m.Decls.Events...)
	clone.Storage = append([]StorageItem(nil), m.Storage...)
	clone.Functions = append([]*Function(nil), m.Functions...)
	clone.APIItems = append([]APIItem(nil), m.APIItems...)
	clone.APIVerif = append([]APIItem(nil), m.APIVerif...)
	clone.Security = append([]SecurityRule(nil), m.Security...)
	meta := make(map[string]string, len(m.Metadata))
	for k, v := range m.Metadata {
		meta[k] = v
	}
	clone.Metadata = meta
	extra := make(map[string]string, len(m.Extra))
	for k, v := range m.Extra {
		extra[k] = v
	}
	clone.Extra = extra
	return &clone
}
