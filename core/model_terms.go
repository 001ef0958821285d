package core

// MTag is the closed tag of a term node (spec.md §3's "MT", a sum of
// roughly 250 variants in the original; this port implements a
// representative catalogue spanning every category spec.md names — see
// SPEC_FULL.md §1 and DESIGN.md "Open Question decisions" for the scoping
// rationale). Traversal visits subterms generically (core/traverse.go), so
// the catalogue can grow without silently dropping a node from traversal;
// passes that dispatch on MTag return nodes of tags they do not name
// unchanged.
type MTag int

const (
	// --- lambdas and bindings ---------------------------------------------------
	Mseq MTag = iota
	Mlet
	Mdeclvar
	Mdeclvaropt
	Mlambda

	// --- assignments -------------------------------------------------------------
	Massign       // generic assignment; Target describes the sink
	Massignopt    // declvar_opt-style optional assignment with fallback

	// --- control flow --------------------------------------------------------------
	Mif
	Mmatch
	Mfor
	Miter
	Mwhile
	Mreturn
	Mlabel
	Mmark
	Mskip

	// --- effects -------------------------------------------------------------------
	Mfail
	MfailSome
	Mtransfer
	Memit

	// --- entry/self/view interop -----------------------------------------------
	Mself
	McallView
	McallEntry
	MmkOperation

	// --- literals --------------------------------------------------------------------
	Mlitbool
	Mlitint
	Mlitnat
	Mlitrational
	Mlitstring
	Mlitbytes
	Mlitaddress
	Mlitdate
	Mlitduration
	Mlittimestamp
	Mlitcurrency
	Mlitkeyhash
	Mlittuple
	Mlitset
	Mlitlist
	Mlitmap
	Mlitrecord
	Mlitevent
	Mlitasset
	Mmassets // list of constructed child-asset literals (partition fill-in)

	// --- access -------------------------------------------------------------------
	Mvar
	Mstoragevar
	Mdot               // record/asset-value field projection once get() is primitive
	MdotAssetField     // A[k].f syntactic sugar, removed by ReplaceDotassetfieldByDot
	MquestionOption    // e?  (is_some shorthand)
	MtupleAccess
	MrecUpdate
	MmakeAsset
	Mcast
	MtoContainer

	// --- comparisons / booleans / arithmetic --------------------------------------
	Mand
	Mor
	Mnot
	Mcmp // three-way compare
	Meq
	Mneq
	Mlt
	Mle
	Mgt
	Mge
	Madd
	Msub
	Mmul
	Mdiv
	Mmod
	Muminus
	Mshiftl
	Mshiftr

	// --- asset API: effects --------------------------------------------------------
	MassetAdd
	MassetRemove
	MassetClear
	MassetUpdate
	MassetUpdateAll
	MassetAddUpdate
	MassetPutRemove
	MassetPut
	MassetAddField
	MassetRemoveField
	MassetRemoveAll
	MassetRemoveIf

	// --- asset API: expressions ------------------------------------------------------
	MassetGet
	MassetGetSome
	MassetSelect
	MassetSort
	MassetContains
	MassetNth
	MassetCount
	MassetSum
	MassetHead
	MassetTail

	// --- primitive container API (set/list/map/big_map/iterable_big_map) ------------
	McollAdd
	McollRemove
	McollContains
	McollLength
	McollGet
	McollGetOpt
	McollPut
	McollUpdate
	McollFold
	McollConcat
	McollNth

	// set/list/map instruction forms (in-place, assignment-target-matched)
	MsetInstrAdd
	MsetInstrRemove
	MlistInstrPrepend
	MmapInstrPut
	MmapInstrRemove

	// --- utilities ----------------------------------------------------------------
	Mternary
	MoptionMatch

	// --- builtins -------------------------------------------------------------------
	Mmin
	Mmax
	Mabs
	Mconcat
	Mslice
	Mlength
	MisSome
	MisNone
	MintToNat
	Mfloor
	Mceil
	MnatToString
	Mpack
	Munpack
	MsetDelegate

	// --- crypto ---------------------------------------------------------------------
	Mblake2b
	Msha256
	Msha512
	Msha3
	Mkeccak
	MkeyToKeyHash
	McheckSignature

	// --- voting / ticket / sapling / BLS / timelock ---------------------------------
	MtotalVotingPower
	MticketCreate
	MticketRead
	MticketSplit
	MticketJoin
	MsaplingEmptyState
	MsaplingVerifyUpdate
	Mblspairingcheck
	MtimelockOpen

	// --- context constants -----------------------------------------------------------
	Mnow
	Mtransferred
	Mcaller
	Mbalance
	Msource
	MselfAddress
	MselfChainID
	Mmetadata
	Mlevel
	MminBlockTime

	// --- rationals -------------------------------------------------------------------
	MratCtorLit  // literal rational constructor num/den
	MratCtorDiv  // rational constructed from int/int division syntax
	Mrateq
	Mratcmp
	Mratarith
	Mratuminus
	Mrattez
	Mratdur
	MnatToInt
	MnatToRat
	MintToRat
	MintToDate
	MmutezToNat

	// --- formula-level nodes ---------------------------------------------------------
	Mforall
	Mexists
	Mimply
	Mequiv
	MsetIterated
	MsetToIterate
	Mempty
	Msingleton
	MsubsetOf
	MisEmpty
	Munion
	Minter
	Mdiff

	// --- asset state pseudo-access (removed by ProcessAssetState) -------------------
	Massetstate

	// --- enum access (removed by RemoveEnum / RemoveEnum000) -------------------------
	Menumval
	MenumMatchArm

	// --- or<> injection (introduced by RemoveEnum for multi-arg enums) --------------
	MorInjLeft  // Args[0] = injected value; Type = the enum's or<> encoding
	MorInjRight

	mtagCount
)

// ContainerKindTag distinguishes the three ways an asset-API node can name
// its target collection, per spec.md §4.4 cohort E point 3 / glossary.
type ContainerKindTag int

const (
	CKcoll ContainerKindTag = iota // the asset's whole backing collection
	CKfield                        // a container field of a parent record (partition/aggregate)
	CKview                         // a materialised view (list of keys) derived via select/sort
)

// ArithOp names the concrete operator carried by Madd/Msub/.../Mratarith
// and the container-arithmetic folds of ProcessArithContainer.
type ArithOp int

const (
	OpPlus ArithOp = iota
	OpMinus
	OpMult
	OpDiv
	OpMod
)

// AssignOp names the compound-assignment operator of Massign / FieldUpdate.
type AssignOp int

const (
	AssignSet   AssignOp = iota // :=
	AssignPlus                  // +=
	AssignMinus                 // -=
	AssignMult                  // *=
	AssignDiv                   // /=
)

// TargetKind closes the enumeration of assignment sinks spec.md §3 lists:
// local var, stored var, asset field, record field, tuple slot, asset
// state, or the pending-operations list.
type TargetKind int

const (
	TKvar TargetKind = iota
	TKstorageVar
	TKassetField
	TKrecordField
	TKtupleSlot
	TKassetState
	TKoperations
)

// Target describes an assignment sink.
type Target struct {
	Kind  TargetKind
	Ident string // TKvar/TKstorageVar identifier
	Asset string // TKassetField/TKassetState asset name
	Field string // TKassetField/TKrecordField field name
	Key   *MT    // TKassetField/TKassetState primary-key expression
	Index int    // TKtupleSlot slot index
}

// FieldUpdate is one (field, operator, value) entry of an add_update or
// update instruction's field list (spec.md §3's "assignments to ... asset
// field" and cohort C/E passes operating on them).
type FieldUpdate struct {
	Field string
	Op    AssignOp
	Value *MT
}

// Param is a typed, optionally-defaulted function/lambda argument.
type Param struct {
	Ident   string
	Type    Type
	Default *MT
}

// PatternKind closes the enumeration of match-arm shapes RemoveEnum's
// elaborator must honour (spec.md §4.4 cohort D).
type PatternKind int

const (
	PatWildcard PatternKind = iota
	PatVar
	PatEnumCtor
	PatOrLeft
	PatOrRight
	PatLiteral
	PatTuple // Sub holds one pattern per tuple component, introduced by RemoveEnum
)

// Pattern is one match-arm pattern.
type Pattern struct {
	Kind    PatternKind
	Ident   string // PatVar binding name / PatEnumCtor constructor name
	Sub     []Pattern
	Literal *Literal
}

// MatchCase pairs a pattern with its body.
type MatchCase struct {
	Pattern Pattern
	Body    *MT
}

// LitKind closes the enumeration of scalar literal payload shapes.
type LitKind int

const (
	LKunit LitKind = iota
	LKbool
	LKint
	LKnat
	LKstring
	LKbytes
	LKaddress
	LKdate
	LKduration
	LKtimestamp
	LKcurrency
	LKkeyHash
)

// Literal is the scalar payload of a leaf literal term. Numeric values use
// Num (big.Int-sized values are not needed for this port's fixtures; an
// int64 payload keeps the fixtures readable — see DESIGN.md). Den is a
// rational literal's denominator, read by the helpers in
// core/util_rational.go and by RemoveRational.
type Literal struct {
	Kind LitKind
	B    bool
	Num  int64
	Den  int64
	Str  string
}

// MT is a typed term node. Tag selects the interpretation of the
// remaining, mostly-optional fields:
//
//   - Args holds the positional immediate subterms in evaluation order —
//     map_term and fold_term visit Args plus update values, a target's
//     key, case bodies and parameter defaults, which is what lets them be
//     generic over all tags (see children in core/traverse.go).
//   - Ident/Ident2 hold identifiers (variable/label/field/asset names,
//     loop variables, entry names) whose meaning is tag-dependent.
//   - Lit holds a literal scalar payload for Mlit* leaf tags.
//   - FieldNames/Updates hold record/asset shape for literal and asset-API
//     nodes.
//   - Asset/CKind/Field describe an asset-API node's target collection.
//   - Target describes an Massign sink.
//   - ArithOp/AssignOp select the concrete operator of an arithmetic,
//     comparison or assignment node.
//   - Params/Cases/Pattern describe lambda arguments and match arms.
type MT struct {
	Tag  MTag
	Type Type
	Loc  Loc

	Args []*MT

	Ident  string
	Ident2 string

	Lit Literal

	FieldNames []string
	Updates    []FieldUpdate

	Asset string
	CKind ContainerKindTag
	Field string

	TargetV Target

	Arith  ArithOp
	Assign AssignOp

	Params []Param
	Cases  []MatchCase
}

// NewLeaf builds a childless node of the given tag and type at loc.
func NewLeaf(tag MTag, typ Type, loc Loc) *MT {
	return &MT{Tag: tag, Type: typ, Loc: loc}
}

// NewNode builds a node with the given immediate subterms.
func NewNode(tag MTag, typ Type, loc Loc, args ...*MT) *MT {
	return &MT{Tag: tag, Type: typ, Loc: loc, Args: args}
}

// Skip is the canonical empty-instruction placeholder passes substitute
// when a rewrite collapses to nothing (e.g. RemoveEmptyUpdate) or when a
// validation pass must keep producing a well-typed term after recording an
// error (spec.md §7).
func Skip(loc Loc) *MT { return NewLeaf(Mskip, TUnit(), loc) }
