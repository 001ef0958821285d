package core

import "fmt"

// DiagKind is the closed taxonomy of diagnostic kinds spec.md §4.3
// enumerates. Every diagnostic the pipeline can raise has exactly one of
// these kinds; back-ends format them, the core never does.
type DiagKind int

const (
	AssetPartitionnedby DiagKind = iota
	CallerNotSetInInit
	CannotBuildAsset
	ContainersInAssetContainers
	DefaultValueOnKeyAsset
	DuplicatedKeyAsset
	InvalidInitValue
	NoClearForPartitionAsset
	NoEmptyContainerForDefaultValue
	NoEntrypoint
	NoInitForPartitionAsset
	NoInitValueForConstParam
	NoInitValueForParameter
	NoPutRemoveForIterableBigMapAsset
	NoSortOnKeyWithMultiKey
	OnlyLiteralInAssetInit
	UnknownContract
	UnusedArgument
	UnusedVariable
	AssetNotFoundKind
	KeyExistsKind
	InvalidConditionKind
	InvalidStateKind
	AssetKeyNotFoundInContainer
	PartitionChildAlreadyOwned
	AggregateKeyMissing
)

var diagNames = map[DiagKind]string{
	AssetPartitionnedby:                "AssetPartitionnedby",
	CallerNotSetInInit:                 "CallerNotSetInInit",
	CannotBuildAsset:                   "CannotBuildAsset",
	ContainersInAssetContainers:        "ContainersInAssetContainers",
	DefaultValueOnKeyAsset:             "DefaultValueOnKeyAsset",
	DuplicatedKeyAsset:                 "DuplicatedKeyAsset",
	InvalidInitValue:                   "InvalidInitValue",
	NoClearForPartitionAsset:           "NoClearForPartitionAsset",
	NoEmptyContainerForDefaultValue:    "NoEmptyContainerForDefaultValue",
	NoEntrypoint:                       "NoEntrypoint",
	NoInitForPartitionAsset:            "NoInitForPartitionAsset",
	NoInitValueForConstParam:           "NoInitValueForConstParam",
	NoInitValueForParameter:            "NoInitValueForParameter",
	NoPutRemoveForIterableBigMapAsset:  "NoPutRemoveForIterableBigMapAsset",
	NoSortOnKeyWithMultiKey:            "NoSortOnKeyWithMultiKey",
	OnlyLiteralInAssetInit:             "OnlyLiteralInAssetInit",
	UnknownContract:                    "UnknownContract",
	UnusedArgument:                     "UnusedArgument",
	UnusedVariable:                     "UnusedVariable",
	AssetNotFoundKind:                  "AssetNotFound",
	KeyExistsKind:                      "KeyExists",
	InvalidConditionKind:               "InvalidCondition",
	InvalidStateKind:                   "InvalidState",
	AssetKeyNotFoundInContainer:        "AssetKeyNotFoundInContainer",
	PartitionChildAlreadyOwned:         "PartitionChildAlreadyOwned",
	AggregateKeyMissing:                "AggregateKeyMissing",
}

func (k DiagKind) String() string {
	if n, ok := diagNames[k]; ok {
		return n
	}
	return fmt.Sprintf("DiagKind(%d)", int(k))
}

// Severity distinguishes a fatal-class diagnostic from a non-fatal warning
// (spec.md §4.3/§7).
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

// Diagnostic is one recorded (location, kind) pair, with an optional
// free-form detail string for error messages that need an identifier
// (asset name, field name, role) beyond what Kind alone conveys.
type Diagnostic struct {
	Loc      Loc
	Kind     DiagKind
	Severity Severity
	Detail   string
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s", d.Loc, d.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Kind, d.Detail)
}

// Bus is a per-run, append-only diagnostic accumulator (spec.md §5: "the
// diagnostic bus is a per-run accumulator flushed to the outer driver").
// It carries no other mutable state and is never shared across goroutines
// since the pipeline is single-threaded (spec.md §5).
type Bus struct {
	diags []Diagnostic
}

// NewBus returns an empty diagnostic bus.
func NewBus() *Bus { return &Bus{} }

// EmitError records a fatal-class diagnostic. It does not stop execution —
// the pass continues so that further diagnostics can be collected before
// the cluster-level Stop (spec.md §4.3/§7).
func (b *Bus) EmitError(loc Loc, kind DiagKind, detail string) {
	b.diags = append(b.diags, Diagnostic{Loc: loc, Kind: kind, Severity: SevError, Detail: detail})
}

// EmitWarning records a non-fatal diagnostic. Warnings never stop the
// pipeline (spec.md §4.3).
func (b *Bus) EmitWarning(loc Loc, kind DiagKind, detail string) {
	b.diags = append(b.diags, Diagnostic{Loc: loc, Kind: kind, Severity: SevWarning, Detail: detail})
}

// HasErrors reports whether any SevError diagnostic was recorded.
func (b *Bus) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Diagnostics returns every diagnostic recorded so far, in emission
// (source-traversal) order — spec.md §6 requires deterministic diagnostic
// ordering.
func (b *Bus) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), b.diags...)
}

// StopError is the fatal, pass-cluster-distinctive failure spec.md §4.3/§7
// describes: "if any were recorded, the pass raises a fatal Stop(code)".
// It is a typed error (not a sentinel) so the driver can unwrap it with
// errors.As and so a StopError can still carry the full diagnostic list
// that triggered it.
type StopError struct {
	Code        int
	Pass        string
	Diagnostics []Diagnostic
}

func (e *StopError) Error() string {
	return fmt.Sprintf("core: pass %q stopped (code %d) with %d diagnostic(s)", e.Pass, e.Code, len(e.Diagnostics))
}

// StopIfErrors returns a *StopError carrying bus's recorded diagnostics if
// any are SevError, or nil otherwise. The driver calls this after each
// cohort A validation pass and after CheckAndReplaceInitCaller.
func StopIfErrors(bus *Bus, pass string, code int) error {
	if !bus.HasErrors() {
		return nil
	}
	return &StopError{Code: code, Pass: pass, Diagnostics: bus.Diagnostics()}
}

// wrapf mirrors the teacher's pkg/utils.Wrap helper: it adds context to a
// recoverable error without discarding the original for errors.Is/As.
func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
}
