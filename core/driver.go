package core

import (
	"github.com/sirupsen/logrus"
)

// BackendTarget names a back-end the driver's metadata handling (and only
// metadata handling, per spec.md §6) varies by.
type BackendTarget int

const (
	TargetGeneric BackendTarget = iota
	TargetFA2
)

// Options carries the driver's external knobs (spec.md §6 "Options
// (enumerated)"). It is read-only for the duration of a Run, the single
// piece of shared state besides the diagnostic bus the pipeline allows
// (spec.md §5).
type Options struct {
	Caller           string // opt_caller: substitutes `caller` in defaults
	PropertyFocused  string // opt_property_focused: retained property name
	MetadataURI      string // opt_metadata_uri
	MetadataStorage  string // opt_metadata_storage
	WithMetadata     bool   // opt_with_metadata: force a parameter-driven slot
	TestMode         bool   // opt_test_mode
	EventWellAddress string // opt_event_well_address
	VerifMode        bool   // gates replace_instr_verif
	Target           BackendTarget
}

// namedPass pairs a pass function with the name logged around its
// invocation, mirroring the teacher's opcode table entries
// (core/opcode_dispatcher.go's Register/Dispatch).
type namedPass struct {
	name string
	fn   func(*Model) *Model
}

func np(name string, fn func(*Model) *Model) namedPass { return namedPass{name, fn} }

// Run applies the full cohort A->H pipeline to m in order, returning the
// lowered model or the first *StopError a validation cluster raises
// (spec.md §4.5/§7). Pass execution is traced through logrus at debug
// level, matching the teacher's dispatcher tracing style; diagnostics
// themselves are never logged (see core/diag.go), only pass names and
// timing-free progress markers.
func Run(m *Model, opts Options, log *logrus.Logger) (*Model, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if !m.HasEntrypoint() {
		return nil, &StopError{Code: 1, Pass: "check_entrypoint", Diagnostics: []Diagnostic{
			{Loc: m.Loc, Kind: NoEntrypoint, Severity: SevError},
		}}
	}

	bus := NewBus()
	cur := m

	runValidation := func(name string, fn func(*Model, *Bus) *Model, code int) error {
		log.WithField("pass", name).Debug("running validation pass")
		cur = fn(cur, bus)
		if err := StopIfErrors(bus, name, code); err != nil {
			return err
		}
		return nil
	}

	runPasses := func(passes ...namedPass) {
		for _, p := range passes {
			log.WithField("pass", p.name).Debug("running pass")
			cur = p.fn(cur)
		}
	}

	// Cohort A
	validations := []struct {
		name string
		fn   func(*Model, *Bus) *Model
	}{
		{"check_partition_access", CheckPartitionAccess},
		{"check_containers_asset", CheckContainersAsset},
		{"check_empty_container_on_asset_default_value", CheckEmptyContainerOnAssetDefaultValue},
		{"check_asset_key", CheckAssetKey},
		{"check_invalid_init_value", CheckInvalidInitValue},
		{"check_init_partition_in_asset", CheckInitPartitionInAsset},
		{"check_duplicated_keys_in_asset", CheckDuplicatedKeysInAsset},
		{"check_if_asset_in_function", CheckIfAssetInFunction},
		{"check_unused_variables", CheckUnusedVariables},
	}
	for i, v := range validations {
		if err := runValidation(v.name, v.fn, 100+i); err != nil {
			return nil, err
		}
	}
	if opts.Caller != "" {
		log.WithField("pass", "check_and_replace_init_caller").Debug("running pass")
		cur = CheckAndReplaceInitCaller(cur, bus, opts.Caller)
		if err := StopIfErrors(bus, "check_and_replace_init_caller", 199); err != nil {
			return nil, err
		}
	}

	if opts.PropertyFocused != "" {
		cur = pruneProperties(cur, opts.PropertyFocused)
	}

	// Cohort B
	runPasses(
		np("prune_formula", PruneFormula),
		np("flat_sequence", FlatSequence),
		np("remove_label", RemoveLabel),
		np("replace_label_by_mark", ReplaceLabelByMark),
		np("replace_declvar_by_letin", ReplaceDeclvarByLetin),
		np("rename_shadow_variable", RenameShadowVariable),
		np("assign_loop_label", AssignLoopLabel),
		np("extend_loop_iter", ExtendLoopIter),
		np("transfer_shadow_variable_to_storage", TransferShadowVariableToStorage),
		np("concat_shadow_effect_to_exec", ConcatShadowEffectToExec),
		np("flat_sequence", FlatSequence),
	)

	// Cohort D runs ahead of cohort C: ProcessAssetState rewrites state
	// reads and state assignments into the A[k].f / update(A, k, ...) forms
	// cohort C lowers, so it must feed C, not follow it.
	runPasses(
		np("remove_enum", RemoveEnum),
		np("process_asset_state", ProcessAssetState),
		np("remove_enum_state", RemoveEnum000),
	)

	// Cohort C
	runPasses(
		np("remove_add_update", RemoveAddUpdate),
		np("replace_assignfield_by_update", ReplaceAssignfieldByUpdate),
		np("remove_container_op_in_update", RemoveContainerOpInUpdate),
		np("remove_container_op_in_update_exec", RemoveContainerOpInUpdateExec),
		np("remove_empty_update", RemoveEmptyUpdate),
		np("merge_update", MergeUpdate),
	)
	if opts.VerifMode {
		runPasses(np("replace_instr_verif", ReplaceInstrVerif))
	}
	runPasses(
		np("replace_update_by_set", ReplaceUpdateBySet),
		np("replace_dotassetfield_by_dot", ReplaceDotassetfieldByDot),
		np("remove_duplicate_key", RemoveDuplicateKey),
		np("flat_sequence", FlatSequence),
	)

	// Cohort E
	runPasses(
		np("fix_container", FixContainer),
		np("extract_item_collection_from_add_asset", ExtractItemCollectionFromAddAsset),
		np("remove_asset", RemoveAsset),
		np("flat_sequence", FlatSequence),
	)

	// Cohort F
	runPasses(
		np("remove_rational", RemoveRational),
		np("update_nat_int_rat", UpdateNatIntRat),
		np("replace_date_duration_by_timestamp", ReplaceDateDurationByTimestamp),
		np("update_nat_int_rat", UpdateNatIntRat),
		np("abs_tez", AbsTez),
		np("process_internal_string", ProcessInternalString),
		np("process_multi_keys", ProcessMultiKeys),
		np("add_contain_on_get", AddContainOnGet),
		np("add_explicit_sort", AddExplicitSort),
		np("split_key_values", SplitKeyValues),
		np("change_type_of_nth", ChangeTypeOfNth),
		np("replace_for_to_iter", ReplaceForToIter),
		np("remove_iterable_big_map", RemoveIterableBigMap),
		np("remove_update_all", RemoveUpdateAll),
		np("remove_decl_var_opt", RemoveDeclVarOpt),
		np("process_arith_container", ProcessArithContainer),
		np("lazy_eval_condition", LazyEvalCondition),
		np("remove_ternary_operator", RemoveTernaryOperator),
		np("remove_high_level_model", RemoveHighLevelModel),
		np("instr_to_expr_exec", InstrToExprExec),
		np("expr_to_instr", ExprToInstr),
		np("flat_sequence", FlatSequence),
	)

	// Cohort G
	runPasses(
		np("process_single_field_storage", ProcessSingleFieldStorage),
		np("remove_storage_field_in_function", RemoveStorageFieldInFunction),
		np("remove_constant", RemoveConstant),
		np("eval_storage", EvalStorage),
		np("normalize_storage", NormalizeStorage),
		np("reverse_operations", ReverseOperations),
		np("process_parameter", ProcessParameter),
	)
	cur = applyMetadataOptions(cur, opts)
	runPasses(
		np("process_metadata", ProcessMetadata),
		np("eval_variable_initial_value", EvalVariableInitialValue),
		np("getter_to_entry", GetterToEntry),
	)
	if opts.TestMode {
		runPasses(np("test_mode", TestMode))
	}
	runPasses(
		np("patch_fa2", PatchFA2),
		np("fill_stovars", FillStovars),
		np("filter_api_storage", FilterAPIStorage),
		np("process_fail", ProcessFail),
	)

	// Cohort H
	runPasses(
		np("remove_letin_from_expr", RemoveLetinFromExpr),
		np("remove_fun_dotasset", RemoveFunDotasset),
		np("flat_sequence", FlatSequence),
	)

	return cur, nil
}

func applyMetadataOptions(m *Model, opts Options) *Model {
	if opts.MetadataURI == "" && opts.MetadataStorage == "" && !opts.WithMetadata {
		return m
	}
	out := m.Clone()
	if out.Extra == nil {
		out.Extra = map[string]string{}
	}
	if opts.MetadataURI != "" {
		out.Extra["metadata_uri"] = opts.MetadataURI
	}
	if opts.MetadataStorage != "" {
		out.Extra["metadata_json"] = opts.MetadataStorage
	}
	return out
}

// pruneProperties keeps only the named invariant (by identifier) across
// every function's postconditions/assertions/invariants, per
// opt_property_focused, dropping every clause whose Ident differs from
// focus. The other clause groups are left as they are.
func pruneProperties(m *Model, focus string) *Model {
	keepFocused := func(invs []Invariant) []Invariant {
		var kept []Invariant
		for _, inv := range invs {
			if inv.Ident == focus {
				kept = append(kept, inv)
			}
		}
		return kept
	}
	out := m.Clone()
	out.Functions = make([]*Function, len(m.Functions))
	for i, fn := range m.Functions {
		nf := *fn
		if fn.Spec != nil {
			ns := *fn.Spec
			ns.Postconditions = keepFocused(fn.Spec.Postconditions)
			ns.Assertions = keepFocused(fn.Spec.Assertions)
			ns.Invariants = keepFocused(fn.Spec.Invariants)
			nf.Spec = &ns
		}
		out.Functions[i] = &nf
	}
	return out
}
