package core

import "testing"

func TestRemoveEnumEncodesArglessConstructorsAsOr(t *testing.T) {
	e := &EnumDecl{Ident: "color", Values: []EnumValue{{Ident: "Red"}, {Ident: "Green"}, {Ident: "Blue"}}}
	ctor := &MT{Tag: Menumval, Ident: "Green", Type: TEnum("color")}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}}, Functions: []*Function{{Name: "f", Body: ctor}}}
	out := RemoveEnum(m)

	if len(out.Decls.Enums) != 0 {
		t.Fatalf("expected the non-state enum declaration to be dropped, got %+v", out.Decls.Enums)
	}
	body := out.Functions[0].Body
	if body.Tag != MorInjLeft && body.Tag != MorInjRight {
		t.Fatalf("expected the constructor wrapped in an or-injection, got %+v", body)
	}
}

func TestRemoveEnumLeavesStateEnumsUntouched(t *testing.T) {
	e := &EnumDecl{Ident: "vehicle_state", Values: []EnumValue{{Ident: "Idle"}, {Ident: "Running"}}}
	a := &AssetDecl{Ident: "vehicle", StateEnum: "vehicle_state"}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}, Assets: []*AssetDecl{a}}}
	out := RemoveEnum(m)
	if len(out.Decls.Enums) != 1 || out.Decls.Enums[0].Ident != "vehicle_state" {
		t.Fatalf("expected the state enum to survive RemoveEnum, got %+v", out.Decls.Enums)
	}
}

func TestRemoveEnumRewritesMatchArms(t *testing.T) {
	e := &EnumDecl{Ident: "color", Values: []EnumValue{{Ident: "Red"}, {Ident: "Green"}}}
	match := &MT{
		Tag: Mmatch, Type: TInt(),
		Args: []*MT{{Tag: Mvar, Ident: "c", Type: TEnum("color")}},
		Cases: []MatchCase{
			{Pattern: Pattern{Kind: PatEnumCtor, Ident: "Red"}, Body: lit(0)},
			{Pattern: Pattern{Kind: PatEnumCtor, Ident: "Green"}, Body: lit(1)},
		},
	}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}}, Functions: []*Function{{Name: "f", Body: match}}}
	out := RemoveEnum(m)
	body := out.Functions[0].Body
	for _, c := range body.Cases {
		if c.Pattern.Kind == PatEnumCtor {
			t.Fatalf("expected every enum-ctor pattern rewritten, got %+v", c.Pattern)
		}
	}
}

func TestRemoveEnumErasesEnumTermTypes(t *testing.T) {
	e := &EnumDecl{Ident: "color", Values: []EnumValue{{Ident: "Red"}, {Ident: "Green"}}}
	ref := &MT{Tag: Mvar, Ident: "c", Type: TEnum("color")}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}}, Functions: []*Function{{Name: "f", Body: ref}}}
	out := RemoveEnum(m)
	if body := out.Functions[0].Body; body.Type.Tag != Tor {
		t.Fatalf("expected the enum-typed reference retyped to its or<> encoding, got %v", body.Type.Tag)
	}
}

func TestRemoveEnum000ErasesStateEnumTypes(t *testing.T) {
	e := &EnumDecl{Ident: "vehicle_state", Values: []EnumValue{{Ident: "Idle"}, {Ident: "Running"}}}
	a := &AssetDecl{Ident: "vehicle", StateEnum: "vehicle_state",
		Fields: []AssetField{{Ident: "state_vehicle", CurrentType: TEnum("vehicle_state")}}}
	ref := &MT{Tag: Mvar, Ident: "s", Type: TEnum("vehicle_state")}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}, Assets: []*AssetDecl{a}}, Functions: []*Function{{Name: "f", Body: ref}}}
	out := RemoveEnum000(m)
	if body := out.Functions[0].Body; body.Type.Tag != Tint {
		t.Fatalf("expected the state-enum reference retyped to int, got %v", body.Type.Tag)
	}
	if ft := out.FindAsset("vehicle").Fields[0].CurrentType; ft.Tag != Tint {
		t.Fatalf("expected the materialised state field retyped to int, got %v", ft.Tag)
	}
}

func TestProcessAssetStateMaterialisesStateField(t *testing.T) {
	e := &EnumDecl{Ident: "vehicle_state", Values: []EnumValue{{Ident: "Idle"}, {Ident: "Running"}}}
	a := &AssetDecl{Ident: "vehicle", Keys: []string{"id"}, StateEnum: "vehicle_state",
		Fields: []AssetField{{Ident: "id", CurrentType: TNat()}}}
	read := &MT{Tag: Massetstate, Asset: "vehicle", Type: TEnum("vehicle_state"), Args: []*MT{lit(1)}}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}, Assets: []*AssetDecl{a}}, Functions: []*Function{{Name: "f", Body: read}}}
	out := ProcessAssetState(m)

	asset := out.FindAsset("vehicle")
	found := false
	for _, f := range asset.Fields {
		if f.Ident == "state_vehicle" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a synthetic state_vehicle field, got %+v", asset.Fields)
	}
	body := out.Functions[0].Body
	if body.Tag != MdotAssetField || body.Field != "state_vehicle" {
		t.Fatalf("expected Massetstate rewritten to a dot projection of state_vehicle, got %+v", body)
	}
}

func TestRemoveEnum000EncodesConstructorsAsIndices(t *testing.T) {
	e := &EnumDecl{Ident: "vehicle_state", Values: []EnumValue{{Ident: "Idle"}, {Ident: "Running"}, {Ident: "Broken"}}}
	a := &AssetDecl{Ident: "vehicle", StateEnum: "vehicle_state"}
	ctor := &MT{Tag: Menumval, Ident: "Broken", Type: TEnum("vehicle_state")}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}, Assets: []*AssetDecl{a}}, Functions: []*Function{{Name: "f", Body: ctor}}}
	out := RemoveEnum000(m)

	if len(out.Decls.Enums) != 0 {
		t.Fatalf("expected the state enum declaration dropped, got %+v", out.Decls.Enums)
	}
	body := out.Functions[0].Body
	if body.Tag != Mlitint || body.Lit.Num != 2 {
		t.Fatalf("expected 'Broken' encoded as index 2, got %+v", body)
	}
}

func TestRemoveEnum000RewritesMatchToEqualityChain(t *testing.T) {
	e := &EnumDecl{Ident: "vehicle_state", Values: []EnumValue{{Ident: "Idle"}, {Ident: "Running"}}}
	a := &AssetDecl{Ident: "vehicle", StateEnum: "vehicle_state"}
	match := &MT{
		Tag: Mmatch, Type: TInt(),
		Args: []*MT{{Tag: Mvar, Ident: "s", Type: TEnum("vehicle_state")}},
		Cases: []MatchCase{
			{Pattern: Pattern{Kind: PatEnumCtor, Ident: "Idle"}, Body: lit(0)},
			{Pattern: Pattern{Kind: PatEnumCtor, Ident: "Running"}, Body: lit(1)},
		},
	}
	m := &Model{Decls: Decls{Enums: []*EnumDecl{e}, Assets: []*AssetDecl{a}}, Functions: []*Function{{Name: "f", Body: match}}}
	out := RemoveEnum000(m)
	body := out.Functions[0].Body
	if body.Tag != Mif || body.Args[0].Tag != Meq {
		t.Fatalf("expected the match rewritten to an if/Meq chain, got %+v", body)
	}
}
