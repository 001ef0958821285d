package core

import "testing"

func TestModelFinders(t *testing.T) {
	m := &Model{
		Decls: Decls{
			Assets:  []*AssetDecl{{Ident: "wallet"}},
			Enums:   []*EnumDecl{{Ident: "color"}},
			Records: []*RecordDecl{{Ident: "point"}},
			Vars:    []*VarDecl{{Ident: "owner"}},
		},
		Functions: []*Function{{Name: "transfer"}},
	}

	if m.FindAsset("wallet") == nil {
		t.Fatalf("expected FindAsset to find 'wallet'")
	}
	if m.FindAsset("missing") != nil {
		t.Fatalf("expected FindAsset to return nil for an absent asset")
	}
	if m.FindEnum("color") == nil {
		t.Fatalf("expected FindEnum to find 'color'")
	}
	if m.FindRecord("point") == nil {
		t.Fatalf("expected FindRecord to find 'point'")
	}
	if m.FindVar("owner") == nil {
		t.Fatalf("expected FindVar to find 'owner'")
	}
	if m.FindFunction("transfer") == nil {
		t.Fatalf("expected FindFunction to find 'transfer'")
	}
	if m.FindFunction("missing") != nil {
		t.Fatalf("expected FindFunction to return nil for an absent function")
	}
}

func TestHasEntrypoint(t *testing.T) {
	withEntry := &Model{Functions: []*Function{{Name: "f", Node: FuncNode{Kind: NodeEntry}}}}
	if !withEntry.HasEntrypoint() {
		t.Fatalf("expected a model with an Entry function to report true")
	}
	withoutEntry := &Model{Functions: []*Function{{Name: "v", Node: FuncNode{Kind: NodeView}}}}
	if withoutEntry.HasEntrypoint() {
		t.Fatalf("expected a model with no Entry function to report false")
	}
}

func TestModelCloneIsIndependentAndDeepEnough(t *testing.T) {
	m := &Model{
		Decls:     Decls{Assets: []*AssetDecl{{Ident: "wallet"}}},
		Storage:   []StorageItem{{Ident: "s"}},
		Functions: []*Function{{Name: "f"}},
		Extra:     map[string]string{"k": "v"},
	}
	clone := m.Clone()
	if clone == m {
		t.Fatalf("expected Clone to return a distinct Model")
	}
	clone.Storage = append(clone.Storage, StorageItem{Ident: "t"})
	if len(m.Storage) != 1 {
		t.Fatalf("expected appending to the clone's Storage slice not to affect the original")
	}
	clone.Extra["k"] = "changed"
	if m.Extra["k"] != "v" {
		t.Fatalf("expected Extra map to be copied, not shared")
	}
}
