package cache

import "testing"

func TestFreshVarLevelsAndBinding(t *testing.T) {
	c := New()
	id := c.FreshVar(KStar)
	b := c.Lookup(id)
	if b.Bound {
		t.Fatal("fresh variable should be unbound")
	}
	if b.Level != 0 {
		t.Fatalf("expected level 0, got %d", b.Level)
	}

	c.EnterLevel()
	inner := c.FreshVar(KInt)
	if c.Lookup(inner).Level != 1 {
		t.Fatalf("expected level 1 inside EnterLevel, got %d", c.Lookup(inner).Level)
	}
	c.ExitLevel()

	c.Bind(id, "placeholder")
	if !c.Lookup(id).Bound {
		t.Fatal("expected variable to be bound after Bind")
	}
}

func TestExitLevelPanicsWithoutEnter(t *testing.T) {
	c := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from unmatched ExitLevel")
		}
	}()
	c.ExitLevel()
}

func TestLowerLevelTakesMinimum(t *testing.T) {
	c := New()
	c.EnterLevel()
	c.EnterLevel()
	id := c.FreshVar(KStar) // level 2
	c.LowerLevel(id, 0)
	if got := c.Lookup(id).Level; got != 0 {
		t.Fatalf("expected level lowered to 0, got %d", got)
	}
	c.LowerLevel(id, 5) // must not raise it back up
	if got := c.Lookup(id).Level; got != 0 {
		t.Fatalf("LowerLevel must never raise a level, got %d", got)
	}
}

func TestDefsAndNameLookup(t *testing.T) {
	c := New()
	id := c.NewDef(DefInfo{Name: "id", Kind: DefNormal})
	got, ok := c.LookupDefByName("id")
	if !ok || got != id {
		t.Fatalf("expected to find def %d by name, got %v, %v", id, got, ok)
	}
	if c.Def(id).Name != "id" {
		t.Fatalf("expected name id, got %s", c.Def(id).Name)
	}
}

func TestNewDefNormalisesNameToNFC(t *testing.T) {
	c := New()
	// "é" as a precomposed code point (NFC) vs. "e" + combining acute
	// accent (NFD) must intern to the same definition.
	nfc := "café"
	nfd := "café"
	id := c.NewDef(DefInfo{Name: nfd, Kind: DefNormal})
	got, ok := c.LookupDefByName(nfc)
	if !ok || got != id {
		t.Fatalf("expected NFD and NFC spellings to intern to the same def, got %v, %v", got, ok)
	}
	if c.Def(id).Name != nfc {
		t.Fatalf("expected stored name to be NFC-normalised, got %q", c.Def(id).Name)
	}
}

func TestImplsForTrait(t *testing.T) {
	c := New()
	tr := c.NewTrait(TraitInfo{Name: "Add", Arity: 1})
	impl1 := c.NewImpl(ImplInfo{Trait: tr})
	other := c.NewTrait(TraitInfo{Name: "Eq", Arity: 1})
	c.NewImpl(ImplInfo{Trait: other})

	got := c.ImplsForTrait(tr)
	if len(got) != 1 || got[0] != impl1 {
		t.Fatalf("expected exactly impl %d for trait Add, got %v", impl1, got)
	}
}
