package mono

import (
	"strings"
	"testing"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/infer"
	"github.com/locriacyber/ante/internal/sample"
	"github.com/locriacyber/ante/internal/types"
)

// runSample infers and monomorphises the sample program, failing the test
// on any inference diagnostic or monomorphisation error.
func runSample(t *testing.T) (*Monomorphizer, *cache.Cache) {
	t.Helper()
	c := cache.New()
	ch := infer.New(c)
	m := sample.Program()
	ch.InferModule(m)
	if len(ch.Diags) > 0 {
		t.Fatalf("unexpected inference diagnostics: %v", ch.Diags)
	}
	mz := New(c, ch.Schemes)
	prog, err := mz.Run(m, sample.EntryPoint)
	if err != nil {
		t.Fatalf("mono.Run: %v", err)
	}
	if prog != mz.program {
		t.Fatalf("Run should return the monomorphizer's own program")
	}
	return mz, c
}

func TestRunEmitsIDAndMainFromEntryPoint(t *testing.T) {
	mz, _ := runSample(t)
	var names []string
	for _, d := range mz.program.Defs {
		names = append(names, d.Name)
	}
	foundMain, foundID := false, false
	for _, n := range names {
		if n == "main" {
			foundMain = true
		}
		if strings.HasPrefix(n, "id") {
			foundID = true
		}
	}
	if !foundMain {
		t.Fatalf("expected an emitted def named %q, got %v", "main", names)
	}
	if !foundID {
		t.Fatalf("expected an emitted def derived from %q, got %v", "id", names)
	}
}

func TestRunPopulatesDefTypes(t *testing.T) {
	mz, _ := runSample(t)
	defTypes := mz.DefTypes()
	if len(defTypes) == 0 {
		t.Fatal("expected DefTypes to record at least one def's monotype")
	}
	if _, ok := defTypes["main"]; !ok {
		var keys []string
		for k := range defTypes {
			keys = append(keys, k)
		}
		t.Fatalf("expected DefTypes to record \"main\", got keys %v", keys)
	}
}

func TestRunIsIdempotentViaMemoCache(t *testing.T) {
	c := cache.New()
	ch := infer.New(c)
	m := sample.Program()
	ch.InferModule(m)
	if len(ch.Diags) > 0 {
		t.Fatalf("unexpected inference diagnostics: %v", ch.Diags)
	}
	mz := New(c, ch.Schemes)
	if _, err := mz.Run(m, sample.EntryPoint); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	defsAfterFirst := len(mz.program.Defs)

	// Re-running monomorphiseDef for an already-cached (def, monotype) pair
	// must hit the memo cache rather than emitting a duplicate def.
	rootID, ok := c.LookupDefByName(sample.EntryPoint)
	if !ok {
		t.Fatal("entry point not found in cache")
	}
	rootDef := mz.defsByID[rootID]
	scheme, _ := ch.Schemes.Get(rootID)
	if _, err := mz.monomorphiseDef(rootID, rootDef, scheme.Body); err != nil {
		t.Fatalf("second monomorphiseDef: %v", err)
	}
	if len(mz.program.Defs) != defsAfterFirst {
		t.Fatalf("expected memo cache to prevent a duplicate def, had %d now have %d", defsAfterFirst, len(mz.program.Defs))
	}
}

func TestRunUnknownEntryPointErrors(t *testing.T) {
	c := cache.New()
	ch := infer.New(c)
	m := sample.Program()
	ch.InferModule(m)
	mz := New(c, ch.Schemes)
	if _, err := mz.Run(m, "does_not_exist"); err == nil {
		t.Fatal("expected an error for an unresolvable entry point")
	}
}

func TestUniqueNameMangling(t *testing.T) {
	mz := New(cache.New(), types.NewSchemeTable())
	first := mz.uniqueName("id")
	second := mz.uniqueName("id")
	third := mz.uniqueName("id")
	if first != "id" {
		t.Fatalf("expected the first use of a name to stay bare, got %q", first)
	}
	if second == first || third == first || second == third {
		t.Fatalf("expected distinct mangled names, got %q, %q, %q", first, second, third)
	}
}

func TestPushPopScopeBalances(t *testing.T) {
	mz := New(cache.New(), types.NewSchemeTable())
	base := len(mz.scopes)
	mz.pushScope()
	if len(mz.scopes) != base+1 {
		t.Fatalf("expected scopes to grow by one, got %d", len(mz.scopes))
	}
	mz.popScope()
	if len(mz.scopes) != base {
		t.Fatalf("expected popScope to restore the scope stack, got %d", len(mz.scopes))
	}
}
