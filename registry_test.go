package refit

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
	if reg.methods == nil {
		t.Error("expected methods map to be initialized")
	}
	if reg.Frozen() {
		t.Error("expected new registry to be mutable")
	}
}

func TestRegistry_MethodThenParams(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordMethod("Get", "GET", "/todos/{id}", map[string]string{"Accept": "application/json"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RecordParameter("Get", 0, RolePath, "id"); err != nil {
		t.Fatal(err)
	}

	desc, ok := reg.Lookup("Get")
	if !ok {
		t.Fatal("expected Get to be registered")
	}
	want := &MethodDescriptor{
		Name:       "Get",
		HTTPMethod: "GET",
		Path:       "/todos/{id}",
		Headers:    map[string]string{"Accept": "application/json"},
		Params:     map[int]Param{0: {Index: 0, Role: RolePath, Name: "id"}},
	}
	if diff := cmp.Diff(want, desc, cmpopts.IgnoreUnexported(MethodDescriptor{})); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ParamsThenMethod(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordParameter("Search", 1, RoleQuery, "q"); err != nil {
		t.Fatal(err)
	}
	if err := reg.RecordParameter("Search", 0, RoleHeader, "X-Tenant"); err != nil {
		t.Fatal(err)
	}

	if _, ok := reg.Lookup("Search"); ok {
		t.Error("expected parameter-only entry to be absent")
	}

	if err := reg.RecordMethod("Search", "GET", "/search", nil); err != nil {
		t.Fatal(err)
	}

	desc, ok := reg.Lookup("Search")
	if !ok {
		t.Fatal("expected Search to be registered")
	}
	if len(desc.Params) != 2 {
		t.Fatalf("expected parameter records to survive the method record, got %v", desc.Params)
	}
	if desc.Params[1].Key() != "q" || desc.Params[0].Role != RoleHeader {
		t.Errorf("unexpected params: %v", desc.Params)
	}
	if desc.Headers == nil {
		t.Error("expected non-nil headers map")
	}
}

func TestRegistry_RecordMethodTwiceKeepsParams(t *testing.T) {
	reg := NewRegistry()
	reg.MustDefine("Put", PUT("/a/{id}"), Path(0, "id"))
	if err := reg.RecordMethod("Put", "PUT", "/b/{id}", nil); err != nil {
		t.Fatal(err)
	}
	desc, _ := reg.Lookup("Put")
	if desc.Path != "/b/{id}" {
		t.Errorf("expected path to be updated, got %s", desc.Path)
	}
	if _, ok := desc.Params[0]; !ok {
		t.Error("expected path parameter to be kept")
	}
}

func TestRegistry_RecordParameter_Validation(t *testing.T) {
	tests := []struct {
		name  string
		index int
		role  ParamRole
	}{
		{"negative index", -1, RolePath},
		{"unknown role", 0, ParamRole("cookie")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().RecordParameter("M", tt.index, tt.role, "")
			if CodeOf(err) != CodeInvalidArgument {
				t.Errorf("expected invalid_argument, got %v", err)
			}
		})
	}
}

func TestRegistry_RecordMethod_UnsupportedVerb(t *testing.T) {
	for _, verb := range []string{"HEAD", "OPTIONS", "get", ""} {
		err := NewRegistry().RecordMethod("M", verb, "/", nil)
		if CodeOf(err) != CodeInvalidArgument {
			t.Errorf("%q: expected invalid_argument, got %v", verb, err)
		}
	}
}

func TestRegistry_SingleBody(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordParameter("Create", 0, RoleBody, ""); err != nil {
		t.Fatal(err)
	}
	// Re-recording the same index is fine.
	if err := reg.RecordParameter("Create", 0, RoleBody, "ignored"); err != nil {
		t.Fatalf("unexpected error re-recording body: %v", err)
	}
	err := reg.RecordParameter("Create", 1, RoleBody, "")
	if CodeOf(err) != CodeInvalidArgument {
		t.Fatalf("expected invalid_argument for second body, got %v", err)
	}

	reg.MustDefine("Create", POST("/todos"))
	desc, _ := reg.Lookup("Create")
	if p := desc.Params[0]; p.Name != "" {
		t.Errorf("expected body param to carry no name, got %q", p.Name)
	}
}

func TestRegistry_Freeze(t *testing.T) {
	reg := NewRegistry()
	reg.MustDefine("Get", GET("/x"))
	reg.Freeze()

	if err := reg.RecordMethod("Other", "GET", "/y", nil); !errors.Is(err, ErrFrozen) {
		t.Errorf("expected ErrFrozen, got %v", err)
	}
	if err := reg.RecordParameter("Get", 0, RoleQuery, "q"); !errors.Is(err, ErrFrozen) {
		t.Errorf("expected ErrFrozen, got %v", err)
	}
	if err := reg.Define("Get", Query(1, "q")); CodeOf(err) != CodeFailedPrecondition {
		t.Errorf("expected failed_precondition, got %v", err)
	}
	if _, ok := reg.Lookup("Get"); !ok {
		t.Error("expected lookups to keep working after freeze")
	}
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.MustDefine("Get", GET("/x", map[string]string{"A": "1"}), Query(0, "q"))

	desc, _ := reg.Lookup("Get")
	desc.Headers["A"] = "changed"
	desc.Params[5] = Param{Index: 5, Role: RoleBody}

	again, _ := reg.Lookup("Get")
	if again.Headers["A"] != "1" {
		t.Error("expected registry headers to be unaffected by caller mutation")
	}
	if _, ok := again.Params[5]; ok {
		t.Error("expected registry params to be unaffected by caller mutation")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.MustDefine("b", GET("/b"))
	reg.MustDefine("a", DELETE("/a"))
	if err := reg.RecordParameter("orphan", 0, RoleQuery, "q"); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ConcurrentRecords(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := reg.RecordParameter("Bulk", i, RoleQuery, ""); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reg.RecordMethod("Bulk", "GET", "/bulk", nil); err != nil {
			t.Error(err)
		}
	}()
	wg.Wait()

	desc, ok := reg.Lookup("Bulk")
	if !ok {
		t.Fatal("expected Bulk to be registered")
	}
	if len(desc.Params) != 20 {
		t.Errorf("expected 20 params, got %d", len(desc.Params))
	}
}

func TestParam_Key(t *testing.T) {
	if got := (Param{Index: 3}).Key(); got != "3" {
		t.Errorf("expected index fallback 3, got %q", got)
	}
	if got := (Param{Index: 3, Name: "id"}).Key(); got != "id" {
		t.Errorf("expected id, got %q", got)
	}
}

func TestMethodDescriptor_Placeholders(t *testing.T) {
	m := &MethodDescriptor{Path: "/orgs/{org}/repos/{repo}/{0}"}
	if diff := cmp.Diff([]string{"org", "repo", "0"}, m.Placeholders()); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}
}

func TestDefine_AppliesInOrder(t *testing.T) {
	reg := NewRegistry()
	err := reg.Define("Bad", Path(0, "id"), GET("/x/{id}"), Body(1), Body(2))
	if CodeOf(err) != CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
	// Annotations before the failing one were applied.
	desc, ok := reg.Lookup("Bad")
	if !ok {
		t.Fatal("expected Bad to be registered")
	}
	if desc.Params[1].Role != RoleBody {
		t.Errorf("expected first body to be recorded, got %v", desc.Params)
	}
}

func TestMustDefine_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewRegistry().MustDefine("X", methodAnnotation{httpMethod: "TRACE", path: "/"})
}

func TestMethodAnnotations_MergeHeaders(t *testing.T) {
	reg := NewRegistry()
	reg.MustDefine("Get", GET("/x", map[string]string{"A": "1", "B": "1"}, map[string]string{"B": "2"}))
	desc, _ := reg.Lookup("Get")
	if diff := cmp.Diff(map[string]string{"A": "1", "B": "2"}, desc.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}
