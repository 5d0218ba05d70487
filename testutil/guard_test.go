package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testForbiddenImport = "some/forbidden/package"

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestInfraImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"structkit/internal/infra/blob/fs", true},
		{"structkit/internal/infra/persistence/sqlite", true},
		{"structkit/internal/blob", false},
		{"structkit/internal/infrastructure", false},
		{"", false},
	}
	for _, c := range cases {
		if got := InfraImportForbidden(c.in); got != c.want {
			t.Fatalf("InfraImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"example.com/mod/internal/x", true},
		{"example.com/mod/pkg/x", false},
		{"internal", false},
		{"example.com/internal", false},
		{"some/internal/path", true},
		{"notinternal", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestThirdPartyImportPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"fmt", false},
		{"net/http", false},
		{"structkit/pkg/proxy", false},
		{"github.com/stretchr/testify/assert", true},
		{"gopkg.in/yaml.v3", true},
		{"modernc.org/sqlite", true},
	}
	for _, c := range cases {
		if got := ThirdPartyImport(c.in); got != c.want {
			t.Fatalf("ThirdPartyImport(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "main.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"context\"\n\t. \"io\"\n)\nfunc X() {}\n")
	writeGo(t, dir, "main_test.go", "package tmp\nimport \""+testForbiddenImport+"\"\n")
	writeGo(t, dir, "notes.txt", "import \""+testForbiddenImport+"\"")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, sub, "sub.go", "package sub\nimport \""+testForbiddenImport+"\"\n")

	AssertNoDirectImports(t, dir, func(ip string) bool { return ip == testForbiddenImport }, "none")
}

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "package tmp\nimport \"structkit/internal/infra/blob/fs\"\n")

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "structkit/internal/infra/blob/fs (in bad.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}

	rec := &recordingFatal{}
	failIfDirectViolations(rec, "layering", viols)
	if !strings.Contains(rec.msg, "forbidden direct imports detected (layering)") {
		t.Fatalf("unexpected message %q", rec.msg)
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InfraImportForbidden); err == nil {
		t.Fatal("expected error for missing dir")
	}
	dir := t.TempDir()
	writeGo(t, dir, "broken.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, InfraImportForbidden); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\n\nstructkit/pkg/proxy\ngithub.com/stretchr/testify/assert\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", ThirdPartyImport)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(viols) != 1 || viols[0] != "github.com/stretchr/testify/assert" {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingFatal{}
	failIfTransitiveViolations(rec, "pattern packages", viols)
	if !strings.Contains(rec.msg, "forbidden transitive dependency detected (pattern packages)") {
		t.Fatalf("unexpected message %q", rec.msg)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations("./...", ThirdPartyImport); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure, got %v %q", err, out)
	}
}

// TestPatternPackagesHaveNoThirdPartyDeps keeps the structural pattern
// library importable without pulling in any dependency.
func TestPatternPackagesHaveNoThirdPartyDeps(t *testing.T) {
	if testing.Short() {
		t.Skip("shells out to go list")
	}
	AssertNoTransitiveDependency(t, "structkit/pkg/...", ThirdPartyImport, "pattern packages use the standard library only")
	AssertNoTransitiveDependency(t, "structkit/pkg/...", InternalImportForbidden, "pattern packages must not reach internal code")
}
