package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func loadModule(t *testing.T) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "structkit/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	return pkgs
}

func report(t *testing.T, what string, seen map[string]struct{}) {
	t.Helper()
	if len(seen) == 0 {
		return
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden import of %s: %s", what, v)
	}
	t.Fatalf("found %d forbidden imports of %s", len(violations), what)
}

// TestOnlyBlobPackageImportsInfra ensures that only the top-level blob
// package wraps the infra-backed implementations. Other packages must depend
// on the blob.Store interface instead of importing infra packages directly.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	infraPrefix := "structkit/internal/infra/blob"
	allowedPrefix := "structkit/internal/blob"

	seen := make(map[string]struct{})
	for _, pkg := range loadModule(t) {
		if hasPrefix(pkg.PkgPath, allowedPrefix) || hasPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if hasPrefix(importPath, infraPrefix) {
				seen[filepath.Join(pkg.PkgPath, "...")+": "+importPath] = struct{}{}
			}
		}
	}
	report(t, "infra blob package", seen)
}

// TestPatternPackagesStandAlone keeps pkg/ free of domain code and of each
// other: every pattern package may import only the standard library and
// test tooling.
func TestPatternPackagesStandAlone(t *testing.T) {
	seen := make(map[string]struct{})
	for _, pkg := range loadModule(t) {
		if !hasPrefix(pkg.PkgPath, "structkit/pkg") || strings.HasSuffix(pkg.PkgPath, ".test") {
			continue
		}
		self := strings.TrimSuffix(pkg.PkgPath, "_test")
		for importPath := range pkg.Imports {
			switch {
			case importPath == self:
			case hasPrefix(importPath, "structkit"):
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			case hasPrefix(importPath, "github.com/stretchr/testify"):
			case strings.Contains(strings.SplitN(importPath, "/", 2)[0], "."):
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}
	report(t, "non-stdlib package from pkg/", seen)
}

func hasPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
