// Package rolecheck reports which named types in a set of Go packages play
// a role from structkit's pattern packages, such as composite.Component or
// bridge.Implementor.
package rolecheck

import (
	"context"
	"fmt"
	"go/types"
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"
)

// PatternRoot is the import path prefix of the pattern packages.
const PatternRoot = "structkit/pkg/"

// Roles lists the interfaces checked, by pattern package and type name.
var Roles = []RoleName{
	{"adapter", "Target"},
	{"adapter", "Adaptee"},
	{"bridge", "Implementor"},
	{"bridge", "Operator"},
	{"composite", "Component"},
	{"composite", "Parent"},
	{"decorator", "Component"},
	{"facade", "Subsystem"},
	{"flyweight", "Observer"},
	{"proxy", "Observer"},
}

// RoleName identifies a role interface.
type RoleName struct {
	Pattern   string
	Interface string
}

func (r RoleName) String() string { return r.Pattern + "." + r.Interface }

// Implementer is a named type that satisfies a role.
type Implementer struct {
	Package    string
	Type       string
	ViaPointer bool
}

func (i Implementer) String() string {
	if i.ViaPointer {
		return "*" + i.Package + "." + i.Type
	}
	return i.Package + "." + i.Type
}

// Role is one role interface and everything found implementing it.
type Role struct {
	RoleName
	Implementers []Implementer
}

// Report is the outcome of Check. Roles whose interface was not reachable
// from the loaded packages are omitted.
type Report struct {
	Roles    []Role
	Packages int
}

// Find returns the role with the given name.
func (r *Report) Find(pattern, iface string) (Role, bool) {
	for _, role := range r.Roles {
		if role.Pattern == pattern && role.Interface == iface {
			return role, true
		}
	}
	return Role{}, false
}

// Write renders the report as an indented listing.
func (r *Report) Write(w io.Writer) error {
	for _, role := range r.Roles {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", role.RoleName, len(role.Implementers)); err != nil {
			return err
		}
		for _, impl := range role.Implementers {
			if _, err := fmt.Fprintf(w, "  %s\n", impl); err != nil {
				return err
			}
		}
	}
	return nil
}

type roleIface struct {
	name  RoleName
	iface *types.Interface
}

// Check loads patterns relative to dir and matches every named non-interface
// type against the role interfaces visible from those packages. Generic
// roles are matched by method names.
func Check(ctx context.Context, dir string, patterns []string, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo | packages.NeedImports,
		Dir:     dir,
		Context: ctx,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	logger.Info("packages loaded", "packages_count", len(pkgs))

	roles := map[RoleName]*types.Interface{}
	var named []*types.TypeName
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
		if pkg.Types == nil {
			continue
		}
		collectRoles(roles, pkg.Types)
		for _, imp := range pkg.Types.Imports() {
			collectRoles(roles, imp)
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			if _, isIface := tn.Type().Underlying().(*types.Interface); isIface {
				continue
			}
			named = append(named, tn)
		}
	}

	ordered := make([]roleIface, 0, len(roles))
	for _, rn := range Roles {
		if iface, ok := roles[rn]; ok {
			ordered = append(ordered, roleIface{rn, iface})
		}
	}

	var cache typeutil.MethodSetCache
	report := &Report{Packages: len(pkgs)}
	for _, ri := range ordered {
		role := Role{RoleName: ri.name}
		for _, tn := range named {
			val := tn.Type()
			switch {
			case matchesMethodSet(cache.MethodSet(val), ri.iface):
				role.Implementers = append(role.Implementers, Implementer{Package: tn.Pkg().Name(), Type: tn.Name()})
			case matchesMethodSet(cache.MethodSet(types.NewPointer(val)), ri.iface):
				role.Implementers = append(role.Implementers, Implementer{Package: tn.Pkg().Name(), Type: tn.Name(), ViaPointer: true})
			}
		}
		sort.Slice(role.Implementers, func(i, j int) bool {
			return role.Implementers[i].String() < role.Implementers[j].String()
		})
		logger.Debug("role checked", "role", ri.name.String(), "implementers", len(role.Implementers))
		report.Roles = append(report.Roles, role)
	}
	logger.Info("role check complete", "roles", len(report.Roles))
	return report, nil
}

func collectRoles(dst map[RoleName]*types.Interface, pkg *types.Package) {
	if !strings.HasPrefix(pkg.Path(), PatternRoot) {
		return
	}
	pattern := strings.TrimPrefix(pkg.Path(), PatternRoot)
	for _, rn := range Roles {
		if rn.Pattern != pattern {
			continue
		}
		if _, seen := dst[rn]; seen {
			continue
		}
		tn, ok := pkg.Scope().Lookup(rn.Interface).(*types.TypeName)
		if !ok {
			continue
		}
		if iface, ok := tn.Type().Underlying().(*types.Interface); ok {
			dst[rn] = iface
		}
	}
}

func matchesMethodSet(mset *types.MethodSet, iface *types.Interface) bool {
	if iface.NumMethods() == 0 {
		return false
	}
	for i := 0; i < iface.NumMethods(); i++ {
		m := iface.Method(i)
		if mset.Lookup(m.Pkg(), m.Name()) == nil {
			return false
		}
	}
	return true
}
