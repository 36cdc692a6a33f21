// Package discover finds service contracts in Go source and checks that
// their records forward identity to the service.
//
// A trait type is any named type with MD5Sum() and DataType() methods.
// XRequest and XResponse trait types are the records of trait type X. Each
// record's MD5Sum, DataType and (if declared) ServiceType must be computed
// from X's own methods, e.g.
//
//	func (ResetRequest) MD5Sum() rostrait.Fingerprint { return Reset{}.MD5Sum() }
//
// No annotations are needed; the method set is the marker.
package discover

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Service is a discovered service and its records.
type Service struct {
	Name     string
	Request  string // "" if missing
	Response string // "" if missing
	Pos      token.Position
}

// Finding is one delegation problem.
type Finding struct {
	Type    string
	Method  string
	Message string
	Pos     token.Position
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Pos, f.Message)
}

// Result contains what was found in the loaded packages.
type Result struct {
	Packages []string
	Services []Service
	Findings []Finding
}

// OK reports whether no findings were made.
func (r *Result) OK() bool { return len(r.Findings) == 0 }

// Vet scans the packages matching pattern.
//
// The pattern follows go command semantics:
//   - "." for current directory
//   - "./..." for a tree
//   - Import path like "github.com/foo/bar"
func Vet(pattern string) (*Result, error) {
	return VetDir(pattern, "")
}

// VetDir is like Vet but allows specifying a working directory.
func VetDir(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	}

	result := &Result{}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		result.Packages = append(result.Packages, pkg.PkgPath)
		vetPackage(pkg, result)
	}
	return result, nil
}

// methodKey names a method declared on a type.
type methodKey struct {
	recv, method string
}

func vetPackage(pkg *packages.Package, result *Result) {
	decls := make(map[methodKey]*ast.FuncDecl)
	for _, file := range pkg.Syntax {
		for _, d := range file.Decls {
			fn, ok := d.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
				continue
			}
			if recv := receiverName(fn.Recv.List[0].Type); recv != "" {
				decls[methodKey{recv, fn.Name.Name}] = fn
			}
		}
	}

	traits := make(map[string]*types.Named)
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok || !isTrait(named) {
			continue
		}
		traits[name] = named
	}

	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	sort.Strings(names)

	v := &vetter{pkg: pkg, decls: decls, result: result}
	for _, name := range names {
		if base, ok := recordBase(name); ok {
			if _, isService := traits[base]; !isService {
				v.report(traits[name].Obj(), name, "", fmt.Sprintf("record %s has no service %s", name, base))
			}
			continue
		}

		s := Service{Name: name, Pos: pkg.Fset.Position(traits[name].Obj().Pos())}
		for _, suffix := range []string{"Request", "Response"} {
			rec, ok := traits[name+suffix]
			if !ok {
				continue
			}
			if suffix == "Request" {
				s.Request = rec.Obj().Name()
			} else {
				s.Response = rec.Obj().Name()
			}
			v.checkRecord(traits[name], rec)
		}
		if s.Request == "" && s.Response == "" {
			// A plain message type.
			continue
		}
		if s.Request == "" || s.Response == "" {
			v.report(traits[name].Obj(), name, "", fmt.Sprintf("service %s is missing a record", name))
		}
		result.Services = append(result.Services, s)
	}
}

type vetter struct {
	pkg    *packages.Package
	decls  map[methodKey]*ast.FuncDecl
	result *Result
}

func (v *vetter) report(obj types.Object, typ, method, msg string) {
	v.result.Findings = append(v.result.Findings, Finding{
		Type:    typ,
		Method:  method,
		Message: msg,
		Pos:     v.pkg.Fset.Position(obj.Pos()),
	})
}

// checkRecord verifies that rec's identity methods call into service.
func (v *vetter) checkRecord(service, rec *types.Named) {
	recName := rec.Obj().Name()
	checks := []struct {
		method   string
		forward  string
		optional bool
	}{
		{"MD5Sum", "MD5Sum", false},
		{"DataType", "DataType", false},
		{"ServiceType", "DataType", true},
	}
	for _, c := range checks {
		fn, ok := v.decls[methodKey{recName, c.method}]
		if !ok {
			if !c.optional {
				v.report(rec.Obj(), recName, c.method,
					fmt.Sprintf("%s.%s is not declared in this package", recName, c.method))
			}
			continue
		}
		if !v.forwards(fn, service, c.forward) {
			v.result.Findings = append(v.result.Findings, Finding{
				Type:    recName,
				Method:  c.method,
				Message: fmt.Sprintf("%s.%s does not forward to %s.%s", recName, c.method, service.Obj().Name(), c.forward),
				Pos:     v.pkg.Fset.Position(fn.Pos()),
			})
		}
	}
}

// forwards reports whether fn's body calls method on a value of service.
func (v *vetter) forwards(fn *ast.FuncDecl, service *types.Named, method string) bool {
	if fn.Body == nil {
		return false
	}
	found := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if found {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != method {
			return true
		}
		t := v.pkg.TypesInfo.TypeOf(sel.X)
		if ptr, ok := t.(*types.Pointer); ok {
			t = ptr.Elem()
		}
		if t != nil && types.Identical(t, service) {
			found = true
		}
		return !found
	})
	return found
}

// isTrait reports whether named has MD5Sum() and DataType() methods taking
// no arguments and returning one value.
func isTrait(named *types.Named) bool {
	mset := types.NewMethodSet(types.NewPointer(named))
	for _, name := range []string{"MD5Sum", "DataType"} {
		sel := mset.Lookup(named.Obj().Pkg(), name)
		if sel == nil {
			return false
		}
		sig, ok := sel.Type().(*types.Signature)
		if !ok || sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return false
		}
	}
	return true
}

// recordBase returns X for "XRequest" and "XResponse".
func recordBase(name string) (string, bool) {
	for _, suffix := range []string{"Request", "Response"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && base != "" {
			return base, true
		}
	}
	return "", false
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}
