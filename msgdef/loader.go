package msgdef

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/activegrasp/rostrait"
)

// Loader reads definitions from package trees laid out as
// <pkg>/msg/<Name>.msg and <pkg>/srv/<Name>.srv, loading referenced messages
// on demand.
type Loader struct {
	roots   []fs.FS
	catalog *Catalog
}

// NewLoader searches roots in order. The first root containing a definition wins.
func NewLoader(roots ...fs.FS) *Loader {
	return &Loader{
		roots:   roots,
		catalog: &Catalog{messages: make(map[rostrait.TypeName]*Message)},
	}
}

// NewDirLoader is NewLoader over filesystem directories, such as the entries
// of ROS_PACKAGE_PATH.
func NewDirLoader(dirs ...string) *Loader {
	roots := make([]fs.FS, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		roots = append(roots, os.DirFS(filepath.Clean(d)))
	}
	return NewLoader(roots...)
}

// SplitPath splits a list of directories joined by the OS list separator.
func SplitPath(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, string(os.PathListSeparator))
}

// Catalog returns the catalog of everything loaded so far.
func (l *Loader) Catalog() *Catalog { return l.catalog }

// LoadMessage loads name and, recursively, every message it references.
func (l *Loader) LoadMessage(name rostrait.TypeName) (*Message, error) {
	if m, ok := l.catalog.Lookup(name); ok {
		return m, nil
	}
	if err := name.Validate(); err != nil {
		return nil, err
	}
	text, err := l.read(name.Package(), "msg", name.Name()+".msg")
	if err != nil {
		return nil, err
	}
	m, err := ParseMessage(name, text)
	if err != nil {
		return nil, err
	}
	// Register before descending so recursive definitions terminate here and
	// are reported by the fingerprint computation.
	if err := l.catalog.Add(m); err != nil {
		return nil, err
	}
	if err := l.loadDependencies(m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadService loads a service and every message its records reference.
func (l *Loader) LoadService(name rostrait.TypeName) (*Service, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	text, err := l.read(name.Package(), "srv", name.Name()+".srv")
	if err != nil {
		return nil, err
	}
	s, err := ParseService(name, text)
	if err != nil {
		return nil, err
	}
	if err := l.loadDependencies(s.Request); err != nil {
		return nil, err
	}
	if err := l.loadDependencies(s.Response); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *Loader) loadDependencies(m *Message) error {
	for _, dep := range m.Dependencies() {
		if _, err := l.LoadMessage(dep); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	return nil
}

// read finds pkg/kind/file in the roots. A root may also be the package
// directory itself.
func (l *Loader) read(pkg, kind, file string) (string, error) {
	candidates := []string{path.Join(pkg, kind, file), path.Join(kind, file)}
	for _, root := range l.roots {
		for i, p := range candidates {
			if i == 1 && !isPackageRoot(root, pkg) {
				continue
			}
			data, err := fs.ReadFile(root, p)
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read %s: %w", p, err)
			}
		}
	}
	return "", rostrait.Errorf(rostrait.CodeNotFound, "%s/%s not found in %d search roots", pkg, strings.TrimSuffix(file, path.Ext(file)), len(l.roots))
}

// isPackageRoot reports whether root is the directory of pkg, identified by
// a package.xml naming it.
func isPackageRoot(root fs.FS, pkg string) bool {
	data, err := fs.ReadFile(root, "package.xml")
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "<name>"+pkg+"</name>")
}
