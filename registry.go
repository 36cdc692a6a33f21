package rostrait

import (
	"log/slog"
	"sort"

	"go.uber.org/multierr"
)

// Registry is a closed table of service contracts. It is built once and never
// mutated, so lookups need no locking and are safe from any goroutine.
type Registry struct {
	contracts map[TypeName]Contract
	// records maps request and response names to their service.
	records map[TypeName]TypeName
	names   []TypeName
}

// NewRegistry describes every service and indexes the contracts by service
// and record name. All problems are reported together.
func NewRegistry(services ...Service) (*Registry, error) {
	r := &Registry{
		contracts: make(map[TypeName]Contract, len(services)),
		records:   make(map[TypeName]TypeName, 2*len(services)),
	}

	var errs error
	for _, s := range services {
		c, err := Describe(s)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, exists := r.contracts[c.Name]; exists {
			errs = multierr.Append(errs, Errorf(CodeInvalidArgument, "duplicate service %s", c.Name))
			continue
		}
		if owner, taken := r.records[c.Name]; taken {
			errs = multierr.Append(errs, Errorf(CodeInvalidArgument, "service %s collides with a record of %s", c.Name, owner))
			continue
		}
		for _, rec := range []TypeName{c.Request, c.Response} {
			if owner, taken := r.records[rec]; taken {
				errs = multierr.Append(errs, Errorf(CodeInvalidArgument, "record %s claimed by %s and %s", rec, owner, c.Name))
			}
			if _, clash := r.contracts[rec]; clash {
				errs = multierr.Append(errs, Errorf(CodeInvalidArgument, "record %s collides with a service name", rec))
			}
		}
		r.contracts[c.Name] = c
		r.records[c.Request] = c.Name
		r.records[c.Response] = c.Name
		r.names = append(r.names, c.Name)
	}
	if errs != nil {
		return nil, errs
	}

	sort.Slice(r.names, func(i, j int) bool { return r.names[i] < r.names[j] })
	return r, nil
}

// MustRegistry is like NewRegistry but panics, so that a broken identity
// table stops the program at initialization.
func MustRegistry(services ...Service) *Registry {
	r, err := NewRegistry(services...)
	if err != nil {
		panic("rostrait: " + err.Error())
	}
	return r
}

// Lookup returns the contract owning name, which may be a service or one of
// its records. An unqualified name matches when exactly one entry carries it.
func (r *Registry) Lookup(name TypeName) (Contract, bool) {
	name, ok := r.resolve(name)
	if !ok {
		return Contract{}, false
	}
	if c, ok := r.contracts[name]; ok {
		return c, true
	}
	return r.contracts[r.records[name]], true
}

// resolve qualifies name and reports whether it is known.
func (r *Registry) resolve(name TypeName) (TypeName, bool) {
	if name.IsQualified() {
		_, isService := r.contracts[name]
		_, isRecord := r.records[name]
		return name, isService || isRecord
	}
	var found TypeName
	matches := 0
	for n := range r.contracts {
		if n.Name() == string(name) {
			found, matches = n, matches+1
		}
	}
	for n := range r.records {
		if n.Name() == string(name) {
			found, matches = n, matches+1
		}
	}
	return found, matches == 1
}

// FingerprintOf returns the fingerprint declared for a service or record.
// Records share the fingerprint of their service.
func (r *Registry) FingerprintOf(name TypeName) (Fingerprint, bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return Fingerprint{}, false
	}
	return c.MD5Sum, true
}

// TypeNameOf returns the qualified name of a service or record.
func (r *Registry) TypeNameOf(name TypeName) (TypeName, bool) {
	return r.resolve(name)
}

// Contracts returns all contracts sorted by service name.
func (r *Registry) Contracts() []Contract {
	out := make([]Contract, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.contracts[n])
	}
	return out
}

// Len returns the number of services.
func (r *Registry) Len() int { return len(r.names) }

// LogValue implements slog.LogValuer.
func (r *Registry) LogValue() slog.Value {
	names := make([]string, len(r.names))
	for i, n := range r.names {
		names[i] = string(n)
	}
	return slog.GroupValue(
		slog.Int("services", len(names)),
		slog.Any("names", names),
	)
}
