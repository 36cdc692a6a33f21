package msgdef

import (
	"crypto/md5"
	"sort"
	"strings"

	"github.com/activegrasp/rostrait"
	"go.uber.org/multierr"
)

// Catalog is a set of message definitions that reference each other.
// A Catalog is not safe for concurrent Add; lookups and fingerprints may run
// concurrently once it is populated.
type Catalog struct {
	messages map[rostrait.TypeName]*Message
}

// NewCatalog returns a catalog holding msgs.
func NewCatalog(msgs ...*Message) (*Catalog, error) {
	c := &Catalog{messages: make(map[rostrait.TypeName]*Message)}
	if err := c.Add(msgs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add inserts messages. Adding a second, different definition under an
// existing name is an error.
func (c *Catalog) Add(msgs ...*Message) error {
	var errs error
	for _, m := range msgs {
		if prev, ok := c.messages[m.Name]; ok && prev != m {
			errs = multierr.Append(errs, rostrait.Errorf(rostrait.CodeInvalidArgument, "duplicate message %s", m.Name))
			continue
		}
		c.messages[m.Name] = m
	}
	return errs
}

// Lookup returns the message registered under name.
func (c *Catalog) Lookup(name rostrait.TypeName) (*Message, bool) {
	m, ok := c.messages[name]
	return m, ok
}

// Names returns all message names, sorted.
func (c *Catalog) Names() []rostrait.TypeName {
	names := make([]rostrait.TypeName, 0, len(c.messages))
	for n := range c.messages {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Validate checks that every field reference resolves and that no message
// contains itself. All problems are reported.
func (c *Catalog) Validate() error {
	var errs error
	for _, name := range c.Names() {
		m := c.messages[name]
		for _, dep := range m.Dependencies() {
			if _, ok := c.messages[dep]; !ok {
				errs = multierr.Append(errs, rostrait.Errorf(rostrait.CodeNotFound, "%s references unknown type %s", name, dep))
			}
		}
	}
	if errs != nil {
		return errs
	}
	for _, name := range c.Names() {
		if _, err := c.MD5Text(c.messages[name]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// MD5Text returns the canonical text the fingerprint of m is computed over.
func (c *Catalog) MD5Text(m *Message) (string, error) {
	return c.md5Text(m, make(map[rostrait.TypeName]rostrait.Fingerprint), nil)
}

// Fingerprint returns the structural fingerprint of m.
func (c *Catalog) Fingerprint(m *Message) (rostrait.Fingerprint, error) {
	text, err := c.MD5Text(m)
	if err != nil {
		return rostrait.Fingerprint{}, err
	}
	return rostrait.Sum(text), nil
}

// ServiceFingerprint returns the structural fingerprint of s.
func (c *Catalog) ServiceFingerprint(s *Service) (rostrait.Fingerprint, error) {
	memo := make(map[rostrait.TypeName]rostrait.Fingerprint)
	req, err := c.md5Text(s.Request, memo, nil)
	if err != nil {
		return rostrait.Fingerprint{}, err
	}
	res, err := c.md5Text(s.Response, memo, nil)
	if err != nil {
		return rostrait.Fingerprint{}, err
	}
	h := md5.New()
	h.Write([]byte(req))
	h.Write([]byte(res))
	var f rostrait.Fingerprint
	copy(f[:], h.Sum(nil))
	return f, nil
}

// md5Text renders m. memo caches sub-message fingerprints; path is the chain
// of messages being rendered and catches recursive definitions.
func (c *Catalog) md5Text(m *Message, memo map[rostrait.TypeName]rostrait.Fingerprint, path []rostrait.TypeName) (string, error) {
	for _, p := range path {
		if p == m.Name {
			return "", rostrait.Errorf(rostrait.CodeInvalidArgument, "recursive definition: %s", joinPath(append(path, m.Name)))
		}
	}
	path = append(path, m.Name)

	var b strings.Builder
	for _, k := range m.Constants {
		b.WriteString(k.Type + " " + k.Name + "=" + k.Value + "\n")
	}
	for _, f := range m.Fields {
		if f.IsBuiltin() {
			b.WriteString(f.Type + " " + f.Name + "\n")
			continue
		}
		dep := rostrait.TypeName(f.BaseType())
		sum, ok := memo[dep]
		if !ok {
			sub, found := c.messages[dep]
			if !found {
				return "", rostrait.Errorf(rostrait.CodeNotFound, "%s.%s: unknown type %s", m.Name, f.Name, dep)
			}
			text, err := c.md5Text(sub, memo, path)
			if err != nil {
				return "", err
			}
			sum = rostrait.Sum(text)
			memo[dep] = sum
		}
		b.WriteString(sum.String() + " " + f.Name + "\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func joinPath(path []rostrait.TypeName) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = string(p)
	}
	return strings.Join(parts, " -> ")
}
