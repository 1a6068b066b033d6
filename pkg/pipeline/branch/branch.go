// Package branch maps branch names to the policy a pipeline applies to them.
//
// Entries are keyed by a literal name or a regular expression and looked up in registration
// order: the first entry whose pattern matches the whole branch name wins.
package branch

import (
	"regexp"

	"github.com/pkg/errors"
)

var ErrNameRequired = errors.New("branch name must be set")

// Branch holds the properties of the branches matching Name.
type Branch struct {
	// Name is a literal branch name or a regular expression.
	Name string
	// IsProtected branches keep more history and notify the admins.
	IsProtected bool
	// BuildHistory is how many builds to keep, 0 leaves the host default.
	BuildHistory int
	// AllowRelease lets the branch publish releases.
	AllowRelease bool
	// AllowFormalRelease lets the branch publish formal, non pre-release versions.
	AllowFormalRelease bool
	// ReleaseTag is the pre-release tag used when publishing from the branch.
	ReleaseTag string
}

type entry struct {
	branch Branch
	re     *regexp.Regexp
}

// Branches is an ordered table of branch policies.
type Branches struct {
	entries []*entry
	index   map[string]int
}

// New creates an empty table.
func New() *Branches {
	return &Branches{
		index: make(map[string]int),
	}
}

// Add inserts b. Adding a name twice replaces the earlier entry in place.
func (bs *Branches) Add(b Branch) error {
	e, err := compile(b)
	if err != nil {
		return err
	}
	bs.insert(e)

	return nil
}

// AddPattern inserts every branch in order. Nothing is inserted when one of them is invalid.
func (bs *Branches) AddPattern(branches ...Branch) error {
	compiled := make([]*entry, 0, len(branches))
	for _, b := range branches {
		e, err := compile(b)
		if err != nil {
			return err
		}
		compiled = append(compiled, e)
	}

	for _, e := range compiled {
		bs.insert(e)
	}

	return nil
}

func compile(b Branch) (*entry, error) {
	if b.Name == "" {
		return nil, ErrNameRequired
	}

	re, err := regexp.Compile(`^(?:` + b.Name + `)$`)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid branch pattern %q", b.Name)
	}

	return &entry{branch: b, re: re}, nil
}

func (bs *Branches) insert(e *entry) {
	if idx, ok := bs.index[e.branch.Name]; ok {
		bs.entries[idx] = e

		return
	}

	bs.index[e.branch.Name] = len(bs.entries)
	bs.entries = append(bs.entries, e)
}

// Get returns the entry registered under the exact key name.
func (bs *Branches) Get(name string) (*Branch, bool) {
	idx, ok := bs.index[name]
	if !ok {
		return nil, false
	}
	b := bs.entries[idx].branch

	return &b, true
}

// Resolve returns a copy of the first entry matching branchName.
func (bs *Branches) Resolve(branchName string) (*Branch, bool) {
	for _, e := range bs.entries {
		if e.re.MatchString(branchName) {
			b := e.branch

			return &b, true
		}
	}

	return nil, false
}

// IsProtected reports whether branchName resolves to a protected entry.
func (bs *Branches) IsProtected(branchName string) bool {
	b, ok := bs.Resolve(branchName)

	return ok && b.IsProtected
}

// All returns the entries in lookup order.
func (bs *Branches) All() []Branch {
	res := make([]Branch, 0, len(bs.entries))
	for _, e := range bs.entries {
		res = append(res, e.branch)
	}

	return res
}

// Len is the number of entries.
func (bs *Branches) Len() int {
	return len(bs.entries)
}
