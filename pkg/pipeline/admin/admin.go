// Package admin keeps the pipeline administrators, resolved to their email addresses.
package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// CCPrefix marks an address as carbon copy in a single recipient field.
const CCPrefix = "cc: "

// maxLookups bounds concurrent directory lookups.
const maxLookups = 4

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoEmail      = errors.New("user has no email address")
)

// User is an entry of the host's user directory.
type User struct {
	ID    string
	Email string
	Name  string
}

// UserDirectory resolves user ids. It returns ErrUserNotFound for unknown ids.
type UserDirectory interface {
	Lookup(ctx context.Context, id string) (User, error)
}

// ResolutionError names the id that could not be resolved.
type ResolutionError struct {
	ID  string
	Err error
}

func (e *ResolutionError) Error() string {
	return "unable to resolve admin " + e.ID + ": " + e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Admin is a resolved pipeline administrator.
type Admin struct {
	ID    string
	Email string
	Name  string
}

// Admins is the set of pipeline administrators, in the order they were added.
type Admins struct {
	dir    UserDirectory
	mu     sync.RWMutex
	admins []Admin
	ids    map[string]struct{}
}

// New creates an empty registry backed by dir.
func New(dir UserDirectory) *Admins {
	return &Admins{
		dir: dir,
		ids: make(map[string]struct{}),
	}
}

// Add resolves every id then adds them. Either every id resolves or nothing is added.
// Ids already registered are ignored.
func (a *Admins) Add(ctx context.Context, ids ...string) error {
	resolved := make([]Admin, len(ids))

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(maxLookups)

	for idx, id := range ids {
		idx, id := idx, id
		errGrp.Go(func() error {
			adm, err := a.resolve(dCtx, id)
			if err != nil {
				return err
			}
			resolved[idx] = adm

			return nil
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, adm := range resolved {
		if _, ok := a.ids[adm.ID]; ok {
			continue
		}
		a.ids[adm.ID] = struct{}{}
		a.admins = append(a.admins, adm)
	}

	return nil
}

func (a *Admins) resolve(ctx context.Context, id string) (Admin, error) {
	if a.dir == nil {
		return Admin{}, &ResolutionError{ID: id, Err: ErrUserNotFound}
	}

	user, err := a.dir.Lookup(ctx, id)
	if err != nil {
		return Admin{}, &ResolutionError{ID: id, Err: err}
	}

	if user.Email == "" {
		return Admin{}, &ResolutionError{ID: id, Err: ErrNoEmail}
	}

	return Admin{ID: id, Email: user.Email, Name: user.Name}, nil
}

// Get returns the admin registered under id.
func (a *Admins) Get(id string) (Admin, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, adm := range a.admins {
		if adm.ID == id {
			return adm, true
		}
	}

	return Admin{}, false
}

// Size is the number of admins.
func (a *Admins) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.admins)
}

// All returns the admins in the order they were added.
func (a *Admins) All() []Admin {
	a.mu.RLock()
	defer a.mu.RUnlock()

	res := make([]Admin, len(a.admins))
	copy(res, a.admins)

	return res
}

// Emails returns the admin addresses.
func (a *Admins) Emails() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	res := make([]string, 0, len(a.admins))
	for _, adm := range a.admins {
		res = append(res, adm.Email)
	}

	return res
}

// CCList formats the addresses as "cc: a@x, cc: b@y".
func (a *Admins) CCList() string {
	return FormatAddresses(a.Emails(), CCPrefix)
}

// ToList formats the addresses as "a@x, b@y".
func (a *Admins) ToList() string {
	return FormatAddresses(a.Emails(), "")
}

// CommaSeparatedIDs lists the admin ids, for approval prompts.
func (a *Admins) CommaSeparatedIDs() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]string, 0, len(a.admins))
	for _, adm := range a.admins {
		ids = append(ids, adm.ID)
	}

	return strings.Join(ids, ",")
}

// FormatAddresses joins addresses with ", ", each one prefixed with prefix.
func FormatAddresses(addresses []string, prefix string) string {
	parts := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		parts = append(parts, prefix+addr)
	}

	return strings.Join(parts, ", ")
}

// StaticDirectory is a UserDirectory backed by a fixed user list.
type StaticDirectory map[string]User

// NewStaticDirectory indexes users by id.
func NewStaticDirectory(users ...User) StaticDirectory {
	dir := make(StaticDirectory, len(users))
	for _, u := range users {
		dir[u.ID] = u
	}

	return dir
}

func (sd StaticDirectory) Lookup(_ context.Context, id string) (User, error) {
	user, ok := sd[id]
	if !ok {
		return User{}, ErrUserNotFound
	}

	return user, nil
}

var _ UserDirectory = StaticDirectory(nil)
