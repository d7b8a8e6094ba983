package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	roles  *stubRoleRepo // resolves role names on read, like the Mongo $lookup
}

func newStubUserRepo(roles *stubRoleRepo) *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User), roles: roles}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.RoleIDs = append([]string(nil), u.RoleIDs...)
	clone.RoleNames = append([]string(nil), u.RoleNames...)
	return &clone
}

func (r *stubUserRepo) resolved(u *domain.User) *domain.User {
	out := cloneUser(u)
	if r.roles != nil {
		out.RoleNames = r.roles.namesFor(u.RoleIDs)
	}
	return out
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.NewValidationError("username", "username already exists")
		}
		if u.Email == user.Email {
			return nil, domain.NewValidationError("email", "email already exists")
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = "user-" + strconv.Itoa(r.nextID)
	r.byID[stored.ID] = stored
	return r.resolved(stored), nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			return r.resolved(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) Search(_ context.Context, q domain.UserQuery) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		if (q.Email != "" && u.Email == q.Email) || (q.Username != "" && u.Username == q.Username) || (q.Cuil != "" && u.Cuil == q.Cuil) {
			out = append(out, r.resolved(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubUserRepo) mutate(match func(*domain.User) bool, fn func(*domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			fn(u)
			return r.resolved(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func byID(id string) func(*domain.User) bool {
	return func(u *domain.User) bool { return u.ID == id }
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	_, err := r.mutate(byID(id), func(u *domain.User) { u.RefreshToken = token })
	return err
}

func (r *stubUserRepo) RotateRefreshToken(_ context.Context, oldToken, newToken string) (*domain.User, error) {
	return r.mutate(
		func(u *domain.User) bool { return oldToken != "" && u.RefreshToken == oldToken },
		func(u *domain.User) { u.RefreshToken = newToken },
	)
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, token string) error {
	_, _ = r.mutate(
		func(u *domain.User) bool { return u.RefreshToken == token },
		func(u *domain.User) { u.RefreshToken = "" },
	)
	return nil
}

func (r *stubUserRepo) SetRecoveryToken(_ context.Context, id, token string) error {
	_, err := r.mutate(byID(id), func(u *domain.User) { u.RecoveryToken = token })
	return err
}

func (r *stubUserRepo) ConsumeRecoveryToken(_ context.Context, token string, password domain.Password) error {
	_, err := r.mutate(
		func(u *domain.User) bool { return token != "" && u.RecoveryToken == token },
		func(u *domain.User) {
			u.Password = password
			u.RecoveryToken = ""
		},
	)
	return err
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id string, password domain.Password) error {
	_, err := r.mutate(byID(id), func(u *domain.User) { u.Password = password })
	return err
}

func (r *stubUserRepo) Update(_ context.Context, id string, changes map[string]string) (*domain.User, error) {
	return r.mutate(byID(id), func(u *domain.User) {
		for k, v := range changes {
			switch k {
			case "email":
				u.Email = v
			case "password":
				u.Password = domain.PasswordFromHash(v)
			case "username":
				u.Username = v
			case "enrollment":
				u.Enrollment = v
			case "cuil":
				u.Cuil = v
			case "businessName":
				u.BusinessName = v
			}
		}
	})
}

func (r *stubUserRepo) SetRoles(_ context.Context, id string, roleIDs []string) error {
	_, err := r.mutate(byID(id), func(u *domain.User) { u.RoleIDs = append([]string(nil), roleIDs...) })
	return err
}

func (r *stubUserRepo) raw(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.byID[id])
}

type stubRoleRepo struct {
	mu      sync.Mutex
	byName  map[string]*domain.Role
	inserts int
	addErr  error
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{byName: make(map[string]*domain.Role)}
}

func (r *stubRoleRepo) FindOrCreate(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.byName[name]; ok {
		clone := *role
		return &clone, nil
	}
	r.inserts++
	role := &domain.Role{ID: "role-" + name, Name: name}
	r.byName[name] = role
	clone := *role
	return &clone, nil
}

func (r *stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.byName {
		if role.ID == id {
			clone := *role
			return &clone, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *stubRoleRepo) AddUser(_ context.Context, roleID, userID string) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.byName {
		if role.ID != roleID {
			continue
		}
		for _, id := range role.UserIDs {
			if id == userID {
				return nil
			}
		}
		role.UserIDs = append(role.UserIDs, userID)
		return nil
	}
	return domain.ErrRoleNotFound
}

func (r *stubRoleRepo) namesFor(ids []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, id := range ids {
		for _, role := range r.byName {
			if role.ID == id {
				names = append(names, role.Name)
			}
		}
	}
	return names
}

// ---------------------------------------------------------------------------
// Notifier and throttle stubs
// ---------------------------------------------------------------------------

type recoveryCall struct {
	user *domain.User
	link string
}

type stubNotifier struct {
	mu          sync.Mutex
	newUserErr  error
	recoveryErr error
	// blockRecovery makes PasswordRecovery wait for ctx like a stalled SMTP server.
	blockRecovery bool
	newUsers      []string
	recoveries    []recoveryCall
}

func (n *stubNotifier) NewUser(_ context.Context, user *domain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newUsers = append(n.newUsers, user.Username)
	return n.newUserErr
}

func (n *stubNotifier) PasswordRecovery(ctx context.Context, user *domain.User, link string) error {
	if n.blockRecovery {
		<-ctx.Done()
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recoveries = append(n.recoveries, recoveryCall{user: cloneUser(user), link: link})
	return n.recoveryErr
}

type stubThrottle struct {
	seen map[string]bool
	err  error
}

func (t *stubThrottle) Allow(_ context.Context, username string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	if t.seen == nil {
		t.seen = make(map[string]bool)
	}
	if t.seen[strings.ToLower(username)] {
		return false, nil
	}
	t.seen[strings.ToLower(username)] = true
	return true, nil
}

var discardLogger = zerolog.Nop()
