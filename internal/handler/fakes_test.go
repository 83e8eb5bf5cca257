package handler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/repository"
	"github.com/allelectronic/repair-service/internal/service"
)

// fakeRequestStore is an in-memory RequestStore honoring the repository
// contract: newest-first listing, substring search, idempotent delete.
type fakeRequestStore struct {
	items       []model.RepairRequest
	unavailable bool
}

func (f *fakeRequestStore) Create(_ context.Context, req *model.RepairRequest) error {
	if f.unavailable {
		return repository.ErrStoreUnavailable
	}
	f.items = append(f.items, *req)
	return nil
}

func (f *fakeRequestStore) FindByID(_ context.Context, id string) (model.RepairRequest, error) {
	if f.unavailable {
		return model.RepairRequest{}, repository.ErrStoreUnavailable
	}
	for _, r := range f.items {
		if r.ID == id {
			return r, nil
		}
	}
	return model.RepairRequest{}, repository.ErrNotFound
}

func (f *fakeRequestStore) List(_ context.Context, page, limit int64, all bool, search string) ([]model.RepairRequest, int64, error) {
	if f.unavailable {
		return nil, 0, repository.ErrStoreUnavailable
	}
	matched := []model.RepairRequest{}
	needle := strings.ToLower(search)
	for _, r := range f.items {
		if needle == "" ||
			strings.Contains(strings.ToLower(r.ID), needle) ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Email), needle) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if all {
		return matched, total, nil
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	start := (page - 1) * limit
	if start >= total {
		return []model.RepairRequest{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeRequestStore) ApplyUpdate(_ context.Context, id string, set map[string]any) (model.RepairRequest, error) {
	if f.unavailable {
		return model.RepairRequest{}, repository.ErrStoreUnavailable
	}
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if s, ok := set["status"].(string); ok {
			f.items[i].Status = s
		}
		if p, ok := set["payment"].(string); ok {
			f.items[i].Payment = p
		}
		now := time.Now().UTC()
		if !now.After(f.items[i].UpdatedAt) {
			now = f.items[i].UpdatedAt.Add(time.Nanosecond)
		}
		f.items[i].UpdatedAt = now
		return f.items[i], nil
	}
	return model.RepairRequest{}, repository.ErrNotFound
}

func (f *fakeRequestStore) DeleteMany(_ context.Context, ids []string) (int64, error) {
	if f.unavailable {
		return 0, repository.ErrStoreUnavailable
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.items[:0]
	var count int64
	for _, r := range f.items {
		if drop[r.ID] {
			count++
			continue
		}
		kept = append(kept, r)
	}
	f.items = kept
	return count, nil
}

// fakeChecker is a canned DuplicateChecker that records whether it ran.
type fakeChecker struct {
	match  *service.DuplicateMatch
	err    error
	called bool
}

func (f *fakeChecker) Check(context.Context, string, string, string, string) (*service.DuplicateMatch, error) {
	f.called = true
	return f.match, f.err
}

// fakeAccountStore is an in-memory AccountStore mirroring the repository
// contract, storing plain passwords for test simplicity.
type fakeAccountStore struct {
	accounts    []model.Account
	passwords   map[string]string // account id -> plain password
	unavailable bool
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{passwords: map[string]string{}}
}

func (f *fakeAccountStore) Create(_ context.Context, username, password, role string) (model.Account, error) {
	if f.unavailable {
		return model.Account{}, repository.ErrStoreUnavailable
	}
	for _, a := range f.accounts {
		if a.Username == username {
			return model.Account{}, repository.ErrUsernameExists
		}
	}
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	now := time.Now().UTC()
	acc := model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		LastModified: now,
	}
	f.accounts = append(f.accounts, acc)
	f.passwords[acc.ID] = password
	return acc, nil
}

func (f *fakeAccountStore) Authenticate(_ context.Context, username, password string) (model.Account, error) {
	if f.unavailable {
		return model.Account{}, repository.ErrStoreUnavailable
	}
	for _, a := range f.accounts {
		if a.Username == username && a.IsActive && f.passwords[a.ID] == password {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrInvalidCredentials
}

func (f *fakeAccountStore) List(_ context.Context) ([]model.Account, error) {
	if f.unavailable {
		return nil, repository.ErrStoreUnavailable
	}
	return append([]model.Account{}, f.accounts...), nil
}

func (f *fakeAccountStore) Update(_ context.Context, id, newPassword, newRole string) error {
	if f.unavailable {
		return repository.ErrStoreUnavailable
	}
	for i := range f.accounts {
		if f.accounts[i].ID != id {
			continue
		}
		if newPassword != "" {
			f.passwords[id] = newPassword
		}
		if model.ValidRole(newRole) {
			f.accounts[i].Role = newRole
		}
		f.accounts[i].LastModified = time.Now().UTC()
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeAccountStore) Delete(_ context.Context, id, actingUsername string) (model.Account, error) {
	if f.unavailable {
		return model.Account{}, repository.ErrStoreUnavailable
	}
	for i, a := range f.accounts {
		if a.ID != id {
			continue
		}
		if a.Username == actingUsername {
			return model.Account{}, repository.ErrSelfDelete
		}
		f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
		delete(f.passwords, id)
		return a, nil
	}
	return model.Account{}, repository.ErrNotFound
}
