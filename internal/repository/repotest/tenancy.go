package repotest

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
)

type businessRepo struct{ s *Store }

func (r businessRepo) Create(ctx context.Context, b business.Business) (business.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.businesses {
		if existing.Slug == b.Slug {
			return business.Business{}, business.ErrSlugExists
		}
	}
	if b.ID == "" {
		b.ID = NewID()
	}
	b.IsActive = true
	stamp(&b.CreatedAt, &b.UpdatedAt)
	r.s.businesses[b.ID] = b
	return b, nil
}

func (r businessRepo) GetByID(ctx context.Context, id string) (business.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.businesses[id]
	if !ok || !b.IsActive {
		return business.Business{}, business.ErrBusinessNotFound
	}
	return b, nil
}

func (r businessRepo) List(ctx context.Context, scope access.Scope) ([]business.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []business.Business{}
	for _, b := range r.s.businesses {
		if !b.IsActive || scope.Empty() {
			continue
		}
		if scope.Unrestricted || slices.Contains(scope.BusinessIDs, b.ID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type adminRepo struct{ s *Store }

func (r adminRepo) Create(ctx context.Context, a admin.Admin) (admin.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.Email = strings.ToLower(a.Email)
	for _, existing := range r.s.admins {
		if existing.Email == a.Email {
			return admin.Admin{}, admin.ErrEmailExists
		}
	}
	if a.ID == "" {
		a.ID = NewID()
	}
	a.IsActive = true
	stamp(&a.CreatedAt, &a.UpdatedAt)
	r.s.admins[a.ID] = a
	return a, nil
}

func (r adminRepo) GetByID(ctx context.Context, id string) (admin.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok || !a.IsActive {
		return admin.Admin{}, admin.ErrAdminNotFound
	}
	return a, nil
}

func (r adminRepo) GetByEmail(ctx context.Context, email string) (admin.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.IsActive && strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return admin.Admin{}, admin.ErrAdminNotFound
}

func (r adminRepo) ListBusinessIDs(ctx context.Context, adminID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []string{}
	for _, id := range r.s.memberships[adminID] {
		if b, ok := r.s.businesses[id]; ok && b.IsActive {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r adminRepo) GrantBusiness(ctx context.Context, adminID, businessID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.admins[adminID]; !ok {
		return admin.ErrAdminNotFound
	}
	if _, ok := r.s.businesses[businessID]; !ok {
		return business.ErrBusinessNotFound
	}
	if !slices.Contains(r.s.memberships[adminID], businessID) {
		r.s.memberships[adminID] = append(r.s.memberships[adminID], businessID)
	}
	return nil
}

func (r adminRepo) RevokeBusiness(ctx context.Context, adminID, businessID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.memberships[adminID] = slices.DeleteFunc(r.s.memberships[adminID], func(id string) bool { return id == businessID })
	return nil
}

type staffRepo struct{ s *Store }

func (r staffRepo) Create(ctx context.Context, m staff.Staff) (staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.businesses[m.BusinessID]; !ok {
		return staff.Staff{}, business.ErrBusinessNotFound
	}
	m.Email = strings.ToLower(m.Email)
	for _, existing := range r.s.staff {
		if existing.IsActive && existing.Email == m.Email {
			return staff.Staff{}, staff.ErrEmailExists
		}
	}
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Status == "" {
		m.Status = staff.StatusActive
	}
	m.IsActive = true
	stamp(&m.CreatedAt, &m.UpdatedAt)
	r.s.staff[m.ID] = m
	return m, nil
}

func (r staffRepo) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.staff[id]
	if !ok || !m.IsActive {
		return staff.Staff{}, staff.ErrStaffNotFound
	}
	return m, nil
}

func (r staffRepo) GetByIDIncludeInactive(ctx context.Context, id string) (staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.staff[id]
	if !ok {
		return staff.Staff{}, staff.ErrStaffNotFound
	}
	return m, nil
}

func (r staffRepo) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.staff {
		if m.IsActive && strings.EqualFold(m.Email, email) {
			return m, nil
		}
	}
	return staff.Staff{}, staff.ErrStaffNotFound
}

func (r staffRepo) matching(businessID string, keep func(staff.Staff) bool) []staff.Staff {
	out := []staff.Staff{}
	for _, m := range r.s.staff {
		if m.BusinessID == businessID && keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r staffRepo) ListByBusiness(ctx context.Context, businessID string, filter staff.ListFilter) ([]staff.Staff, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(businessID, func(m staff.Staff) bool {
		if !filter.IncludeInactive && !m.IsActive {
			return false
		}
		return filter.Status == nil || m.Status == *filter.Status
	})
	return paginate(all, filter.Page, filter.Limit), int64(len(all)), nil
}

func (r staffRepo) ListEmployedByBusiness(ctx context.Context, businessID string) ([]staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.matching(businessID, staff.Staff.Employed), nil
}

func (r staffRepo) Update(ctx context.Context, m staff.Staff) (staff.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.staff[m.ID]
	if !ok || !existing.IsActive {
		return staff.Staff{}, staff.ErrStaffNotFound
	}
	m.CreatedAt = existing.CreatedAt
	stamp(&m.CreatedAt, &m.UpdatedAt)
	r.s.staff[m.ID] = m
	return m, nil
}

func (r staffRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.staff[id]
	if !ok || !m.IsActive {
		return staff.ErrStaffNotFound
	}
	m.IsActive = false
	r.s.staff[id] = m
	return nil
}
