package admin

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/utils"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var root = access.SuperAdmin{ID: "0199a000-0000-7000-8000-0000000000ff"}

func TestAdminService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewAdminService(store.Admins())

	created, err := svc.Create(ctx, root, admin.CreateAdminRequest{
		Email:    " Ops@Harbor.test ",
		Name:     " Ops Lead ",
		Password: "long-enough",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@harbor.test", created.Email)
	assert.Equal(t, "Ops Lead", created.Name)
	assert.False(t, created.IsSuperAdmin)
	assert.NotEmpty(t, created.CreatedAt)

	stored, err := store.Admins().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", stored.PasswordHash)
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "long-enough"))

	_, err = svc.Create(ctx, root, admin.CreateAdminRequest{Email: "OPS@harbor.test", Name: "Again", Password: "long-enough"})
	assert.ErrorIs(t, err, admin.ErrEmailExists)
}

func TestAdminService_Create_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewAdminService(repotest.NewStore().Admins())
	valid := admin.CreateAdminRequest{Email: "a@b.test", Name: "A", Password: "long-enough"}

	_, err := svc.Create(ctx, access.Admin{ID: "adm"}, valid)
	assert.ErrorIs(t, err, access.ErrSuperAdminRequired)

	_, err = svc.Create(ctx, nil, valid)
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	_, err = svc.Create(ctx, root, admin.CreateAdminRequest{Email: "nope", Password: "short"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "password")
}
