package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
)

func newUserUseCase() *usecase.UserUseCase {
	return usecase.NewUserUseCase(memory.NewStore().Users())
}

func TestUserUseCase_Create(t *testing.T) {
	ctx := context.Background()
	uc := newUserUseCase()

	u, err := uc.Create(ctx, dto.CreateUserRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "secreto"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)

	_, err = uc.Create(ctx, dto.CreateUserRequest{Name: "Otra", Email: "ANA@example.com", Password: "secreto"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserUseCase_SoloPropioOAdmin(t *testing.T) {
	ctx := context.Background()
	uc := newUserUseCase()
	a, err := uc.Create(ctx, dto.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secreto"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, dto.CreateUserRequest{Name: "B", Email: "b@example.com", Password: "secreto"})
	require.NoError(t, err)

	name := "Hacker"
	_, err = uc.Update(ctx, usecase.Actor{UserID: a.ID, Role: entity.RoleUser}, b.ID, dto.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, usecase.Actor{UserID: a.ID, Role: entity.RoleUser}, b.ID), domain.ErrForbidden)

	name = "Bea"
	updated, err := uc.Update(ctx, usecase.Actor{UserID: b.ID, Role: entity.RoleUser}, b.ID, dto.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.Name)

	require.NoError(t, uc.Delete(ctx, usecase.Actor{UserID: 99, Role: entity.RoleAdmin}, b.ID))
	_, err = uc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUseCase_UpdateRole(t *testing.T) {
	ctx := context.Background()
	uc := newUserUseCase()
	u, err := uc.Create(ctx, dto.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secreto"})
	require.NoError(t, err)

	_, err = uc.UpdateRole(ctx, usecase.Actor{UserID: u.ID, Role: entity.RoleUser}, u.ID, entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.UpdateRole(ctx, usecase.Actor{UserID: 99, Role: entity.RoleAdmin}, u.ID, "SUPERUSER")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	promoted, err := uc.UpdateRole(ctx, usecase.Actor{UserID: 99, Role: entity.RoleAdmin}, u.ID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, promoted.Role)
}

func TestUserUseCase_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	uc := newUserUseCase()
	u, err := uc.Create(ctx, dto.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secreto"})
	require.NoError(t, err)
	actor := usecase.Actor{UserID: u.ID, Role: entity.RoleUser}

	err = uc.UpdatePassword(ctx, actor, dto.UpdatePasswordRequest{CurrentPassword: "incorrecta", NewPassword: "nueva123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, uc.UpdatePassword(ctx, actor, dto.UpdatePasswordRequest{CurrentPassword: "secreto", NewPassword: "nueva123"}))
}
