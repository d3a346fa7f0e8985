package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// Actor identidad autenticada que ejecuta la operación (del JWT).
type Actor struct {
	UserID int64
	Role   string
}

// IsAdmin informa si el actor tiene rol ADMIN.
func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// canManage: el propio usuario o un ADMIN.
func (a Actor) canManage(userID int64) bool { return a.IsAdmin() || a.UserID == userID }

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Create registra un usuario con rol USER. ErrEmailAlreadyExists si el email ya existe.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(in.Email)
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		ImageURL:     in.ImageURL,
		Role:         entity.RoleUser,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// List lista todos los usuarios.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.ToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID. ErrUserNotFound si no existe.
func (uc *UserUseCase) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// Update cambia nombre, email o imagen. Solo el propio usuario o un ADMIN.
func (uc *UserUseCase) Update(ctx context.Context, actor Actor, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if !actor.canManage(id) {
		return nil, domain.ErrForbidden
	}
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.ImageURL != nil {
		user.ImageURL = *in.ImageURL
	}
	if user.Name == "" || user.Email == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	updated, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(updated)
	return &resp, nil
}

// UpdatePassword cambia la contraseña del propio usuario verificando la actual.
func (uc *UserUseCase) UpdatePassword(ctx context.Context, actor Actor, in dto.UpdatePasswordRequest) error {
	user, err := uc.get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return uc.repo.UpdatePassword(ctx, user.ID, hash)
}

// UpdateRole cambia el rol de un usuario. Solo ADMIN.
func (uc *UserUseCase) UpdateRole(ctx context.Context, actor Actor, id int64, role string) (*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !entity.ValidRole(role) {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// Delete elimina un usuario. Solo el propio usuario o un ADMIN.
func (uc *UserUseCase) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.canManage(id) {
		return domain.ErrForbidden
	}
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *UserUseCase) get(ctx context.Context, id int64) (*entity.User, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrInvalidInput
		}
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
