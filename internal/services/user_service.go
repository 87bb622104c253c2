package services

import (
	"context"
	"errors"

	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages the directory backing every permission check.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserPayload are the fields of a new account.
type CreateUserPayload struct {
	Username string      `json:"username"`
	Nombre   string      `json:"nombre"`
	Correo   string      `json:"correo"`
	Rol      models.Role `json:"rol"`
	Activo   bool        `json:"activo"`
	Password string      `json:"password"`
}

// UpdateUserPayload are the mutable fields of an account. The username is
// immutable once created.
type UpdateUserPayload struct {
	Nombre string      `json:"nombre"`
	Correo string      `json:"correo"`
	Rol    models.Role `json:"rol"`
	Activo bool        `json:"activo"`
}

// List returns a filtered page of users.
func (s *UserService) List(ctx context.Context, query *repository.UserQuery) ([]models.User, int64, error) {
	query.Normalize()
	return s.userRepo.List(ctx, query)
}

// FindByID returns one user or ErrNotFound.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create validates and inserts a new account with a bcrypt password hash.
func (s *UserService) Create(ctx context.Context, payload CreateUserPayload) (*models.User, error) {
	if !models.ValidUsername(payload.Username) {
		return nil, Validationf("username inválido (3-50, letras/números . _ -)")
	}
	if payload.Nombre == "" || len(payload.Nombre) > 120 {
		return nil, Validationf("nombre inválido")
	}
	if !payload.Rol.Valid() {
		return nil, Validationf("rol inválido")
	}
	if len(payload.Password) < 8 {
		return nil, Validationf("password mínimo 8 caracteres")
	}

	if _, err := s.userRepo.FindByUsername(ctx, payload.Username); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:          payload.Username,
		Nombre:            payload.Nombre,
		Correo:            optionalText(payload.Correo),
		Rol:               payload.Rol,
		Activo:            payload.Activo,
		EncryptedPassword: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update edits the mutable account fields.
func (s *UserService) Update(ctx context.Context, id uint, payload UpdateUserPayload) (*models.User, error) {
	if payload.Nombre == "" || len(payload.Nombre) > 120 {
		return nil, Validationf("nombre inválido")
	}
	if !payload.Rol.Valid() {
		return nil, Validationf("rol inválido")
	}

	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Nombre = payload.Nombre
	user.Correo = optionalText(payload.Correo)
	user.Rol = payload.Rol
	user.Activo = payload.Activo

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleActivo flips the active flag. Deactivated analistas stop being
// valid assignment targets immediately; the lifecycle engine re-checks
// inside its transactions.
func (s *UserService) ToggleActivo(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Activo = !user.Activo
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces the password hash.
func (s *UserService) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	if len(newPassword) < 8 {
		return Validationf("password mínimo 8 caracteres")
	}
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.EncryptedPassword = string(hash)
	return s.userRepo.Update(ctx, user)
}
