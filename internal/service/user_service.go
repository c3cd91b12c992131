package service

import (
	"context"
	"errors"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/pkg/logger"
	"scannimart/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrRoleNotFound   = errors.New("role not found")
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	GetRoles(ctx context.Context) ([]model.Role, error)
	EnsureDefaults(ctx context.Context, adminUsername, adminPassword string) error
	ResetPassword(ctx context.Context, username, newPassword string) error
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleCode string `json:"role_code" validate:"required,oneof=ADMIN SECURITY"`
}

type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName string  `json:"full_name" validate:"required"`
	RoleCode string  `json:"role_code" validate:"required,oneof=ADMIN SECURITY"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	log           *logger.Logger
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, log *logger.Logger) UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		log:           log,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil && !repository.IsNotFound(err) {
		return nil, storeErr("check username", err)
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	role, err := s.roleRepo.FindByCode(ctx, req.RoleCode)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user := &model.User{
		Username: req.Username,
		FullName: req.FullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// Privileges follow the role.
	user.Privileges = role.Privileges

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, storeErr("create user", err)
	}
	user.Role = role
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	role, err := s.roleRepo.FindByCode(ctx, req.RoleCode)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user.FullName = req.FullName
	user.RoleID = &role.ID
	user.Role = role
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updaterID

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
		// Kick out existing sessions.
		user.TokenVersion = uuid.NewString()
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeErr("update user", err)
	}
	if err := s.userRepo.UpdatePrivileges(ctx, user.ID, role.Privileges); err != nil {
		return nil, storeErr("update privileges", err)
	}

	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(ctx, userID)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list roles", err)
	}
	return roles, nil
}

// EnsureDefaults seeds privileges and roles, binds each role's privileges
// and creates the admin account if it does not exist yet.
func (s *userService) EnsureDefaults(ctx context.Context, adminUsername, adminPassword string) error {
	if err := s.privilegeRepo.SeedDefaults(ctx); err != nil {
		return storeErr("seed privileges", err)
	}
	if err := s.roleRepo.SeedDefaults(ctx); err != nil {
		return storeErr("seed roles", err)
	}

	all, err := s.privilegeRepo.FindAll(ctx)
	if err != nil {
		return storeErr("load privileges", err)
	}
	if err := s.roleRepo.AssignPrivileges(ctx, model.RoleAdmin, all); err != nil {
		return storeErr("bind admin privileges", err)
	}
	security, err := s.privilegeRepo.FindByCodes(ctx, model.SecurityPrivileges)
	if err != nil {
		return storeErr("load security privileges", err)
	}
	if err := s.roleRepo.AssignPrivileges(ctx, model.RoleSecurity, security); err != nil {
		return storeErr("bind security privileges", err)
	}

	if adminUsername == "" {
		return nil
	}
	_, err = s.userRepo.FindByUsername(ctx, adminUsername)
	if err == nil {
		return nil
	}
	if !repository.IsNotFound(err) {
		return storeErr("check admin", err)
	}
	if _, err := s.CreateUser(ctx, &CreateUserRequest{
		Username: adminUsername,
		Password: adminPassword,
		FullName: "Store Administrator",
		RoleCode: model.RoleAdmin,
	}, "system"); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "username", adminUsername), "admin account created")
	return nil
}

// ResetPassword sets a new password without the old one. Only the seed
// command uses it.
func (s *userService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return ErrUserNotFound
	}
	hashed := &model.User{}
	if err := hashed.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		return storeErr("update password", err)
	}
	return s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString())
}
