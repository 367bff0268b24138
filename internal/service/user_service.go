package service

import (
	"context"
	"errors"

	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	FullName    *string      `json:"full_name" validate:"omitempty,min=1"`
	PhoneNumber *string      `json:"phone_number" validate:"omitempty,max=20"`
	Business    *model.Party `json:"business"`
}

// BootstrapUser describes the admin account created on an empty database
type BootstrapUser struct {
	Email    string
	Password string
	FullName string
	Business model.Party
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*model.UserResponse, error)
	BusinessProfile(ctx context.Context, userID uuid.UUID) (model.Party, error)
	EnsureAdmin(ctx context.Context, admin BootstrapUser) (created bool, err error)
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
	}
}

func (s *userService) find(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("find user", err)
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_by": userID.String()}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = *req.PhoneNumber
	}
	if b := req.Business; b != nil {
		fields["business_name"] = b.Name
		fields["business_address"] = b.Address
		fields["business_tax_id"] = b.TaxID
		fields["business_contact"] = b.Contact
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

// BusinessProfile returns the party copied onto our side of the user's invoices
func (s *userService) BusinessProfile(ctx context.Context, userID uuid.UUID) (model.Party, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return model.Party{}, err
	}
	return user.BusinessProfile(), nil
}

// EnsureAdmin seeds the default privileges and creates the admin user with all
// of them unless a user with that email already exists.
func (s *userService) EnsureAdmin(ctx context.Context, admin BootstrapUser) (bool, error) {
	if err := s.privilegeRepo.SeedDefaults(ctx); err != nil {
		return false, storageErr("seed privileges", err)
	}

	_, err := s.userRepo.FindByEmail(ctx, admin.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, storageErr("find admin", err)
	}

	privileges, err := s.privilegeRepo.FindAll(ctx)
	if err != nil {
		return false, storageErr("load privileges", err)
	}

	user := &model.User{
		Email:           admin.Email,
		FullName:        admin.FullName,
		IsActive:        true,
		Privileges:      privileges,
		BusinessName:    admin.Business.Name,
		BusinessAddress: admin.Business.Address,
		BusinessTaxID:   admin.Business.TaxID,
		BusinessContact: admin.Business.Contact,
	}
	user.CreatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, storageErr("create admin", err)
	}
	return true, nil
}
