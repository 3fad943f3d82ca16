package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forkhub/internal/models"
	"forkhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// SignUpInput is bound from the signup form.
type SignUpInput struct {
	Name                 string `form:"name" validate:"required"`
	Email                string `form:"email" validate:"required"`
	Password             string `form:"password" validate:"required"`
	PasswordConfirmation string `form:"passwordCheck" validate:"required"`
}

type IdentityService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db, validate: validator.New()}
}

// FindUserByEmail returns nil, nil when no user has the email.
func (s *IdentityService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User didn't exist.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *IdentityService) CreateUser(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, validationError("All fields are required.")
		}
		return nil, err
	}
	if in.Password != in.PasswordConfirmation {
		return nil, validationError("Passwords do not match.")
	}

	existing, err := s.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict("Email already exists.")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{Name: in.Name, Email: in.Email, Password: hash}
	// a concurrent signup can still hit the unique index
	if err := createUnique(s.db.WithContext(ctx), &user, "Email already exists."); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials returns nil, nil for an unknown email or a wrong password.
func (s *IdentityService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, nil
	}
	return user, nil
}

// UpdateProfile keeps the current image when imageURL is empty.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID uint, name, imageURL string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Name is required.")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	if imageURL != "" {
		user.Image = imageURL
	}
	if err := s.db.WithContext(ctx).Model(user).Select("Name", "Image").Updates(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// LoadActor reloads the session user together with their engagement sets.
func (s *IdentityService) LoadActor(ctx context.Context, userID uint) (*Actor, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sets, err := loadEngagementSets(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return &Actor{User: *user, Sets: sets}, nil
}
