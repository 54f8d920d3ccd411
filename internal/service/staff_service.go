package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"gorm.io/gorm"
)

const staffImageFolder = "staff"

type StaffInput struct {
	Name       string
	Email      string
	Phone      string
	Position   string
	Department string
	Status     string
}

type StaffService interface {
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaff(ctx context.Context, id uint) (*models.Staff, error)
	CreateStaff(ctx context.Context, in StaffInput, img *ImageUpload) (*models.Staff, error)
	UpdateStaff(ctx context.Context, id uint, in StaffInput, img *ImageUpload) (*models.Staff, error)
	DeleteStaff(ctx context.Context, id uint) error
}

type staffService struct {
	repo   repository.StaffRepository
	images imageStore
	log    *slog.Logger
}

func NewStaffService(repo repository.StaffRepository, files FileStore, maxUploadBytes int64, log *slog.Logger) StaffService {
	return &staffService{
		repo:   repo,
		images: imageStore{files: files, maxBytes: maxUploadBytes},
		log:    log.With("component", "staff"),
	}
}

func (s *staffService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageErr("list staff", err)
	}
	return list, nil
}

func (s *staffService) GetStaff(ctx context.Context, id uint) (*models.Staff, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, storageErr("find staff", err)
	}
	return staff, nil
}

func (s *staffService) CreateStaff(ctx context.Context, in StaffInput, img *ImageUpload) (*models.Staff, error) {
	if err := validateStaff(in); err != nil {
		return nil, err
	}
	ext, err := s.images.check(img)
	if err != nil {
		return nil, err
	}

	staff := &models.Staff{}
	applyStaff(staff, in)
	if img != nil {
		if staff.ImageURL, err = s.images.save(ctx, staffImageFolder, ext, img); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		_ = s.images.files.Delete(ctx, staff.ImageURL)
		return nil, storageErr("create staff", err)
	}
	s.log.Info("staff created", "id", staff.ID)
	return staff, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, id uint, in StaffInput, img *ImageUpload) (*models.Staff, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateStaff(in); err != nil {
		return nil, err
	}
	ext, err := s.images.check(img)
	if err != nil {
		return nil, err
	}

	oldImage := staff.ImageURL
	applyStaff(staff, in)
	if img != nil {
		if staff.ImageURL, err = s.images.save(ctx, staffImageFolder, ext, img); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, staff); err != nil {
		if img != nil {
			_ = s.images.files.Delete(ctx, staff.ImageURL)
		}
		return nil, storageErr("update staff", err)
	}

	if img != nil && oldImage != "" {
		if err := s.images.files.Delete(ctx, oldImage); err != nil {
			s.log.Warn("delete replaced image", "url", oldImage, "error", err)
		}
	}
	return staff, nil
}

// DeleteStaff removes the record and then its photo.
func (s *staffService) DeleteStaff(ctx context.Context, id uint) error {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageErr("delete staff", err)
	}
	if err := s.images.files.Delete(ctx, staff.ImageURL); err != nil {
		s.log.Warn("delete staff image", "url", staff.ImageURL, "error", err)
	}
	s.log.Info("staff deleted", "id", id)
	return nil
}

func validateStaff(in StaffInput) error {
	var v validator
	required := map[string]string{
		"name":       in.Name,
		"phone":      in.Phone,
		"position":   in.Position,
		"department": in.Department,
	}
	for field, value := range required {
		v.check(strings.TrimSpace(value) != "", field, "is required")
	}
	v.maxChars(strings.TrimSpace(in.Name), maxNameLength, "name")
	v.check(validEmail(in.Email), "email", "is not a valid email address")
	v.check(in.Phone == "" || phonePattern.MatchString(strings.TrimSpace(in.Phone)), "phone", "is not a valid phone number")
	return v.err()
}

func applyStaff(staff *models.Staff, in StaffInput) {
	staff.Name = strings.TrimSpace(in.Name)
	staff.Email = strings.TrimSpace(in.Email)
	staff.Phone = strings.TrimSpace(in.Phone)
	staff.Position = strings.TrimSpace(in.Position)
	staff.Department = strings.TrimSpace(in.Department)
	staff.Status = strings.TrimSpace(in.Status)
	if staff.Status == "" {
		staff.Status = models.StaffActive
	}
}
