package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	menuImageFolder     = "menu"
	maxCategoryName     = 50
	maxDescriptionChars = 500
)

type MenuItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uint
	IsAvailable bool
}

type MenuSection struct {
	Category string            `json:"category"`
	Items    []models.MenuItem `json:"items"`
}

type MenuService interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	AvailableMenu(ctx context.Context) ([]MenuSection, error)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, in MenuItemInput, img *ImageUpload) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput, img *ImageUpload) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uint) error
	SetAvailability(ctx context.Context, id uint, available bool) (*models.MenuItem, error)

	ListCategories(ctx context.Context) ([]repository.CategoryWithCount, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type menuService struct {
	items      repository.MenuItemRepository
	categories repository.CategoryRepository
	images     imageStore
	log        *slog.Logger
}

func NewMenuService(items repository.MenuItemRepository, categories repository.CategoryRepository, files FileStore, maxUploadBytes int64, log *slog.Logger) MenuService {
	return &menuService{
		items:      items,
		categories: categories,
		images:     imageStore{files: files, maxBytes: maxUploadBytes},
		log:        log.With("component", "menu"),
	}
}

func (s *menuService) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.items.List(ctx, false)
	if err != nil {
		return nil, storageErr("list menu items", err)
	}
	return items, nil
}

// AvailableMenu groups the orderable items by category name.
func (s *menuService) AvailableMenu(ctx context.Context) ([]MenuSection, error) {
	items, err := s.items.List(ctx, true)
	if err != nil {
		return nil, storageErr("list menu", err)
	}

	sections := []MenuSection{}
	index := map[uint]int{}
	for _, item := range items {
		i, ok := index[item.CategoryID]
		if !ok {
			name := ""
			if item.Category != nil {
				name = item.Category.Name
			}
			sections = append(sections, MenuSection{Category: name})
			i = len(sections) - 1
			index[item.CategoryID] = i
		}
		sections[i].Items = append(sections[i].Items, item)
	}
	return sections, nil
}

func (s *menuService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, storageErr("find menu item", err)
	}
	return item, nil
}

func (s *menuService) CreateMenuItem(ctx context.Context, in MenuItemInput, img *ImageUpload) (*models.MenuItem, error) {
	if err := s.validateItem(ctx, in); err != nil {
		return nil, err
	}
	ext, err := s.images.check(img)
	if err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		IsAvailable: in.IsAvailable,
	}
	if img != nil {
		if item.ImageURL, err = s.images.save(ctx, menuImageFolder, ext, img); err != nil {
			return nil, err
		}
	}

	if err := s.items.Create(ctx, item); err != nil {
		_ = s.images.files.Delete(ctx, item.ImageURL)
		return nil, storageErr("create menu item", err)
	}

	s.log.Info("menu item created", "id", item.ID, "name", item.Name)
	return s.GetMenuItem(ctx, item.ID)
}

// UpdateMenuItem replaces the item's fields. A new image replaces the old
// file, which is removed once the row points at the new one.
func (s *menuService) UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput, img *ImageUpload) (*models.MenuItem, error) {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateItem(ctx, in); err != nil {
		return nil, err
	}
	ext, err := s.images.check(img)
	if err != nil {
		return nil, err
	}

	oldImage := item.ImageURL
	item.Name = strings.TrimSpace(in.Name)
	item.Description = strings.TrimSpace(in.Description)
	item.Price = in.Price
	item.CategoryID = in.CategoryID
	item.IsAvailable = in.IsAvailable
	item.Category = nil
	if img != nil {
		if item.ImageURL, err = s.images.save(ctx, menuImageFolder, ext, img); err != nil {
			return nil, err
		}
	}

	if err := s.items.Save(ctx, item); err != nil {
		if img != nil {
			_ = s.images.files.Delete(ctx, item.ImageURL)
		}
		return nil, storageErr("update menu item", err)
	}

	if img != nil && oldImage != "" {
		if err := s.images.files.Delete(ctx, oldImage); err != nil {
			s.log.Warn("delete replaced image", "url", oldImage, "error", err)
		}
	}
	return s.GetMenuItem(ctx, id)
}

// DeleteMenuItem refuses to remove an item that any order line or dish
// rating still references.
func (s *menuService) DeleteMenuItem(ctx context.Context, id uint) error {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return err
	}

	err = s.items.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs, err := s.items.CountReferences(ctx, tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrMenuItemInUse
		}
		return s.items.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, ErrMenuItemInUse) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrMenuItemInUse
		}
		return storageErr("delete menu item", err)
	}

	if err := s.images.files.Delete(ctx, item.ImageURL); err != nil {
		s.log.Warn("delete menu image", "url", item.ImageURL, "error", err)
	}
	s.log.Info("menu item deleted", "id", id)
	return nil
}

func (s *menuService) SetAvailability(ctx context.Context, id uint, available bool) (*models.MenuItem, error) {
	if _, err := s.GetMenuItem(ctx, id); err != nil {
		return nil, err
	}
	if err := s.items.SetAvailability(ctx, id, available); err != nil {
		return nil, storageErr("set availability", err)
	}
	return s.GetMenuItem(ctx, id)
}

func (s *menuService) ListCategories(ctx context.Context) ([]repository.CategoryWithCount, error) {
	list, err := s.categories.ListWithCounts(ctx)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return list, nil
}

func (s *menuService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := validCategoryName(name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fieldError("name", "category already exists")
		}
		return nil, storageErr("create category", err)
	}
	return category, nil
}

func (s *menuService) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name, err := validCategoryName(name)
	if err != nil {
		return nil, err
	}
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Rename(ctx, id, name); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fieldError("name", "category already exists")
		}
		return nil, storageErr("rename category", err)
	}
	category.Name = name
	return category, nil
}

func (s *menuService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.findCategory(ctx, id); err != nil {
		return err
	}

	err := s.categories.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.categories.CountItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		return s.categories.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, ErrCategoryInUse) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrCategoryInUse
		}
		return storageErr("delete category", err)
	}
	return nil
}

func (s *menuService) findCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, storageErr("find category", err)
	}
	return category, nil
}

func (s *menuService) validateItem(ctx context.Context, in MenuItemInput) error {
	var v validator
	name := strings.TrimSpace(in.Name)
	v.check(name != "", "name", "is required")
	v.maxChars(name, maxNameLength, "name")
	v.maxChars(in.Description, maxDescriptionChars, "description")
	v.check(in.Price.IsPositive(), "price", "must be greater than 0")
	v.check(in.CategoryID > 0, "category_id", "is required")
	if err := v.err(); err != nil {
		return err
	}

	if _, err := s.findCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return fieldError("category_id", "category does not exist")
		}
		return err
	}
	return nil
}

func validCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fieldError("name", "is required")
	}
	var v validator
	v.maxChars(name, maxCategoryName, "name")
	if err := v.err(); err != nil {
		return "", err
	}
	return name, nil
}
