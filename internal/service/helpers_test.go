package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type mockGateway struct {
	chargeFn func(ctx context.Context, charge Charge) error
}

func (m *mockGateway) Charge(ctx context.Context, charge Charge) error {
	if m.chargeFn == nil {
		return nil
	}
	return m.chargeFn(ctx, charge)
}

func seedMenuItem(t *testing.T, db *gorm.DB, name, price string) *models.MenuItem {
	t.Helper()

	var category models.Category
	require.NoError(t, db.Where(models.Category{Name: "Main Course"}).FirstOrCreate(&category).Error)

	item := &models.MenuItem{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CategoryID:  category.ID,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, Role: role}
	require.NoError(t, user.HashPassword("secret1"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func identity(user *models.User) models.Identity {
	return models.Identity{SessionID: uuid.NewString(), Role: user.Role, UserID: user.ID}
}
