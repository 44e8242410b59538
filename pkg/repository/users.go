package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/talent-lab/sourcedash/dao/model"
)

// Users is the Postgres-backed UserStore.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := u.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (u *Users) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (u *Users) Create(ctx context.Context, email, passwordHash, name string, role model.Role) (*model.User, error) {
	existing, err := u.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", email, ErrEmailExists)
	}

	user := model.User{
		Email:    email,
		Password: passwordHash,
		Name:     name,
		Role:     role,
	}
	if err := u.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (u *Users) Update(ctx context.Context, id string, name, email *string, role *model.Role) (*model.User, error) {
	if _, err := u.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now()}
	if name != nil {
		updates["name"] = *name
	}
	if email != nil {
		// Uniqueness check excludes the user itself so a no-op email update
		// does not conflict.
		var count int64
		if err := u.db.WithContext(ctx).Model(&model.User{}).
			Where("email = ? AND id <> ?", *email, id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return nil, fmt.Errorf("%s: %w", *email, ErrEmailExists)
		}
		updates["email"] = *email
	}
	if role != nil {
		updates["role"] = *role
	}

	if err := u.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u.Get(ctx, id)
}

func (u *Users) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := u.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]any{"password": passwordHash, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (u *Users) Delete(ctx context.Context, id string) error {
	res := u.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}
