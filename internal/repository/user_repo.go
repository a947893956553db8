package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"faculty-sub/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) (*model.User, error)
	UpdatePushToken(ctx context.Context, id uint, token string) error
	Delete(ctx context.Context, id uint) error

	// 推送目标查询
	ListPushTargetsExcept(ctx context.Context, excludedID uint) ([]model.PushTarget, error)
	GetPushTarget(ctx context.Context, id uint) (*model.PushTarget, error)
	ClearPushToken(ctx context.Context, token string) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("name ASC, id ASC").
		Find(&users).Error
	return users, err
}

// UpdateProfile 部分更新并返回更新后的行；未命中返回 gorm.ErrRecordNotFound
func (r *userRepo) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) (*model.User, error) {
	var user model.User
	fields["updated_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	result := r.db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *userRepo) UpdatePushToken(ctx context.Context, id uint, token string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"push_token": token,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除账号：其已接受的代课申请回退为 pending，本人发布的申请由外键级联删除
func (r *userRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SubstituteRequest{}).
			Where("accepted_by = ? AND status = ?", id, model.StatusAccepted).
			Updates(map[string]interface{}{
				"status":      model.StatusPending,
				"accepted_by": nil,
				"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userRepo) ListPushTargetsExcept(ctx context.Context, excludedID uint) ([]model.PushTarget, error) {
	var targets []model.PushTarget
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("id AS user_id, push_token").
		Where("id <> ? AND push_token IS NOT NULL AND push_token <> ''", excludedID).
		Order("id ASC").
		Scan(&targets).Error
	return targets, err
}

func (r *userRepo) GetPushTarget(ctx context.Context, id uint) (*model.PushTarget, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("id", "push_token").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	target := &model.PushTarget{UserID: user.ID}
	if user.PushToken != nil {
		target.PushToken = *user.PushToken
	}
	return target, nil
}

// ClearPushToken 清除网关判定失效的 Token，返回受影响的用户数
func (r *userRepo) ClearPushToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("push_token = ?", token).
		Update("push_token", nil)
	return result.RowsAffected, result.Error
}
