package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"faculty-sub/backend/internal/model"
	pkgerrors "faculty-sub/backend/pkg/errors"
)

// RequestRepository 代课申请数据访问接口
type RequestRepository interface {
	Create(ctx context.Context, req *model.SubstituteRequest) error
	GetByID(ctx context.Context, id uint) (*model.SubstituteRequest, error)
	ListPending(ctx context.Context) ([]model.SubstituteRequest, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]model.SubstituteRequest, error)
	ListAcceptedBy(ctx context.Context, teacherID uint) ([]model.SubstituteRequest, error)

	// Accept 原子条件更新：仅当状态仍为 pending 时生效，未命中返回 ErrStaleState
	Accept(ctx context.Context, id, acceptorID uint, now time.Time) (*model.SubstituteRequest, error)
	// Cancel 按 id + 发布人锁定后取消，返回取消后的记录与此前的接受人
	Cancel(ctx context.Context, id, ownerID uint, now time.Time) (*model.SubstituteRequest, *uint, error)
	// Delete 按 id + 发布人删除，未命中返回 gorm.ErrRecordNotFound
	Delete(ctx context.Context, id, ownerID uint) error
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepo 创建 RequestRepository 实例
func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, req *model.SubstituteRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id uint) (*model.SubstituteRequest, error) {
	var req model.SubstituteRequest
	err := r.withNames(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) ListPending(ctx context.Context) ([]model.SubstituteRequest, error) {
	var list []model.SubstituteRequest
	err := r.withNames(ctx).
		Where("status = ?", model.StatusPending).
		Order("date ASC, time ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *requestRepo) ListByTeacher(ctx context.Context, teacherID uint) ([]model.SubstituteRequest, error) {
	var list []model.SubstituteRequest
	err := r.withNames(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *requestRepo) ListAcceptedBy(ctx context.Context, teacherID uint) ([]model.SubstituteRequest, error) {
	var list []model.SubstituteRequest
	err := r.withNames(ctx).
		Where("accepted_by = ? AND status = ?", teacherID, model.StatusAccepted).
		Order("date ASC, time ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *requestRepo) Accept(ctx context.Context, id, acceptorID uint, now time.Time) (*model.SubstituteRequest, error) {
	var req model.SubstituteRequest
	result := r.db.WithContext(ctx).
		Model(&req).
		Clauses(clause.Returning{}).
		Where("id = ? AND status IN ?", id, statusStrings(model.SourcesOf(model.StatusAccepted))).
		Updates(map[string]interface{}{
			"status":      model.StatusAccepted,
			"accepted_by": acceptorID,
			"updated_at":  now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.ErrStaleState
	}
	return &req, nil
}

func (r *requestRepo) Cancel(ctx context.Context, id, ownerID uint, now time.Time) (*model.SubstituteRequest, *uint, error) {
	var (
		req   model.SubstituteRequest
		prior *uint
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND teacher_id = ?", id, ownerID).
			First(&req).Error; err != nil {
			return err
		}

		var err error
		if prior, err = req.Cancel(now); err != nil {
			return err
		}

		return tx.Model(&model.SubstituteRequest{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      req.Status,
				"accepted_by": nil,
				"updated_at":  now,
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &req, prior, nil
}

func (r *requestRepo) Delete(ctx context.Context, id, ownerID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND teacher_id = ?", id, ownerID).
		Delete(&model.SubstituteRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// withNames 预加载发布人与接受人，用于输出冗余姓名
func (r *requestRepo) withNames(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Teacher", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Acceptor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") })
}

func statusStrings(statuses []model.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
