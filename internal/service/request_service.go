package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"faculty-sub/backend/internal/dto"
	"faculty-sub/backend/internal/model"
	"faculty-sub/backend/internal/notify"
	"faculty-sub/backend/internal/repository"
	pkgerrors "faculty-sub/backend/pkg/errors"
)

// ── 代课申请模块业务错误 ──

var (
	ErrRequestNotFound   = pkgerrors.New(pkgerrors.ErrNotFound, "代课申请不存在")
	ErrTeacherNotFound   = pkgerrors.New(pkgerrors.ErrNotFound, "教师不存在")
	ErrRequestNotPending = pkgerrors.New(pkgerrors.ErrInvalidState, "该代课申请已不是待接受状态")
	ErrSelfAccept        = pkgerrors.New(pkgerrors.ErrInvalidState, "不能接受自己发布的代课申请")
	ErrAlreadyCancelled  = pkgerrors.New(pkgerrors.ErrInvalidState, "该代课申请已取消")
	ErrInvalidDate       = pkgerrors.New(pkgerrors.ErrValidation, "日期格式应为 YYYY-MM-DD")
	ErrInvalidTime       = pkgerrors.New(pkgerrors.ErrValidation, "无法识别的上课时间")
	ErrInvalidDuration   = pkgerrors.New(pkgerrors.ErrValidation, "时长必须大于 0 分钟")
	ErrEmptyField        = pkgerrors.New(pkgerrors.ErrValidation, "科目与教室不能为空")
)

// Notifier 通知扇出（由 notify.Dispatcher 实现），调用立即返回
type Notifier interface {
	NotifyAllExcept(excludedUserID uint, n notify.Notification)
	NotifyUser(userID uint, n notify.Notification)
}

// RequestService 代课申请生命周期
//
// 状态只沿 pending → accepted → cancelled 或 pending → cancelled 单向流转；
// 接受通过存储层的条件更新保证同一申请至多一人接受成功。
type RequestService interface {
	Create(ctx context.Context, teacherID uint, req *dto.CreateRequestRequest) (*dto.RequestResponse, error)
	Accept(ctx context.Context, requestID, teacherID uint) (*dto.RequestResponse, error)
	Cancel(ctx context.Context, requestID, teacherID uint) (*dto.RequestResponse, error)
	Delete(ctx context.Context, requestID, teacherID uint) error
	Get(ctx context.Context, requestID uint) (*dto.RequestResponse, error)
	ListPending(ctx context.Context) ([]dto.RequestResponse, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]dto.RequestResponse, error)
	ListAcceptedBy(ctx context.Context, teacherID uint) ([]dto.RequestResponse, error)
}

type requestService struct {
	repo     *repository.Repository
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(repo *repository.Repository, notifier Notifier, timeout time.Duration, logger *zap.Logger) RequestService {
	return &requestService{
		repo:     repo,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *requestService) Create(ctx context.Context, teacherID uint, req *dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	classroom := strings.TrimSpace(req.Classroom)
	if subject == "" || classroom == "" {
		return nil, ErrEmptyField
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	clock, err := model.NormalizeClockTime(req.Time)
	if err != nil {
		return nil, ErrInvalidTime
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	teacher, err := s.getUser(ctx, teacherID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, upstream(err)
	}

	created := &model.SubstituteRequest{
		TeacherID:       teacherID,
		Subject:         subject,
		Date:            date,
		Time:            clock,
		DurationMinutes: req.DurationMinutes,
		Classroom:       classroom,
		Notes:           req.Notes,
		Status:          model.StatusPending,
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Request.Create(cctx, created); err != nil {
		s.logger.Error("创建代课申请失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, upstream(err)
	}
	created.Teacher = teacher

	s.logger.Info("代课申请已创建",
		zap.Uint("request_id", created.ID),
		zap.Uint("teacher_id", teacherID),
	)

	s.notifier.NotifyAllExcept(teacherID, notify.Notification{
		Title: "📚 New Substitute Request",
		Body:  fmt.Sprintf("%s needs a substitute for %s on %s at %s", teacher.Name, subject, req.Date, clock),
		Data: map[string]string{
			"type":       notify.TypeNewRequest,
			"request_id": strconv.FormatUint(uint64(created.ID), 10),
			"subject":    subject,
			"date":       created.Date.Format(dateLayout),
			"time":       clock,
		},
	})

	resp := toRequestResponse(created)
	return &resp, nil
}

// ────────────────────── Accept ──────────────────────

func (s *requestService) Accept(ctx context.Context, requestID, teacherID uint) (*dto.RequestResponse, error) {
	existing, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.StatusPending {
		return nil, ErrRequestNotPending
	}

	acceptor, err := s.getUser(ctx, teacherID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询接受人失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, upstream(err)
	}
	if existing.TeacherID == teacherID {
		return nil, ErrSelfAccept
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	accepted, err := s.repo.Request.Accept(cctx, requestID, teacherID, s.now())
	if err != nil {
		// 条件更新未命中：在查询与更新之间已被他人接受或被取消
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrRequestNotPending
		}
		s.logger.Error("接受代课申请失败", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, upstream(err)
	}
	if err := accepted.CheckInvariant(); err != nil {
		s.logger.Error("代课申请数据不一致", zap.Error(err))
	}
	accepted.Teacher = existing.Teacher
	accepted.Acceptor = acceptor

	s.logger.Info("代课申请已被接受",
		zap.Uint("request_id", requestID),
		zap.Uint("teacher_id", accepted.TeacherID),
		zap.Uint("accepted_by", teacherID),
	)

	date := accepted.Date.Format(dateLayout)
	s.notifier.NotifyUser(accepted.TeacherID, notify.Notification{
		Title: "✅ Request Accepted!",
		Body:  fmt.Sprintf("%s will cover your %s class on %s at %s", acceptor.Name, accepted.Subject, date, accepted.Time),
		Data: map[string]string{
			"type":        notify.TypeRequestAccepted,
			"request_id":  strconv.FormatUint(uint64(requestID), 10),
			"accepted_by": strconv.FormatUint(uint64(teacherID), 10),
		},
	})

	resp := toRequestResponse(accepted)
	return &resp, nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel 仅发布人可取消；非发布人与不存在一律返回 ErrRequestNotFound
func (s *requestService) Cancel(ctx context.Context, requestID, teacherID uint) (*dto.RequestResponse, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cancelled, prior, err := s.repo.Request.Cancel(cctx, requestID, teacherID, s.now())
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, ErrRequestNotFound
		case errors.Is(err, model.ErrIllegalTransition):
			return nil, ErrAlreadyCancelled
		}
		s.logger.Error("取消代课申请失败", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, upstream(err)
	}

	s.logger.Info("代课申请已取消",
		zap.Uint("request_id", requestID),
		zap.Uint("teacher_id", teacherID),
		zap.Bool("had_acceptor", prior != nil),
	)

	if prior != nil {
		s.notifier.NotifyUser(*prior, notify.Notification{
			Title: "❌ Request Cancelled",
			Body: fmt.Sprintf("The substitute request for %s on %s has been cancelled",
				cancelled.Subject, cancelled.Date.Format(dateLayout)),
			Data: map[string]string{
				"type":       notify.TypeRequestCancelled,
				"request_id": strconv.FormatUint(uint64(requestID), 10),
			},
		})
	}

	resp := toRequestResponse(cancelled)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *requestService) Delete(ctx context.Context, requestID, teacherID uint) error {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Request.Delete(cctx, requestID, teacherID); err != nil {
		if isNotFound(err) {
			return ErrRequestNotFound
		}
		s.logger.Error("删除代课申请失败", zap.Uint("request_id", requestID), zap.Error(err))
		return upstream(err)
	}

	s.logger.Info("代课申请已删除", zap.Uint("request_id", requestID), zap.Uint("teacher_id", teacherID))
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *requestService) Get(ctx context.Context, requestID uint) (*dto.RequestResponse, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(req)
	return &resp, nil
}

func (s *requestService) ListPending(ctx context.Context) ([]dto.RequestResponse, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.Request.ListPending(cctx)
	if err != nil {
		s.logger.Error("查询待接受申请失败", zap.Error(err))
		return nil, upstream(err)
	}
	return toRequestResponses(list), nil
}

func (s *requestService) ListByTeacher(ctx context.Context, teacherID uint) ([]dto.RequestResponse, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.Request.ListByTeacher(cctx, teacherID)
	if err != nil {
		s.logger.Error("查询教师申请记录失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, upstream(err)
	}
	return toRequestResponses(list), nil
}

func (s *requestService) ListAcceptedBy(ctx context.Context, teacherID uint) ([]dto.RequestResponse, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.Request.ListAcceptedBy(cctx, teacherID)
	if err != nil {
		s.logger.Error("查询已接受申请失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, upstream(err)
	}
	return toRequestResponses(list), nil
}

// ── 内部方法 ──

func (s *requestService) getRequest(ctx context.Context, id uint) (*model.SubstituteRequest, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.repo.Request.GetByID(cctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询代课申请失败", zap.Uint("request_id", id), zap.Error(err))
		return nil, upstream(err)
	}
	return req, nil
}

func (s *requestService) getUser(ctx context.Context, id uint) (*model.User, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.User.GetByID(cctx, id)
}

func toRequestResponse(r *model.SubstituteRequest) dto.RequestResponse {
	resp := dto.RequestResponse{
		ID:              r.ID,
		TeacherID:       r.TeacherID,
		Subject:         r.Subject,
		Date:            r.Date.Format(dateLayout),
		Time:            r.Time,
		DurationMinutes: r.DurationMinutes,
		Classroom:       r.Classroom,
		Notes:           r.Notes,
		Status:          string(r.Status),
		AcceptedBy:      r.AcceptedBy,
		CreatedAt:       formatTimestamp(r.CreatedAt),
		UpdatedAt:       formatTimestamp(r.UpdatedAt),
	}
	if r.Teacher != nil {
		resp.TeacherName = r.Teacher.Name
	}
	if r.Acceptor != nil {
		resp.AcceptorName = r.Acceptor.Name
	}
	return resp
}

func toRequestResponses(list []model.SubstituteRequest) []dto.RequestResponse {
	out := make([]dto.RequestResponse, 0, len(list))
	for i := range list {
		out = append(out, toRequestResponse(&list[i]))
	}
	return out
}
