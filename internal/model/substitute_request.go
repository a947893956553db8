package model

import (
	"errors"
	"fmt"
	"time"
)

// RequestStatus 代课申请状态
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusCancelled RequestStatus = "cancelled"
)

// ErrIllegalTransition 非法状态流转
var ErrIllegalTransition = errors.New("非法的状态流转")

// transitions 合法流转表：pending → accepted | cancelled，accepted → cancelled
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusCancelled},
}

// Valid 是否为已知状态
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 判断能否从当前状态流转到 next
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesOf 返回可以流转到 target 的全部状态，供条件更新的 WHERE 子句使用
func SourcesOf(target RequestStatus) []RequestStatus {
	var sources []RequestStatus
	for _, from := range []RequestStatus{StatusPending, StatusAccepted, StatusCancelled} {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// SubstituteRequest 代课申请表，对应 substitute_requests
type SubstituteRequest struct {
	ID              uint          `gorm:"primaryKey;autoIncrement"                 json:"id"`
	TeacherID       uint          `gorm:"not null;index"                           json:"teacher_id"`
	Subject         string        `gorm:"type:varchar(200);not null"               json:"subject"`
	Date            time.Time     `gorm:"type:date;not null"                       json:"date"`
	Time            string        `gorm:"type:varchar(5);not null"                 json:"time"` // HH:MM 24 小时制
	DurationMinutes int           `gorm:"not null"                                 json:"duration_minutes"`
	Classroom       string        `gorm:"type:varchar(100);not null"               json:"classroom"`
	Notes           *string       `gorm:"type:text"                                json:"notes,omitempty"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedBy      *uint         `json:"accepted_by,omitempty"`
	BaseModel

	// 关联
	Teacher  *User `gorm:"foreignKey:TeacherID;references:ID"  json:"teacher,omitempty"`
	Acceptor *User `gorm:"foreignKey:AcceptedBy;references:ID" json:"acceptor,omitempty"`
}

// TableName 指定表名
func (SubstituteRequest) TableName() string { return "substitute_requests" }

// CheckInvariant accepted_by 非空当且仅当状态为 accepted
func (r *SubstituteRequest) CheckInvariant() error {
	if (r.Status == StatusAccepted) != (r.AcceptedBy != nil) {
		return fmt.Errorf("代课申请 %d 状态与接受人不一致: status=%s", r.ID, r.Status)
	}
	return nil
}

// Accept 在内存中执行 pending → accepted
func (r *SubstituteRequest) Accept(by uint, now time.Time) error {
	if !r.Status.CanTransitionTo(StatusAccepted) {
		return fmt.Errorf("%w: %s → %s", ErrIllegalTransition, r.Status, StatusAccepted)
	}
	r.Status = StatusAccepted
	r.AcceptedBy = &by
	r.UpdatedAt = now
	return nil
}

// Cancel 在内存中执行 → cancelled，返回此前的接受人（若有）
func (r *SubstituteRequest) Cancel(now time.Time) (*uint, error) {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: %s → %s", ErrIllegalTransition, r.Status, StatusCancelled)
	}
	prior := r.AcceptedBy
	r.Status = StatusCancelled
	r.AcceptedBy = nil
	r.UpdatedAt = now
	return prior, nil
}
