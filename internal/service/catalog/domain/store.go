// internal/service/catalog/domain/store.go
package domain

import (
	"bazaar/internal/pkg/apperr"
	"fmt"
	"time"
)

// StoreStatus 店铺审核状态
type StoreStatus string

const (
	StoreStatusPending   StoreStatus = "pending"
	StoreStatusApproved  StoreStatus = "approved"
	StoreStatusRejected  StoreStatus = "rejected"
	StoreStatusSuspended StoreStatus = "suspended"
)

// Store 一个租户。
// 不变量: IsActive 为 true 时 Status 一定是 approved。店铺永远不会被物理删除。
type Store struct {
	ID           string
	UserID       string // 申请人
	Name         string
	Username     string // 店铺页 URL 中使用
	Email        string
	PasswordHash string
	Description  string
	Logo         string
	Address      string
	Contact      string

	Status   StoreStatus
	IsActive bool

	ResetToken       string
	ResetTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanSell 店铺是否处于可经营状态
func (s *Store) CanSell() bool {
	return s.Status == StoreStatusApproved && s.IsActive
}

func transitionError(entity, action string, from any) error {
	return apperr.New(apperr.ErrInvalidTransition, "invalid_transition",
		fmt.Sprintf("cannot %s a %s that is %v", action, entity, from))
}

// Approve 审核通过并激活。允许从 pending、rejected 进入
func (s *Store) Approve(now time.Time) error {
	if s.Status != StoreStatusPending && s.Status != StoreStatusRejected {
		return transitionError("store", "approve", s.Status)
	}
	s.Status, s.IsActive, s.UpdatedAt = StoreStatusApproved, true, now
	return nil
}

// Reject 驳回，允许从 pending、approved 进入
func (s *Store) Reject(now time.Time) error {
	if s.Status != StoreStatusPending && s.Status != StoreStatusApproved {
		return transitionError("store", "reject", s.Status)
	}
	s.Status, s.IsActive, s.UpdatedAt = StoreStatusRejected, false, now
	return nil
}

// Suspend 暂停一个已通过的店铺
func (s *Store) Suspend(now time.Time) error {
	if s.Status != StoreStatusApproved {
		return transitionError("store", "suspend", s.Status)
	}
	s.Status, s.IsActive, s.UpdatedAt = StoreStatusSuspended, false, now
	return nil
}

// Reinstate 恢复被暂停的店铺
func (s *Store) Reinstate(now time.Time) error {
	if s.Status != StoreStatusSuspended {
		return transitionError("store", "reinstate", s.Status)
	}
	s.Status, s.IsActive, s.UpdatedAt = StoreStatusApproved, true, now
	return nil
}

// ResetTokenValid 校验重置密码 token
func (s *Store) ResetTokenValid(token string, now time.Time) bool {
	return token != "" && s.ResetToken == token && s.ResetTokenExpiry != nil && now.Before(*s.ResetTokenExpiry)
}
