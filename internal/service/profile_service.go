package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/repository"
)

var (
	ErrReceiptNotFound = errors.New("No completed purchase yet")
	ErrNoFailedAttempt = errors.New("No failed payment attempt")
)

// ProfileService 个人中心：会话用户、最近一次购买、本地订阅
type ProfileService struct {
	sessions    *session.Service
	receiptRepo *repository.ReceiptRepository
	attemptRepo *repository.AttemptRepository
	subRepo     *repository.SubscriptionRepository // remote 模式为 nil
}

func NewProfileService(sessions *session.Service, receiptRepo *repository.ReceiptRepository, attemptRepo *repository.AttemptRepository, subRepo *repository.SubscriptionRepository) *ProfileService {
	return &ProfileService{
		sessions:    sessions,
		receiptRepo: receiptRepo,
		attemptRepo: attemptRepo,
		subRepo:     subRepo,
	}
}

func (s *ProfileService) Profile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProfileResponse{User: toUserInfo(sess.User)}

	receipt, err := s.Receipt(userID)
	if err != nil && !errors.Is(err, ErrReceiptNotFound) {
		return nil, err
	}
	resp.Subscription = receipt

	if s.subRepo != nil {
		subs, err := s.subRepo.ActiveByUser(userID)
		if err != nil {
			return nil, err
		}
		resp.Subscriptions = subs
	}
	return resp, nil
}

// Receipt 最近一次成功购买
func (s *ProfileService) Receipt(userID int64) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// LastFailure 最近一次失败的支付尝试，金额只能标注为尝试金额
func (s *ProfileService) LastFailure(userID int64) (*model.PaymentAttempt, error) {
	attempt, err := s.attemptRepo.LastFailure(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoFailedAttempt
		}
		return nil, err
	}
	return attempt, nil
}
