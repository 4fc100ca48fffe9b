package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"memory-makers/internal/domain"
	"memory-makers/internal/repository"
)

var (
	ErrAlreadyPaired      = errors.New("caller already has a partner")
	ErrPartnerTaken       = errors.New("target already has a partner")
	ErrSelfPair           = errors.New("cannot pair with yourself")
	ErrFriendCodeNotFound = errors.New("friend code not found")
)

// PairingService vincula dos cuentas por friend code. La relación es
// simétrica y uno-a-uno: ambas filas quedan apuntándose mutuamente.
type PairingService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewPairingService(logger *zap.Logger, users repository.UserRepository) *PairingService {
	return &PairingService{
		logger: logger,
		users:  users,
	}
}

// Pair conecta al llamador con la cuenta dueña del friend code y devuelve el
// perfil de la pareja.
func (s *PairingService) Pair(ctx context.Context, userID, friendCode string) (domain.User, error) {
	caller, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if caller.Paired() {
		return domain.User{}, ErrAlreadyPaired
	}

	friend, err := s.users.GetByFriendCode(ctx, friendCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrFriendCodeNotFound
		}
		return domain.User{}, err
	}
	if friend.ID == caller.ID {
		return domain.User{}, ErrSelfPair
	}
	if friend.Paired() {
		return domain.User{}, ErrPartnerTaken
	}

	if err := s.users.SetPartner(ctx, caller.ID, friend.ID); err != nil {
		return domain.User{}, err
	}
	if err := s.users.SetPartner(ctx, friend.ID, caller.ID); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("accounts paired",
		zap.String("user_id", caller.ID),
		zap.String("partner_id", friend.ID),
	)

	friend.PartnerID = &caller.ID
	return friend, nil
}
