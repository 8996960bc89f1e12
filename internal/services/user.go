package services

import (
  "context"
  "errors"
  "strings"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type UpdateUserInput struct {
  DisplayName *string
  Country     *string
  Language    *string
  Preferences datatypes.JSON
}

type UserService interface {
  Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
  List(ctx context.Context) ([]*types.User, error)
  Update(ctx context.Context, userID uuid.UUID, in UpdateUserInput) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
  user, err := us.userRepo.GetByID(ctx, nil, userID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrUserNotFound
    }
    return nil, err
  }
  return user, nil
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
  return us.userRepo.List(ctx, nil)
}

func (us *userService) Update(ctx context.Context, userID uuid.UUID, in UpdateUserInput) (*types.User, error) {
  var user *types.User
  err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    var err error
    user, err = us.userRepo.GetByID(ctx, tx, userID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrUserNotFound
      }
      return err
    }
    if in.DisplayName != nil && strings.TrimSpace(*in.DisplayName) != "" {
      user.DisplayName = strings.TrimSpace(*in.DisplayName)
    }
    if in.Country != nil {
      user.Country = strings.TrimSpace(*in.Country)
    }
    if in.Language != nil && strings.TrimSpace(*in.Language) != "" {
      user.Language = strings.TrimSpace(*in.Language)
    }
    if in.Preferences != nil {
      user.Preferences = in.Preferences
    }
    return us.userRepo.Save(ctx, tx, user)
  })
  if err != nil {
    return nil, err
  }
  return user, nil
}
