package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type RegisterInput struct {
  Email       string
  Password    string
  DisplayName string
  Country     string
  Language    string
}

// AuthService issues short-lived HS256 access tokens and rotating refresh
// tokens persisted in user_token. Access tokens are stateless; only refresh
// tokens hit the database.
type AuthService interface {
  Register(ctx context.Context, in RegisterInput) (*types.User, error)
  Login(ctx context.Context, email, password string) (string, string, error)
  Refresh(ctx context.Context, refreshToken string) (string, string, error)
  Logout(ctx context.Context, userID uuid.UUID) error
  ParseAccessToken(tokenString string) (uuid.UUID, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  avatarService AvatarService
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  avatarService AvatarService,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    avatarService: avatarService,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
  email := strings.ToLower(strings.TrimSpace(in.Email))
  if email == "" || !strings.Contains(email, "@") {
    return nil, fmt.Errorf("%w: valid email required", ErrInvalidInput)
  }
  if len(in.Password) < 8 {
    return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
  }
  displayName := strings.TrimSpace(in.DisplayName)
  if displayName == "" {
    displayName = strings.SplitN(email, "@", 2)[0]
  }

  if _, err := as.userRepo.GetByEmail(ctx, nil, email); err == nil {
    return nil, ErrEmailTaken
  } else if !errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, err
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("failed to hash password: %w", err)
  }

  user := &types.User{
    ID:          uuid.New(),
    Email:       email,
    Password:    string(hashed),
    DisplayName: displayName,
    Country:     strings.TrimSpace(in.Country),
  }
  if lang := strings.TrimSpace(in.Language); lang != "" {
    user.Language = lang
  }

  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if as.avatarService != nil {
      if err := as.avatarService.CreateUserAvatar(ctx, user); err != nil {
        as.log.Warn("Failed to generate user avatar", "user_id", user.ID, "error", err)
      }
    }
    _, err := as.userRepo.Create(ctx, tx, user)
    return err
  })
  if err != nil {
    return nil, err
  }
  return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return "", "", ErrInvalidCredentials
    }
    return "", "", err
  }
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", ErrInvalidCredentials
  }

  var accessToken, refreshToken string
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    // One active refresh token per user.
    if err := as.userTokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
      return fmt.Errorf("failed to clear old tokens: %w", err)
    }
    var genErr error
    accessToken, refreshToken, genErr = as.issueTokens(ctx, tx, user)
    return genErr
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
  if strings.TrimSpace(refreshToken) == "" {
    return "", "", ErrInvalidCredentials
  }

  var accessToken, newRefreshToken string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existing, err := as.userTokenRepo.GetByToken(ctx, tx, refreshToken)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrInvalidCredentials
      }
      return err
    }
    if existing.ExpiresAt.Before(time.Now().UTC()) {
      if err := as.userTokenRepo.DeleteByUserID(ctx, tx, existing.UserID); err != nil {
        as.log.Warn("Failed to delete expired refresh token", "error", err)
      }
      return ErrInvalidCredentials
    }
    user, err := as.userRepo.GetByID(ctx, tx, existing.UserID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrInvalidCredentials
      }
      return err
    }
    // Rotate: the presented refresh token is single-use.
    if err := as.userTokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
      return fmt.Errorf("failed to rotate refresh token: %w", err)
    }
    accessToken, newRefreshToken, err = as.issueTokens(ctx, tx, user)
    return err
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context, userID uuid.UUID) error {
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    return as.userTokenRepo.DeleteByUserID(ctx, tx, userID)
  })
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
  accessToken, err := as.generateAccessToken(user)
  if err != nil {
    return "", "", fmt.Errorf("failed to generate access token: %w", err)
  }
  refreshToken := uuid.New().String()
  expiresAt := time.Now().UTC().Add(as.refreshTTL)
  if _, err := as.userTokenRepo.Create(ctx, tx, &types.UserToken{
    UserID:    user.ID,
    Token:     refreshToken,
    ExpiresAt: expiresAt,
  }); err != nil {
    return "", "", fmt.Errorf("failed to persist refresh token: %w", err)
  }
  return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return uuid.Nil, fmt.Errorf("invalid or expired token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
  }
  return userID, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
