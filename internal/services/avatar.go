package services

import (
  "bytes"
  "context"
  "fmt"
  "hash/fnv"
  "image/color"
  "os"
  "path/filepath"
  "strings"
  "time"
  "unicode"
  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "github.com/google/uuid"
  "golang.org/x/image/font"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

// AvatarService renders an initials avatar for a new user and writes it
// under MEDIA_DIR, setting user.AvatarURL relative to MEDIA_BASE_URL.
// Construction fails when AVATAR_FONT is unset; callers treat a nil service
// as "avatars disabled".
type AvatarService interface {
  CreateUserAvatar(ctx context.Context, user *types.User) error
  GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
  log      *logger.Logger
  mediaDir string
  baseURL  string
  fontFace font.Face
  palette  []color.NRGBA
}

var defaultAvatarPalette = []color.NRGBA{
  {R: 0x1D, G: 0x4E, B: 0x89, A: 0xFF},
  {R: 0x9B, G: 0x2C, B: 0x2C, A: 0xFF},
  {R: 0x2F, G: 0x85, B: 0x5A, A: 0xFF},
  {R: 0x6B, G: 0x46, B: 0xC1, A: 0xFF},
  {R: 0xB7, G: 0x79, B: 0x1F, A: 0xFF},
  {R: 0x2C, G: 0x7A, B: 0x7B, A: 0xFF},
}

func NewAvatarService(log *logger.Logger) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")

  fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
  if fontPath == "" {
    return nil, fmt.Errorf("env var AVATAR_FONT is empty")
  }
  serviceLog.Info("Loading avatar font", "font", fontPath)

  face, err := loadFontFace(fontPath, 206)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar font: %w", err)
  }

  mediaDir := strings.TrimSpace(os.Getenv("MEDIA_DIR"))
  if mediaDir == "" {
    mediaDir = "media"
  }
  baseURL := strings.TrimSpace(os.Getenv("MEDIA_BASE_URL"))
  if baseURL == "" {
    baseURL = "/media"
  }

  return &avatarService{
    log:      serviceLog,
    mediaDir: mediaDir,
    baseURL:  strings.TrimRight(baseURL, "/"),
    fontFace: face,
    palette:  defaultAvatarPalette,
  }, nil
}

func (as *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
  if user == nil || user.ID == uuid.Nil {
    return fmt.Errorf("user required")
  }
  buf, err := as.GenerateUserAvatar(user)
  if err != nil {
    return err
  }

  // Versioned key so a regenerated avatar never serves stale cache.
  key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())
  path := filepath.Join(as.mediaDir, filepath.FromSlash(key))
  if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
    return fmt.Errorf("failed to create avatar dir: %w", err)
  }
  if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
    return fmt.Errorf("failed to write avatar: %w", err)
  }

  user.AvatarURL = as.baseURL + "/" + key
  return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
  const size = 512

  dc := gg.NewContext(size, size)

  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  base := as.pickColor(user.ID)
  dc.SetColor(base)
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  initials := computeInitials(user.DisplayName)

  dc.SetFontFace(as.fontFace)
  tw, th := dc.MeasureString(initials)
  cx, cy := float64(size)/2, float64(size)/2

  dc.SetColor(color.White)
  dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

// pickColor hashes the user id into the palette so the same user always
// regenerates the same background.
func (as *avatarService) pickColor(id uuid.UUID) color.NRGBA {
  h := fnv.New32a()
  h.Write(id[:])
  return as.palette[int(h.Sum32())%len(as.palette)]
}

func computeInitials(displayName string) string {
  fields := strings.Fields(displayName)
  if len(fields) == 0 {
    return "?"
  }
  first := []rune(fields[0])
  out := string(unicode.ToUpper(first[0]))
  if len(fields) > 1 {
    last := []rune(fields[len(fields)-1])
    out += string(unicode.ToUpper(last[0]))
  }
  return out
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
  fontBytes, err := os.ReadFile(fontPath)
  if err != nil {
    return nil, fmt.Errorf("failed to read font file: %w", err)
  }
  parsedFont, err := truetype.Parse(fontBytes)
  if err != nil {
    return nil, fmt.Errorf("failed to parse TTF: %w", err)
  }
  face := truetype.NewFace(parsedFont, &truetype.Options{
    Size:    size,
    DPI:     72,
    Hinting: font.HintingNone,
  })
  return face, nil
}
