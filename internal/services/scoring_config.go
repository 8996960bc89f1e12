package services

import (
  "fmt"
  "os"
  "gopkg.in/yaml.v3"
)

// ScoringConfig carries every tunable of the recommendation scorer as one
// immutable value, passed into the service at construction. Deployments
// override the defaults from a YAML file (SCORING_CONFIG_PATH).
type ScoringConfig struct {
  WindowMinutes int `yaml:"window_minutes"`

  // Engagement (CVS) terms: base = (alpha*messages + beta*likes +
  // gamma*reactions) / sqrt(users), decayed by exp(-lambda * minutes idle).
  Alpha  float64 `yaml:"alpha"`
  Beta   float64 `yaml:"beta"`
  Gamma  float64 `yaml:"gamma"`
  Lambda float64 `yaml:"lambda"`

  // Final blend weights. WeightPenalty multiplies fatigue and queue penalty
  // combined.
  WeightEngagement float64 `yaml:"weight_engagement"`
  WeightSimilarity float64 `yaml:"weight_similarity"`
  WeightNovelty    float64 `yaml:"weight_novelty"`
  WeightPenalty    float64 `yaml:"weight_penalty"`

  // HistoryDepth spans feed the fatigue signal; the newest RecentSeen of
  // them form the exclusion set when include_recent is off.
  HistoryDepth int `yaml:"history_depth"`
  RecentSeen   int `yaml:"recent_seen"`

  QueuePenalty          float64 `yaml:"queue_penalty"`
  NoveltyRecencyMinutes float64 `yaml:"novelty_recency_minutes"`
}

func DefaultScoringConfig() ScoringConfig {
  return ScoringConfig{
    WindowMinutes:         20,
    Alpha:                 0.6,
    Beta:                  0.25,
    Gamma:                 0.15,
    Lambda:                0.12,
    WeightEngagement:      0.35,
    WeightSimilarity:      0.35,
    WeightNovelty:         0.2,
    WeightPenalty:         0.1,
    HistoryDepth:          25,
    RecentSeen:            5,
    QueuePenalty:          0.1,
    NoveltyRecencyMinutes: 120,
  }
}

// LoadScoringConfig overlays a YAML file onto the defaults. An empty path
// returns the defaults unchanged.
func LoadScoringConfig(path string) (ScoringConfig, error) {
  cfg := DefaultScoringConfig()
  if path == "" {
    return cfg, nil
  }
  data, err := os.ReadFile(path)
  if err != nil {
    return cfg, fmt.Errorf("read scoring config: %w", err)
  }
  if err := yaml.Unmarshal(data, &cfg); err != nil {
    return cfg, fmt.Errorf("parse scoring config: %w", err)
  }
  if err := cfg.validate(); err != nil {
    return cfg, err
  }
  return cfg, nil
}

func (c ScoringConfig) validate() error {
  if c.WindowMinutes <= 0 {
    return fmt.Errorf("window_minutes must be positive")
  }
  if c.HistoryDepth <= 0 || c.RecentSeen < 0 || c.RecentSeen > c.HistoryDepth {
    return fmt.Errorf("invalid history_depth/recent_seen")
  }
  if c.Lambda < 0 {
    return fmt.Errorf("lambda must be non-negative")
  }
  return nil
}
