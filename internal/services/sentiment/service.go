package sentiment

import (
	"context"
	"encoding/json"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/service"
	"EdgePulse/internal/service/cache"
	xhttp "EdgePulse/pkg/http"
	"EdgePulse/pkg/logger"
)

// neutral is the score used when a source is unconfigured or failing.
const neutral = 0.5

const cacheKey = "sentiment:scores"

// Config holds the sentiment source endpoints. Empty URLs disable the
// corresponding source.
type Config struct {
	NewsURL    string
	WhaleURL   string
	OnChainURL string
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// Service aggregates external sentiment feeds. Every source degrades
// to the neutral score on failure so a feed outage never stalls
// evaluation.
type Service struct {
	cfg    Config
	client *xhttp.Client
	cache  cache.BytesCache
	logger *logger.Logger
}

var _ service.SentimentSource = (*Service)(nil)

// New creates the sentiment service.
func New(cfg Config, c cache.BytesCache, log *logger.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Service{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		cache:  c,
		logger: log,
	}
}

// Scores returns the cached sentiment set, refreshing on a cache miss.
func (s *Service) Scores(ctx context.Context, symbol string) (models.SentimentSet, error) {
	if b, ok, err := s.cache.GetBytes(cacheKey); err == nil && ok {
		var set models.SentimentSet
		if err := json.Unmarshal(b, &set); err == nil {
			return set, nil
		}
	}
	return s.Refresh(ctx), nil
}

// Refresh fetches all sources and stores the result in the cache.
// It always returns a usable set.
func (s *Service) Refresh(ctx context.Context) models.SentimentSet {
	set := models.SentimentSet{
		News:    s.fetch(ctx, "news", s.cfg.NewsURL),
		Whale:   s.fetch(ctx, "whale", s.cfg.WhaleURL),
		OnChain: s.fetch(ctx, "onchain", s.cfg.OnChainURL),
	}
	if b, err := json.Marshal(set); err == nil {
		if err := s.cache.SetBytes(cacheKey, b, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("sentiment cache write failed", logger.Error(err))
		}
	}
	return set
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

func (s *Service) fetch(ctx context.Context, name, url string) float64 {
	if url == "" {
		return neutral
	}
	var resp scoreResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
	}, &resp)
	if err != nil {
		s.logger.Warn("sentiment source failed, neutral score used",
			logger.String("source", name), logger.Error(err))
		return neutral
	}
	if resp.Score < 0 {
		return 0
	}
	if resp.Score > 1 {
		return 1
	}
	return resp.Score
}
