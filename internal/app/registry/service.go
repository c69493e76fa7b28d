package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"dropwatch/internal/domain"
	"dropwatch/internal/repository/webhook_repo"
)

type AddResult struct {
	Added    []string `json:"added"`
	Existing []string `json:"existing"`
}

type RegistryService interface {
	List(ctx context.Context) ([]domain.Webhook, error)
	Add(ctx context.Context, urls []string) (AddResult, error)
	Remove(ctx context.Context, urls []string) ([]string, error)
	Health(ctx context.Context) error
}

type registryService struct {
	repo   webhook_repo.WebhookRepository
	logger *zap.Logger
}

func NewRegistryService(repo webhook_repo.WebhookRepository, logger *zap.Logger) RegistryService {
	return &registryService{repo: repo, logger: logger}
}

func (s *registryService) List(ctx context.Context) ([]domain.Webhook, error) {
	return s.repo.List(ctx)
}

// Add validates every url before touching the store, so a bad entry rejects
// the whole request.
func (s *registryService) Add(ctx context.Context, urls []string) (AddResult, error) {
	normalized, err := normalizeURLs(urls)
	if err != nil {
		return AddResult{}, err
	}

	result := AddResult{Added: []string{}, Existing: []string{}}
	for _, u := range normalized {
		added, err := s.repo.Add(ctx, u)
		if err != nil {
			return result, fmt.Errorf("failed to add webhook %s: %w", u, err)
		}
		if added {
			s.logger.Info("Inserted webhook", zap.String("webhook", u))
			result.Added = append(result.Added, u)
		} else {
			result.Existing = append(result.Existing, u)
		}
	}
	return result, nil
}

func (s *registryService) Remove(ctx context.Context, urls []string) ([]string, error) {
	normalized, err := normalizeURLs(urls)
	if err != nil {
		return nil, err
	}

	removed := []string{}
	for _, u := range normalized {
		ok, err := s.repo.Remove(ctx, u)
		if err != nil {
			return removed, fmt.Errorf("failed to remove webhook %s: %w", u, err)
		}
		if ok {
			s.logger.Info("Removed webhook", zap.String("webhook", u))
			removed = append(removed, u)
		}
	}
	return removed, nil
}

func (s *registryService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func normalizeURLs(urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no webhooks given", domain.ErrInvalidWebhook)
	}
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidWebhook, raw)
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
