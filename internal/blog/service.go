// Package blog wraps the blog API endpoints on top of the request executor.
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

const (
	pathCategories     = "/category/getCategories"
	pathAllCategories  = "/category/getAllCategories"
	pathArticleList    = "/article/getArticleList"
	pathArticleDetail  = "/article/getArticleDetail"
	pathRecommendLinks = "/article/getArticleRecommendLinks"
	pathDeleteCategory = "/admin/deleteCategory"
)

// categoryCacheEntry holds the cached category tree
type categoryCacheEntry struct {
	tree      []*Category
	expiresAt time.Time
}

// Service handles the blog API calls
type Service struct {
	client *client.Client
	log    *slog.Logger

	cacheMu  sync.Mutex
	cache    *categoryCacheEntry
	cacheTTL time.Duration
	now      func() time.Time
}

type Option func(*Service)

// WithCategoryCacheTTL sets how long the full category tree is reused.
// Zero disables caching.
func WithCategoryCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.log = logger.With(slog.String("component", "blog")) }
}

// NewService creates a new blog service
func NewService(c *client.Client, opts ...Option) *Service {
	s := &Service{
		client:   c,
		log:      slog.Default().With(slog.String("component", "blog")),
		cacheTTL: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetch runs the call, treats a fail envelope as a Business error and
// decodes data into out.
func fetch(path string, out any, env *client.Envelope, err error) error {
	if err != nil {
		return err
	}
	if !env.OK() {
		return client.BusinessError(path, env)
	}
	if out == nil {
		return nil
	}
	if err := env.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// GetCategories returns the children of fatherID. Zero lists the roots.
func (s *Service) GetCategories(ctx context.Context, fatherID int64, opts ...client.CallOption) ([]*Category, error) {
	params := client.Params{}
	if fatherID != 0 {
		params["fatherId"] = fatherID
	}
	var out []*Category
	env, err := s.client.Get(ctx, pathCategories, params, opts...)
	if err := fetch(pathCategories, &out, env, err); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllCategories returns the whole category tree, showing the loading
// indicator while it is fetched. Each call returns its own copy.
func (s *Service) GetAllCategories(ctx context.Context, opts ...client.CallOption) ([]*Category, error) {
	if tree := s.cachedTree(); tree != nil {
		return tree, nil
	}

	var out []*Category
	env, err := s.client.Get(ctx, pathAllCategories, nil, append([]client.CallOption{client.ShowLoading(true)}, opts...)...)
	if err := fetch(pathAllCategories, &out, env, err); err != nil {
		return nil, err
	}
	s.storeTree(out)
	return out, nil
}

func (s *Service) GetArticleList(ctx context.Context, q ListQuery, opts ...client.CallOption) (*Page[ArticleListItem], error) {
	params := client.Params{}
	if q.Key != "" {
		params["key"] = q.Key
	}
	if q.Page > 0 {
		params["page"] = q.Page
	}
	if q.PageSize > 0 {
		params["pageSize"] = q.PageSize
	}

	var out Page[ArticleListItem]
	env, err := s.client.Get(ctx, pathArticleList, params, opts...)
	if err := fetch(pathArticleList, &out, env, err); err != nil {
		return nil, err
	}
	if out.Page == 0 && q.Page > 0 {
		out.Page = q.Page
	}
	return &out, nil
}

func (s *Service) GetArticleDetail(ctx context.Context, articleID int64, opts ...client.CallOption) (*Article, error) {
	var out Article
	env, err := s.client.Get(ctx, pathArticleDetail, client.Params{"articleId": articleID}, opts...)
	if err := fetch(pathArticleDetail, &out, env, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) GetArticleRecommendLinks(ctx context.Context, articleID int64, opts ...client.CallOption) ([]RecommendLink, error) {
	var out []RecommendLink
	env, err := s.client.Get(ctx, pathRecommendLinks, client.Params{"articleId": articleID}, opts...)
	if err := fetch(pathRecommendLinks, &out, env, err); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes a category. It requires an admin token.
func (s *Service) DeleteCategory(ctx context.Context, categoryID int64, opts ...client.CallOption) error {
	env, err := s.client.Delete(ctx, pathDeleteCategory, client.Params{"categoryId": categoryID}, opts...)
	if err := fetch(pathDeleteCategory, nil, env, err); err != nil {
		return err
	}

	s.log.Info("category deleted", slog.Int64("category_id", categoryID))
	s.InvalidateCategories()
	return nil
}

// InvalidateCategories drops the cached category tree.
func (s *Service) InvalidateCategories() {
	s.cacheMu.Lock()
	s.cache = nil
	s.cacheMu.Unlock()
}

func (s *Service) cachedTree() []*Category {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cache == nil || !s.now().Before(s.cache.expiresAt) {
		metrics.CacheMisses.WithLabelValues("blog", "categories").Inc()
		return nil
	}
	metrics.CacheHits.WithLabelValues("blog", "categories").Inc()
	return Clone(s.cache.tree)
}

func (s *Service) storeTree(tree []*Category) {
	if s.cacheTTL <= 0 || tree == nil {
		return
	}
	s.cacheMu.Lock()
	s.cache = &categoryCacheEntry{tree: Clone(tree), expiresAt: s.now().Add(s.cacheTTL)}
	s.cacheMu.Unlock()
}
