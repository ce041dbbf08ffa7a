package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/models"
)

const (
	// DefaultArticleIndex is the document collection holding generated articles.
	DefaultArticleIndex = "articles"

	defaultSearchSize = 500
)

// ElasticsearchConfig holds the article store connection settings.
type ElasticsearchConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

// ArticleStore reads and writes article documents in Elasticsearch. The
// publishing layer only touches the wp_* and status fields; content belongs
// to the generation pipeline.
type ArticleStore struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewArticleStore creates the article store from config.
func NewArticleStore(cfg ElasticsearchConfig, log logger.Logger) (*ArticleStore, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{normalizeESURL(cfg.URL)},
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultArticleIndex
	}

	return &ArticleStore{es: client, index: index, logger: log}, nil
}

func normalizeESURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

// GetByID fetches one article document.
func (s *ArticleStore) GetByID(ctx context.Context, id string) (*models.Article, error) {
	res, err := s.es.Get(s.index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, models.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get article: elasticsearch error: %s", res.Status())
	}

	var doc struct {
		ID     string         `json:"_id"`
		Source models.Article `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&doc); decodeErr != nil {
		return nil, fmt.Errorf("decode article: %w", decodeErr)
	}

	article := doc.Source
	article.ID = doc.ID
	return &article, nil
}

// PublishFields is the subset of article fields this layer owns.
type PublishFields struct {
	WPPostID       int64                `json:"wp_post_id"`
	WPURL          string               `json:"wp_url"`
	Status         models.ArticleStatus `json:"status"`
	WPPublishError string               `json:"wp_publish_error"`
}

// UpdatePublishFields writes the publish outcome back to the document. It is
// a partial update so the generated content is never touched, let alone lost.
func (s *ArticleStore) UpdatePublishFields(ctx context.Context, id string, fields PublishFields) error {
	update := map[string]any{
		"doc": map[string]any{
			"wp_post_id":       fields.WPPostID,
			"wp_url":           fields.WPURL,
			"status":           fields.Status,
			"wp_publish_error": fields.WPPublishError,
			"updated_at":       time.Now().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	res, err := s.es.Update(s.index, id, bytes.NewReader(body), s.es.Update.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return models.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("update article: elasticsearch error: %s", res.Status())
	}

	s.logger.Debug("updated article publish fields",
		logger.String("article_id", id),
		logger.Int64("wp_post_id", fields.WPPostID),
		logger.String("status", string(fields.Status)),
	)
	return nil
}

// ListRemote returns articles that carry a remote post id, i.e. the
// reconciliation working set.
func (s *ArticleStore) ListRemote(ctx context.Context) ([]models.Article, error) {
	query := map[string]any{
		"size": defaultSearchSize,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"range": map[string]any{"wp_post_id": map[string]any{"gt": 0}}},
				},
			},
		},
		"sort": []any{
			map[string]any{"updated_at": map[string]any{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search articles: elasticsearch error: %s", res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source models.Article `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode search response: %w", decodeErr)
	}

	articles := make([]models.Article, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		article := hit.Source
		article.ID = hit.ID
		articles = append(articles, article)
	}

	return articles, nil
}
