package publisher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/metrics"
	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/publisher"
	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

type fakeArticleStore struct {
	article    *models.Article
	getErr     error
	updates    []store.PublishFields
	updatedIDs []string
	updateErr  error
}

func (f *fakeArticleStore) GetByID(_ context.Context, _ string) (*models.Article, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.article
	return &copied, nil
}

func (f *fakeArticleStore) UpdatePublishFields(_ context.Context, id string, fields store.PublishFields) error {
	f.updatedIDs = append(f.updatedIDs, id)
	f.updates = append(f.updates, fields)
	return f.updateErr
}

type fakeSiteStore struct {
	site   *models.Site
	getErr error
}

func (f *fakeSiteStore) GetByID(_ context.Context, _ uuid.UUID) (*models.Site, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.site, nil
}

type fakeCMS struct {
	publishReqs  []wordpress.PublishRequest
	publishRes   *wordpress.RemotePostResult
	publishErr   error
	uploadedURLs []string
	uploadedB64  []string
	uploadErr    error
	nextMediaID  int64
}

func (f *fakeCMS) Publish(_ context.Context, _ wordpress.Credentials, req wordpress.PublishRequest) (*wordpress.RemotePostResult, error) {
	f.publishReqs = append(f.publishReqs, req)
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return f.publishRes, nil
}

func (f *fakeCMS) UploadFromURL(_ context.Context, _ wordpress.Credentials, imageURL string) (*wordpress.UploadedMedia, error) {
	f.uploadedURLs = append(f.uploadedURLs, imageURL)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.nextMediaID++
	return &wordpress.UploadedMedia{
		MediaID:   f.nextMediaID,
		SourceURL: "https://blog.example/uploads/" + imageURL,
	}, nil
}

func (f *fakeCMS) UploadFromBase64(_ context.Context, _ wordpress.Credentials, payload, _, _ string) (*wordpress.UploadedMedia, error) {
	f.uploadedB64 = append(f.uploadedB64, payload)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.nextMediaID++
	return &wordpress.UploadedMedia{
		MediaID:   f.nextMediaID,
		SourceURL: "https://blog.example/uploads/b64",
	}, nil
}

type fakeMetrics struct {
	published int
	failed    int
	recent    []metrics.RecentPost
}

func (f *fakeMetrics) IncrementPublished(_ context.Context, _ string) error {
	f.published++
	return nil
}

func (f *fakeMetrics) IncrementFailed(_ context.Context, _ string) error {
	f.failed++
	return nil
}

func (f *fakeMetrics) AddRecentPost(_ context.Context, post metrics.RecentPost) error {
	f.recent = append(f.recent, post)
	return nil
}

func testSite() *models.Site {
	return &models.Site{
		ID:                  uuid.New(),
		UserID:              "user-1",
		Name:                "My Blog",
		URL:                 "https://blog.example",
		Username:            "editor",
		ApplicationPassword: "secret",
		Enabled:             true,
	}
}

func testArticle(siteID string) *models.Article {
	return &models.Article{
		ID:      "art-1",
		SiteID:  siteID,
		Title:   "Hello",
		Content: "Some content",
		Status:  models.StatusPublished,
	}
}

func newTestService(articles *fakeArticleStore, sites *fakeSiteStore, cms *fakeCMS, m *fakeMetrics) *publisher.Service {
	return publisher.NewService(publisher.Deps{
		Articles:   articles,
		Sites:      sites,
		WP:         cms,
		Metrics:    m,
		Logger:     logger.NewNop(),
		PublishRPS: 100,
	})
}

func TestPublishArticle_Success(t *testing.T) {
	site := testSite()
	articles := &fakeArticleStore{article: testArticle(site.ID.String())}
	cms := &fakeCMS{publishRes: &wordpress.RemotePostResult{PostID: 42, URL: "https://blog.example/?p=42"}}
	m := &fakeMetrics{}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, m)
	result, err := svc.PublishArticle(context.Background(), "art-1")
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.PostID)

	require.Len(t, articles.updates, 1)
	assert.Equal(t, int64(42), articles.updates[0].WPPostID)
	assert.Equal(t, "https://blog.example/?p=42", articles.updates[0].WPURL)
	assert.Equal(t, models.StatusPublished, articles.updates[0].Status)
	assert.Empty(t, articles.updates[0].WPPublishError)

	assert.Equal(t, 1, m.published)
	require.Len(t, m.recent, 1)
	assert.Equal(t, "art-1", m.recent[0].ArticleID)
}

func TestPublishArticle_ReusesExistingPostID(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.WPPostID = 42
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{publishRes: &wordpress.RemotePostResult{PostID: 42, URL: "https://blog.example/?p=42"}}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.NoError(t, err)

	require.Len(t, cms.publishReqs, 1)
	assert.Equal(t, int64(42), cms.publishReqs[0].ExistingPostID)
}

func TestPublishArticle_ArticleNotFound(t *testing.T) {
	articles := &fakeArticleStore{getErr: models.ErrNotFound}

	svc := newTestService(articles, &fakeSiteStore{site: testSite()}, &fakeCMS{}, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, articles.updates)
}

func TestPublishArticle_InvalidSiteID(t *testing.T) {
	articles := &fakeArticleStore{article: testArticle("not-a-uuid")}

	svc := newTestService(articles, &fakeSiteStore{site: testSite()}, &fakeCMS{}, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPublishArticle_MissingCredentials(t *testing.T) {
	site := testSite()
	site.ApplicationPassword = ""
	articles := &fakeArticleStore{article: testArticle(site.ID.String())}
	m := &fakeMetrics{}

	svc := newTestService(articles, &fakeSiteStore{site: site}, &fakeCMS{}, m)
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.ErrorIs(t, err, wordpress.ErrMissingCredentials)

	// Failure is annotated on the article and counted.
	require.Len(t, articles.updates, 1)
	assert.Equal(t, models.StatusPublishFailed, articles.updates[0].Status)
	assert.NotEmpty(t, articles.updates[0].WPPublishError)
	assert.Equal(t, 1, m.failed)
}

func TestPublishArticle_RemoteFailureAnnotated(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.WPPostID = 7
	article.WPURL = "https://blog.example/?p=7"
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{publishErr: errors.New("server exploded")}
	m := &fakeMetrics{}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, m)
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.Error(t, err)

	require.Len(t, articles.updates, 1)
	update := articles.updates[0]
	assert.Equal(t, models.StatusPublishFailed, update.Status)
	assert.Contains(t, update.WPPublishError, "server exploded")
	// A generic failure keeps the stored post handle for the next retry.
	assert.Equal(t, int64(7), update.WPPostID)
	assert.Equal(t, 1, m.failed)
}

func TestPublishArticle_DeletedRemotePostClearsHandle(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.WPPostID = 7
	article.WPURL = "https://blog.example/?p=7"
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{publishErr: wordpress.ErrPostNotFound}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.ErrorIs(t, err, wordpress.ErrPostNotFound)

	require.Len(t, articles.updates, 1)
	assert.Equal(t, int64(0), articles.updates[0].WPPostID)
	assert.Empty(t, articles.updates[0].WPURL)
	assert.Equal(t, models.StatusPublishFailed, articles.updates[0].Status)
}

func TestPublishArticle_InlineImagesUploadedInOrder(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.Images = []models.ArticleImage{
		{URL: "first.jpg"},
		{Base64: "aGVsbG8=", Filename: "second.png"},
	}
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{publishRes: &wordpress.RemotePostResult{PostID: 1, URL: "https://blog.example/?p=1"}}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.NoError(t, err)

	require.Equal(t, []string{"first.jpg"}, cms.uploadedURLs)
	require.Equal(t, []string{"aGVsbG8="}, cms.uploadedB64)

	require.Len(t, cms.publishReqs, 1)
	assert.Contains(t, cms.publishReqs[0].Content, "https://blog.example/uploads/first.jpg")
	assert.Contains(t, cms.publishReqs[0].Content, "https://blog.example/uploads/b64")
}

func TestPublishArticle_FailedImageUploadSkipped(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.Images = []models.ArticleImage{{URL: "broken.jpg"}}
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{
		publishRes: &wordpress.RemotePostResult{PostID: 1, URL: "https://blog.example/?p=1"},
		uploadErr:  errors.New("media endpoint down"),
	}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.NoError(t, err)

	require.Len(t, cms.publishReqs, 1)
	assert.NotContains(t, cms.publishReqs[0].Content, "broken.jpg")
	assert.Equal(t, article.Content, cms.publishReqs[0].Content)
}

func TestPublishArticle_DraftIntent(t *testing.T) {
	site := testSite()
	article := testArticle(site.ID.String())
	article.Status = models.StatusDraft
	articles := &fakeArticleStore{article: article}
	cms := &fakeCMS{publishRes: &wordpress.RemotePostResult{PostID: 1, URL: "https://blog.example/?p=1"}}

	svc := newTestService(articles, &fakeSiteStore{site: site}, cms, &fakeMetrics{})
	_, err := svc.PublishArticle(context.Background(), "art-1")
	require.NoError(t, err)

	require.Len(t, cms.publishReqs, 1)
	assert.Equal(t, wordpress.StatusDraft, cms.publishReqs[0].Status)

	require.Len(t, articles.updates, 1)
	assert.Equal(t, models.StatusDraft, articles.updates[0].Status)
}
