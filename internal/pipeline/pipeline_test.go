package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsaver/internal/classifier"
	"socialsaver/internal/domain"
	"socialsaver/internal/scraper"
	"socialsaver/internal/storage"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubFetcher struct {
	html string
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.urls = append(f.urls, rawURL)
	return []byte(f.html), f.err
}

type stubClassifier struct {
	category domain.Category
	summary  string
	panics   bool

	caption, title string
	calls          int
}

func (c *stubClassifier) Classify(_ context.Context, caption, title string) (domain.Category, string) {
	c.calls++
	c.caption, c.title = caption, title
	if c.panics {
		panic("classifier exploded")
	}
	return c.category, c.summary
}

type failingStore struct {
	storage.Repository
}

func (failingStore) Create(context.Context, *domain.SavedContent) error {
	return errors.New("disk full")
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveMessage(channel, outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, channel+":"+outcome)
}

func newTestPipeline(f *stubFetcher, c classifier.Classifier, store storage.Repository, obs Observer) *Pipeline {
	return New(scraper.NewService(f, testLogger()), c, store, obs, testLogger())
}

func newBadgerStore(t *testing.T) *storage.BadgerRepository {
	t.Helper()
	repo, err := storage.NewBadgerRepository(t.TempDir(), 0, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

const tweetPage = `<html><head>
<meta property="og:description" content="New week, new goals #fitness #Monday">
</head><body></body></html>`

func TestExtractURL(t *testing.T) {
	u, ok := ExtractURL("look at this https://instagram.com/p/ABC/?igsh=1 and http://second.example")
	require.True(t, ok)
	assert.Equal(t, "https://instagram.com/p/ABC/?igsh=1", u)

	_, ok = ExtractURL("hello there")
	assert.False(t, ok)

	_, ok = ExtractURL("ftp://files.example/x")
	assert.False(t, ok)
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://x.com/a/status/123", StripQuery("https://x.com/a/status/123?foo=bar"))
	assert.Equal(t, "https://dev.to/post", StripQuery("https://dev.to/post"))
	assert.Equal(t, "https://dev.to/post", StripQuery("https://dev.to/post?a=1?b=2"))
}

func TestFormatReply(t *testing.T) {
	reply := FormatReply(domain.SavedContent{
		Title:       "Go Generics",
		Category:    domain.CategoryCoding,
		Summary:     "An intro to type parameters.",
		OriginalURL: "https://dev.to/go",
	})
	assert.Equal(t, "✨ *Saved to your knowledge base!*\n\n"+
		"*Go Generics*\n"+
		"📁 Category: Coding\n"+
		"📝 Summary: An intro to type parameters.\n"+
		"🔗 https://dev.to/go\n\n"+
		"Go to your dashboard to organize and search your saved content! 🚀", reply)

	untitled := FormatReply(domain.SavedContent{Category: domain.CategoryOther, Summary: "s", OriginalURL: "u"})
	assert.NotContains(t, untitled, "**")
	assert.Contains(t, untitled, "!*\n\n📁 Category: Other\n")
}

func TestProcess_NoURL(t *testing.T) {
	cls := &stubClassifier{}
	p := newTestPipeline(&stubFetcher{}, cls, nil, nil)

	out := p.Process(context.Background(), "+15550100", "hello there")

	assert.False(t, out.OK)
	assert.Equal(t, ReplyNoURL, out.Reply)
	assert.Nil(t, out.Record)
	assert.Zero(t, cls.calls)
}

func TestProcess_UnsupportedPlatform(t *testing.T) {
	f := &stubFetcher{}
	cls := &stubClassifier{}
	p := newTestPipeline(f, cls, nil, nil)

	out := p.Process(context.Background(), "+15550100", "https://example.com/article")

	assert.False(t, out.OK)
	assert.Equal(t, ReplyUnsupported, out.Reply)
	assert.Nil(t, out.Record)
	assert.Empty(t, f.urls)
	assert.Zero(t, cls.calls)
}

func TestProcess_Success(t *testing.T) {
	f := &stubFetcher{html: tweetPage}
	cls := &stubClassifier{category: "fitness", summary: "Weekly fitness motivation."}
	p := newTestPipeline(f, cls, nil, nil)

	out := p.Process(context.Background(), "+15550100", "saving https://x.com/a/status/123?foo=bar")

	require.True(t, out.OK)
	require.NotNil(t, out.Record)
	assert.Equal(t, []string{"https://x.com/a/status/123"}, f.urls)
	assert.Equal(t, "https://x.com/a/status/123", out.Record.OriginalURL)
	assert.Equal(t, domain.PlatformTwitter, out.Record.Platform)
	assert.Equal(t, domain.CategoryFitness, out.Record.Category)
	assert.Equal(t, "fitness,Monday", out.Record.Hashtags)
	assert.Equal(t, []string{"fitness", "Monday"}, out.Record.HashtagList())
	assert.Equal(t, "+15550100", out.Record.UserID)
	assert.Equal(t, "New week, new goals #fitness #Monday", cls.caption)
	assert.Contains(t, out.Reply, "📁 Category: Fitness\n")
	assert.Contains(t, out.Reply, "🔗 https://x.com/a/status/123\n\n")
}

func TestProcess_CaptionFallback(t *testing.T) {
	f := &stubFetcher{html: "<html><head></head></html>"}
	cls := &stubClassifier{category: domain.CategoryOther, summary: "A reel."}
	p := newTestPipeline(f, cls, nil, nil)

	out := p.Process(context.Background(), "u", "https://www.instagram.com/reel/XYZ/?igsh=abc")

	require.True(t, out.OK)
	want := "Analyze this Instagram content: https://www.instagram.com/reel/XYZ/"
	assert.Equal(t, want, cls.caption)
	assert.Equal(t, want, out.Record.Caption)
	assert.Empty(t, out.Record.Hashtags)
}

func TestProcess_ScrapeFailureStillClassifies(t *testing.T) {
	f := &stubFetcher{err: errors.New("connection reset")}
	cls := &stubClassifier{category: domain.CategoryCoding, summary: "s"}
	p := newTestPipeline(f, cls, nil, nil)

	out := p.Process(context.Background(), "u", "https://dev.to/someone/post")

	require.True(t, out.OK)
	assert.Equal(t, domain.PlatformBlog, out.Record.Platform)
	assert.Equal(t, 1, cls.calls)
}

func TestProcess_PanicBecomesGenericReply(t *testing.T) {
	p := newTestPipeline(&stubFetcher{html: tweetPage}, &stubClassifier{panics: true}, nil, nil)

	out := p.Process(context.Background(), "u", "https://twitter.com/a/status/1")

	assert.False(t, out.OK)
	assert.Equal(t, ReplyError, out.Reply)
	assert.Nil(t, out.Record)
}

func TestIngest_PersistsRecord(t *testing.T) {
	store := newBadgerStore(t)
	obs := &recordingObserver{}
	cls := &stubClassifier{category: domain.CategoryFitness, summary: "Motivation."}
	p := newTestPipeline(&stubFetcher{html: tweetPage}, cls, store, obs)
	ctx := context.Background()

	out := p.Ingest(ctx, "whatsapp", "+15550100", "https://x.com/a/status/123?foo=bar")
	require.True(t, out.OK)
	require.NotZero(t, out.Record.ID)

	got, err := store.Get(ctx, "+15550100", out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/a/status/123", got.OriginalURL)
	assert.Equal(t, []string{"fitness", "Monday"}, got.HashtagList())

	p.Ingest(ctx, "whatsapp", "+15550100", "hello there")
	assert.Equal(t, []string{"whatsapp:saved", "whatsapp:no_url"}, obs.outcomes)

	list, err := store.List(ctx, storage.ListQuery{UserID: "+15550100", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIngest_StoreFailure(t *testing.T) {
	obs := &recordingObserver{}
	cls := &stubClassifier{category: domain.CategoryFood, summary: "s"}
	p := newTestPipeline(&stubFetcher{html: tweetPage}, cls, failingStore{}, obs)

	out := p.Ingest(context.Background(), "telegram", "tg:1", "https://x.com/a/status/1")

	assert.False(t, out.OK)
	assert.Equal(t, ReplyError, out.Reply)
	assert.Equal(t, []string{"telegram:error"}, obs.outcomes)
}
