package article

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/policy"
	"github.com/SergeyParamoshkin/blog/internal/validation"
)

const instrumentationName = "github.com/SergeyParamoshkin/blog/internal/article"

// Input is what a caller may set on an article. A nil Published leaves the
// flag as it is on update and means false on create.
type Input struct {
	Title     string
	Content   string
	Published *bool
}

// Listing is the admin index: both collections, newest first.
type Listing struct {
	Published []*model.Article
	Drafts    []*model.Article
}

type Option func(*Service)

// WithClock replaces time.Now as the source of published_at and created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs article operations. Admin operations take the caller
// explicitly and check it against the policy before touching the store.
type Service struct {
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time

	tracer      trace.Tracer
	operations  metric.Int64Counter
	transitions metric.Int64Counter
}

func NewService(store Store, logger *zap.SugaredLogger, opts ...Option) (*Service, error) {
	meter := otel.Meter(instrumentationName)

	operations, err := meter.Int64Counter("blog.article.operations",
		metric.WithDescription("Count of article operations, by operation and outcome"))
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter("blog.article.transitions",
		metric.WithDescription("Count of publish and unpublish transitions, by transition and outcome"))
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:       store,
		logger:      logger,
		now:         time.Now,
		tracer:      otel.Tracer(instrumentationName),
		operations:  operations,
		transitions: transitions,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// List returns published and draft articles for the admin index.
func (s *Service) List(ctx context.Context, caller *model.User) (listing *Listing, err error) {
	ctx, span := s.start(ctx, policy.ListArticles)
	defer func() { s.finish(ctx, span, policy.ListArticles, err) }()

	if err = policy.Authorize(caller, policy.ListArticles); err != nil {
		return nil, err
	}

	all, err := s.store.Find(ctx, Recent, WithAuthor)
	if err != nil {
		return nil, err
	}

	listing = &Listing{Published: []*model.Article{}, Drafts: []*model.Article{}}
	for _, a := range all {
		if a.Published {
			listing.Published = append(listing.Published, a)
		} else {
			listing.Drafts = append(listing.Drafts, a)
		}
	}

	return listing, nil
}

// Show returns any article, draft or not.
func (s *Service) Show(ctx context.Context, caller *model.User, id uint) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.ShowArticle, attribute.Int64("article.id", int64(id)))
	defer func() { s.finish(ctx, span, policy.ShowArticle, err) }()

	if err = policy.Authorize(caller, policy.ShowArticle); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, id, WithAuthor)
}

// Create stores a new article owned by the caller. Creating it published
// does not stamp published_at; only Publish does.
func (s *Service) Create(ctx context.Context, caller *model.User, in Input) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.CreateArticle)
	defer func() { s.finish(ctx, span, policy.CreateArticle, err) }()

	if err = policy.Authorize(caller, policy.CreateArticle); err != nil {
		return nil, err
	}

	now := s.now()
	article = &model.Article{
		UserID:    caller.ID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Published != nil {
		article.Published = *in.Published
	}

	if err = validation.Struct(article); err != nil {
		return nil, err
	}

	if err = s.store.Create(ctx, article); err != nil {
		return nil, err
	}
	article.User = caller

	s.logger.Infow("article created", "article_id", article.ID, "user_id", caller.ID, "published", article.Published)

	return article, nil
}

// Update sets title, content and, when given, the published flag in one
// atomic write. published_at is left as it is even when the flag flips.
func (s *Service) Update(ctx context.Context, caller *model.User, id uint, in Input) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.UpdateArticle, attribute.Int64("article.id", int64(id)))
	defer func() { s.finish(ctx, span, policy.UpdateArticle, err) }()

	if err = policy.Authorize(caller, policy.UpdateArticle); err != nil {
		return nil, err
	}

	article, err = s.store.Mutate(ctx, id, func(a *model.Article) error {
		a.Title = in.Title
		a.Content = in.Content
		if in.Published != nil {
			a.Published = *in.Published
		}

		return validation.Struct(a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("article updated", "article_id", id, "user_id", caller.ID, "published", article.Published)

	return article, nil
}

// Destroy deletes an article in either state.
func (s *Service) Destroy(ctx context.Context, caller *model.User, id uint) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.DestroyArticle, attribute.Int64("article.id", int64(id)))
	defer func() { s.finish(ctx, span, policy.DestroyArticle, err) }()

	if err = policy.Authorize(caller, policy.DestroyArticle); err != nil {
		return nil, err
	}

	article, err = s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("article destroyed", "article_id", id, "user_id", caller.ID)

	return article, nil
}

// Publish moves the article to Published and stamps published_at with the
// current time, also when it is already published.
func (s *Service) Publish(ctx context.Context, caller *model.User, id uint) (*model.Article, error) {
	return s.transition(ctx, caller, id, policy.PublishArticle, "publish", func(a *model.Article) {
		now := s.now()
		a.Published = true
		a.PublishedAt = &now
	})
}

// Unpublish moves the article back to Draft and clears published_at.
func (s *Service) Unpublish(ctx context.Context, caller *model.User, id uint) (*model.Article, error) {
	return s.transition(ctx, caller, id, policy.UnpublishArticle, "unpublish", func(a *model.Article) {
		a.Published = false
		a.PublishedAt = nil
	})
}

func (s *Service) transition(
	ctx context.Context, caller *model.User, id uint, op policy.Operation, name string, apply func(*model.Article),
) (article *model.Article, err error) {
	ctx, span := s.start(ctx, op, attribute.Int64("article.id", int64(id)))
	defer func() {
		s.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("transition", name),
			attribute.String("outcome", outcome(err)),
		))
		s.finish(ctx, span, op, err)
	}()

	if err = policy.Authorize(caller, op); err != nil {
		return nil, err
	}

	article, err = s.store.Mutate(ctx, id, func(a *model.Article) error {
		apply(a)

		return validation.Struct(a)
	})
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.logger.Warnw("article transition rejected", "article_id", id, "transition", name, "error", verr.Error())

			return nil, &apperrors.TransitionError{Transition: name, Err: verr}
		}

		return nil, err
	}

	s.logger.Infow("article transitioned", "article_id", id, "transition", name, "user_id", caller.ID)

	return article, nil
}

// Feed is the public listing: published articles, newest first.
func (s *Service) Feed(ctx context.Context) (articles []*model.Article, err error) {
	ctx, span := s.start(ctx, policy.ReadFeed)
	defer func() { s.finish(ctx, span, policy.ReadFeed, err) }()

	return s.store.Find(ctx, PublishedRecent)
}

// Read returns a published article. Drafts are reported as not found.
func (s *Service) Read(ctx context.Context, id uint) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.ReadArticle, attribute.Int64("article.id", int64(id)))
	defer func() { s.finish(ctx, span, policy.ReadArticle, err) }()

	return s.store.Get(ctx, id, Published)
}

// Preview lets an admin see any article the way the public would.
func (s *Service) Preview(ctx context.Context, caller *model.User, id uint) (article *model.Article, err error) {
	ctx, span := s.start(ctx, policy.PreviewArticle, attribute.Int64("article.id", int64(id)))
	defer func() { s.finish(ctx, span, policy.PreviewArticle, err) }()

	if err = policy.Authorize(caller, policy.PreviewArticle); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, id)
}

func (s *Service) start(ctx context.Context, op policy.Operation, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "article."+string(op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (s *Service) finish(ctx context.Context, span trace.Span, op policy.Operation, err error) {
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("outcome", outcome(err)),
	))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcome(err error) string {
	var (
		verr  *apperrors.ValidationError
		nferr *apperrors.NotFoundError
		aerr  *apperrors.AuthorizationError
		terr  *apperrors.TransitionError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &terr):
		return "rejected"
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &nferr):
		return "not_found"
	case errors.As(err, &aerr):
		return "denied"
	default:
		return "error"
	}
}
