package feedback

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
)

// Resource is the cache resource of feedbacks.
const Resource = "feedbacks"

var ErrNotFound = errors.New("avis introuvable")

type (
	Repository interface {
		ListFeedbacks(ctx context.Context, page, limit int) (paging.Page[Feedback], error)
		DeleteFeedback(ctx context.Context, id int) error
	}

	Service struct {
		repo  Repository
		cache *cache.Cache
		mut   *mutation.Coordinator
	}
)

func NewService(repo Repository, c *cache.Cache, mut *mutation.Coordinator) *Service {
	return &Service{repo: repo, cache: c, mut: mut}
}

func (svc *Service) List(ctx context.Context, page, limit int) (paging.Page[Feedback], error) {
	page, limit = paging.NormalizeParams(page, limit)
	key := cache.NewKey(Resource, "page", strconv.Itoa(page), "limit", strconv.Itoa(limit))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (paging.Page[Feedback], error) {
		return svc.repo.ListFeedbacks(ctx, page, limit)
	})
}

func (svc *Service) All(ctx context.Context) ([]Feedback, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(Resource, "all", "1"), func(ctx context.Context) ([]Feedback, error) {
		fs, err := paging.Collect(ctx, paging.MaxPageSize, svc.repo.ListFeedbacks)
		return fs, errors.Wrap(err, "listing feedbacks")
	})
}

// Search filters every feedback locally.
func (svc *Service) Search(ctx context.Context, qf QueryFilter) ([]Feedback, error) {
	fs, err := svc.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(fs, qf), nil
}

// Summary aggregates the feedbacks matching qf.
func (svc *Service) Summary(ctx context.Context, qf QueryFilter) (Summary, error) {
	fs, err := svc.Search(ctx, qf)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(fs), nil
}

// Delete only issues the request when confirm returns true.
func (svc *Service) Delete(ctx context.Context, id int, confirm func() bool) error {
	return svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindDelete,
		Resources: []string{Resource},
		Confirm:   confirm,
		Do: func(ctx context.Context) error {
			return svc.repo.DeleteFeedback(ctx, id)
		},
	})
}
