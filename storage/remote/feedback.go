package remoterepos

import (
	"context"

	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/services/apiclient"
)

const feedbacksEndpoint = "/feedbacks"

type feedbackRepository struct {
	client *apiclient.Client
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(client *apiclient.Client) feedback.Repository {
	return &feedbackRepository{client: client}
}

func (repo *feedbackRepository) ListFeedbacks(ctx context.Context, page, limit int) (paging.Page[feedback.Feedback], error) {
	return apiclient.GetPage[feedback.Feedback](ctx, repo.client, feedbacksEndpoint, page, limit, nil)
}

func (repo *feedbackRepository) DeleteFeedback(ctx context.Context, id int) error {
	return notFound(repo.client.Delete(ctx, feedbacksEndpoint+"/"+itoa(id)), feedback.ErrNotFound)
}
