package remoterepos

import (
	"context"

	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
	"github.com/trezcool/kiam/services/apiclient"
)

const seminaristesEndpoint = "/seminaristes"

type participantRepository struct {
	client *apiclient.Client
}

var _ seminarist.Repository = (*participantRepository)(nil)

func NewParticipantRepository(client *apiclient.Client) seminarist.Repository {
	return &participantRepository{client: client}
}

func (repo *participantRepository) ListParticipants(ctx context.Context, page, limit int) (paging.Page[seminarist.Participant], error) {
	return apiclient.GetPage[seminarist.Participant](ctx, repo.client, seminaristesEndpoint, page, limit, nil)
}

func (repo *participantRepository) GetParticipant(ctx context.Context, id int) (seminarist.Participant, error) {
	var p seminarist.Participant
	err := repo.client.Get(ctx, seminaristesEndpoint+"/"+itoa(id), nil, &p)
	return p, notFound(err, seminarist.ErrNotFound)
}

func (repo *participantRepository) CreateParticipant(ctx context.Context, np seminarist.NewParticipant) (seminarist.Participant, error) {
	var p seminarist.Participant
	err := repo.client.Post(ctx, seminaristesEndpoint, np, &p)
	return p, err
}

// UpdateParticipant sends a PATCH: nil fields are omitted from the body.
func (repo *participantRepository) UpdateParticipant(ctx context.Context, id int, up seminarist.UpdateParticipant) (seminarist.Participant, error) {
	var p seminarist.Participant
	err := repo.client.Patch(ctx, seminaristesEndpoint+"/"+itoa(id), up, &p)
	return p, notFound(err, seminarist.ErrNotFound)
}

func (repo *participantRepository) DeleteParticipant(ctx context.Context, id int) error {
	return notFound(repo.client.Delete(ctx, seminaristesEndpoint+"/"+itoa(id)), seminarist.ErrNotFound)
}
