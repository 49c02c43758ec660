package remoterepos

import (
	"context"

	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/services/apiclient"
)

const (
	notesEndpoint     = "/notes"
	bulletinsEndpoint = "/bulletins"
)

type gradingRepository struct {
	client *apiclient.Client
}

var _ grading.Repository = (*gradingRepository)(nil)

func NewGradingRepository(client *apiclient.Client) grading.Repository {
	return &gradingRepository{client: client}
}

func (repo *gradingRepository) ListNotes(ctx context.Context, page, limit int, matricule string) (paging.Page[grading.Note], error) {
	var params map[string]string
	if matricule != "" {
		params = map[string]string{"matricule": matricule}
	}
	return apiclient.GetPage[grading.Note](ctx, repo.client, notesEndpoint, page, limit, params)
}

func (repo *gradingRepository) CreateNote(ctx context.Context, nn grading.NewNote) (grading.Note, error) {
	var n grading.Note
	err := repo.client.Post(ctx, notesEndpoint, nn, &n)
	return n, conflict(err, grading.ErrNoteExists)
}

func (repo *gradingRepository) UpdateNote(ctx context.Context, id int, un grading.UpdateNote) (grading.Note, error) {
	var n grading.Note
	err := repo.client.Put(ctx, notesEndpoint+"/"+itoa(id), un, &n)
	return n, notFound(err, grading.ErrNoteNotFound)
}

func (repo *gradingRepository) DeleteNote(ctx context.Context, id int) error {
	return notFound(repo.client.Delete(ctx, notesEndpoint+"/"+itoa(id)), grading.ErrNoteNotFound)
}

func (repo *gradingRepository) ListBulletins(ctx context.Context, page, limit int) (paging.Page[grading.Bulletin], error) {
	return apiclient.GetPage[grading.Bulletin](ctx, repo.client, bulletinsEndpoint, page, limit, nil)
}

func (repo *gradingRepository) GetBulletin(ctx context.Context, matricule string) (grading.Bulletin, error) {
	var b grading.Bulletin
	err := repo.client.Get(ctx, bulletinsEndpoint+"/"+matricule, nil, &b)
	return b, notFound(err, grading.ErrBulletinNotFound)
}
