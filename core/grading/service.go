package grading

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
)

// cache resources
const (
	ResourceNotes     = "notes"
	ResourceBulletins = "bulletins"
)

var (
	// errors
	ErrNoteNotFound     = errors.New("note introuvable")
	ErrNoteExists       = errors.New("une note existe déjà pour ce libellé")
	ErrBulletinNotFound = errors.New("bulletin introuvable")
)

type (
	Repository interface {
		// ListNotes returns one page of notes; matricule restricts them to one participant when not empty.
		ListNotes(ctx context.Context, page, limit int, matricule string) (paging.Page[Note], error)
		CreateNote(ctx context.Context, nn NewNote) (Note, error)
		UpdateNote(ctx context.Context, id int, un UpdateNote) (Note, error)
		DeleteNote(ctx context.Context, id int) error
		ListBulletins(ctx context.Context, page, limit int) (paging.Page[Bulletin], error)
		GetBulletin(ctx context.Context, matricule string) (Bulletin, error)
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

func (svc *Service) ListNotes(ctx context.Context, page, limit int) (paging.Page[Note], error) {
	page, limit = paging.NormalizeParams(page, limit)
	key := cache.NewKey(ResourceNotes, "page", strconv.Itoa(page), "limit", strconv.Itoa(limit))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (paging.Page[Note], error) {
		return svc.repo.ListNotes(ctx, page, limit, "")
	})
}

// AllNotes walks every page of notes.
func (svc *Service) AllNotes(ctx context.Context) ([]Note, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(ResourceNotes, "all", "1"), func(ctx context.Context) ([]Note, error) {
		return paging.Collect(ctx, paging.MaxPageSize, func(ctx context.Context, page, limit int) (paging.Page[Note], error) {
			return svc.repo.ListNotes(ctx, page, limit, "")
		})
	})
}

// NotesFor returns every note of one participant.
func (svc *Service) NotesFor(ctx context.Context, matricule string) ([]Note, error) {
	matricule = normalizeMatricule(matricule)
	return cache.Fetch(ctx, svc.cache, cache.NewKey(ResourceNotes, "matricule", matricule), func(ctx context.Context) ([]Note, error) {
		return paging.Collect(ctx, paging.MaxPageSize, func(ctx context.Context, page, limit int) (paging.Page[Note], error) {
			return svc.repo.ListNotes(ctx, page, limit, matricule)
		})
	})
}

// Search filters every note locally.
func (svc *Service) Search(ctx context.Context, qf QueryFilter) ([]Note, error) {
	notes, err := svc.AllNotes(ctx)
	if err != nil {
		return nil, err
	}
	return FilterNotes(notes, qf), nil
}

// CreateNote records a note. A slot (matricule, libelle) already filled locally is rejected
// before any request, and two concurrent creations of the same slot never both reach the API.
func (svc *Service) CreateNote(ctx context.Context, nn NewNote) (Note, error) {
	if err := nn.Validate(); err != nil {
		return Note{}, err
	}

	existing, err := svc.NotesFor(ctx, nn.Matricule)
	if err != nil {
		return Note{}, err
	}
	for _, n := range existing {
		if n.Libelle == nn.Libelle {
			return Note{}, core.NewValidationError(ErrNoteExists, core.FieldError{Field: "libelle", Error: ErrNoteExists.Error()})
		}
	}

	var created Note
	err = svc.mut.Run(ctx, mutation.Mutation{
		Key:       ResourceNotes + "|" + SlotKey(nn.Matricule, nn.Libelle),
		Kind:      mutation.KindCreate,
		Resources: []string{ResourceNotes, ResourceBulletins},
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.CreateNote(ctx, nn)
			return err
		},
	})
	return created, err
}

func (svc *Service) UpdateNote(ctx context.Context, id int, un UpdateNote) (Note, error) {
	if err := un.Validate(); err != nil {
		return Note{}, err
	}
	var updated Note
	err := svc.mut.Run(ctx, mutation.Mutation{
		Key:       ResourceNotes + "|" + strconv.Itoa(id),
		Kind:      mutation.KindUpdate,
		Resources: []string{ResourceNotes, ResourceBulletins},
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.UpdateNote(ctx, id, un)
			return err
		},
	})
	return updated, err
}

// DeleteNote only issues the request when confirm returns true.
func (svc *Service) DeleteNote(ctx context.Context, id int, confirm func() bool) error {
	return svc.mut.Run(ctx, mutation.Mutation{
		Key:       ResourceNotes + "|" + strconv.Itoa(id),
		Kind:      mutation.KindDelete,
		Resources: []string{ResourceNotes, ResourceBulletins},
		Confirm:   confirm,
		Do: func(ctx context.Context) error {
			return svc.repo.DeleteNote(ctx, id)
		},
	})
}

func (svc *Service) Bulletins(ctx context.Context) ([]Bulletin, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(ResourceBulletins, "all", "1"), func(ctx context.Context) ([]Bulletin, error) {
		return paging.Collect(ctx, paging.MaxPageSize, svc.repo.ListBulletins)
	})
}

func (svc *Service) ListBulletins(ctx context.Context, page, limit int) (paging.Page[Bulletin], error) {
	page, limit = paging.NormalizeParams(page, limit)
	key := cache.NewKey(ResourceBulletins, "page", strconv.Itoa(page), "limit", strconv.Itoa(limit))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (paging.Page[Bulletin], error) {
		return svc.repo.ListBulletins(ctx, page, limit)
	})
}

func (svc *Service) Bulletin(ctx context.Context, matricule string) (Bulletin, error) {
	matricule = normalizeMatricule(matricule)
	return cache.Fetch(ctx, svc.cache, cache.NewKey(ResourceBulletins, "matricule", matricule), func(ctx context.Context) (Bulletin, error) {
		return svc.repo.GetBulletin(ctx, matricule)
	})
}

// SearchBulletins filters every bulletin locally.
func (svc *Service) SearchBulletins(ctx context.Context, bf BulletinFilter) ([]Bulletin, error) {
	bs, err := svc.Bulletins(ctx)
	if err != nil {
		return nil, err
	}
	return FilterBulletins(bs, bf), nil
}

func normalizeMatricule(m string) string {
	return strings.ToUpper(core.CleanString(m))
}
