package seminarist

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
)

// Resource is the cache resource of participants.
const Resource = "seminaristes"

var (
	// errors
	ErrNotFound      = errors.New("séminariste introuvable")
	ErrNothingToEdit = errors.New("aucune modification")
)

type (
	Repository interface {
		ListParticipants(ctx context.Context, page, limit int) (paging.Page[Participant], error)
		GetParticipant(ctx context.Context, id int) (Participant, error)
		CreateParticipant(ctx context.Context, np NewParticipant) (Participant, error)
		// UpdateParticipant only sends the non-nil fields of up.
		UpdateParticipant(ctx context.Context, id int, up UpdateParticipant) (Participant, error)
		DeleteParticipant(ctx context.Context, id int) error
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

// Refresh is the coordinator callback of a client: a written participant list is fetched again,
// and note writes mark participants stale since the API mirrors entrance test notes into note_entree.
func (svc *Service) Refresh(ctx context.Context, resources []string) {
	for _, res := range resources {
		switch res {
		case Resource:
			// best effort, the next read fetches again on failure
			_, _ = svc.All(ctx)
		case grading.ResourceNotes:
			svc.cache.MarkStale(Resource)
		}
	}
}

// affected lists the resources a participant write can change: bulletins carry names and groups.
var affected = []string{Resource, grading.ResourceBulletins}

func (svc *Service) List(ctx context.Context, page, limit int) (paging.Page[Participant], error) {
	page, limit = paging.NormalizeParams(page, limit)
	key := cache.NewKey(Resource, "page", strconv.Itoa(page), "limit", strconv.Itoa(limit))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (paging.Page[Participant], error) {
		return svc.repo.ListParticipants(ctx, page, limit)
	})
}

// All walks every page of participants.
func (svc *Service) All(ctx context.Context) ([]Participant, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(Resource, "all", "1"), func(ctx context.Context) ([]Participant, error) {
		ps, err := paging.Collect(ctx, paging.MaxPageSize, svc.repo.ListParticipants)
		return ps, errors.Wrap(err, "listing participants")
	})
}

// Search filters every participant locally.
func (svc *Service) Search(ctx context.Context, qf QueryFilter) ([]Participant, error) {
	ps, err := svc.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(ps, qf), nil
}

func (svc *Service) Get(ctx context.Context, id int) (Participant, error) {
	key := cache.NewKey(Resource, "id", strconv.Itoa(id))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (Participant, error) {
		return svc.repo.GetParticipant(ctx, id)
	})
}

// GetByMatricule looks the participant up in the full collection.
func (svc *Service) GetByMatricule(ctx context.Context, matricule string) (Participant, error) {
	matricule = strings.ToUpper(core.CleanString(matricule))
	ps, err := svc.All(ctx)
	if err != nil {
		return Participant{}, err
	}
	for _, p := range ps {
		if p.Matricule == matricule {
			return p, nil
		}
	}
	return Participant{}, ErrNotFound
}

func (svc *Service) Create(ctx context.Context, np NewParticipant) (Participant, error) {
	if err := np.Validate(); err != nil {
		return Participant{}, err
	}
	var created Participant
	err := svc.mut.Run(ctx, mutation.Mutation{
		Kind:      mutation.KindCreate,
		Resources: affected,
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.CreateParticipant(ctx, np)
			return err
		},
	})
	return created, err
}

func (svc *Service) Update(ctx context.Context, id int, up UpdateParticipant) (Participant, error) {
	if up.IsEmpty() {
		return Participant{}, ErrNothingToEdit
	}
	if err := up.Validate(); err != nil {
		return Participant{}, err
	}
	return svc.update(ctx, id, up)
}

func (svc *Service) update(ctx context.Context, id int, up UpdateParticipant) (Participant, error) {
	var updated Participant
	err := svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindUpdate,
		Resources: affected,
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.UpdateParticipant(ctx, id, up)
			return err
		},
	})
	return updated, err
}

// Delete only issues the request when confirm returns true.
func (svc *Service) Delete(ctx context.Context, id int, confirm func() bool) error {
	return svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindDelete,
		Resources: []string{Resource, grading.ResourceBulletins, grading.ResourceNotes},
		Confirm:   confirm,
		Do: func(ctx context.Context) error {
			return svc.repo.DeleteParticipant(ctx, id)
		},
	})
}

// SetEntranceNote records the entrance test score of a participant and places them in a group
// of the score's band, keeping the two groups of the band balanced.
// A participant already in a group of the right band keeps it.
func (svc *Service) SetEntranceNote(ctx context.Context, id int, note float64) (Participant, error) {
	if !grading.ValidScore(note) {
		return Participant{}, core.NewValidationError(nil, core.FieldError{
			Field: "note_entree",
			Error: "la note doit être comprise entre 0 et 20",
		})
	}
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Participant{}, err
	}
	ps, err := svc.All(ctx)
	if err != nil {
		return Participant{}, err
	}

	niveau := p.Niveau
	if grading.BandOfGroup(niveau) != grading.BandFor(note) {
		balancer := grading.NewBalancer(grading.CountGroups(Niveaux(ps)))
		balancer.Release(p.Niveau)
		if niveau, err = balancer.Assign(note); err != nil {
			return Participant{}, err
		}
	}
	return svc.update(ctx, id, UpdateParticipant{NoteEntree: &note, Niveau: &niveau})
}

// Counts returns how many participants each group holds.
func (svc *Service) Counts(ctx context.Context) (map[string]int, error) {
	ps, err := svc.All(ctx)
	if err != nil {
		return nil, err
	}
	return grading.CountGroups(Niveaux(ps)), nil
}
