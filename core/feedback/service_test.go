package feedback

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/services/apiclient"
)

type repoMock struct {
	feedbacks []Feedback
	lists     int
	deletes   int
}

func (r *repoMock) ListFeedbacks(ctx context.Context, page, limit int) (paging.Page[Feedback], error) {
	r.lists++
	return paging.Slice(r.feedbacks, page, limit), nil
}

func (r *repoMock) DeleteFeedback(ctx context.Context, id int) error {
	r.deletes++
	for i := range r.feedbacks {
		if r.feedbacks[i].ID == id {
			r.feedbacks = append(r.feedbacks[:i], r.feedbacks[i+1:]...)
			return nil
		}
	}
	return &apiclient.Error{Status: http.StatusNotFound, Kind: apiclient.KindNotFound}
}

func setup(t *testing.T, fs ...Feedback) (*Service, *repoMock) {
	t.Helper()
	repo := &repoMock{feedbacks: fs}
	c := cache.New()
	return NewService(repo, c, mutation.NewCoordinator(c)), repo
}

var samples = []Feedback{
	{ID: 1, Nom: "Awa", Sexe: "F", Organisation: 5, ContenuKiam: 4, Formations: 5, Dortoirs: 3, Nourriture: 2, NoteGlobale: 17, Recommande: true, Suggestions: "plus de sport"},
	{ID: 2, Sexe: "M", Organisation: 3, ContenuKiam: 4, Formations: 3, Dortoirs: 1, Nourriture: 4, NoteGlobale: 12, PointsApprecies: "les formations"},
	{ID: 3, Nom: "Moussa", Sexe: "M", Organisation: 4, ContenuKiam: 4, Formations: 4, Dortoirs: 2, Nourriture: 3, NoteGlobale: 14, Recommande: true},
}

func TestNewFeedbackValidate(t *testing.T) {
	valid := func() NewFeedback {
		return NewFeedback{Organisation: 5, ContenuKiam: 4, Formations: 3, Dortoirs: 2, Nourriture: 1, NoteGlobale: 15}
	}
	tests := []struct {
		name      string
		mutate    func(nf *NewFeedback)
		wantField string
	}{
		{name: "valid", mutate: func(nf *NewFeedback) {}},
		{name: "anonymous lower sexe", mutate: func(nf *NewFeedback) { nf.Sexe = " f " }},
		{name: "score too low", mutate: func(nf *NewFeedback) { nf.Organisation = 0 }, wantField: "organisation"},
		{name: "score too high", mutate: func(nf *NewFeedback) { nf.Nourriture = 6 }, wantField: "nourriture"},
		{name: "note globale", mutate: func(nf *NewFeedback) { nf.NoteGlobale = 21 }, wantField: "note_globale"},
		{name: "sexe", mutate: func(nf *NewFeedback) { nf.Sexe = "X" }, wantField: "sexe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nf := valid()
			tt.mutate(&nf)
			err := nf.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "got %T", err)
			assert.Contains(t, vErr.FieldMap(), tt.wantField)
		})
	}
}

func TestFilter(t *testing.T) {
	yes := true
	fourteen := 14.0
	tests := []struct {
		name   string
		qf     QueryFilter
		expect []int
	}{
		{name: "all", qf: QueryFilter{Sexe: "tous"}, expect: []int{1, 2, 3}},
		{name: "sexe", qf: QueryFilter{Sexe: "m"}, expect: []int{2, 3}},
		{name: "free text", qf: QueryFilter{Search: "formations"}, expect: []int{2}},
		{name: "recommande", qf: QueryFilter{Recommande: &yes}, expect: []int{1, 3}},
		{name: "min note", qf: QueryFilter{MinNoteGlobale: &fourteen}, expect: []int{1, 3}},
		{name: "none", qf: QueryFilter{Search: "cantine"}, expect: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []int{}
			for _, f := range Filter(samples, tt.qf) {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.expect, ids)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, 0, s.Count)
		assert.Len(t, s.Averages, len(ScoredCriteria))
		assert.Zero(t, s.RecommandeRate)
	})

	t.Run("averages", func(t *testing.T) {
		s := Summarize(samples)
		assert.Equal(t, 3, s.Count)
		assert.InDelta(t, 4.0, s.Averages[CritOrganisation], 1e-9)
		assert.InDelta(t, 4.0, s.Averages[CritContenuKiam], 1e-9)
		assert.InDelta(t, 2.0, s.Averages[CritDortoirs], 1e-9)
		assert.InDelta(t, 3.0, s.Averages[CritNourriture], 1e-9)
		assert.InDelta(t, 43.0/3, s.NoteGlobale, 1e-9)
		assert.InDelta(t, 2.0/3, s.RecommandeRate, 1e-9)
	})

	assert.Equal(t, "Anonyme", samples[1].Author())
	assert.Equal(t, 0, samples[0].Score("unknown"))
}

func TestService(t *testing.T) {
	svc, repo := setup(t, samples...)
	ctx := context.Background()

	s, err := svc.Summary(ctx, QueryFilter{Sexe: "M"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)

	_, err = svc.Search(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "collection served from cache")

	assert.Equal(t, mutation.ErrNotConfirmed, svc.Delete(ctx, 2, func() bool { return false }))
	assert.Equal(t, 0, repo.deletes)

	require.NoError(t, svc.Delete(ctx, 2, mutation.Confirmed))
	fs, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, fs, 2)

	err = svc.Delete(ctx, 42, mutation.Confirmed)
	assert.True(t, apiclient.IsKind(err, apiclient.KindNotFound))
}
