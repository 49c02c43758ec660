package account

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
)

// Resource is the cache resource of access accounts.
const Resource = "users"

var (
	// errors
	ErrNotFound         = errors.New("compte introuvable")
	ErrUsernameExists   = errors.New("ce nom d'utilisateur est déjà pris")
	ErrEmailExists      = errors.New("cette adresse email est déjà utilisée")
	ErrInvalidLogin     = errors.New("identifiant ou mot de passe incorrect")
	ErrInactive         = errors.New("ce compte est désactivé")
	ErrSelfModification = errors.New("vous ne pouvez pas désactiver ou supprimer votre propre compte")
)

type (
	Repository interface {
		ListUsers(ctx context.Context, page, limit int) (paging.Page[User], error)
		CreateUser(ctx context.Context, nu NewUser) (User, error)
		UpdateUser(ctx context.Context, id int, uu UpdateUser) (User, error)
		SetUserStatus(ctx context.Context, id int, isActive bool) (User, error)
		DeleteUser(ctx context.Context, id int) error
		ListRoles(ctx context.Context) ([]Role, error)
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

func (svc *Service) List(ctx context.Context, page, limit int) (paging.Page[User], error) {
	page, limit = paging.NormalizeParams(page, limit)
	key := cache.NewKey(Resource, "page", strconv.Itoa(page), "limit", strconv.Itoa(limit))
	return cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (paging.Page[User], error) {
		return svc.repo.ListUsers(ctx, page, limit)
	})
}

func (svc *Service) All(ctx context.Context) ([]User, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(Resource, "all", "1"), func(ctx context.Context) ([]User, error) {
		users, err := paging.Collect(ctx, paging.MaxPageSize, svc.repo.ListUsers)
		return users, errors.Wrap(err, "listing users")
	})
}

// Search filters every account locally.
func (svc *Service) Search(ctx context.Context, qf QueryFilter) ([]User, error) {
	users, err := svc.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(users, qf), nil
}

func (svc *Service) Get(ctx context.Context, id int) (User, error) {
	users, err := svc.All(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// Roles are fetched once per cache lifetime; AllRoles is the fallback when the endpoint yields nothing.
func (svc *Service) Roles(ctx context.Context) ([]Role, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(Resource, "roles", "1"), func(ctx context.Context) ([]Role, error) {
		roles, err := svc.repo.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			roles = Roles
		}
		return roles, nil
	})
}

// Create validates nu against the password policy before any request.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	var created User
	err := svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + nu.Username,
		Kind:      mutation.KindCreate,
		Resources: []string{Resource},
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.CreateUser(ctx, nu)
			return err
		},
	})
	return created, err
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	orig, err := svc.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(orig); err != nil {
		return User{}, err
	}
	var updated User
	err = svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindUpdate,
		Resources: []string{Resource},
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.UpdateUser(ctx, id, uu)
			return err
		},
	})
	return updated, err
}

// ToggleStatus flips is_active. current is the logged-in account, which cannot deactivate itself.
func (svc *Service) ToggleStatus(ctx context.Context, id int, current User) (User, error) {
	if id == current.ID {
		return User{}, ErrSelfModification
	}
	usr, err := svc.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	var updated User
	err = svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindToggle,
		Resources: []string{Resource},
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.SetUserStatus(ctx, id, !usr.IsActive)
			return err
		},
	})
	return updated, err
}

// Delete only issues the request when confirm returns true.
func (svc *Service) Delete(ctx context.Context, id int, current User, confirm func() bool) error {
	if id == current.ID {
		return ErrSelfModification
	}
	return svc.mut.Run(ctx, mutation.Mutation{
		Key:       Resource + "|" + strconv.Itoa(id),
		Kind:      mutation.KindDelete,
		Resources: []string{Resource},
		Confirm:   confirm,
		Do: func(ctx context.Context) error {
			return svc.repo.DeleteUser(ctx, id)
		},
	})
}
