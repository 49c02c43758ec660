package remoterepos

import (
	"context"

	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/services/apiclient"
)

const usersEndpoint = "/users"

type userRepository struct {
	client *apiclient.Client
}

var _ account.Repository = (*userRepository)(nil)

func NewUserRepository(client *apiclient.Client) account.Repository {
	return &userRepository{client: client}
}

func (repo *userRepository) ListUsers(ctx context.Context, page, limit int) (paging.Page[account.User], error) {
	return apiclient.GetPage[account.User](ctx, repo.client, usersEndpoint, page, limit, nil)
}

func (repo *userRepository) CreateUser(ctx context.Context, nu account.NewUser) (account.User, error) {
	var u account.User
	err := repo.client.Post(ctx, usersEndpoint, nu, &u)
	return u, err
}

func (repo *userRepository) UpdateUser(ctx context.Context, id int, uu account.UpdateUser) (account.User, error) {
	var u account.User
	err := repo.client.Put(ctx, usersEndpoint+"/"+itoa(id), uu, &u)
	return u, notFound(err, account.ErrNotFound)
}

func (repo *userRepository) SetUserStatus(ctx context.Context, id int, isActive bool) (account.User, error) {
	var u account.User
	err := repo.client.Patch(ctx, usersEndpoint+"/"+itoa(id)+"/status", account.UpdateStatus{IsActive: isActive}, &u)
	return u, notFound(err, account.ErrNotFound)
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	return notFound(repo.client.Delete(ctx, usersEndpoint+"/"+itoa(id)), account.ErrNotFound)
}

func (repo *userRepository) ListRoles(ctx context.Context) ([]account.Role, error) {
	roles := []account.Role{}
	err := repo.client.Get(ctx, usersEndpoint+"/roles", nil, &roles)
	return roles, err
}
