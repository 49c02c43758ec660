package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/kiam/core/paging"
)

const (
	pageParam    = "page"
	limitParam   = "limit"
	contextIDKey = "objectID"
)

// PageQuery is the pagination of a list request, clamped like every list endpoint does.
type PageQuery struct {
	Page  int
	Limit int
}

func (pq *PageQuery) Bind(ctx echo.Context) {
	atoi := func(name string) int {
		n, _ := strconv.Atoi(ctx.QueryParam(name))
		return n
	}
	pq.Page, pq.Limit = paging.NormalizeParams(atoi(pageParam), atoi(limitParam))
}

func bindPage(ctx echo.Context) PageQuery {
	var pq PageQuery
	pq.Bind(ctx)
	return pq
}

func idParam(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func contextID(ctx echo.Context) int {
	id, _ := ctx.Get(contextIDKey).(int)
	return id
}

// pageJSON writes a page, never with a null data field.
func pageJSON[T any](ctx echo.Context, page paging.Page[T]) error {
	if page.Data == nil {
		page.Data = []T{}
	}
	return ctx.JSON(http.StatusOK, page)
}
