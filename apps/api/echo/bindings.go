package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/swap"
)

var (
	orderingParam     = "ordering"
	fastSwapOnlyParam = "fast_swap_only"
	levelStrictParam  = "level_strict"
	limitParam        = "limit"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// MatchQuery holds the per request matching flags. Flags left out keep the service defaults.
type MatchQuery struct {
	Options swap.Options
	Limit   int
}

func (q *MatchQuery) Bind(ctx echo.Context, defaults swap.Options) error {
	q.Options = defaults
	if err := bindBool(ctx, fastSwapOnlyParam, &q.Options.FastSwapOnly); err != nil {
		return err
	}
	if err := bindBool(ctx, levelStrictParam, &q.Options.LevelStrict); err != nil {
		return err
	}
	if val := ctx.QueryParam(limitParam); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 0 {
			return invalidParam(limitParam)
		}
		q.Limit = limit
	}
	return nil
}

func bindBool(ctx echo.Context, param string, dst *bool) error {
	val := ctx.QueryParam(param)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return invalidParam(param)
	}
	*dst = b
	return nil
}

func bindID(ctx echo.Context, param string) (int, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(val)
	if err != nil || id < 0 {
		return 0, invalidParam(param)
	}
	return id, nil
}
