package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padhq/launchpad/core"
)

// appBinder treats an empty request body as the zero payload so that struct
// validation reports the missing fields, instead of echo's blanket
// "Request body can't be empty" error.
type appBinder struct {
	defaultBinder echo.DefaultBinder
}

func (b *appBinder) Bind(i interface{}, ctx echo.Context) error {
	req := ctx.Request()
	if req.ContentLength == 0 && req.Method != http.MethodGet && req.Method != http.MethodDelete {
		return nil
	}
	return b.defaultBinder.Bind(i, ctx)
}

var orderingParam = "ordering"

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
