package echoapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhq/launchpad/core/progress"
	"github.com/padhq/launchpad/core/project"
	"github.com/padhq/launchpad/core/user"
)

type (
	progressDeps struct {
		projectSvc   project.ServiceInterface
		userSvc      user.ServiceInterface
		model        *progress.Model
		broker       *progress.Broker
		pollInterval time.Duration
	}

	progressApi struct {
		progressDeps
	}

	// SectionProgress is one section's computed readiness, in section
	// declaration order.
	SectionProgress struct {
		Section       project.Section `json:"section"`
		Weight        float64         `json:"weight"`
		Progress      int             `json:"progress"`
		MissingFields []string        `json:"missing_fields"`
	}

	ProgressResponse struct {
		ProjectID   string            `json:"project_id"`
		Progress    int               `json:"progress"`
		Sections    []SectionProgress `json:"sections"`
		LastUpdated time.Time         `json:"last_updated"`
	}
)

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps progressDeps) {
	api := progressApi{progressDeps: deps}

	pg := g.Group("/progress", jwt)
	dg := pg.Group("/:id", projectOwnerOrAdminMiddleware(deps.projectSvc, deps.userSvc))
	dg.GET("", api.retrieve)
	dg.POST("/recalculate", api.recalculate)
	dg.GET("/watch", api.watch)
}

// compute scores the project's current snapshot. Progress is always derived
// on demand; nothing persists a stale percentage.
func (api *progressApi) compute(projectID string) (ProgressResponse, error) {
	snap, err := api.projectSvc.GetSnapshot(projectID)
	if err != nil {
		return ProgressResponse{}, errors.Wrap(err, "getting snapshot")
	}
	res := api.model.Compute(snap)

	sections := make([]SectionProgress, 0, len(project.AllSections))
	for _, section := range project.AllSections {
		missing := res.Missing[section]
		if missing == nil {
			missing = []string{}
		}
		sections = append(sections, SectionProgress{
			Section:       section,
			Weight:        api.model.SectionWeight(section),
			Progress:      res.BySection[section],
			MissingFields: missing,
		})
	}

	return ProgressResponse{
		ProjectID:   projectID,
		Progress:    res.Overall,
		Sections:    sections,
		LastUpdated: snap.UpdatedAt,
	}, nil
}

// Handlers

func (api *progressApi) retrieve(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	res, err := api.compute(prj.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// recalculate forces a recomputation and tells every live progress view to
// refresh.
func (api *progressApi) recalculate(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	res, err := api.compute(prj.ID)
	if err != nil {
		return err
	}
	api.broker.ManualRefresh(prj.ID)
	return ctx.JSON(http.StatusOK, res)
}

var progressUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // auth happens at the JWT layer
}

// watch streams progress over a websocket. A fresh result is pushed on every
// invalidation event, with a poll-interval ticker as fallback for events the
// subscriber missed.
func (api *progressApi) watch(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	conn, err := progressUpgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}
	defer func() { _ = conn.Close() }()

	events, cancel := api.broker.Subscribe(prj.ID)
	defer cancel()

	// read pump; detects client close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		res, err := api.compute(prj.ID)
		if err != nil {
			return err
		}
		return conn.WriteJSON(res)
	}
	if err = send(); err != nil {
		return nil
	}

	ticker := time.NewTicker(api.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if err = send(); err != nil {
				return nil
			}
		case <-ticker.C:
			if err = send(); err != nil {
				return nil
			}
		}
	}
}
