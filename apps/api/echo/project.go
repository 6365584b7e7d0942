package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhq/launchpad/core/project"
	"github.com/padhq/launchpad/core/user"
)

var errPrjNotFoundInCtx = errors.New("project object not found in echo.Context")

type projectApi struct {
	svc      project.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerProjectAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc project.ServiceInterface,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := projectApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	pg := g.Group("/projects", jwt)
	pg.POST("", api.create, adminMiddleware())
	pg.GET("", api.query)

	// detail endpoints; visible to the owner and admins only
	dg := pg.Group("/:id", projectOwnerOrAdminMiddleware(svc, userSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())

	// launch-readiness record sections
	dg.PUT("/metrics", api.saveIDOMetrics)
	dg.PUT("/content", api.savePlatformContent)
	dg.PUT("/assets", api.saveMarketingAssets)
	dg.PUT("/faqs", api.saveFAQs)
	dg.PUT("/quiz", api.saveQuizQuestions)
}

// Handlers

func (api *projectApi) create(ctx echo.Context) error {
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}

	// default to ctxUser as owner
	if data.OwnerID == "" {
		ctxUsr, err := getContextUser(ctx, api.userSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		data.OwnerID = ctxUsr.ID
	}

	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	prj, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, prj)
}

// query lists all projects for admins, own projects for everyone else.
func (api *projectApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var projects []project.Project
	if ctxUsr.IsAdmin() {
		projects, err = api.svc.QueryAll()
	} else {
		projects, err = api.svc.FilterByOwner(ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

// retrieve returns the project's full launch-readiness record.
func (api *projectApi) retrieve(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	snap, err := api.svc.GetSnapshot(prj.ID)
	if err != nil {
		return errors.Wrap(err, "getting snapshot")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *projectApi) update(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data project.UpdateProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}

	// only admin may reassign ownership
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && data.OwnerID != "" && data.OwnerID != prj.OwnerID {
		return errHttpForbidden
	}

	if err := data.Validate(api.validate, prj, api.svc); err != nil {
		return err
	}

	prj, err = api.svc.Update(prj.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(prj.ID); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) saveIDOMetrics(ctx echo.Context) error {
	return api.saveSection(ctx, project.SectionIDOMetrics)
}

func (api *projectApi) savePlatformContent(ctx echo.Context) error {
	return api.saveSection(ctx, project.SectionPlatformContent)
}

func (api *projectApi) saveMarketingAssets(ctx echo.Context) error {
	return api.saveSection(ctx, project.SectionMarketingAssets)
}

func (api *projectApi) saveSection(ctx echo.Context, section project.Section) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data project.SaveFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrapf(err, "binding to SaveFields (%s)", section)
	}
	if err := data.Validate(api.validate, section); err != nil {
		return err
	}

	snap, err := api.svc.SaveSection(prj.ID, section, data)
	if err != nil {
		return errors.Wrapf(err, "saving %s", section)
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *projectApi) saveFAQs(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data project.SaveFAQs
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveFAQs")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	snap, err := api.svc.SaveFAQs(prj.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving FAQs")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *projectApi) saveQuizQuestions(ctx echo.Context) error {
	prj, ok := ctx.Get(contextObjectKey).(project.Project)
	if !ok {
		return errors.Wrap(errPrjNotFoundInCtx, "retrieving object from context")
	}

	var data project.SaveQuizQuestions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveQuizQuestions")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	snap, err := api.svc.SaveQuizQuestions(prj.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving quiz questions")
	}
	return ctx.JSON(http.StatusOK, snap)
}

// projectOwnerOrAdminMiddleware resolves the project and lets only its owner
// or an admin through. Anyone else gets a 404 rather than a 403, to not leak
// the project's existence.
func projectOwnerOrAdminMiddleware(svc project.ServiceInterface, userSvc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, userSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			prj, err := svc.GetByID(ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == project.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding project by ID")
			}

			if ctxUsr.IsAdmin() || prj.OwnerID == ctxUsr.ID {
				ctx.Set(contextObjectKey, prj)
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}
