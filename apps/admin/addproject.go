package main

import (
	"time"

	"github.com/padhq/launchpad/core"
	"github.com/padhq/launchpad/core/project"
)

// addProject creates a project owned by an existing user.
func (cli *commandLine) addProject(name, slug, owner string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(core.CleanString(owner, true /* lower */))
	if err != nil {
		return err
	}

	slug = core.CleanString(slug, true /* lower */)
	if err := cli.prjRepo.CheckSlugUniqueness(slug); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = cli.prjRepo.CreateProject(project.Project{
		OwnerID:   usr.ID,
		Name:      core.CleanString(name),
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}
