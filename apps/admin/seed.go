package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

type seedStage struct {
	name     string
	grades   []string
	subjects []string
}

var sampleCurriculum = []seedStage{
	{
		name:     "Primary",
		grades:   []string{"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5", "Grade 6"},
		subjects: []string{"Mathematics", "English", "Science"},
	},
	{
		name:     "Lower Secondary",
		grades:   []string{"Grade 7", "Grade 8", "Grade 9"},
		subjects: []string{"Mathematics", "English", "Physics", "Biology", "History"},
	},
	{
		name:     "Upper Secondary",
		grades:   []string{"Grade 10", "Grade 11", "Grade 12"},
		subjects: []string{"Mathematics", "English", "Physics", "Chemistry", "Biology"},
	},
}

// seed creates the admin account (when email is set) and the sample curriculum (when none exists yet).
func (cli *commandLine) seed(ctx context.Context, email, name, pwd string) error {
	if email != "" {
		if _, err := cli.usrSvc.GetByEmail(ctx, email); err == nil {
			fmt.Fprintf(cli.out, "admin %s already exists\n", email)
		} else if errors.Cause(err) != user.ErrNotFound {
			return err
		} else {
			admin, err := cli.usrSvc.Create(ctx, user.NewUser{Name: name, Email: email, Password: pwd, Role: user.RoleAdmin})
			if err != nil {
				return errors.Wrap(err, "creating admin")
			}
			fmt.Fprintf(cli.out, "admin %s created\n", admin.Email)
		}
	}

	stages, err := cli.curSvc.Stages(ctx)
	if err != nil {
		return err
	}
	if len(stages) > 0 {
		fmt.Fprintln(cli.out, "curriculum already seeded")
		return nil
	}

	var subjects int
	for _, ss := range sampleCurriculum {
		stage, err := cli.curSvc.CreateStage(ctx, curriculum.NewStage{Name: ss.name})
		if err != nil {
			return errors.Wrapf(err, "creating stage %q", ss.name)
		}
		for _, gname := range ss.grades {
			grade, err := cli.curSvc.CreateGrade(ctx, curriculum.NewGrade{Name: gname, StageID: stage.ID})
			if err != nil {
				return errors.Wrapf(err, "creating grade %q", gname)
			}
			for _, sname := range ss.subjects {
				if _, err = cli.curSvc.CreateSubject(ctx, curriculum.NewSubject{Name: sname, GradeID: grade.ID}); err != nil {
					return errors.Wrapf(err, "creating subject %q", sname)
				}
				subjects++
			}
		}
	}
	fmt.Fprintf(cli.out, "curriculum seeded: %d stages, %d subjects\n", len(sampleCurriculum), subjects)
	return nil
}
