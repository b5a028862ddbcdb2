package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) backfill(ctx context.Context, target string) error {
	switch target {
	case "percentages":
		n, err := cli.quizSvc.BackfillPercentages(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d results updated\n", n)
	case "subscriptions":
		n, err := cli.subSvc.ApproveAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d subscriptions approved\n", n)
	default:
		return errors.Errorf("%q: unknown backfill target", target)
	}
	return nil
}
