package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/internal/report"
	"HiCGallery/internal/validator"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check [case-dir...]",
	Short: "Validate case folders",
	Long: `Validates the given case folders, or every case folder under the images
directory when none are given. Exits with status 1 when any case fails, so it
can gate a pull request.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var results []validator.Result
	if len(args) == 0 {
		var err error
		results, err = validator.ValidateTree(cfg.ImagesPath())
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("missing images directory %s", cfg.ImagesPath())
		}
		if err != nil {
			return err
		}
	} else {
		for _, dir := range args {
			res, err := validator.ValidateDir(dir)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
	}

	failed := validator.Failed(results)
	for _, r := range failed {
		logger.Debug("case failed validation", zap.String("case", r.Case), zap.Error(r.Err()))
	}

	out := cmd.OutOrStdout()
	var err error
	if checkJSON {
		err = report.JSON(out, results)
	} else {
		err = report.Text(out, results)
	}
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return errValidationFailed
	}
	return nil
}
