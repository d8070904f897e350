package seed

import (
	"context"
	"errors"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Default catalog shape: four study years with two semesters each
const (
	DefaultYears            = 4
	DefaultSemestersPerYear = 2
)

// CreateDefaultData creates the default years and semesters if they don't exist.
// Existing rows are left alone, so it is safe to run on every start.
func CreateDefaultData(ctx context.Context, catalog services.CatalogService, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default catalog (Years/Semesters)...")

	tree, err := catalog.Tree(ctx)
	if err != nil {
		return err
	}
	existing := make(map[int]*models.Year, len(tree))
	for _, y := range tree {
		existing[y.Number] = y
	}

	var finalErr error // collect errors without stopping the process
	for number := 1; number <= DefaultYears; number++ {
		year, ok := existing[number]
		if !ok {
			year, err = catalog.CreateYear(ctx, number)
			if errors.Is(err, apperrors.ErrYearAlreadyExists) {
				// created concurrently by another instance
				continue
			}
			if err != nil {
				lgr.Error().Err(err).Int("year", number).Msg("Error creating default year")
				finalErr = errors.Join(finalErr, err)
				continue
			}
		}

		have := make(map[int]bool, len(year.Semesters))
		for _, s := range year.Semesters {
			have[s.Number] = true
		}
		for sem := 1; sem <= DefaultSemestersPerYear; sem++ {
			if have[sem] {
				continue
			}
			_, err := catalog.CreateSemester(ctx, year.ID, sem)
			if err != nil && !errors.Is(err, apperrors.ErrSemesterAlreadyExists) {
				lgr.Error().Err(err).Int("year", number).Int("semester", sem).Msg("Error creating default semester")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	lgr.Info().Msg("Default catalog check/creation finished.")
	return finalErr
}
