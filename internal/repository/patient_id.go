package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mandawilson/smile-dashboard/internal/lib/utils"
	"github.com/mandawilson/smile-dashboard/internal/model"
	"github.com/mandawilson/smile-dashboard/internal/sqlerr"
)

type PatientIDRepository struct {
	db Querier
}

func NewPatientIDRepository(db Querier) *PatientIDRepository {
	return &PatientIDRepository{db: db}
}

// FindByPatientIDs returns the triplets whose CMO patient id is in
// patientIDs, in id order. Unknown ids are skipped.
func (r *PatientIDRepository) FindByPatientIDs(ctx context.Context, patientIDs []string) ([]model.PatientIDTriplet, error) {
	ids := utils.UniqueStrings(patientIDs)
	if len(ids) == 0 {
		return []model.PatientIDTriplet{}, nil
	}

	stmt := `
		SELECT
			cmo_patient_id,
			dmp_patient_id,
			mrn,
			created_at,
			updated_at
		FROM
			patient_id_triplets
		WHERE
			cmo_patient_id = ANY(@ids)
		ORDER BY
			cmo_patient_id
	`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	triplets, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.PatientIDTriplet])
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return triplets, nil
}
