package schema

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/model"
)

// PatientIDFinder looks up patient id triplets.
type PatientIDFinder interface {
	FindByPatientIDs(ctx context.Context, patientIDs []string) ([]model.PatientIDTriplet, error)
}

// MaxPatientIDs bounds one patientIdsTriplets lookup.
const MaxPatientIDs = 1000

var patientIDsTripletType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "PatientIdsTriplet",
	Description: "The CMO, DMP and MRN identifiers of one patient.",
	Fields: graphql.Fields{
		"CMO_ID": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(model.PatientIDTriplet).CMOPatientID, nil
			},
		},
		"DMP_ID": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if id := p.Source.(model.PatientIDTriplet).DMPPatientID; id != nil {
					return *id, nil
				}
				return nil, nil
			},
		},
		"PT_MRN": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(model.PatientIDTriplet).MRN, nil
			},
		},
	},
})

// NewRelationalSubschema builds the PostgreSQL-backed root fields.
func NewRelationalSubschema(finder PatientIDFinder) *Subschema {
	return &Subschema{
		Name: "postgres",
		Query: graphql.Fields{
			"patientIdsTriplets": &graphql.Field{
				Type: graphql.NewList(patientIDsTripletType),
				Args: graphql.FieldConfigArgument{
					"patientIds": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if _, err := RequireAuth(p.Context); err != nil {
						return nil, err
					}

					raw, _ := p.Args["patientIds"].([]interface{})
					ids := make([]string, 0, len(raw))
					for _, v := range raw {
						if s, ok := v.(string); ok && s != "" {
							ids = append(ids, s)
						}
					}
					if len(ids) > MaxPatientIDs {
						return nil, errs.NewBadRequestError("Too many patient ids in one request", true, nil, nil, nil)
					}
					if len(ids) == 0 {
						return []model.PatientIDTriplet{}, nil
					}

					return finder.FindByPatientIDs(p.Context, ids)
				},
			},
		},
	}
}
