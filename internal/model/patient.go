// Package model holds the relational records served by the gateway.
package model

import "time"

// PatientIDTriplet links the three identifiers a patient is known by: the
// CMO patient id, the DMP patient id and the hospital MRN.
type PatientIDTriplet struct {
	CMOPatientID string    `json:"cmoPatientId" db:"cmo_patient_id"`
	DMPPatientID *string   `json:"dmpPatientId" db:"dmp_patient_id"`
	MRN          string    `json:"mrn" db:"mrn"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
