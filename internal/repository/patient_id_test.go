package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows serves fixed rows through the pgx.Rows interface.
type fakeRows struct {
	columns []string
	values  [][]any
	pos     int
	closed  bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.pos-1]
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(row[i]))
	}
	return nil
}

type fakeQuerier struct {
	sql  string
	args []any
	rows *fakeRows
	err  error
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

var tripletColumns = []string{"cmo_patient_id", "dmp_patient_id", "mrn", "created_at", "updated_at"}

func TestFindByPatientIDs(t *testing.T) {
	dmp := "P-0000001"
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: &fakeRows{
		columns: tripletColumns,
		values: [][]any{
			{"C-AAA111", &dmp, "11111111", now, now},
			{"C-BBB222", (*string)(nil), "22222222", now, now},
		},
	}}

	triplets, err := NewPatientIDRepository(q).FindByPatientIDs(context.Background(), []string{"C-AAA111", " C-BBB222", "C-AAA111", ""})
	require.NoError(t, err)
	require.Len(t, triplets, 2)

	assert.Equal(t, "C-AAA111", triplets[0].CMOPatientID)
	assert.Equal(t, "P-0000001", *triplets[0].DMPPatientID)
	assert.Nil(t, triplets[1].DMPPatientID)
	assert.True(t, q.rows.closed)

	assert.Contains(t, q.sql, "cmo_patient_id = ANY(@ids)")
	require.Len(t, q.args, 1)
	assert.Equal(t, pgx.NamedArgs{"ids": []string{"C-AAA111", "C-BBB222"}}, q.args[0])
}

func TestFindByPatientIDsEmpty(t *testing.T) {
	q := &fakeQuerier{}
	triplets, err := NewPatientIDRepository(q).FindByPatientIDs(context.Background(), []string{" ", ""})
	require.NoError(t, err)
	assert.Empty(t, triplets)
	assert.Empty(t, q.sql, "no query for blank ids")
}

func TestFindByPatientIDsMapsDriverErrors(t *testing.T) {
	q := &fakeQuerier{err: &pgconn.PgError{Code: "42P01", Message: `relation "patient_id_triplets" does not exist`}}

	_, err := NewPatientIDRepository(q).FindByPatientIDs(context.Background(), []string{"C-1"})
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", httpErr.Code)
	assert.NotContains(t, httpErr.Message, "patient_id_triplets")
}
