// Package testutil provides a seeded SQLite database shared by the query
// layer tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rulesort/internal/schema"
	"github.com/roach88/rulesort/internal/store"
)

// PeopleSchema maps the fixture tables:
//
//	Person  (id, name, age)        address → Address, pets ← Pet.owner_id
//	Address (id, city)             country → Country
//	Country (id, name)
//	Pet     (id, petName→pet_name)
func PeopleSchema() *schema.Schema {
	return schema.MustNew(
		schema.Entity{
			Name:   "Person",
			Table:  "person",
			Fields: []schema.Field{{Name: "id"}, {Name: "name"}, {Name: "age"}},
			Associations: []schema.Association{
				{Name: "address", Target: "Address", JoinColumn: "address_id"},
				{Name: "pets", Target: "Pet", JoinColumn: "owner_id", Inverse: true},
			},
		},
		schema.Entity{
			Name:   "Address",
			Table:  "address",
			Fields: []schema.Field{{Name: "id"}, {Name: "city"}},
			Associations: []schema.Association{
				{Name: "country", Target: "Country", JoinColumn: "country_id"},
			},
		},
		schema.Entity{
			Name:   "Country",
			Table:  "country",
			Fields: []schema.Field{{Name: "id"}, {Name: "name"}},
		},
		schema.Entity{
			Name:   "Pet",
			Table:  "pet",
			Fields: []schema.Field{{Name: "id"}, {Name: "petName", Column: "pet_name"}},
		},
	)
}

const peopleDDL = `
CREATE TABLE country (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE address (id INTEGER PRIMARY KEY, city TEXT NOT NULL, country_id INTEGER REFERENCES country(id));
CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER, address_id INTEGER REFERENCES address(id));
CREATE TABLE pet (id INTEGER PRIMARY KEY, pet_name TEXT NOT NULL, owner_id INTEGER REFERENCES person(id));
`

// PeopleStore opens a temporary SQLite database seeded with:
//
//	id name age city       country
//	1  ada  36  Oslo       Norway    pets Rex, Tom
//	2  bob  25  Bergen     Norway
//	3  cid  25  Stockholm  Sweden    pet Kit
//	4  dan  52  -          -
//	5  eve  30  Oslo       Norway
func PeopleStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "people.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	seedPeople(t, s)
	return s
}

// PeopleDatabase writes the PeopleStore fixture to a temporary SQLite file
// and returns its path. The database is closed on return.
func PeopleDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")
	s, err := store.Open(store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	seedPeople(t, s)
	return path
}

func seedPeople(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.ExecScript(ctx, peopleDDL); err != nil {
		t.Fatalf("create tables: %v", err)
	}

	seed := []struct {
		table string
		rows  []store.Row
	}{
		{"country", []store.Row{
			{"id": 1, "name": "Norway"},
			{"id": 2, "name": "Sweden"},
		}},
		{"address", []store.Row{
			{"id": 1, "city": "Oslo", "country_id": 1},
			{"id": 2, "city": "Bergen", "country_id": 1},
			{"id": 3, "city": "Stockholm", "country_id": 2},
		}},
		{"person", []store.Row{
			{"id": 1, "name": "ada", "age": 36, "address_id": 1},
			{"id": 2, "name": "bob", "age": 25, "address_id": 2},
			{"id": 3, "name": "cid", "age": 25, "address_id": 3},
			{"id": 4, "name": "dan", "age": 52, "address_id": nil},
			{"id": 5, "name": "eve", "age": 30, "address_id": 1},
		}},
		{"pet", []store.Row{
			{"id": 1, "pet_name": "Rex", "owner_id": 1},
			{"id": 2, "pet_name": "Tom", "owner_id": 1},
			{"id": 3, "pet_name": "Kit", "owner_id": 3},
		}},
	}
	for _, fixture := range seed {
		if err := s.Insert(ctx, fixture.table, fixture.rows...); err != nil {
			t.Fatalf("seed %s: %v", fixture.table, err)
		}
	}
}
