package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crewtransit/internal/core/entity"
	"crewtransit/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "attributes", "code", "name"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "HOTEL-PTY",
		Name: "Hotel Panama City",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "HOTEL-PTY", m["code"])
	assert.Equal(t, "Hotel Panama City", m["name"])
}

func TestStructToMap_SkipsUntaggedFields(t *testing.T) {
	type withLines struct {
		Code  string   `db:"code"`
		Lines []string `db:"-"`
	}

	m := StructToMap(withLines{Code: "X", Lines: []string{"a"}})

	assert.Equal(t, "X", m["code"])
	_, hasLines := m["-"]
	assert.False(t, hasLines)
	assert.Len(t, m, 1)
}
