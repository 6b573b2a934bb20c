package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cashpoint/internal/core/entity"
	"cashpoint/internal/core/id"
)

type MockCatalog struct {
	entity.Catalog
	Description string `db:"description" json:"description"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[MockCatalog]()

	expectedCols := []string{
		"id", "version", "created_at", "updated_at", "code", "name", "description",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	cat := MockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:        id.New(),
				Version:   5,
				CreatedAt: now,
				UpdatedAt: now,
			},
			Code: "TEST",
			Name: "Test Name",
		},
		Description: "demo",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "TEST", m["code"])
	assert.Equal(t, "Test Name", m["name"])
	assert.Equal(t, "demo", m["description"])
}
