package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge-engine/pkg/models"
)

func annotationsWithTags(tags ...string) []*models.Annotation {
	out := make([]*models.Annotation, len(tags))
	for i, tag := range tags {
		out[i] = &models.Annotation{ID: uuid.New(), Tag: tag}
	}
	return out
}

func TestBuildClassMap_SortedAndDeduplicated(t *testing.T) {
	classes := BuildClassMap(annotationsWithTags("person", "car", "person", "bicycle", "car"))

	require.Equal(t, 3, classes.Len())
	assert.Equal(t, []string{"bicycle", "car", "person"}, classes.Names())

	idx, ok := classes.Index("bicycle")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = classes.Index("car")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = classes.Index("person")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestBuildClassMap_UnknownTag(t *testing.T) {
	classes := BuildClassMap(annotationsWithTags("car"))
	_, ok := classes.Index("plane")
	assert.False(t, ok)
}

func TestBuildClassMap_Empty(t *testing.T) {
	classes := BuildClassMap(nil)
	assert.Equal(t, 0, classes.Len())
	assert.Empty(t, classes.Names())
}

func TestBuildClassMap_Deterministic(t *testing.T) {
	a := BuildClassMap(annotationsWithTags("dog", "cat", "bird"))
	b := BuildClassMap(annotationsWithTags("bird", "dog", "cat"))
	assert.Equal(t, a.Names(), b.Names())
}
