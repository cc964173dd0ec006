package validation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinerec/pkg/models"
)

func validDigest() models.DigestEvent {
	return models.DigestEvent{
		EventID: uuid.New(),
		UserID:  uuid.New(),
		Movies: []models.DigestMovie{{
			MovieID:       uuid.New(),
			Title:         "Heat",
			Genres:        []string{"Crime"},
			AverageRating: 4.5,
			Votes:         2,
		}},
		GeneratedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestSchemaValidator_Digest(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)
	assert.True(t, sv.SchemaExists(RecommendationDigestSchema))

	t.Run("valid", func(t *testing.T) {
		result := sv.ValidateDigest(validDigest())
		assert.True(t, result.Valid, "%v", result.Errors)
		assert.NoError(t, result.Err())
	})

	t.Run("empty movie list", func(t *testing.T) {
		event := validDigest()
		event.Movies = []models.DigestMovie{}
		result := sv.ValidateDigest(event)
		assert.False(t, result.Valid)
		assert.Error(t, result.Err())
	})

	t.Run("rating out of range", func(t *testing.T) {
		event := validDigest()
		event.Movies[0].AverageRating = 7
		assert.False(t, sv.ValidateDigest(event).Valid)
	})

	t.Run("zero votes", func(t *testing.T) {
		event := validDigest()
		event.Movies[0].Votes = 0
		assert.False(t, sv.ValidateDigest(event).Valid)
	})
}

func TestSchemaValidator_ErrorResponse(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)

	valid := `{"error":{"code":"USER_NOT_FOUND","message":"User not found"}}`
	assert.True(t, sv.ValidateErrorResponse(valid).Valid)

	invalid := `{"error":{"code":"TEAPOT","message":"I'm a teapot"}}`
	result := sv.ValidateErrorResponse(invalid)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "VALIDATION_ERROR", result.Errors[0].Code)
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	result := NewSchemaValidator().ValidateDigest(validDigest())
	assert.False(t, result.Valid)
	assert.Equal(t, "SCHEMA_NOT_FOUND", result.Errors[0].Code)
}
