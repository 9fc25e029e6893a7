package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	names, err := List()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_restaurants.sql", "0002_reservations.sql", "0003_reservations_contact.sql"}, names)

	body, err := files.ReadFile(names[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), "hold_expires_at")
}
