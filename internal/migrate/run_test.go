package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_SortedAndEmbedded(t *testing.T) {
	files, err := pending()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_tab_storage.sql", files[0])
	assert.IsIncreasing(t, files)
}
