package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContents(t *testing.T) {
	contents, system := buildContents([]Message{
		{Role: RoleSystem, Content: "ticket context"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "status?"},
	})

	require.NotNil(t, system)
	assert.Equal(t, "ticket context", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "status?", contents[2].Parts[0].Text)
}

func TestBuildContentsWithoutSystem(t *testing.T) {
	contents, system := buildContents([]Message{{Role: RoleUser, Content: "hi"}})
	assert.Nil(t, system)
	require.Len(t, contents, 1)
}
