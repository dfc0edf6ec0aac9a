package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ose-micro/mediator/middleware"
)

func TestSendCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"send", "--meeting", "3", "--user", "9"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "user 9 joined meeting 3 (1 participants)\n", out.String())
}

func TestSendCommand_ValidationFails(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"send", "--meeting", "0"})

	assert.ErrorIs(t, root.Execute(), middleware.ErrValidation)
}

func TestListenCommand_RequiresBroker(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"listen"})

	assert.EqualError(t, root.Execute(), "no broker configured")
}
