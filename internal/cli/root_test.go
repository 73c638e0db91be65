package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "supply", cmd.Use)
	assert.Contains(t, cmd.Long, "single-writer")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "status", "order", "reset", "account", "orders"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "configs/config.yaml", configFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	headerFlag := cmd.PersistentFlags().Lookup("identity-header")
	require.NotNil(t, headerFlag)
	assert.Equal(t, "X-Account-ID", headerFlag.DefValue)
}

func TestOrderCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	orderCmd, _, err := cmd.Find([]string{"order"})
	require.NoError(t, err)

	accountFlag := orderCmd.Flags().Lookup("account")
	require.NotNil(t, accountFlag)
	assert.Equal(t, "a", accountFlag.Shorthand)

	quantityFlag := orderCmd.Flags().Lookup("quantity")
	require.NotNil(t, quantityFlag)
	assert.Equal(t, "1", quantityFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"status", "--format", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
