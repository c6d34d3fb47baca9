package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validScenario = `
name: sample
description: sample scenario
state:
  authority: org
  multiplier: 10
  event_price: 50
  platform_fee: 10
  org_reward: 5
  completion_deadline: 100
  appellation_deadline: 100
steps:
  - at: 0
    op: user.create
    actor: org
    args: {name: "Org"}
`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, "org", s.State.Authority)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "user.create", s.Steps[0].Op)
}

func TestLoadScenarioRejectsUnknownField(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: sample
description: sample scenario
stat:
  authority: org
`))
	assert.Error(t, err)
}

func TestLoadScenarioRejectsUnknownOp(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: sample
description: sample scenario
state:
  authority: org
  multiplier: 10
steps:
  - at: 0
    op: user.obliterate
    actor: org
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown op")
}

func TestLoadScenarioRejectsTimeTravel(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: sample
description: sample scenario
state:
  authority: org
  multiplier: 10
steps:
  - at: 10
    op: user.create
    actor: org
    args: {name: "Org"}
  - at: 5
    op: user.withdraw
    actor: org
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time moves backwards")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
