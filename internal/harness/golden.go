package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Predictory42/predictory/internal/ledger"
)

// RunWithGolden executes a scenario and compares the final-state snapshot
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected final balances.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshotJSON, err := ledger.MarshalCanonical(result.Snapshot)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshotJSON)

	return result, nil
}
