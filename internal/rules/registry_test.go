package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, spec Spec) *Rule {
	t.Helper()
	r, err := New(spec)
	require.NoError(t, err)
	return r
}

func TestNewRule(t *testing.T) {
	t.Run("rejects empty outputs", func(t *testing.T) {
		_, err := New(Spec{Name: "bad"})
		assert.Error(t, err)
	})

	t.Run("rejects both input forms", func(t *testing.T) {
		_, err := New(Spec{
			Name:     "bad",
			Outputs:  []string{"/out"},
			Inputs:   []string{"/in"},
			InputsFn: func(Wildcards) ([]string, error) { return nil, nil },
		})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(mustRule(t, Spec{Name: "a", Outputs: []string{"/a"}})))
		assert.Error(t, reg.Register(mustRule(t, Spec{Name: "a", Outputs: []string{"/b"}})))
	})
}

func TestRegistryMatch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(mustRule(t, Spec{
		Name:    "filter",
		Outputs: []string{"/data/runs/{run}/filtered/{features_label}/{output_label}.tsv"},
	})))
	require.NoError(t, reg.Register(mustRule(t, Spec{
		Name:    "aggregate",
		Outputs: []string{"/data/runs/{run}/features.tsv"},
	})))

	t.Run("unique match binds wildcards", func(t *testing.T) {
		rule, wc, err := reg.Match("/data/runs/panc/filtered/cnv/gene.tsv")
		require.NoError(t, err)
		assert.Equal(t, "filter", rule.Name())
		assert.Equal(t, "panc", wc["run"])
	})

	t.Run("no producer is a distinct error", func(t *testing.T) {
		_, _, err := reg.Match("/data/unclaimed.tsv")
		assert.ErrorIs(t, err, ErrNoRule)
	})

	t.Run("two claimants fail loudly naming both", func(t *testing.T) {
		require.NoError(t, reg.Register(mustRule(t, Spec{
			Name:    "rival",
			Outputs: []string{"/data/runs/{run}/features.tsv"},
		})))
		_, _, err := reg.Match("/data/runs/panc/features.tsv")
		require.ErrorIs(t, err, ErrAmbiguousRule)
		assert.Contains(t, err.Error(), "aggregate")
		assert.Contains(t, err.Error(), "rival")
	})
}

func TestRuleInstantiate(t *testing.T) {
	t.Run("static inputs substitute the bound wildcards", func(t *testing.T) {
		r := mustRule(t, Spec{
			Name:    "model",
			Outputs: []string{"/data/runs/{run}/models/{response}.model"},
			Inputs:  []string{"/data/runs/{run}/responses.tsv", "/data/runs/{run}/features.tsv"},
		})
		task, err := r.Instantiate(Wildcards{"run": "panc", "response": "drugX"})
		require.NoError(t, err)
		assert.Equal(t, "/data/runs/panc/models/drugX.model", task.Target())
		// Inputs come back in deterministic sorted order.
		assert.Equal(t, []string{
			"/data/runs/panc/features.tsv",
			"/data/runs/panc/responses.tsv",
		}, task.Inputs)
	})

	t.Run("inputs function receives the bound wildcards", func(t *testing.T) {
		var got Wildcards
		r := mustRule(t, Spec{
			Name:    "dyn",
			Outputs: []string{"/data/runs/{run}/responses.tsv"},
			InputsFn: func(wc Wildcards) ([]string, error) {
				got = wc
				return []string{"/data/response/B.tsv", "/data/response/A.tsv"}, nil
			},
		})
		task, err := r.Instantiate(Wildcards{"run": "panc"})
		require.NoError(t, err)
		assert.Equal(t, "panc", got["run"])
		assert.Equal(t, []string{"/data/response/A.tsv", "/data/response/B.tsv"}, task.Inputs)
	})
}
