package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babydessy/mutest-rs/internal/domain"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "mutest", configBaseName)
	assert.Equal(t, "mutest.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "parallel", runParallelFlagName)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, "analysis.call_graph_depth", callGraphDepthKey)
	assert.Equal(t, "batching.max_mutations", batchingMaxMutationsKey)
	assert.Equal(t, ".mutest-reports", defaultReportsDir)
	assert.Equal(t, "MUTEST", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

// rebindFlags points the viper keys back at flags nobody has set.
func rebindFlags() {
	newRootCmd().AddCommand(newAnalyzeCmd())
}

func TestConfigDefaults(t *testing.T) {
	rebindFlags()

	assert.Equal(t, 3, viper.GetInt(callGraphDepthKey))
	assert.Equal(t, 3, viper.GetInt(mutationDepthKey))
	assert.Equal(t, "none", viper.GetString(unsafeTargetingKey))
	assert.NotEmpty(t, viper.GetStringSlice(operatorsKey))
}

func TestBatchOptionsFromConfig(t *testing.T) {
	rebindFlags()

	t.Run("defaults", func(t *testing.T) {
		opts, err := batchOptionsFromConfig()
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultBatchOptions(), opts)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MUTEST_BATCHING_ALGORITHM", "annealing")
		t.Setenv("MUTEST_BATCHING_MAX_MUTATIONS", "8")

		opts, err := batchOptionsFromConfig()
		require.NoError(t, err)
		assert.Equal(t, domain.BatchAnnealing, opts.Algorithm)
		assert.Equal(t, 8, opts.MaxMutations)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Setenv("MUTEST_BATCHING_ALGORITHM", "tabu")

		_, err := batchOptionsFromConfig()
		require.Error(t, err)
	})
}
