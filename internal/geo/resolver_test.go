package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveKnownCity(t *testing.T) {
	t.Parallel()

	r := NewResolver(MergeTable(nil), zap.NewNop())
	require.Equal(t, "010000", r.Resolve("北京"))
	require.Equal(t, "020000", r.Resolve("上海"))
	require.Equal(t, NationwideCode, r.Resolve("全国"))
}

func TestResolveUnknownCityIsStable(t *testing.T) {
	t.Parallel()

	r := NewResolver(MergeTable(nil), zap.NewNop())
	for i := 0; i < 5; i++ {
		require.Equal(t, NationwideCode, r.Resolve("不存在的城市"))
	}
}

func TestMergeTableOverlay(t *testing.T) {
	t.Parallel()

	merged := MergeTable(map[string]string{"北京": "999999", "拉萨": "270200"})
	r := NewResolver(merged, zap.NewNop())
	require.Equal(t, "999999", r.Resolve("北京"))
	require.Equal(t, "270200", r.Resolve("拉萨"))
	require.Equal(t, "020000", r.Resolve("上海"))
}

func TestResolverCopiesTable(t *testing.T) {
	t.Parallel()

	table := map[string]string{"北京": "010000"}
	r := NewResolver(table, zap.NewNop())
	table["北京"] = "mutated"
	require.Equal(t, "010000", r.Resolve("北京"))
}
