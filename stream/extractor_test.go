package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFramework(t *testing.T) {
	tests := []struct {
		framework string
		want      Extractor
	}{
		{framework: "strands", want: &StrandsExtractor{}},
		{framework: "langgraph", want: &LangGraphExtractor{}},
		{framework: "  Strands ", want: &StrandsExtractor{}},
		{framework: "LangGraph", want: &LangGraphExtractor{}},
	}

	for _, tc := range tests {
		t.Run(tc.framework, func(t *testing.T) {
			e, err := ForFramework(tc.framework, nil)
			require.NoError(t, err)
			assert.IsType(t, tc.want, e)
		})
	}
}

func TestForFrameworkUnknown(t *testing.T) {
	for _, framework := range []string{"", "crewai", "bedrock"} {
		e, err := ForFramework(framework, nil)
		assert.Error(t, err)
		assert.Nil(t, e)
		assert.Contains(t, err.Error(), "unknown agent framework")
	}
}
