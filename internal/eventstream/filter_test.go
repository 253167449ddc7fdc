package eventstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineOnlyOrNodesOnlyIsUnion(t *testing.T) {
	f := PipelineOnly.Or(NodesOnly)
	assert.True(t, f.Accepts(EventPipelineStarted))
	assert.True(t, f.Accepts(EventNodeStarted))
	assert.False(t, f.Accepts(EventTransformProgress))
}

func TestAllAndOnlyIsOnly(t *testing.T) {
	f := All.And(Only(EventNodeFailed))
	assert.True(t, f.Accepts(EventNodeFailed))
	assert.False(t, f.Accepts(EventNodeStarted))
}

func TestOnlyOrNoneIsOnly(t *testing.T) {
	f := Only(EventNodeFailed).Or(None)
	assert.True(t, f.Accepts(EventNodeFailed))
	assert.False(t, f.Accepts(EventNodeStarted))
}

func TestOnlyAndNoneIsNone(t *testing.T) {
	f := Only(EventNodeFailed).And(None)
	assert.False(t, f.Accepts(EventNodeFailed))
	assert.False(t, f.Accepts(EventNodeStarted))
}

func TestExceptIsAllMinusBlacklist(t *testing.T) {
	f := Except(EventNodeFailed)
	assert.False(t, f.Accepts(EventNodeFailed))
	assert.True(t, f.Accepts(EventNodeStarted))
}
