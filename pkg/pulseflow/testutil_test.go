package pulseflow

import (
	"sync/atomic"
	"testing"
	"time"
)

// testNode records lifecycle hook invocations. Counters are atomic so
// session tests can assert from a goroutine other than the scheduler's.
type testNode struct {
	BaseNode
	resets   atomic.Int32
	onStarts atomic.Int32
	stops    atomic.Int32
	appEnds  atomic.Int32
}

func newTestNode(name string) *testNode {
	return &testNode{BaseNode: NewBaseNode(name)}
}

func (n *testNode) Reset()            { n.resets.Add(1) }
func (n *testNode) OnStart()          { n.onStarts.Add(1) }
func (n *testNode) OnStop()           { n.stops.Add(1) }
func (n *testNode) OnApplicationEnd() { n.appEnds.Add(1) }

// testStartNode counts start updates and can fail on demand.
type testStartNode struct {
	testNode
	starts   atomic.Int32
	startErr error
}

func newTestStartNode(name string) *testStartNode {
	return &testStartNode{testNode: testNode{BaseNode: NewBaseNode(name)}}
}

func (n *testStartNode) StartUpdate() error {
	n.starts.Add(1)
	return n.startErr
}

// testFrameNode runs for a fixed number of frames (limit 0 = never
// finishes) and can fail at a given frame (failAt 0 = never fails).
type testFrameNode struct {
	testNode
	updates atomic.Int32
	limit   int32
	failAt  int32
	failErr error
}

func newTestFrameNode(name string, limit int32) *testFrameNode {
	return &testFrameNode{
		testNode: testNode{BaseNode: NewBaseNode(name)},
		limit:    limit,
	}
}

func (n *testFrameNode) Reset() {
	n.testNode.Reset()
	n.updates.Store(0)
}

func (n *testFrameNode) FrameUpdate() (bool, error) {
	u := n.updates.Add(1)
	if n.failAt > 0 && u >= n.failAt {
		return false, n.failErr
	}
	return true, nil
}

func (n *testFrameNode) Finished() bool {
	return n.limit > 0 && n.updates.Load() >= n.limit
}

// testRate keeps frame budgets small so tests finish quickly.
const testRate = 500.0

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}
