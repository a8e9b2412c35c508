package task

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pairGraph builds a graph with one owner holding exactly one lead/follow pair.
func pairGraph(t *testing.T) (*Graph, *Task, *Task) {
	t.Helper()
	g := NewGraph()
	lead := g.add("p1", false, mapdef.TaskTemplate{Name: "lead", Room: "a"}, MultiStepLead, true)
	follow := g.add("p1", false, mapdef.TaskTemplate{Name: "follow", Room: "b", Position: mapdef.Point{X: 10}}, MultiStepFollow, false)
	lead.PartnerID = follow.ID
	follow.PartnerID = lead.ID
	return g, lead, follow
}

func TestAssign_AlwaysFourCountableTasks(t *testing.T) {
	t.Parallel()

	m := mapdef.Default()
	seen := map[int]bool{}
	for seed := range uint64(300) {
		g := NewGraph()
		set := g.Assign("p1", false, m, newRand(seed), 4)

		require.Len(t, set, 4, "seed %d", seed)
		pairs := set.Pairs()
		assert.GreaterOrEqual(t, pairs, 0)
		assert.LessOrEqual(t, pairs, MaxPairs)
		seen[pairs] = true

		names := map[string]bool{}
		for _, task := range set {
			assert.False(t, names[task.Name], "task drawn twice for seed %d", seed)
			names[task.Name] = true
		}
	}
	assert.True(t, seen[0] && seen[1] && seen[2], "every pair count should occur across seeds")
}

func TestAssign_FollowStartsDisabledAndLinked(t *testing.T) {
	t.Parallel()

	m := mapdef.Default()
	for seed := range uint64(100) {
		g := NewGraph()
		for _, task := range g.Assign("p1", false, m, newRand(seed), 4) {
			switch task.Kind {
			case MultiStepFollow:
				assert.False(t, task.Enabled)
				lead, ok := g.Get(task.PartnerID)
				require.True(t, ok)
				assert.Equal(t, MultiStepLead, lead.Kind)
				assert.Equal(t, task.ID, lead.PartnerID)
			default:
				assert.True(t, task.Enabled)
			}
		}
	}
}

func TestAssign_SameSeedSameTasks(t *testing.T) {
	t.Parallel()

	m := mapdef.Default()
	a, b := NewGraph(), NewGraph()
	setA := a.Assign("p1", false, m, newRand(42), 4)
	setB := b.Assign("p1", false, m, newRand(42), 4)

	require.Len(t, setB, len(setA))
	for i := range setA {
		assert.Equal(t, setA[i].Name, setB[i].Name)
		assert.Equal(t, setA[i].ID, setB[i].ID)
	}
}

func TestAssign_SmallPoolsClampPairs(t *testing.T) {
	t.Parallel()

	m := &mapdef.Map{
		Tasks: []mapdef.TaskTemplate{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}},
	}
	g := NewGraph()
	set := g.Assign("p1", false, m, newRand(3), 4)
	assert.Len(t, set, 4)
	assert.Zero(t, set.Pairs())
}

func TestComplete_LeadEnablesFollow(t *testing.T) {
	t.Parallel()

	g, lead, follow := pairGraph(t)

	_, err := g.Complete(follow.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskDisabled)
	assert.False(t, follow.Completed, "follow must never complete while disabled")

	_, err = g.Complete(lead.ID)
	require.NoError(t, err)
	assert.True(t, lead.Completed)
	assert.True(t, follow.Enabled)

	_, err = g.Complete(follow.ID)
	require.NoError(t, err)
	assert.True(t, follow.Completed)
}

func TestComplete_Rejections(t *testing.T) {
	t.Parallel()

	g, lead, _ := pairGraph(t)

	_, err := g.Complete(99)
	assert.ErrorIs(t, err, apperrors.ErrUnknownTask)

	_, err = g.Complete(lead.ID)
	require.NoError(t, err)
	_, err = g.Complete(lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskCompleted)

	_, err = g.CompleteBy("p2", lead.PartnerID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotOwned)
}

func TestFollowInvariant_RandomOperations(t *testing.T) {
	t.Parallel()

	m := mapdef.Default()
	rng := newRand(9)
	g := NewGraph()
	g.Assign("p1", false, m, rng, 4)
	g.Assign("p2", false, m, rng, 4)

	for range 200 {
		_, _ = g.Complete(rng.IntN(len(g.All()) + 2))
		for _, task := range g.All() {
			if !task.Enabled {
				assert.False(t, task.Completed)
			}
		}
	}
}

func TestDecoyTasks(t *testing.T) {
	t.Parallel()

	m := mapdef.Default()
	g := NewGraph()
	g.Assign("crew", false, m, newRand(1), 4)
	decoys := g.Assign("imp", true, m, newRand(2), 4)

	_, total := g.Counts()
	assert.Equal(t, 4, total, "decoys are not counted")

	_, err := g.Start("imp", decoys[0].ID)
	require.NoError(t, err, "impostors may pretend to open a decoy")
	_, err = g.Complete(decoys[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskDisabled)
}

func TestProgress(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	assert.Zero(t, g.Progress())

	g, lead, follow := pairGraph(t)
	single := g.add("p1", false, mapdef.TaskTemplate{Name: "single"}, Single, true)
	g.add("p1", false, mapdef.TaskTemplate{Name: "other"}, Single, true)

	_, _ = g.Complete(lead.ID)
	assert.InDelta(t, 0.25, g.Progress(), 1e-9)
	_, _ = g.Complete(follow.ID)
	_, _ = g.Complete(single.ID)
	assert.InDelta(t, 0.75, g.Progress(), 1e-9)
}

func TestNearest(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	far := g.add("p1", false, mapdef.TaskTemplate{Name: "far", Room: "a", Position: mapdef.Point{X: 50}}, Single, true)
	tieA := g.add("p2", false, mapdef.TaskTemplate{Name: "tieA", Room: "a", Position: mapdef.Point{X: 10}}, Single, true)
	tieB := g.add("p1", false, mapdef.TaskTemplate{Name: "tieB", Room: "b", Position: mapdef.Point{X: -10}}, Single, true)
	disabled := g.add("p1", false, mapdef.TaskTemplate{Name: "off", Room: "b", Position: mapdef.Point{X: 1}}, MultiStepFollow, false)

	got, ok := g.Nearest(mapdef.Point{}, 100)
	require.True(t, ok)
	assert.Equal(t, tieA.ID, got.ID, "equal distance resolves to the lowest id")
	assert.NotEqual(t, disabled.ID, got.ID)

	got, ok = g.NearestFor("p1", mapdef.Point{}, 100)
	require.True(t, ok)
	assert.Equal(t, tieB.ID, got.ID)

	_, _ = g.Complete(tieA.ID)
	_, _ = g.Complete(tieB.ID)
	got, ok = g.Nearest(mapdef.Point{}, 100)
	require.True(t, ok)
	assert.Equal(t, far.ID, got.ID)

	_, ok = g.Nearest(mapdef.Point{}, 5)
	assert.False(t, ok)

	assert.Len(t, g.InRoom("a"), 2)
	assert.Len(t, g.InRoom("b"), 2)
	assert.Empty(t, g.InRoom("attic"))
}

func TestStartCancel(t *testing.T) {
	t.Parallel()

	g, lead, follow := pairGraph(t)

	_, err := g.Start("p1", follow.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskDisabled)
	_, err = g.Start("p2", lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotOwned)
	_, err = g.Start("p1", 42)
	assert.ErrorIs(t, err, apperrors.ErrUnknownTask)

	_, err = g.Start("p1", lead.ID)
	require.NoError(t, err)
	active, ok := g.Active("p1")
	require.True(t, ok)
	assert.Equal(t, lead.ID, active)

	id, ok := g.Cancel("p1")
	assert.True(t, ok)
	assert.Equal(t, lead.ID, id)
	assert.False(t, lead.Completed)
	assert.True(t, lead.Enabled)
	_, ok = g.Active("p1")
	assert.False(t, ok)

	_, ok = g.Cancel("p1")
	assert.False(t, ok)

	// completing an opened task closes it
	_, _ = g.Start("p1", lead.ID)
	_, _ = g.Complete(lead.ID)
	_, ok = g.Active("p1")
	assert.False(t, ok)

	_, err = g.Start("p1", lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskCompleted)
}
