package juror

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireIndexConsistent(t *testing.T, p *Pool) {
	t.Helper()
	require.Len(t, p.index, len(p.members))
	for slot, account := range p.members {
		require.Equal(t, slot, p.index[account], "index for %s", account)
	}
}

func TestPoolAddRemove(t *testing.T) {
	p := NewPool()
	require.True(t, p.Add("a"))
	require.True(t, p.Add("b"))
	require.True(t, p.Add("c"))
	require.False(t, p.Add("b"))

	require.True(t, p.Remove("a"))
	assert.Equal(t, []string{"c", "b"}, p.Members())
	requireIndexConsistent(t, p)

	require.False(t, p.Remove("a"))
	require.True(t, p.Remove("b"))
	assert.Equal(t, []string{"c"}, p.Members())
	requireIndexConsistent(t, p)
}

func TestPoolRemoveLastSlot(t *testing.T) {
	p := NewPool()
	p.Add("a")
	p.Add("b")

	require.True(t, p.Remove("b"))
	assert.Equal(t, []string{"a"}, p.Members())
	assert.False(t, p.Contains("b"))
	requireIndexConsistent(t, p)
}

func TestPoolRemoveMovesOnlyTail(t *testing.T) {
	p := NewPool()
	for i := 0; i < 100; i++ {
		p.Add(fmt.Sprintf("juror-%02d", i))
	}

	require.True(t, p.Remove("juror-10"))

	members := p.Members()
	require.Len(t, members, 99)
	assert.Equal(t, "juror-99", members[10])
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("juror-%02d", i), members[i])
	}
	for i := 11; i < 99; i++ {
		assert.Equal(t, fmt.Sprintf("juror-%02d", i), members[i])
	}
	requireIndexConsistent(t, p)
}

func TestPoolChurnKeepsIndex(t *testing.T) {
	p := NewPool()
	for round := 0; round < 5; round++ {
		for i := 0; i < 20; i++ {
			p.Add(fmt.Sprintf("j%d", i))
		}
		for i := round; i < 20; i += 3 {
			p.Remove(fmt.Sprintf("j%d", i))
		}
		requireIndexConsistent(t, p)
	}
}

func TestPoolCloneIsIndependent(t *testing.T) {
	p := NewPool()
	p.Add("a")
	p.Add("b")

	clone := p.Clone()
	clone.Remove("a")

	assert.True(t, p.Contains("a"))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 1, clone.Len())
	requireIndexConsistent(t, clone)
}

func TestNilPoolReads(t *testing.T) {
	var p *Pool
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Contains("a"))
	assert.Nil(t, p.Members())
	assert.Equal(t, 0, p.Clone().Len())
}

func TestStateAvailable(t *testing.T) {
	assert.True(t, State{Registered: true, Stake: 1}.Available())
	assert.False(t, State{Registered: true, Stake: 0}.Available())
	assert.False(t, State{Registered: true, Serving: true, Stake: 1}.Available())
	assert.False(t, State{Stake: 1}.Available())
}

func TestPoolEqual(t *testing.T) {
	a := NewPool()
	a.Add("x")
	a.Add("y")
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Remove("x")
	b.Add("x")
	assert.False(t, a.Equal(b), "slot order differs")

	var nilPool *Pool
	assert.True(t, nilPool.Equal(NewPool()))
}
