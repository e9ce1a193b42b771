package vfs_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midbel/gorg/vfs"
)

func TestTracker(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		tr := vfs.NewTracker(true)
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		assert.Equal(t, 1, tr.Len())
	})
	t.Run("first-seen-order", func(t *testing.T) {
		tr := vfs.NewTracker(true)
		tr.Record(vfs.ModeWrite, "/htdocs/out.xml")
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		tr.Record(vfs.ModeWrite, "/htdocs/out.xml")
		tr.Record(vfs.ModeRead, "/htdocs/out.xml")

		want := []vfs.Access{
			{Mode: vfs.ModeWrite, Path: "/htdocs/out.xml"},
			{Mode: vfs.ModeRead, Path: "/htdocs/index.xml"},
			{Mode: vfs.ModeRead, Path: "/htdocs/out.xml"},
		}
		assert.Equal(t, want, tr.Snapshot())
	})
	t.Run("disabled", func(t *testing.T) {
		tr := vfs.NewTracker(false)
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		assert.Empty(t, tr.Snapshot())
	})
	t.Run("reset", func(t *testing.T) {
		tr := vfs.NewTracker(true)
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		tr.Reset()
		assert.Empty(t, tr.Snapshot())
		assert.False(t, tr.Enabled())

		tr.Enable(true)
		tr.Record(vfs.ModeRead, "/htdocs/index.xml")
		assert.Equal(t, 1, tr.Len())
	})
	t.Run("snapshot-is-a-copy", func(t *testing.T) {
		tr := vfs.NewTracker(true)
		tr.Record(vfs.ModeRead, "/a.xml")
		list := tr.Snapshot()
		list[0].Path = "/b.xml"
		assert.Equal(t, "/a.xml", tr.Snapshot()[0].Path)
	})
}

func TestTrackerConcurrent(t *testing.T) {
	var (
		tr = vfs.NewTracker(true)
		wg sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tr.Record(vfs.ModeRead, "/shared.xml")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, tr.Len())
}

func TestMerge(t *testing.T) {
	all := []vfs.Access{{Mode: vfs.ModeRead, Path: "/a.xml"}}
	all = vfs.Merge(all, []vfs.Access{
		{Mode: vfs.ModeRead, Path: "/b.xml"},
		{Mode: vfs.ModeRead, Path: "/a.xml"},
		{Mode: vfs.ModeOther, Path: "http://host/c.xml"},
	})
	want := []vfs.Access{
		{Mode: vfs.ModeRead, Path: "/a.xml"},
		{Mode: vfs.ModeRead, Path: "/b.xml"},
		{Mode: vfs.ModeOther, Path: "http://host/c.xml"},
	}
	assert.Equal(t, want, all)
}

func TestAccessJSON(t *testing.T) {
	a := vfs.Access{Mode: vfs.ModeWrite, Path: "/out.xml"}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"w","path":"/out.xml"}`, string(b))

	var got vfs.Access
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, a, got)

	assert.Error(t, json.Unmarshal([]byte(`{"mode":"x","path":"/out.xml"}`), &got))
}
