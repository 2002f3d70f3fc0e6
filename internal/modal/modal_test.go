package modal

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instaflan/web/internal/models"
)

func TestOpenReplacesPrevious(t *testing.T) {
	o := NewOrchestrator()
	o.Open(CreatePost{})
	o.Open(DeletePost{PostID: "p1"})

	m, ok := o.Active()
	require.True(t, ok)
	assert.Equal(t, DeletePost{PostID: "p1"}, m)

	o.Close()
	_, ok = o.Active()
	assert.False(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	o := NewOrchestrator()
	o.Close()
	assert.Equal(t, uint64(0), o.Version())

	o.Open(CreatePost{})
	o.Close()
	v := o.Version()
	o.Close()
	assert.Equal(t, v, o.Version())
}

func TestOpenNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewOrchestrator().Open(nil) })
}

func TestReportOpensErrorModal(t *testing.T) {
	o := NewOrchestrator()
	o.Open(CreatePost{})
	o.Report(errors.New("Post not found"))

	m, ok := o.Active()
	require.True(t, ok)
	assert.Equal(t, ShowError{Message: "Post not found"}, m)

	o.Report(nil)
	m, _ = o.Active()
	assert.Equal(t, KindShowError, m.Kind())
}

func TestDoneDefaultsToClose(t *testing.T) {
	o := NewOrchestrator()
	o.Open(CreateComment{PostID: "p1"})

	m, closeFn, ok := o.Current()
	require.True(t, ok)
	m.(CreateComment).Done(closeFn)

	_, ok = o.Active()
	assert.False(t, ok)
}

func TestEditPostContinuationReceivesSummary(t *testing.T) {
	o := NewOrchestrator()
	var got models.PostSummary
	o.Open(EditPost{PostID: "p1", OnDone: func(close CloseFunc, post models.PostSummary) {
		got = post
		close()
	}})

	m, closeFn, _ := o.Current()
	m.(EditPost).Done(closeFn, models.PostSummary{ID: "p1", Text: "new caption"})

	assert.Equal(t, "new caption", got.Text)
	_, ok := o.Active()
	assert.False(t, ok)
}

func TestStaleCloseLeavesNewerModal(t *testing.T) {
	o := NewOrchestrator()
	o.Open(CreatePost{})
	_, staleClose, _ := o.Current()

	o.Open(ShowError{Message: "boom"})
	staleClose()

	m, ok := o.Active()
	require.True(t, ok)
	assert.Equal(t, KindShowError, m.Kind())
}

func TestDescribe(t *testing.T) {
	v := Describe(EditDeleteMessage{Message: models.Message{ID: "m1", Text: "hi"}})
	assert.Equal(t, KindEditDeleteMessage, v.Kind)
	assert.Equal(t, models.Message{ID: "m1", Text: "hi"}, v.Props["message"])

	assert.Nil(t, Describe(CreatePost{}).Props)
	assert.Equal(t, "oops", Describe(ShowError{Message: "oops"}).Props["message"])
}

func TestConcurrentOpenClose(t *testing.T) {
	o := NewOrchestrator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o.Open(CreatePost{})
		}()
		go func() {
			defer wg.Done()
			o.Close()
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, o.Version(), uint64(50))
}
