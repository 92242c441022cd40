package practice

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabpractice/internal/models"
)

func sampleAnswering() Answering {
	return Answering{
		TeacherID:   1,
		StudentName: "Sarah Johnson",
		WordSet:     models.WordSet{ID: 10, Title: "Fruit", TeacherID: 1},
		Words: []models.Word{
			{ID: 100, WordSetID: 10, Word: "apple", Position: 0},
			{ID: 101, WordSetID: 10, Word: "banana", Position: 1},
		},
		Index:   1,
		Answers: []models.AnswerInput{{WordID: 100, Sentence: "I ate an apple."}},
		Draft:   "Bananas are yellow.",
	}
}

func TestEncodeDecodeKeepsVariant(t *testing.T) {
	states := []State{
		SelectTeacher{},
		EnterName{TeacherID: 1, TeacherName: "Ms Smith"},
		SelectWordSet{TeacherID: 1, TeacherName: "Ms Smith", StudentName: "Sam"},
		sampleAnswering(),
		Complete{StudentName: "Sam", WordSetTitle: "Fruit", SubmissionID: 3},
	}
	for _, s := range states {
		data, err := Encode(s)
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := Decode([]byte(`{"step":"dancing","data":{}}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	missing, err := store.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Save(ctx, "a", sampleAnswering()))
	require.NoError(t, store.Save(ctx, "b", SelectTeacher{}))

	got, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, sampleAnswering(), got)

	now = now.Add(2 * time.Hour)
	got, err = store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got, "expired state is gone")

	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save(ctx, "c", SelectTeacher{}))
	require.NoError(t, store.Delete(ctx, "c"))
	got, err = store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	km.mu.Lock()
	assert.Empty(t, km.locks, "lock entries are released")
	km.mu.Unlock()
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	id := "test-" + time.Now().Format("150405.000000000")
	require.NoError(t, store.Save(ctx, id, sampleAnswering()))

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sampleAnswering(), got)

	require.NoError(t, store.Delete(ctx, id))
	got, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	a, err := NewRedisStore(ctx, addr, time.Minute)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisStore(ctx, addr, time.Minute)
	require.NoError(t, err)
	defer b.Close()

	id := "lock-" + time.Now().Format("150405.000000000")
	release, err := a.Acquire(ctx, id)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = b.Acquire(short, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a second replica waits for the holder")

	release()
	releaseB, err := b.Acquire(ctx, id)
	require.NoError(t, err)
	releaseB()
}

func TestKeyedMutexIsLocker(t *testing.T) {
	var locker Locker = NewKeyedMutex()
	release, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	release()
}
