package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

func testDefaults() map[string]string {
	return map[string]string{
		driven.PromptAnswer:     "Passages:\n%s\n\nProblem:\n%s",
		driven.PromptSupportive: "Problem:\n%s",
	}
}

func newTestPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)
	return store, dir
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("", nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parable", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIOUntilLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	assert.NoDirExists(t, dir)
}

func TestPromptStore_Load_WritesDefaults(t *testing.T) {
	store, dir := newTestPromptStore(t)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, testDefaults()[driven.PromptAnswer], prompt)

	for _, name := range []string{"answer.txt", "supportive.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Equal(t, filepath.Join(dir, "answer.txt"), store.Path(driven.PromptAnswer))
}

func TestPromptStore_Load_PrefersUserFile(t *testing.T) {
	store, dir := newTestPromptStore(t)
	custom := "  Speak plainly.\n%s\n%s\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte(custom), 0600))

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, "Speak plainly.\n%s\n%s", prompt)

	// The user file survives initialisation untouched.
	data, err := os.ReadFile(filepath.Join(dir, "answer.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_Fallbacks(t *testing.T) {
	t.Run("deleted file", func(t *testing.T) {
		store, dir := newTestPromptStore(t)
		_, err := store.Load(driven.PromptSupportive)
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(dir, "answer.txt")))

		prompt, err := store.Load(driven.PromptAnswer)
		require.NoError(t, err)
		assert.Equal(t, testDefaults()[driven.PromptAnswer], prompt)
	})

	t.Run("blank file", func(t *testing.T) {
		store, dir := newTestPromptStore(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "supportive.txt"), []byte(" \n"), 0600))

		prompt, err := store.Load(driven.PromptSupportive)
		require.NoError(t, err)
		assert.Equal(t, testDefaults()[driven.PromptSupportive], prompt)
	})

	t.Run("unknown prompt", func(t *testing.T) {
		store, _ := newTestPromptStore(t)

		_, err := store.Load("no_such_prompt")
		assert.Error(t, err)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0600))
		store, err := NewPromptStore(filepath.Join(blocker, "prompts"), testDefaults())
		require.NoError(t, err)

		prompt, err := store.Load(driven.PromptAnswer)
		require.NoError(t, err)
		assert.Equal(t, testDefaults()[driven.PromptAnswer], prompt)

		_, err = store.Load("no_such_prompt")
		assert.ErrorContains(t, err, "init failed")
	})
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	store, dir := newTestPromptStore(t)
	path := filepath.Join(dir, "answer.txt")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(path, []byte("first %s %s"), 0600))

	first, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("second %s %s"), 0600))

	cached, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	reloaded, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, "second %s %s", reloaded)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, _ := newTestPromptStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				store.Reload()
			}
			name := driven.PromptAnswer
			if i%2 == 0 {
				name = driven.PromptSupportive
			}
			prompt, err := store.Load(name)
			if err == nil && prompt != testDefaults()[name] {
				err = fmt.Errorf("unexpected prompt %q", prompt)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPromptStore_DefaultsAreCopied(t *testing.T) {
	defaults := testDefaults()
	store, err := NewPromptStore(t.TempDir(), defaults)
	require.NoError(t, err)

	defaults[driven.PromptAnswer] = "mutated"

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", prompt)
}
