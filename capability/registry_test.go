package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubCapability(name, tag string) *FuncCapability {
	c := NewFunc(name, "Stub "+name, map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(_ *Context, _ map[string]any) Result {
		return Success(name)
	})
	if tag != "" {
		c.WithMarkup(&MarkupSpec{Tag: tag})
	}
	return c
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(stubCapability("echo", ""))
	assert.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	c, ok := reg.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", c.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicateAndEmptyName(t *testing.T) {
	reg := NewRegistry()

	assert.NoError(t, reg.Register(stubCapability("echo", "")))
	assert.Error(t, reg.Register(stubCapability("echo", "")))
	assert.Error(t, reg.Register(stubCapability("", "")))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		assert.NoError(t, reg.Register(stubCapability(name, "")))
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())

	all := reg.All()
	assert.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name())
}

func TestRegistry_MarkupSpecs(t *testing.T) {
	reg := NewRegistry()

	assert.NoError(t, reg.Register(stubCapability("browse", "web-browse")))
	assert.NoError(t, reg.Register(stubCapability("plain", "")))
	assert.NoError(t, reg.Register(stubCapability("ask", "ask")))

	specs := reg.MarkupSpecs()
	assert.Len(t, specs, 2)
	assert.Equal(t, "ask", specs[0].Tag)
	assert.Equal(t, "web-browse", specs[1].Tag)
}
