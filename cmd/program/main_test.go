package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/program"
	"github.com/gocrud/program/core"
	"github.com/gocrud/program/engine/headless"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/logging"
)

const modelDoc = `{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],"nodes":[{"name":"body","children":[1]},{"name":"wheel"}]}`

func TestParseCommand(t *testing.T) {
	name, payload, err := parseCommand("space")
	require.NoError(t, err)
	assert.Equal(t, events.EventKeyDown, name)
	assert.Equal(t, events.Key{Code: "Space"}, payload)

	name, payload, err = parseCommand("  resize 800 600 ")
	require.NoError(t, err)
	assert.Equal(t, events.EventWindowResize, name)
	assert.Equal(t, events.Resize{Width: 800, Height: 600}, payload)

	name, _, err = parseCommand("")
	require.NoError(t, err)
	assert.Empty(t, name)

	_, _, err = parseCommand("resize wide")
	assert.Error(t, err)
	_, _, err = parseCommand("jump")
	assert.Error(t, err)
}

func TestReadCommandsPushesEvents(t *testing.T) {
	queue := events.NewQueue(8)
	readCommands(strings.NewReader("space\nbogus\nresize 640 480\n"), queue, logging.NewNopLogger())

	bus := events.NewBus()
	var got []string
	bus.On(events.EventKeyDown, func(any) { got = append(got, events.EventKeyDown) })
	bus.On(events.EventWindowResize, func(any) { got = append(got, events.EventWindowResize) })
	assert.Equal(t, 2, queue.Drain(bus))
	assert.Equal(t, []string{events.EventKeyDown, events.EventWindowResize}, got)
}

func TestCarKitCyclesLoadedCars(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	for _, name := range []string{"race", "van"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "models", name+".glb"), []byte(modelDoc), 0o644))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := program.DefaultSettings()
	s.Assets.Root = root
	kit := newCarKit()
	p, err := program.New(s, logging.NewNopLogger(),
		[]core.Module{kit.Module(), program.StopAfter(2, cancel)},
		core.WithFrameHost(frame.Immediate()))
	require.NoError(t, err)

	p.Input.Push(events.EventKeyDown, events.Key{Code: "Space"})
	require.NoError(t, p.Run(ctx))

	require.Len(t, kit.cars, 2)
	assert.Equal(t, "race", kit.cars[0].Name())
	assert.Equal(t, "van", kit.cars[1].Name())
	assert.Equal(t, 1, kit.selected.Get())
	assert.False(t, kit.cars[0].Visible())
	assert.True(t, kit.cars[1].Visible())
	assert.Len(t, kit.cars[1].model.Nodes, 2)

	obj, ok := p.Runtime.Context().Scene.ObjectByName("van")
	require.True(t, ok)
	assert.Same(t, kit.cars[1], obj)

	kit.selected.Set(2)
	assert.Same(t, kit.cars[0], kit.current())

	bus := p.Runtime.Context().Events()
	listeners := bus.Count(events.EventKeyDown)
	assert.Equal(t, 1, kit.selected.Subscribers())

	kit.Close()
	kit.Close()
	assert.Equal(t, 0, kit.selected.Subscribers())
	assert.Equal(t, listeners-1, bus.Count(events.EventKeyDown))

	// 关闭后切换不再影响可见性
	require.False(t, kit.cars[1].Visible())
	kit.selected.Set(1)
	assert.False(t, kit.cars[1].Visible())
}

func TestPostProcessorAddsPasses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := program.DefaultSettings()
	s.Assets.Root = t.TempDir()
	s.RenderMode = string(core.RenderComposer)
	p, err := program.New(s, logging.NewNopLogger(),
		[]core.Module{newPostProcessor(postPasses...).Module(), program.StopAfter(1, cancel)},
		core.WithFrameHost(frame.Immediate()))
	require.NoError(t, err)
	require.NoError(t, p.Run(ctx))

	composer := p.Runtime.Context().Composer
	require.NotNil(t, composer)
	var names []string
	for _, pass := range composer.Passes() {
		names = append(names, pass.Name())
	}
	assert.Equal(t, []string{"RenderPass", "Glitch", "Pixelation"}, names)
}

func TestPostProcessorWithoutComposer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := headless.New()
	eng.DisableComposer = true
	var buf strings.Builder
	s := program.DefaultSettings()
	s.Assets.Root = t.TempDir()
	p, err := program.New(s, logging.NewWriterLogger(&buf, "program"),
		[]core.Module{newPostProcessor("Glitch").Module(), program.StopAfter(1, cancel)},
		core.WithEngine(eng),
		core.WithFrameHost(frame.Immediate()))
	require.NoError(t, err)
	require.NoError(t, p.Run(ctx))

	assert.Nil(t, p.Runtime.Context().Composer)
	assert.Contains(t, buf.String(), "Composer unavailable")
}
