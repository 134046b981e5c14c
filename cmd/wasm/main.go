//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"syscall/js"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/paint"
	"github.com/inamate/scenerender/internal/scene"
)

var (
	eng     *engine.Engine
	onFrame js.Value
)

// animationFrames paces throttled renders with requestAnimationFrame.
type animationFrames struct{}

func (animationFrames) Schedule(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		fn()
		return nil
	})
	js.Global().Call("requestAnimationFrame", cb)
}

func main() {
	logger := slog.Default()
	dpr := js.Global().Get("devicePixelRatio")
	ratio := 1.0
	if dpr.Type() == js.TypeNumber {
		ratio = dpr.Float()
	}

	eng = engine.NewEngine(engine.Options{
		DevicePixelRatio: ratio,
		Renderer:         paint.New(nil, logger),
		Scheduler:        animationFrames{},
		OnFrame:          deliverFrame,
		Logger:           logger,
	})

	// Create the renderer API object
	sceneRenderer := js.Global().Get("Object").New()

	// --- Commands (frontend → renderer) ---
	sceneRenderer.Set("loadSnapshot", js.FuncOf(loadSnapshot))
	sceneRenderer.Set("loadSample", js.FuncOf(loadSample))
	sceneRenderer.Set("setView", js.FuncOf(setView))
	sceneRenderer.Set("setViewport", js.FuncOf(setViewport))
	sceneRenderer.Set("setSelection", js.FuncOf(setSelection))
	sceneRenderer.Set("setTheme", js.FuncOf(setTheme))
	sceneRenderer.Set("setFrameToHighlight", js.FuncOf(setFrameToHighlight))
	sceneRenderer.Set("setEmbedValidation", js.FuncOf(setEmbedValidation))
	sceneRenderer.Set("requestRender", js.FuncOf(requestRender))
	sceneRenderer.Set("onFrame", js.FuncOf(setOnFrame))

	// --- Queries (frontend ← renderer) ---
	sceneRenderer.Set("renderCommands", js.FuncOf(renderCommands))
	sceneRenderer.Set("hitTest", js.FuncOf(hitTest))
	sceneRenderer.Set("sizeLabel", js.FuncOf(sizeLabel))
	sceneRenderer.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	sceneRenderer.Set("getState", js.FuncOf(getState))

	// Register on global scope
	js.Global().Set("sceneRenderer", sceneRenderer)

	// Signal that WASM is ready
	js.Global().Set("sceneRendererReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func deliverFrame(f engine.Frame) {
	if onFrame.Type() != js.TypeFunction {
		return
	}
	rec, ok := f.Canvas.(*canvas.Recorder)
	if !ok {
		return
	}
	commands, err := rec.ToJSON()
	if err != nil {
		slog.Error("encode frame", "error", err)
		return
	}
	stats, _ := json.Marshal(f.Stats)
	onFrame.Invoke(commands, string(stats))
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing snapshot JSON")
	}
	if err := eng.LoadSnapshot([]byte(args[0].String())); err != nil {
		return errorResult(err.Error())
	}
	eng.RequestRender()
	return okResult()
}

func loadSample(this js.Value, args []js.Value) interface{} {
	eng.LoadSample()
	eng.RequestRender()
	return okResult()
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetView(args[0].Float(), args[1].Float(), args[2].Float())
	eng.RequestRender()
	return nil
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewport(args[0].Int(), args[1].Int())
	eng.RequestRender()
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	var ids []string
	if len(args) > 0 && args[0].Type() == js.TypeObject {
		arr := args[0]
		length := arr.Length()
		ids = make([]string, length)
		for i := 0; i < length; i++ {
			ids[i] = arr.Index(i).String()
		}
	}
	eng.SetSelection(ids)
	eng.RequestRender()
	return nil
}

func setTheme(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetTheme(scene.Theme(args[0].String()))
	eng.RequestRender()
	return nil
}

func setFrameToHighlight(this js.Value, args []js.Value) interface{} {
	id := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	eng.SetFrameToHighlight(id)
	eng.RequestRender()
	return nil
}

func setEmbedValidation(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetEmbedValidation(args[0].String(), args[1].Bool())
	eng.RequestRender()
	return nil
}

func requestRender(this js.Value, args []js.Value) interface{} {
	eng.RequestRender()
	return nil
}

func setOnFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onFrame = js.Undefined()
		return nil
	}
	onFrame = args[0]
	return nil
}

// --- Query Handlers ---

func renderCommands(this js.Value, args []js.Value) interface{} {
	commands, err := eng.RenderCommands()
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(commands)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func sizeLabel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	l, ok := eng.SizeLabel(args[0].String())
	if !ok {
		return js.Null()
	}
	data, err := json.Marshal(l)
	if err != nil {
		return js.Null()
	}
	return js.ValueOf(string(data))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.GetSelectionBounds())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.State())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}
