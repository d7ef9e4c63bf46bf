//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	boardEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	boardEngine.Set("loadProject", js.FuncOf(loadProject))
	boardEngine.Set("addStroke", js.FuncOf(addStroke))
	boardEngine.Set("addImage", js.FuncOf(addImage))
	boardEngine.Set("erase", js.FuncOf(erase))
	boardEngine.Set("setSelection", js.FuncOf(setSelection))
	boardEngine.Set("clearSelection", js.FuncOf(clearSelection))
	boardEngine.Set("deleteSelection", js.FuncOf(deleteSelection))
	boardEngine.Set("clearBoard", js.FuncOf(clearBoard))
	boardEngine.Set("startGesture", js.FuncOf(startGesture))
	boardEngine.Set("updateGesture", js.FuncOf(updateGesture))
	boardEngine.Set("endGesture", js.FuncOf(endGesture))
	boardEngine.Set("cancelGesture", js.FuncOf(cancelGesture))
	boardEngine.Set("undo", js.FuncOf(undo))
	boardEngine.Set("redo", js.FuncOf(redo))

	// --- Queries (frontend ← backend) ---
	boardEngine.Set("render", js.FuncOf(render))
	boardEngine.Set("hitTest", js.FuncOf(hitTest))
	boardEngine.Set("handleAt", js.FuncOf(handleAt))
	boardEngine.Set("getProject", js.FuncOf(getProject))
	boardEngine.Set("getSelection", js.FuncOf(getSelection))
	boardEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	boardEngine.Set("gestureActive", js.FuncOf(gestureActive))
	boardEngine.Set("canUndo", js.FuncOf(canUndo))
	boardEngine.Set("canRedo", js.FuncOf(canRedo))

	js.Global().Set("inkboardEngine", boardEngine)
	js.Global().Set("inkboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadProject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing project JSON")
	}
	if err := eng.LoadProject(args[0].String()); err != nil {
		return errResult(err.Error())
	}
	return okResult()
}

func addStroke(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing stroke JSON")
	}
	var s board.Stroke
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return errResult(err.Error())
	}
	eng.AddStroke(s)
	return okResult()
}

func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing image JSON")
	}
	var img board.CanvasImage
	if err := json.Unmarshal([]byte(args[0].String()), &img); err != nil {
		return errResult(err.Error())
	}
	eng.AddImage(img)
	return okResult()
}

func erase(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing eraser stroke JSON")
	}
	var s board.Stroke
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return errResult(err.Error())
	}
	s.Tool = board.ToolEraser
	result := eng.Erase(s)
	data, _ := json.Marshal(result)
	return js.ValueOf(string(data))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	strokeIDs := stringSlice(args, 0)
	imageIDs := stringSlice(args, 1)
	eng.SetSelection(strokeIDs, imageIDs)
	return nil
}

func stringSlice(args []js.Value, i int) []string {
	if len(args) <= i || args[i].Type() != js.TypeObject {
		return nil
	}
	arr := args[i]
	out := make([]string, arr.Length())
	for j := 0; j < arr.Length(); j++ {
		out[j] = arr.Index(j).String()
	}
	return out
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	eng.ClearSelection()
	return nil
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	eng.DeleteSelection()
	return nil
}

func clearBoard(this js.Value, args []js.Value) interface{} {
	eng.Clear()
	return nil
}

func startGesture(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(false)
	}
	kind := engine.GestureKind(args[0].String())
	handle := engine.Handle(args[1].String())
	start := board.Point{X: args[2].Float(), Y: args[3].Float()}
	return js.ValueOf(eng.StartGesture(kind, handle, start))
}

func updateGesture(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.UpdateGesture(board.Point{X: args[0].Float(), Y: args[1].Float()})
	return nil
}

func endGesture(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.EndGesture(board.Point{X: args[0].Float(), Y: args[1].Float()})
	return nil
}

func cancelGesture(this js.Value, args []js.Value) interface{} {
	eng.CancelGesture()
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	snap := eng.Preview()
	out, err := engine.DrawCommandsToJSON(engine.CompileDrawCommands(snap))
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("{}")
	}
	p := board.Point{X: args[0].Float(), Y: args[1].Float()}
	tolerance := engine.DefaultHitTolerance
	if len(args) > 2 {
		tolerance = args[2].Float()
	}
	data, _ := json.Marshal(eng.HitTest(p, tolerance))
	return js.ValueOf(string(data))
}

func handleAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	h := eng.HandleAt(board.Point{X: args[0].Float(), Y: args[1].Float()})
	return js.ValueOf(string(h))
}

func getProject(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ProjectJSON())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	strokeIDs, imageIDs := eng.Selection()
	data, _ := json.Marshal(map[string][]string{
		"strokeIds": strokeIDs,
		"imageIds":  imageIDs,
	})
	return js.ValueOf(string(data))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	bounds, ok := eng.SelectionBounds()
	if !ok {
		return js.ValueOf("null")
	}
	data, _ := json.Marshal(bounds)
	return js.ValueOf(string(data))
}

func gestureActive(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GestureActive())
}

func canUndo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CanUndo())
}

func canRedo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CanRedo())
}
