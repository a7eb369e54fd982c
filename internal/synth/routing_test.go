package synth

import "testing"

func TestCalcExecutionOrderLinearChain(t *testing.T) {
	links := []ModuleLink{
		NewLink(NewOutput(OutputAudio, 1), NewInput(InputAudio, 2)),
		NewLink(NewOutput(OutputAudio, 2), NewInput(InputAudio, 3)),
		NewLink(NewOutput(OutputAudio, 3), NewInput(InputAudio, OutputModuleID)),
	}
	order, err := calcExecutionOrder(links)
	if err != nil {
		t.Fatalf("calcExecutionOrder: %v", err)
	}
	want := []ModuleID{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestCalcExecutionOrderDetectsCycle(t *testing.T) {
	links := []ModuleLink{
		NewLink(NewOutput(OutputAudio, 1), NewInput(InputAudio, 2)),
		NewLink(NewOutput(OutputAudio, 2), NewInput(InputAudio, 1)),
	}
	if _, err := calcExecutionOrder(links); err != ErrCycle {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestCalcExecutionOrderBranchingGraph(t *testing.T) {
	// 1 and 2 both feed 3; order must place both ancestors before 3.
	links := []ModuleLink{
		NewLink(NewOutput(OutputAudio, 1), NewInput(InputAudio, 3)),
		NewLink(NewOutput(OutputAudio, 2), NewInput(InputAudio, 3)),
	}
	order, err := calcExecutionOrder(links)
	if err != nil {
		t.Fatalf("calcExecutionOrder: %v", err)
	}
	pos := make(map[ModuleID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos[1] >= pos[3] || pos[2] >= pos[3] {
		t.Fatalf("expected 1 and 2 before 3, got order %v", order)
	}
}

func TestIsDownstream(t *testing.T) {
	links := []ModuleLink{
		NewLink(NewOutput(OutputAudio, 1), NewInput(InputAudio, 2)),
		NewLink(NewOutput(OutputAudio, 2), NewInput(InputAudio, 3)),
	}
	if !isDownstream(links, 1, 3) {
		t.Fatal("expected 3 to be downstream of 1")
	}
	if isDownstream(links, 3, 1) {
		t.Fatal("expected 1 not to be downstream of 3")
	}
}
