package domain

import (
	"errors"
	"reflect"
	"testing"
)

func lanePtr(s Status) *Status { return &s }
func rankPtr(n int) *int       { return &n }

// laneIDs returns the ids of lane members ordered top to bottom.
func laneIDs(t *testing.T, clients []Client, lane Status) []int {
	t.Helper()
	byRank := map[int]int{}
	for _, c := range clients {
		if c.Status != lane {
			continue
		}
		if _, dup := byRank[c.Priority]; dup {
			t.Fatalf("duplicate priority %d in lane %s", c.Priority, lane)
		}
		byRank[c.Priority] = c.ID
	}
	ids := make([]int, 0, len(byRank))
	for rank := 1; rank <= len(byRank); rank++ {
		id, ok := byRank[rank]
		if !ok {
			t.Fatalf("lane %s is missing priority %d: %#v", lane, rank, clients)
		}
		ids = append(ids, id)
	}
	return ids
}

func checkInvariant(t *testing.T, clients []Client) {
	t.Helper()
	for _, lane := range Statuses {
		laneIDs(t, clients, lane)
	}
}

func testBoard() []Client {
	return []Client{
		{ID: 1, Name: "Acme", Description: "big fish", Status: StatusBacklog, Priority: 1},
		{ID: 2, Name: "Globex", Status: StatusBacklog, Priority: 2},
		{ID: 3, Name: "Initech", Status: StatusBacklog, Priority: 3},
		{ID: 4, Name: "Umbrella", Status: StatusInProgress, Priority: 1},
		{ID: 5, Name: "Hooli", Status: StatusInProgress, Priority: 2},
		{ID: 6, Name: "Vandelay", Status: StatusComplete, Priority: 1},
	}
}

func TestReconcileNoOp(t *testing.T) {
	testCases := map[string]struct {
		status   *Status
		priority *int
	}{
		"both_absent":   {nil, nil},
		"same_values":   {lanePtr(StatusBacklog), rankPtr(2)},
		"same_status":   {lanePtr(StatusBacklog), nil},
		"same_priority": {nil, rankPtr(2)},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			in := testBoard()
			out, err := Reconcile(in, 2, tc.status, tc.priority)
			if err != nil {
				t.Fatalf("reconcile: %v", err)
			}
			if !reflect.DeepEqual(out, in) {
				t.Fatalf("expected identical board, got %#v", out)
			}
		})
	}
}

func TestReconcileSameLaneToTop(t *testing.T) {
	out, err := Reconcile(testBoard(), 3, lanePtr(StatusBacklog), rankPtr(1))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := laneIDs(t, out, StatusBacklog); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Fatalf("unexpected backlog order: %v", got)
	}
	checkInvariant(t, out)
}

func TestReconcileSameLaneDown(t *testing.T) {
	// Omitting the status must behave the same as repeating the current one.
	out, err := Reconcile(testBoard(), 1, nil, rankPtr(2))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := laneIDs(t, out, StatusBacklog); !reflect.DeepEqual(got, []int{2, 1, 3}) {
		t.Fatalf("unexpected backlog order: %v", got)
	}
	checkInvariant(t, out)
}

func TestReconcileSameLaneRankOverflowClampsToBottom(t *testing.T) {
	out, err := Reconcile(testBoard(), 1, nil, rankPtr(99))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := laneIDs(t, out, StatusBacklog); !reflect.DeepEqual(got, []int{2, 3, 1}) {
		t.Fatalf("unexpected backlog order: %v", got)
	}
	checkInvariant(t, out)
}

func TestReconcileCrossLaneAppendsWhenRankOmitted(t *testing.T) {
	out, err := Reconcile(testBoard(), 1, lanePtr(StatusInProgress), nil)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := laneIDs(t, out, StatusBacklog); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("unexpected backlog order: %v", got)
	}
	if got := laneIDs(t, out, StatusInProgress); !reflect.DeepEqual(got, []int{4, 5, 1}) {
		t.Fatalf("unexpected in-progress order: %v", got)
	}
	checkInvariant(t, out)
}

func TestReconcileCrossLaneInsertsAtRank(t *testing.T) {
	out, err := Reconcile(testBoard(), 1, lanePtr(StatusInProgress), rankPtr(1))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := laneIDs(t, out, StatusBacklog); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("unexpected backlog order: %v", got)
	}
	if got := laneIDs(t, out, StatusInProgress); !reflect.DeepEqual(got, []int{1, 4, 5}) {
		t.Fatalf("unexpected in-progress order: %v", got)
	}
	if got := laneIDs(t, out, StatusComplete); !reflect.DeepEqual(got, []int{6}) {
		t.Fatalf("untouched lane changed: %v", got)
	}
	checkInvariant(t, out)
}

func TestReconcileUnknownTarget(t *testing.T) {
	out, err := Reconcile(testBoard(), 42, lanePtr(StatusComplete), nil)
	if out != nil {
		t.Fatalf("expected no output set, got %#v", out)
	}
	var unknownErr UnknownTargetError
	if !errors.As(err, &unknownErr) || unknownErr.ID != 42 {
		t.Fatalf("expected UnknownTargetError for 42, got %v", err)
	}
}

func TestReconcileInvalidStatus(t *testing.T) {
	out, err := Reconcile(testBoard(), 1, lanePtr(Status("shipped")), nil)
	if out != nil {
		t.Fatalf("expected no output set, got %#v", out)
	}
	var statusErr InvalidStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != "shipped" {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	in := testBoard()
	snapshot := make([]Client, len(in))
	copy(snapshot, in)

	if _, err := Reconcile(in, 1, lanePtr(StatusComplete), rankPtr(1)); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input was mutated: %#v", in)
	}
}

func TestReconcilePreservesPayloadAndCardinality(t *testing.T) {
	in := testBoard()
	out, err := Reconcile(in, 1, lanePtr(StatusComplete), rankPtr(1))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("cardinality changed: %d != %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Name != in[i].Name || out[i].Description != in[i].Description {
			t.Fatalf("payload changed at %d: %#v != %#v", i, out[i], in[i])
		}
	}
}

func TestReconcileInvariantSweep(t *testing.T) {
	in := testBoard()
	for _, target := range in {
		for _, lane := range Statuses {
			// Ranks beyond the lane size and below 1 must clamp, never corrupt.
			for rank := -1; rank <= len(in)+1; rank++ {
				out, err := Reconcile(in, target.ID, lanePtr(lane), rankPtr(rank))
				if err != nil {
					t.Fatalf("reconcile %d -> %s/%d: %v", target.ID, lane, rank, err)
				}
				checkInvariant(t, out)
			}
			out, err := Reconcile(in, target.ID, lanePtr(lane), nil)
			if err != nil {
				t.Fatalf("reconcile %d -> %s: %v", target.ID, lane, err)
			}
			checkInvariant(t, out)
		}
	}
}
