package domain

import "sort"

// Reconcile computes the board after one client's status and/or priority
// changes. A nil status or priority means "leave unchanged". The requested
// priority is the desired final rank within the destination lane, not a value
// stored verbatim: every affected lane is renumbered to a dense 1..n sequence
// afterwards, so the lane invariant holds no matter what rank was asked for.
//
// The input slice is never mutated. When the request changes nothing the
// input is returned as-is; otherwise a fresh slice is returned with the same
// clients in the same order and only Status/Priority values rewritten.
func Reconcile(clients []Client, targetID int, status *Status, priority *int) ([]Client, error) {
	target := -1
	for i := range clients {
		if clients[i].ID == targetID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, UnknownTargetError{ID: targetID}
	}
	if status != nil && !status.Valid() {
		return nil, InvalidStatusError{Status: *status}
	}

	cur := clients[target]
	dest := cur.Status
	if status != nil {
		dest = *status
	}
	if dest == cur.Status && (priority == nil || *priority == cur.Priority) {
		return clients, nil
	}

	out := make([]Client, len(clients))
	copy(out, clients)

	if dest == cur.Status {
		// Same-lane reorder: splice the target back in at the requested
		// rank among its lane mates, then renumber.
		lane := laneByRank(out, dest, target)
		renumber(out, insertAtRank(lane, target, priority))
		return out, nil
	}

	// Cross-lane move: close the gap in the old lane, then insert into the
	// new lane at the requested rank, or at the bottom when none was given.
	renumber(out, laneByRank(out, cur.Status, target))
	lane := laneByRank(out, dest, target)
	out[target].Status = dest
	renumber(out, insertAtRank(lane, target, priority))
	return out, nil
}

// laneByRank returns the indexes of lane members in ascending priority order,
// excluding the client at index skip. The sort is stable so clients keep
// their relative order even if the input ever carried duplicate priorities.
func laneByRank(clients []Client, lane Status, skip int) []int {
	members := make([]int, 0, len(clients))
	for i := range clients {
		if i == skip || clients[i].Status != lane {
			continue
		}
		members = append(members, i)
	}
	sort.SliceStable(members, func(a, b int) bool {
		return clients[members[a]].Priority < clients[members[b]].Priority
	})
	return members
}

// insertAtRank splices target into members at the 1-based rank, clamped to
// the lane bounds. A nil rank appends to the bottom of the lane.
func insertAtRank(members []int, target int, rank *int) []int {
	pos := len(members)
	if rank != nil {
		pos = *rank - 1
		if pos < 0 {
			pos = 0
		}
		if pos > len(members) {
			pos = len(members)
		}
	}
	members = append(members, 0)
	copy(members[pos+1:], members[pos:])
	members[pos] = target
	return members
}

// renumber assigns dense 1..n priorities following the given member order.
func renumber(clients []Client, members []int) {
	for rank, i := range members {
		clients[i].Priority = rank + 1
	}
}
