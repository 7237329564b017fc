package task

import "sort"

// SortForStatus orders a single-status list the way the boards show it:
// pending work by nearest deadline (undated last), everything else by most
// recent change.
func SortForStatus(status Status, tasks []Task) {
	if status == StatusPending {
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].Deadline, tasks[j].Deadline
			switch {
			case a == nil && b == nil:
				return false
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
		return
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}
