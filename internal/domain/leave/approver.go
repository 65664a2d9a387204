package leave

import (
	"sort"

	"leavedesk/internal/domain/directory"
)

// ResolveApprover picks the single employee who must approve the
// applicant's leave, or nil when nobody qualifies. It is a pure function of
// the snapshot: employees are considered in ascending id order, so the
// result is reproducible for an unchanged directory.
//
// Priority order, first rule that yields an approver wins:
//  1. An applicant at the second-highest hierarchy level, or holding
//     manager access, escalates to an admin-access employee at the highest
//     level. A manager's leave is never approved by a peer.
//  2. The first manager-access employee sharing the applicant's department,
//     excluding the applicant.
//  3. The applicant's recorded direct manager.
//  4. Nobody; the request stays open until an admin acts on it.
func ResolveApprover(snap directory.Snapshot, applicant directory.Employee) *string {
	role, ok := snap.Role(applicant.RoleID)
	if !ok {
		return nil
	}

	if role.Level == secondHighestLevel(snap) || role.Access == directory.AccessManager {
		if id := topAdmin(snap, applicant.ID); id != nil {
			return id
		}
	}

	for _, candidate := range snap.Employees {
		if candidate.ID == applicant.ID || candidate.DepartmentID != applicant.DepartmentID {
			continue
		}
		if candidateRole, ok := snap.Role(candidate.RoleID); ok && candidateRole.Access == directory.AccessManager {
			id := candidate.ID
			return &id
		}
	}

	if applicant.ManagerID != nil && *applicant.ManagerID != applicant.ID {
		id := *applicant.ManagerID
		return &id
	}

	return nil
}

func topAdmin(snap directory.Snapshot, excludeID string) *string {
	highest := snap.HighestLevel()
	for _, candidate := range snap.Employees {
		if candidate.ID == excludeID {
			continue
		}
		role, ok := snap.Role(candidate.RoleID)
		if ok && role.Level == highest && role.Access == directory.AccessAdmin {
			id := candidate.ID
			return &id
		}
	}
	return nil
}

func secondHighestLevel(snap directory.Snapshot) int {
	seen := make(map[int]struct{})
	for _, role := range snap.Roles {
		seen[role.Level] = struct{}{}
	}
	levels := make([]int, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	if len(levels) < 2 {
		return -1
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels[1]
}
