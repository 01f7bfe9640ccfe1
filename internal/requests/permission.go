package requests

// CanResolve reports whether an actor may close a request: requesters may
// close their own, and holders of the board's manager role may close any.
// Ids are compared exactly as given.
func CanResolve(actorID string, actorRoleIDs []string, authorID, managerRoleID string) bool {
	if actorID == authorID {
		return true
	}
	for _, roleID := range actorRoleIDs {
		if roleID == managerRoleID {
			return true
		}
	}
	return false
}
