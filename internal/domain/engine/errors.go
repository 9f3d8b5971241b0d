package engine

import "errors"

// Precondition violations surfaced to the caller. No state is mutated
// when one of these is returned.
var (
	// ErrNoCurrentWorkspace is returned by actions that require a
	// current workspace when none is set.
	ErrNoCurrentWorkspace = errors.New("no current workspace")

	// ErrFavoritesFull is returned when a transition into the favorites
	// list would exceed the configured cap.
	ErrFavoritesFull = errors.New("favorites limit reached")

	// ErrSwitchInProgress is returned to a switch request that arrives
	// while another switch is in flight. The request is dropped, not
	// queued; callers retry after observing the switch complete.
	ErrSwitchInProgress = errors.New("workspace switch in progress")

	// ErrWorkspaceNotFound is returned when a workspace id does not
	// denote an existing workspace.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrItemNotFound is returned when a pinned item or favorite id
	// does not denote an existing item.
	ErrItemNotFound = errors.New("item not found")

	// ErrFolderNotFound is returned when a folder id does not denote a
	// folder in the current workspace.
	ErrFolderNotFound = errors.New("folder not found")
)
