// Package store persists calculator sessions as keystroke journals in SQLite.
//
// Only the accepted keys are stored. Because the engine is a pure reducer,
// replaying a journal always yields the same state, which is what session
// recovery, undo and the replay command rely on.
package store
