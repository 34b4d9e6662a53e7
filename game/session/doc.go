// Package session keeps the boards being edited in memory.
//
// Each session owns one engine.Board. The manager guards its session map with
// a read-write lock, and every session carries its own lock so edits and
// validation runs on one board never interleave. Session IDs are matched
// case-insensitively; generated IDs are the first eight hex digits of a
// random UUID.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", board)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions are not persisted. CleanupExpiredSessions drops the ones nobody
// has touched for a while.
package session
