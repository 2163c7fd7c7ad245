// Package state persists per-node sequence numbers between runs.
//
// The vendor de-duplicates readings by (node, seqNum), so a command line
// tool that inserts one reading per invocation needs to remember the last
// number it used for every node. State holds that map and a Repository
// stores it.
//
// # Usage
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	seq := s.Next("node-1")
//
//	// ... insert the reading ...
//
//	if err := repo.Save(ctx, s); err != nil {
//	    return err
//	}
package state
