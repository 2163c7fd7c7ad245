// Package lifecycle tracks the background loop behind a dexcell Streamer.
//
// A Loop goes Stopped -> Running on Launch. Drain moves it to Draining while
// the owner closes the loop's input; the loop's exit func then settles it in
// Stopped, or in Crashed when the loop returned an error. A loop whose
// context was canceled goes straight from Running to Stopped.
//
//	runCtx, exit, err := loop.Launch(ctx, "Start() called")
//	if err != nil {
//	    return err
//	}
//	go func() { exit(run(runCtx, in)) }()
//
//	// later
//	done, err := loop.Drain("Stop() called")
//	if err != nil {
//	    return err
//	}
//	close(in)
//	return loop.Await(done, lifecycle.ShutdownTimeout)
package lifecycle
