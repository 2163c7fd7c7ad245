// Package dexcell wires the client packages together behind one Config.
//
// Most programs only need this package:
//
//	cfg := dexcell.DefaultConfig()
//	cfg.Gateway = "00:1A:2B:3C:4D:5E"
//	cfg.APIToken = os.Getenv("DEXCELL_TOKEN")
//
//	c, err := dexcell.New(cfg, dexcell.WithLogger(log.NewZerologAdapter()))
//	if err != nil {
//	    return err
//	}
//	msg := message.MustNew("node-1", message.ServiceActiveEnergy, time.Now(), 12.5, 1)
//	if err := c.Submit(ctx, msg); err != nil {
//	    return err
//	}
//
// To insert readings in the background, several per request, use a
// Streamer:
//
//	st := c.NewStreamer(dexcell.DefaultStreamConfig(), nil)
//	if err := st.Start(ctx); err != nil {
//	    return err
//	}
//	defer st.Stop()
//
//	_ = st.Add(ctx, msg)
//
// A batch whose insert gives up is reported to the EventHandler and dropped.
//
// The sub-packages (message, sender, restapi, loghandler, log, state) can
// also be imported on their own.
package dexcell
