// Package log is the logging sink used by every dexcell component.
//
// Components never reach for a global logger. A [Logger] is injected at
// construction time, and the default for library types is [NoopLogger], so
// embedding dexcell in a program stays silent until the caller opts in.
//
// # Usage
//
// Wrap a zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	s := sender.New(cfg, sender.WithLogger(logger))
//
// Fan a message out to several sinks, e.g. the console and the DEXCell log
// endpoint:
//
//	logger := log.NewMulti(console, loghandler.New(gateway, token))
//
// # Named loggers
//
// A [Registry] maps logger names to sinks. Registering a second logger under
// a name that is already taken keeps the first one, so several senders
// created with the same logger name share a sink.
package log
