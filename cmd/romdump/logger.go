package main

import "go.uber.org/zap"

// newLogger returns a development logger when verbose, else a no-op
// logger. Decoding itself never logs; only the driver does.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
