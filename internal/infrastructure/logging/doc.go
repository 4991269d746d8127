// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Every kernel component takes the *zap.Logger embedded in Logger and
// names itself (kernel, dispatch, http, trace, audit), so a single line
// can be traced back to its layer by the logger field.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	defer logger.Sync()
//	k, err := kernel.New(cfg, kernel.WithLogger(logger.Logger))
package logging
