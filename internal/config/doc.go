// Package config provides configuration parsing for the reactive CLI.
//
// The configuration is stored in reactive.json in the working directory or
// one of its parents. This package handles loading, saving, and validating
// configuration.
//
// # Configuration File Structure
//
//	{
//	  "runtime": {
//	    "maxEffectReruns": 100,
//	    "logLevel": "info",
//	    "logFormat": "text",
//	    "debug": {"logFlushes": false}
//	  },
//	  "inspector": {
//	    "host": "localhost",
//	    "port": 6060,
//	    "history": 100
//	  },
//	  "bench": {
//	    "profile": "diamond",
//	    "iterations": 10000
//	  },
//	  "snapshot": {
//	    "maxDepth": 3,
//	    "dir": "snapshots",
//	    "s3": {"bucket": "my-bucket", "region": "us-east-1"}
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reactive.Configure(cfg.Runtime.Reactive(logger))
package config
