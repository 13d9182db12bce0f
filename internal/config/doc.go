// Package config loads fastctx server configuration.
//
// Values come from FASTCTX_* environment variables. Optional .env files are
// read first and the process environment wins over them:
//
//	FASTCTX_ADDR=:8080
//	FASTCTX_LOG_LEVEL=debug
//	FASTCTX_METRICS_PATH=/metrics
//	FASTCTX_METRICS_NAMESPACE=fastctx
//	FASTCTX_TRACER_NAME=fastctx
//	FASTCTX_WS_READ_BUFFER_SIZE=1024
//	FASTCTX_WS_WRITE_BUFFER_SIZE=1024
//
// Usage:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//	    return err
//	}
package config
