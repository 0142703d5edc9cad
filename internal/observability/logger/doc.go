// Package logger provee el logger estructurado (zap) del servicio.
//
// Uso:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: "info", ServiceName: "fabula"})
//	defer logger.Sync()
//
//	logger.L().Info("listo", logger.Component("bridge"))
//
// Los middlewares HTTP inyectan un logger "scoped" (request_id, method, path)
// en el contexto; las capas inferiores lo recuperan con logger.From(ctx).
// Los jobs hacen lo mismo con Component/Job.
package logger
