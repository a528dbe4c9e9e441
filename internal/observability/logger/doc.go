// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Decisiones de diseño
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva su propio logger "scoped" con campos
//     adicionales (correlation_id, tenant_id, user_id) sin crear un core nuevo.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Uso
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:         os.Getenv("APP_ENV"),
//	    Level:       os.Getenv("LOG_LEVEL"),
//	    ServiceName: "tenantcore",
//	})
//	defer logger.Sync()
//
// En middlewares/handlers/services:
//
//	log := logger.From(ctx).With(logger.Op("ContextService.Resolve"))
//	log.Info("context resolved", logger.TenantID(tid))
package logger
