// Package providers holds the builder providers that bind the ambient
// services (configuration, logger, metrics collector) into every container an
// application builds.
//
//	b.AddProvider(&providers.ConfigProvider{Config: cfg})
//	b.AddProvider(&providers.LoggingProvider{Logger: logger})
//
// Each binds a short identifier and the instance's class name, so services
// can receive them by declaring a field of the matching pointer type:
//
//	type Importer struct {
//	    Logger *slog.Logger
//	}
package providers
