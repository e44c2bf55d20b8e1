package main

import (
	"flag"
	"os"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/admin"
	"github.com/VehiCheck/VehiCheck/internal/asset"
	"github.com/VehiCheck/VehiCheck/internal/common/config"
	"github.com/VehiCheck/VehiCheck/internal/common/db"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/VehiCheck/VehiCheck/internal/common/tracing"
	"github.com/VehiCheck/VehiCheck/internal/inspection"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"github.com/VehiCheck/VehiCheck/internal/report"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
	"github.com/go-chi/chi/v5"
	"github.com/opentracing/opentracing-go"
)

func main() {
	configPath := flag.String("config", "configs/inspection-service.json", "path to the config file")
	consulKey := flag.String("config-consul-key", "", "Consul KV key holding the config JSON; overrides -config")
	consulAddr := flag.String("consul-addr", "localhost", "Consul agent host for -config-consul-key")
	consulPort := flag.Int("consul-port", 8500, "Consul agent port for -config-consul-key")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulAddr, *consulPort, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	tracer, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("tracing disabled: %v", err)
	} else {
		opentracing.SetGlobalTracer(tracer)
		defer closer.Close()
	}

	gdb, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Errorf("connect database: %v", err)
		os.Exit(1)
	}

	err = gdb.AutoMigrate(
		&profile.Company{}, &profile.User{}, &profile.UserProfile{},
		&vehicle.Vehicle{},
		&inspection.Detail{}, &inspection.Point{}, &inspection.PointImage{},
		&asset.TextImage{},
	)
	if err != nil {
		log.Errorf("migrate schema: %v", err)
		os.Exit(1)
	}

	profileRepo := profile.NewRepo(gdb)
	resolver := access.NewResolver(profileRepo)

	vehicleRepo := vehicle.NewRepo(gdb)
	vehicleSvc := vehicle.NewService(vehicleRepo, log)

	inspectionRepo := inspection.NewRepo(gdb)
	inspectionSvc := inspection.NewService(inspectionRepo, log)

	reportRepo := report.NewRepo(gdb)
	reportSvc := report.NewService(reportRepo, vehicleSvc, vehicleRepo, inspectionRepo)
	mailer := report.NewMailer(cfg.Mail, log)

	assetRepo := asset.NewRepo(gdb)

	registry := admin.NewRegistry()
	mustRegister(log, registry, admin.EntityConfig{
		Name:         "vehiculos",
		Label:        "Vehículos",
		ListColumns:  []string{"numero_orden", "placa", "marca", "modelo", "fecha_registro"},
		SearchFields: []string{"placa", "marca", "modelo", "numero_orden"},
	})
	mustRegister(log, registry, admin.EntityConfig{
		Name:        "empresas",
		Label:       "Empresas",
		ListColumns: []string{"nombre"},
	})
	mustRegister(log, registry, admin.EntityConfig{
		Name:         "usuarios",
		Label:        "Usuarios",
		ListColumns:  []string{"username", "cargo", "empresa"},
		SearchFields: []string{"username"},
	})
	mustRegister(log, registry, admin.EntityConfig{
		Name:        "imagenes_texto",
		Label:       "Imágenes con texto",
		ListColumns: []string{"titulo"},
	})

	handlers := []interface{ Register(chi.Router) }{
		profile.NewHandler(profileRepo, cfg.Auth, log),
		vehicle.NewHandler(vehicleSvc, resolver, log),
		inspection.NewHandler(inspectionSvc, vehicleSvc, resolver, log),
		report.NewHandler(reportSvc, mailer, resolver, profileRepo, log),
		asset.NewHandler(assetRepo, resolver),
		admin.NewHandler(registry, resolver),
		admin.NewUsersHandler(profileRepo, resolver, log),
	}

	err = server.RunHTTPServer(cfg, log, func(r chi.Router) {
		for _, h := range handlers {
			h.Register(r)
		}
	})
	if err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}

func mustRegister(log logger.Logger, r *admin.Registry, cfg admin.EntityConfig) {
	if err := r.Register(cfg); err != nil {
		log.Errorf("register admin entity %s: %v", cfg.Name, err)
		os.Exit(1)
	}
}
