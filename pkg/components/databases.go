package components

import (
	"path/filepath"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// Fixed infrastructure images. These are plumbing rather than subjects of
// experimentation, so they are not configurable.
const (
	RedisImage    = "redis:7-alpine"
	PostgresImage = "postgres:15-alpine"
)

// Redis builds the relay's cache. Persistence is off; the relay's cached
// state is worthless across restarts. No host port is published, the cache
// is only reachable inside the playground network.
func Redis() *service.Service {
	return &service.Service{
		Name:     NameRedis,
		Image:    RedisImage,
		StaticIP: config.IPRedis,
		Command:  []string{"redis-server", "--appendonly", "no", "--save", ""},
		Health: &service.Probe{
			Test:        []string{"CMD", "redis-cli", "ping"},
			Interval:    3 * time.Second,
			Timeout:     2 * time.Second,
			Retries:     5,
			StartPeriod: 3 * time.Second,
		},
	}
}

// Postgres builds one of the relay's three database instances (mevdb,
// localdb, globaldb). The postgres entrypoint needs to start as root to drop
// privileges itself via gosu.
func Postgres(cfg *config.Config, name, staticIP string) (*service.Service, error) {
	dataDir := cfg.ServiceDataDir(filepath.Join("postgres", name))
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}

	return &service.Service{
		Name:     name,
		Image:    PostgresImage,
		StaticIP: staticIP,
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		Mounts: []service.Mount{
			{Source: dataDir, Target: "/var/lib/postgresql/data"},
		},
		Health: &service.Probe{
			Test:        []string{"CMD-SHELL", "pg_isready -U postgres"},
			Interval:    3 * time.Second,
			Timeout:     2 * time.Second,
			Retries:     10,
			StartPeriod: 5 * time.Second,
		},
		User: "root",
	}, nil
}

// RelayDatabases builds the three postgres instances the relay expects.
func RelayDatabases(cfg *config.Config) ([]*service.Service, error) {
	instances := []struct {
		name string
		ip   string
	}{
		{NameMevDB, config.IPMevDB},
		{NameLocalDB, config.IPLocalDB},
		{NameGlobalDB, config.IPGlobalDB},
	}

	out := make([]*service.Service, 0, len(instances))
	for _, inst := range instances {
		svc, err := Postgres(cfg, inst.name, inst.ip)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}
