package config

import (
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
)

// FileSystem is what the Resolver needs from the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// LoadEnv exports the variables in a .env file, keeping any already set.
func (RealFileSystem) LoadEnv(p string) error {
	return godotenv.Load(p)
}

// ResolvedFiles are the config and .env files chosen for a run. Either may
// be empty.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolver picks the config.yml and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles keeps explicit paths from opts and searches for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName))
	}
	return files
}

func (r *Resolver) first(candidates []string) string {
	for _, c := range candidates {
		if r.FileSystem.Exists(c) {
			return c
		}
	}
	return ""
}

// shortName drops everything up to the last dash: "acme-microhttp" is
// also looked up as "microhttp".
func shortName(serviceName string) string {
	if i := strings.LastIndex(serviceName, "-"); i >= 0 {
		return serviceName[i+1:]
	}
	return serviceName
}

// configCandidates lists config.yml and config.yaml under cmd/<service>,
// config/, the working directory and finally the user config directory.
func configCandidates(serviceName string) []string {
	names := []string{serviceName}
	if short := shortName(serviceName); short != serviceName {
		names = append(names, short)
	}
	var dirs []string
	for _, base := range []string{"./cmd/", "../cmd/"} {
		for _, n := range names {
			dirs = append(dirs, base+n)
		}
	}
	dirs = append(dirs, "./config", "../config", ".")
	if home, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, path.Join(home, serviceName))
	}

	var out []string
	for _, d := range dirs {
		out = append(out, d+"/config.yml", d+"/config.yaml")
	}
	return out
}

// envCandidates prefers .env.<service> over .env, each searched from the
// most specific directory outward.
func envCandidates(serviceName string) []string {
	dirs := envSearchDirs(serviceName)
	if short := shortName(serviceName); short != serviceName {
		dirs = append(dirs, envSearchDirs(short)...)
	}
	var out []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, d := range dirs {
			out = append(out, d+"/"+name)
		}
	}
	return out
}

func envSearchDirs(serviceName string) []string {
	var dirs []string
	for _, base := range []string{"cmd/" + serviceName, "config/" + serviceName, "config"} {
		dirs = append(dirs, "./"+base, "../"+base, "../../"+base)
	}
	return append(dirs, ".", "..", "../..")
}
