package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"nostrly.lol/errorf"
)

// Env is a set of environment variables. It is a go-simpler.org/env Source.
type Env map[string]string

// LookupEnv returns the value of key.
func (e Env) LookupEnv(key string) (value string, ok bool) {
	value, ok = e[key]
	return
}

// Under returns a copy of e with the entries of over on top.
func (e Env) Under(over Env) (out Env) {
	out = make(Env, len(e)+len(over))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return
}

// OSEnv is the process environment.
func OSEnv() (e Env) {
	e = make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			e[k] = v
		}
	}
	return
}

// ReadEnvFile parses a .env file: KEY=VALUE lines, optionally prefixed with
// export, with # comments and optionally quoted values.
func ReadEnvFile(path string) (e Env, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return
	}
	defer f.Close()
	e = make(Env)
	s := bufio.NewScanner(f)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errorf.E("%s:%d: expected KEY=VALUE, got '%s'", path, n, line)
		}
		v = strings.TrimSpace(v)
		if len(v) > 1 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			v = v[1 : len(v)-1]
		}
		e[strings.TrimSpace(k)] = v
	}
	err = s.Err()
	return
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a collection of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV turns a struct with `env` tags into its environment variables,
// sorted by key. Pass the struct, not a pointer to it.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	v := reflect.ValueOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("env")
		if k == "" {
			continue
		}
		var val string
		switch fv := v.Field(i).Interface().(type) {
		case string:
			val = fv
		case []string:
			val = strings.Join(fv, ",")
		default:
			val = fmt.Sprint(fv)
		}
		m = append(m, KV{k, val})
	}
	sort.Sort(m)
	return
}
