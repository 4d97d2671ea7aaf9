package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func writeFile(t *testing.T, name, body string) string {
    t.Helper()
    p := filepath.Join(t.TempDir(), name)
    if err := os.WriteFile(p, []byte(body), 0o644); err != nil { t.Fatalf("write: %v", err) }
    return p
}

func TestDefaultsValidate(t *testing.T) {
    cfg := Default()
    if err := cfg.validate(); err != nil { t.Fatalf("default config invalid: %v", err) }
    if cfg.BBS.PayloadCeiling != 233 || cfg.BBS.SafetyMargin != 10 { t.Fatalf("unexpected limits: %+v", cfg.BBS) }
    if cfg.Menus[0].Name != "Main Menu" { t.Fatalf("root menu: %q", cfg.Menus[0].Name) }
}

func TestLoadYAML(t *testing.T) {
    p := writeFile(t, "meshbbs.yaml", `
app_name: testbbs
bbs:
  activation_keyword: "  HELLO "
  session_timeout: 90s
  borders:
    top: "--"
    bottom: "__"
menus:
  - name: Root
    options:
      - {context: echo, command: e, description: "[E]cho"}
      - {type: menu, menu: Sub, command: s, description: "[S]ub"}
  - name: Sub
    options:
      - {context: back, command: b, description: "[B]ack", role: admin}
transports:
  - kind: meshtastic-tcp
    dial: 10.0.0.5
storage:
  backend: memory
`)
    cfg, err := Load(p)
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.AppName != "testbbs" { t.Fatalf("app name: %q", cfg.AppName) }
    if cfg.BBS.ActivationKeyword != "hello" { t.Fatalf("keyword not normalized: %q", cfg.BBS.ActivationKeyword) }
    if cfg.BBS.SessionTimeout != 90*time.Second { t.Fatalf("timeout: %s", cfg.BBS.SessionTimeout) }
    if cfg.BBS.Borders.BorderTop != "--" || cfg.BBS.Borders.BorderBottom != "__" { t.Fatalf("borders: %+v", cfg.BBS.Borders) }
    if cfg.BBS.PayloadCeiling != 233 { t.Fatalf("ceiling default lost: %d", cfg.BBS.PayloadCeiling) }
    if len(cfg.Menus) != 2 || cfg.Menus[1].Options[0].Role != "admin" { t.Fatalf("menus: %+v", cfg.Menus) }
    if cfg.Menus[0].Options[0].Type != OptionCommand { t.Fatalf("option type default: %q", cfg.Menus[0].Options[0].Type) }
    if len(cfg.Transports) != 1 || cfg.Transports[0].Kind != "meshtastic-tcp" { t.Fatalf("transports: %+v", cfg.Transports) }
    if cfg.Transports[0].ProbeInterval != time.Second { t.Fatalf("probe default: %s", cfg.Transports[0].ProbeInterval) }
    if cfg.Storage.Backend != "memory" { t.Fatalf("backend: %q", cfg.Storage.Backend) }
}

func TestEnvOverride(t *testing.T) {
    t.Setenv("MESHBBS_BBS_ACTIVATION_KEYWORD", "Mesh")
    t.Setenv("MESHBBS_LOG_LEVEL", "debug")
    p := writeFile(t, "meshbbs.yaml", "app_name: x\n")
    cfg, err := Load(p)
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.BBS.ActivationKeyword != "mesh" || cfg.Log.Level != "debug" { t.Fatalf("env not applied: %+v %+v", cfg.BBS, cfg.Log) }
}

func TestValidateRejects(t *testing.T) {
    cases := map[string]string{
        "level":      "log: {level: loud}\n",
        "kind":       "transports: [{kind: carrier-pigeon}]\n",
        "backend":    "storage: {backend: etcd}\n",
        "menu-ref":   "menus: [{name: A, options: [{type: menu, menu: Nope, command: n}]}]\n",
        "dup-menu":   "menus: [{name: A}, {name: a}]\n",
        "no-ctx":     "menus: [{name: A, options: [{command: x}]}]\n",
        "margin":     "bbs: {safety_margin: 500}\n",
        "margin-low": "bbs: {safety_margin: 2}\n",
        "usernames":  "bbs: {username_min_length: 8, username_max_length: 4}\n",
    }
    for name, body := range cases {
        p := writeFile(t, "meshbbs.yaml", body)
        if _, err := Load(p); err == nil { t.Fatalf("%s: expected validation error", name) }
    }
}

func TestFindMenuAndDataPath(t *testing.T) {
    cfg := Default()
    if _, ok := FindMenu(cfg.Menus, "games"); !ok { t.Fatalf("games menu not found") }
    if _, ok := FindMenu(cfg.Menus, "nope"); ok { t.Fatalf("unexpected menu") }
    if got := cfg.DataPath("bbs.db"); got != filepath.Join("./data", "bbs.db") { t.Fatalf("data path: %q", got) }
    if got := cfg.DataPath(":memory:"); got != ":memory:" { t.Fatalf("memory path: %q", got) }
}

func TestExampleConfigLoads(t *testing.T) {
    cfg, err := Load(filepath.Join("..", "..", "configs", "meshbbs.yaml"))
    if err != nil { t.Fatalf("example config: %v", err) }
    if len(cfg.Menus) != 4 || len(cfg.Transports) != 2 { t.Fatalf("menus=%d transports=%d", len(cfg.Menus), len(cfg.Transports)) }
    if cfg.Transports[1].Pacing.Burst != 466 || cfg.Transports[1].Backoff.Jitter != 500*time.Millisecond { t.Fatalf("radio: %+v", cfg.Transports[1]) }
}
